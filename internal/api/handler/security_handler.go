package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/reserved-realm/internal/api/metrics"
	"github.com/99minutos/reserved-realm/internal/api/middleware"
	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/core/ports"
)

const realmName = "reserved"

type SecurityHandler struct {
	realm  ports.ReservedRealm
	tokens ports.TokenService
	events ports.EventService
}

func NewSecurityHandler(realm ports.ReservedRealm, tokens ports.TokenService, events ports.EventService) *SecurityHandler {
	return &SecurityHandler{realm: realm, tokens: tokens, events: events}
}

type realmRef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type authenticateResponse struct {
	*domain.Identity
	AuthenticationRealm realmRef `json:"authentication_realm"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Type        string `json:"type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type changePasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// Authenticate returns the caller's identity.
//
// @Summary      Current identity
// @Tags         security
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  authenticateResponse
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /_security/_authenticate [get]
func (h *SecurityHandler) Authenticate(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authenticateResponse{
		Identity:            id,
		AuthenticationRealm: realmRef{Name: realmName, Type: realmName},
	})
}

// CreateToken issues a bearer token for the caller.
//
// @Summary      Issue access token
// @Tags         security
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  tokenResponse
// @Failure      401  {object}  map[string]string
// @Router       /_security/token [post]
func (h *SecurityHandler) CreateToken(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	token, err := h.tokens.Issue(id)
	if err != nil {
		return err
	}
	metrics.TokensIssuedTotal.Inc()
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		Type:        "Bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}

// ListUsers lists every identity the realm can produce, keyed by username.
//
// @Summary      List users
// @Tags         security
// @Produce      json
// @Security     BasicAuth
// @Success      200  {object}  map[string]domain.Identity
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /_security/user [get]
func (h *SecurityHandler) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	users, err := h.realm.Users(ctx).Await(ctx)
	if err != nil {
		return err
	}
	out := make(map[string]*domain.Identity, len(users))
	for _, u := range users {
		out[u.Username] = u
	}
	return c.JSON(http.StatusOK, out)
}

// GetUser looks up a single user.
//
// @Summary      Get user
// @Tags         security
// @Produce      json
// @Security     BasicAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  map[string]domain.Identity
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /_security/user/{username} [get]
func (h *SecurityHandler) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	username := c.Param("username")
	id, err := h.realm.Lookup(ctx, username).Await(ctx)
	if err != nil {
		return err
	}
	if id == nil {
		return domain.ErrUserNotFound
	}
	return c.JSON(http.StatusOK, map[string]*domain.Identity{id.Username: id})
}

// ChangePassword replaces a reserved user's password.
//
// @Summary      Change password
// @Tags         security
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        username  path      string                 true  "Username"
// @Param        body      body      changePasswordRequest  true  "New password"
// @Success      200       {object}  map[string]string
// @Failure      400       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Failure      503       {object}  map[string]string
// @Router       /_security/user/{username}/_password [put]
func (h *SecurityHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	password := domain.SecureBytes(req.Password)
	defer password.Wipe()

	ctx := c.Request().Context()
	username := c.Param("username")
	if _, err := h.realm.ChangePassword(ctx, username, password).Await(ctx); err != nil {
		metrics.PasswordChangesTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.PasswordChangesTotal.WithLabelValues("ok").Inc()
	h.record(ctx, c, domain.EventPasswordChanged, username)
	return c.JSON(http.StatusOK, map[string]string{})
}

// EnableUser re-enables a reserved user.
//
// @Summary      Enable user
// @Tags         security
// @Produce      json
// @Security     BasicAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /_security/user/{username}/_enable [put]
func (h *SecurityHandler) EnableUser(c echo.Context) error {
	return h.setEnabled(c, true)
}

// DisableUser disables a reserved user. Its password is kept.
//
// @Summary      Disable user
// @Tags         security
// @Produce      json
// @Security     BasicAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /_security/user/{username}/_disable [put]
func (h *SecurityHandler) DisableUser(c echo.Context) error {
	return h.setEnabled(c, false)
}

func (h *SecurityHandler) setEnabled(c echo.Context, enabled bool) error {
	ctx := c.Request().Context()
	username := c.Param("username")
	if _, err := h.realm.SetEnabled(ctx, username, enabled).Await(ctx); err != nil {
		return err
	}
	event := domain.EventUserDisabled
	if enabled {
		event = domain.EventUserEnabled
	}
	h.record(ctx, c, event, username)
	return c.JSON(http.StatusOK, map[string]string{})
}

func (h *SecurityHandler) record(ctx context.Context, c echo.Context, t domain.SecurityEventType, username string) {
	in := ports.SecurityEventInput{Type: t, Username: username}
	if id := middleware.IdentityFrom(c); id != nil {
		in.Actor = id.Username
	}
	if addr := middleware.Provenance(c).RemoteAddr; addr.IsValid() {
		in.Source = addr.Addr().Unmap().String()
	}
	h.events.Record(ctx, in)
}
