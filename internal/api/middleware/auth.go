package middleware

import (
	"errors"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/reserved-realm/internal/api/metrics"
	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/core/ports"
)

// ContextIdentity is the echo context key holding the *domain.Identity of the
// authenticated caller.
const ContextIdentity = "identity"

// Provenance describes where the request came from. Only the socket peer
// address is used: forwarding headers are client-controlled and would let a
// remote caller claim loopback.
func Provenance(c echo.Context) domain.RequestProvenance {
	addr, _ := netip.ParseAddrPort(c.Request().RemoteAddr)
	return domain.RequestProvenance{RemoteAddr: addr, Channel: domain.ChannelREST}
}

// IdentityFrom returns the identity set by Auth, or nil.
func IdentityFrom(c echo.Context) *domain.Identity {
	id, _ := c.Get(ContextIdentity).(*domain.Identity)
	return id
}

// Auth resolves the caller through the reserved realm. Basic credentials are
// checked against the realm directly; bearer tokens are verified and their
// subject looked up again so a disabled account loses access immediately and
// a token issued before the last password change stops working.
// Disabled identities are rejected here.
func Auth(realm ports.ReservedRealm, tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Basic realm="security" charset="UTF-8"`)
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			scheme, _, _ := strings.Cut(authHeader, " ")
			var (
				id  *domain.Identity
				err error
			)
			switch {
			case strings.EqualFold(scheme, "basic"):
				id, err = basicAuth(c, realm)
			case strings.EqualFold(scheme, "bearer"):
				id, err = bearerAuth(c, realm, tokens)
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			if err != nil {
				return err
			}

			if !id.Enabled {
				metrics.AuthFailuresTotal.WithLabelValues("disabled").Inc()
				return domain.ErrUserDisabled
			}

			c.Set(ContextIdentity, id)
			return next(c)
		}
	}
}

func basicAuth(c echo.Context, realm ports.ReservedRealm) (*domain.Identity, error) {
	username, password, ok := c.Request().BasicAuth()
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	creds := domain.Credentials{Username: username, Password: domain.SecureBytes(password)}
	defer creds.Password.Wipe()

	ctx := c.Request().Context()
	start := time.Now()
	out, err := realm.Authenticate(ctx, creds, Provenance(c)).Await(ctx)
	metrics.AuthDuration.WithLabelValues("basic").Observe(time.Since(start).Seconds())
	metrics.AuthAttemptsTotal.WithLabelValues("basic", out.Status.String()).Inc()

	if err != nil {
		metrics.AuthFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	if out.Status != domain.OutcomeAuthenticated {
		// no other realm is chained behind this one
		metrics.AuthFailuresTotal.WithLabelValues("unknown_user").Inc()
		return nil, &domain.AuthenticationError{Principal: username}
	}
	return out.Identity, nil
}

func bearerAuth(c echo.Context, realm ports.ReservedRealm, tokens ports.TokenService) (*domain.Identity, error) {
	_, token, _ := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
	claims, err := tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("bearer", domain.OutcomeFailed.String()).Inc()
		metrics.AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	ctx := c.Request().Context()
	id, err := realm.Lookup(ctx, claims.Username).Await(ctx)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("bearer", domain.OutcomeFailed.String()).Inc()
		metrics.AuthFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	if id == nil {
		metrics.AuthAttemptsTotal.WithLabelValues("bearer", domain.OutcomeFailed.String()).Inc()
		metrics.AuthFailuresTotal.WithLabelValues("unknown_user").Inc()
		return nil, &domain.AuthenticationError{Principal: claims.Username}
	}
	if claims.PasswordStamp != id.PasswordStamp() {
		metrics.AuthAttemptsTotal.WithLabelValues("bearer", domain.OutcomeFailed.String()).Inc()
		metrics.AuthFailuresTotal.WithLabelValues("stale_token").Inc()
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "token was issued before the password changed")
	}
	metrics.AuthAttemptsTotal.WithLabelValues("bearer", domain.OutcomeAuthenticated.String()).Inc()
	return id, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMigrationPending):
		return "migration_pending"
	case errors.Is(err, domain.ErrLookupFailed):
		return "lookup_failed"
	default:
		return "bad_credentials"
	}
}
