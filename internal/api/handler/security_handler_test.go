package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/reserved-realm/internal/api/middleware"
	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/core/ports"
	"github.com/99minutos/reserved-realm/internal/core/service"
	"github.com/99minutos/reserved-realm/internal/pkg/async"
)

type stubRealm struct {
	usersFn          func() ([]*domain.Identity, error)
	lookupFn         func(username string) (*domain.Identity, error)
	changePasswordFn func(username string, password domain.SecureBytes) error
	setEnabledFn     func(username string, enabled bool) error
}

func (s *stubRealm) Authenticate(context.Context, domain.Credentials, domain.RequestProvenance) *async.Future[domain.AuthenticationOutcome] {
	return async.Resolved(domain.NotApplicable())
}

func (s *stubRealm) Lookup(_ context.Context, username string) *async.Future[*domain.Identity] {
	id, err := s.lookupFn(username)
	if err != nil {
		return async.Failed[*domain.Identity](err)
	}
	return async.Resolved(id)
}

func (s *stubRealm) Users(context.Context) *async.Future[[]*domain.Identity] {
	users, err := s.usersFn()
	if err != nil {
		return async.Failed[[]*domain.Identity](err)
	}
	return async.Resolved(users)
}

func (s *stubRealm) ChangePassword(_ context.Context, username string, password domain.SecureBytes) *async.Future[struct{}] {
	if err := s.changePasswordFn(username, password); err != nil {
		return async.Failed[struct{}](err)
	}
	return async.Resolved(struct{}{})
}

func (s *stubRealm) SetEnabled(_ context.Context, username string, enabled bool) *async.Future[struct{}] {
	if err := s.setEnabledFn(username, enabled); err != nil {
		return async.Failed[struct{}](err)
	}
	return async.Resolved(struct{}{})
}

func (s *stubRealm) BootstrapElasticPassword(context.Context, domain.SecureBytes) *async.Future[bool] {
	return async.Resolved(false)
}

type recordingEvents struct {
	recorded []ports.SecurityEventInput
	recent   []*domain.SecurityEvent
	err      error
	lastUser string
	lastLim  int
}

func (r *recordingEvents) Record(_ context.Context, in ports.SecurityEventInput) {
	r.recorded = append(r.recorded, in)
}

func (r *recordingEvents) Recent(_ context.Context, username string, limit int) ([]*domain.SecurityEvent, error) {
	r.lastUser, r.lastLim = username, limit
	return r.recent, r.err
}

func identityOf(principal string, enabled, setupMode bool) *domain.Identity {
	account, _ := domain.LookupReservedAccount(principal)
	return account.Identity(enabled, setupMode)
}

func newContext(method, target, body string, id *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != nil {
		c.Set(middleware.ContextIdentity, id)
	}
	return c, rec
}

func TestSecurityHandler_Authenticate(t *testing.T) {
	h := NewSecurityHandler(&stubRealm{}, service.NewTokenService("secret", time.Minute), &recordingEvents{})
	c, rec := newContext(http.MethodGet, "/_security/_authenticate", "", identityOf(domain.ElasticUsername, true, true))

	if err := h.Authenticate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != domain.ElasticUsername || resp["setup_mode"] != true {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	realm, _ := resp["authentication_realm"].(map[string]any)
	if realm["name"] != "reserved" {
		t.Fatalf("expected the reserved realm, got %+v", realm)
	}
}

func TestSecurityHandler_AuthenticateWithoutIdentity(t *testing.T) {
	h := NewSecurityHandler(&stubRealm{}, service.NewTokenService("secret", time.Minute), &recordingEvents{})
	c, _ := newContext(http.MethodGet, "/_security/_authenticate", "", nil)

	var he *echo.HTTPError
	if err := h.Authenticate(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestSecurityHandler_CreateToken(t *testing.T) {
	tokens := service.NewTokenService("secret", time.Minute)
	h := NewSecurityHandler(&stubRealm{}, tokens, &recordingEvents{})
	c, rec := newContext(http.MethodPost, "/_security/token", "", identityOf(domain.KibanaUsername, true, false))

	if err := h.CreateToken(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Type != "Bearer" || resp.ExpiresIn != 60 {
		t.Fatalf("unexpected token response %+v", resp)
	}
	claims, err := tokens.Parse(resp.AccessToken)
	if err != nil || claims.Username != domain.KibanaUsername {
		t.Fatalf("token does not verify: %+v, %v", claims, err)
	}
}

func TestSecurityHandler_ListUsers(t *testing.T) {
	realm := &stubRealm{
		usersFn: func() ([]*domain.Identity, error) {
			return []*domain.Identity{
				identityOf(domain.ElasticUsername, true, false),
				identityOf(domain.KibanaUsername, false, false),
			}, nil
		},
	}
	events := &recordingEvents{}
	h := NewSecurityHandler(realm, service.NewTokenService("secret", time.Minute), events)
	c, rec := newContext(http.MethodGet, "/_security/user", "", identityOf(domain.ElasticUsername, true, false))

	if err := h.ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]domain.Identity
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[domain.KibanaUsername].Enabled {
		t.Fatalf("unexpected users %+v", resp)
	}
}

func TestSecurityHandler_ListUsersStoreFailure(t *testing.T) {
	realm := &stubRealm{
		usersFn: func() ([]*domain.Identity, error) { return nil, domain.ErrLookupFailed },
	}
	events := &recordingEvents{}
	h := NewSecurityHandler(realm, service.NewTokenService("secret", time.Minute), events)
	c, _ := newContext(http.MethodGet, "/_security/user", "", nil)

	if err := h.ListUsers(c); !errors.Is(err, domain.ErrLookupFailed) {
		t.Fatalf("expected lookup failure, got %v", err)
	}
}

func TestSecurityHandler_GetUser(t *testing.T) {
	realm := &stubRealm{
		lookupFn: func(username string) (*domain.Identity, error) {
			if username == domain.BeatsSystemUsername {
				return identityOf(username, true, false), nil
			}
			return nil, nil
		},
	}
	events := &recordingEvents{}
	h := NewSecurityHandler(realm, service.NewTokenService("secret", time.Minute), events)

	c, rec := newContext(http.MethodGet, "/", "", nil)
	c.SetParamNames("username")
	c.SetParamValues(domain.BeatsSystemUsername)
	if err := h.GetUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"beats_system"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	c, _ = newContext(http.MethodGet, "/", "", nil)
	c.SetParamNames("username")
	c.SetParamValues("foobar")
	if err := h.GetUser(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSecurityHandler_ChangePassword(t *testing.T) {
	var gotUser, gotPassword string
	realm := &stubRealm{
		changePasswordFn: func(username string, password domain.SecureBytes) error {
			gotUser, gotPassword = username, string(password)
			return nil
		},
	}
	events := &recordingEvents{}
	h := NewSecurityHandler(realm, service.NewTokenService("secret", time.Minute), events)

	c, rec := newContext(http.MethodPut, "/", `{"password":"s3cret!"}`, identityOf(domain.ElasticUsername, true, false))
	c.Request().RemoteAddr = "[::ffff:127.0.0.1]:5000"
	c.SetParamNames("username")
	c.SetParamValues(domain.KibanaUsername)
	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || gotUser != domain.KibanaUsername || gotPassword != "s3cret!" {
		t.Fatalf("unexpected change: %d %s %s", rec.Code, gotUser, gotPassword)
	}
	want := ports.SecurityEventInput{
		Type:     domain.EventPasswordChanged,
		Username: domain.KibanaUsername,
		Actor:    domain.ElasticUsername,
		Source:   "127.0.0.1",
	}
	if len(events.recorded) != 1 || events.recorded[0] != want {
		t.Fatalf("unexpected audit events %+v", events.recorded)
	}
}

func TestSecurityHandler_ChangePasswordValidation(t *testing.T) {
	realm := &stubRealm{
		changePasswordFn: func(string, domain.SecureBytes) error {
			t.Fatalf("realm must not be called for an invalid payload")
			return nil
		},
	}
	events := &recordingEvents{}
	h := NewSecurityHandler(realm, service.NewTokenService("secret", time.Minute), events)

	for _, body := range []string{`{"password":"short"}`, `{}`, `not json`} {
		c, _ := newContext(http.MethodPut, "/", body, nil)
		c.SetParamNames("username")
		c.SetParamValues(domain.KibanaUsername)

		var he *echo.HTTPError
		if err := h.ChangePassword(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %v", body, err)
		}
	}
}

func TestSecurityHandler_DisableUser(t *testing.T) {
	var got []bool
	realm := &stubRealm{
		setEnabledFn: func(username string, enabled bool) error {
			if username == "foobar" {
				return domain.ErrUserNotFound
			}
			got = append(got, enabled)
			return nil
		},
	}
	events := &recordingEvents{}
	h := NewSecurityHandler(realm, service.NewTokenService("secret", time.Minute), events)

	c, _ := newContext(http.MethodPut, "/", "", nil)
	c.SetParamNames("username")
	c.SetParamValues(domain.LogstashSystemUsername)
	if err := h.DisableUser(c); err != nil {
		t.Fatalf("disable: %v", err)
	}
	c, _ = newContext(http.MethodPut, "/", "", nil)
	c.SetParamNames("username")
	c.SetParamValues(domain.LogstashSystemUsername)
	if err := h.EnableUser(c); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if len(got) != 2 || got[0] || !got[1] {
		t.Fatalf("unexpected calls %v", got)
	}
	if len(events.recorded) != 2 ||
		events.recorded[0].Type != domain.EventUserDisabled ||
		events.recorded[1].Type != domain.EventUserEnabled {
		t.Fatalf("unexpected audit events %+v", events.recorded)
	}

	c, _ = newContext(http.MethodPut, "/", "", nil)
	c.SetParamNames("username")
	c.SetParamValues("foobar")
	if err := h.DisableUser(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(events.recorded) != 2 {
		t.Fatalf("failed changes must not be audited")
	}
}
