package api

import (
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/99minutos/reserved-realm/internal/api/handler"
	"github.com/99minutos/reserved-realm/internal/api/middleware"
	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/core/ports"
)

// httpMetrics registers the HTTP collectors once per process.
var httpMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware("realm")
})

// NewRouter builds and returns the Echo instance with the security routes
// registered. Operational routes are mounted separately.
//
// @title                      Reserved Realm API
// @version                    1.0
// @description                Authentication and credential management for the built-in reserved accounts.
// @BasePath                   /
// @securityDefinitions.basic  BasicAuth
func NewRouter(realm ports.ReservedRealm, tokens ports.TokenService, events ports.EventService, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(httpMetrics())

	// --- Dependencies ---
	securityHandler := handler.NewSecurityHandler(realm, tokens, events)
	eventHandler := handler.NewEventHandler(events)
	auth := middleware.Auth(realm, tokens)
	superuser := middleware.RBAC(domain.RoleSuperuser)

	// --- Security routes ---
	sec := e.Group("/_security", auth)
	sec.GET("/_authenticate", securityHandler.Authenticate)
	sec.POST("/token", securityHandler.CreateToken)
	sec.GET("/user", securityHandler.ListUsers, superuser)
	sec.GET("/user/:username", securityHandler.GetUser, superuser)
	sec.PUT("/user/:username/_password", securityHandler.ChangePassword, middleware.RBACOrSelf("username", domain.RoleSuperuser))
	sec.PUT("/user/:username/_enable", securityHandler.EnableUser, superuser)
	sec.PUT("/user/:username/_disable", securityHandler.DisableUser, superuser)
	sec.GET("/_audit", eventHandler.List, superuser)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
