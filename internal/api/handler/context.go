package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/reserved-realm/internal/api/middleware"
	"github.com/99minutos/reserved-realm/internal/core/domain"
)

// currentIdentity returns the caller resolved by the Auth middleware. A
// missing identity means the route was mounted without Auth.
func currentIdentity(c echo.Context) (*domain.Identity, error) {
	id := middleware.IdentityFrom(c)
	if id == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return id, nil
}
