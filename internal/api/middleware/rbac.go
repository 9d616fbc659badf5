package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/reserved-realm/internal/core/domain"
)

// RBAC enforces role-based access control on the identity set by Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !hasAnyRole(IdentityFrom(c), allowedRoles) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RBACOrSelf is RBAC that also admits the user named by the path parameter
// param.
func RBACOrSelf(param string, allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := IdentityFrom(c)
			if id != nil && id.Username == c.Param(param) {
				return next(c)
			}
			if !hasAnyRole(id, allowedRoles) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

func hasAnyRole(id *domain.Identity, roles []string) bool {
	if id == nil {
		return false
	}
	for _, r := range roles {
		if id.HasRole(r) {
			return true
		}
	}
	return false
}
