package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hemanto/magazine-backend/internal/model"
)

// RequireRootAdmin aborts with 403 unless the loaded principal holds the
// root-admin role together with the wildcard department. Holding the role
// alone is not enough; the pair is what marks the root account. Assumes
// LoadPrincipal ran earlier in the chain.
func RequireRootAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := c.Get(principalKey).(model.Principal)
			if !ok || !p.IsRoot() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
