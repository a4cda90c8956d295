package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/utils"
)

// RequireRole aborts with 403 unless the authenticated user's role is
// one of the given roles. It assumes JWTAuth already ran and stored the
// "role" claim in the context.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return utils.Fail(c, http.StatusForbidden, "admin access required", "FORBIDDEN", nil)
			}
			return next(c)
		}
	}
}
