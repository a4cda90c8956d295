// Package middleware contains reusable HTTP middleware: JWT
// authentication, role checks, Redis response caching and rate
// limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/utils"
)

// JWTAuth validates a Bearer access token and injects the numeric user
// id and role into the request context under "user_id" and "role".
// Wrap protected routes with it; handlers read the identity via
// c.Get.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return utils.Fail(c, http.StatusUnauthorized, "missing bearer token", "UNAUTHORIZED", nil)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return utils.Fail(c, http.StatusUnauthorized, "invalid or expired token", "UNAUTHORIZED", nil)
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return utils.Fail(c, http.StatusUnauthorized, "invalid token claims", "UNAUTHORIZED", nil)
			}

			// MapClaims decodes JSON numbers as float64.
			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return utils.Fail(c, http.StatusUnauthorized, "invalid token subject", "UNAUTHORIZED", nil)
			}
			role, _ := claims["role"].(string)

			c.Set("user_id", int64(sub))
			c.Set("role", role)
			return next(c)
		}
	}
}
