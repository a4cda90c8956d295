// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/handler"
	"github.com/iliyamo/smart-parking/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints. Register, login, refresh
// and logout live outside the JWT middleware; profile requires a valid
// access token. Extra middleware (the rate limiter) runs before
// authentication here, so its keys fall back to ip+anon — which is the
// right shape for brute-force protection on login. Responses on this
// group are never cached.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", extra...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout validates its own credentials (bearer or refresh token) so
	// a client whose access token expired can still end its session.
	g.POST("/logout", a.Logout)

	g.GET("/profile", a.Profile, middleware.JWTAuth(jwtSecret))
}
