package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/handler"
	"github.com/iliyamo/smart-parking/internal/middleware"
	"github.com/iliyamo/smart-parking/internal/model"
)

// RegisterParking registers the driver-facing endpoints under /v1. All
// routes require a valid JWT; both DRIVER and ADMIN roles are accepted
// so admins can use the app like any driver. Extra middleware (rate
// limiter, response cache) runs after JWTAuth so it sees the
// authenticated user.
func RegisterParking(e *echo.Echo, slots *handler.SlotHandler, parking *handler.ParkingHandler,
	reservations *handler.ReservationHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {

	mw := append([]echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleDriver, model.RoleAdmin),
	}, extra...)
	g := e.Group("/v1", mw...)

	g.GET("/slots", slots.List)
	g.GET("/slots/available", slots.ListAvailable)
	g.GET("/slots/:id", slots.GetByID)

	g.POST("/parking/checkin", parking.CheckIn)
	g.POST("/parking/checkout", parking.CheckOut)
	g.GET("/parking/current", parking.Current)
	g.GET("/parking/history", parking.History)

	g.POST("/reservations", reservations.Create)
	g.GET("/reservations", reservations.List)
	g.DELETE("/reservations/:id", reservations.Cancel)
}
