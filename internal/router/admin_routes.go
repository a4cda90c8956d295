package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/handler"
	"github.com/iliyamo/smart-parking/internal/middleware"
	"github.com/iliyamo/smart-parking/internal/model"
)

// RegisterAdmin registers the ADMIN-only surface: slot writes, acting
// on behalf of users, fleet-wide listings, user management and the
// manual reconciliation triggers.
func RegisterAdmin(e *echo.Echo, slots *handler.SlotHandler, parking *handler.ParkingHandler,
	reservations *handler.ReservationHandler, users *handler.UserHandler,
	schedule *handler.ScheduleHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {

	mw := append([]echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	}, extra...)
	g := e.Group("/v1", mw...)

	g.POST("/slots", slots.Create)
	g.PUT("/slots/:id/status", slots.UpdateStatus)
	g.DELETE("/slots/:id", slots.Delete)

	g.POST("/parking/admin/checkin", parking.AdminCheckIn)
	g.POST("/parking/admin/checkout", parking.AdminCheckOut)
	g.GET("/parking/admin/all", parking.AdminAll)

	g.GET("/reservations/admin/all", reservations.AdminList)
	g.POST("/reservations/admin/create-user-reservation", reservations.AdminCreate)
	g.DELETE("/reservations/admin/:id", reservations.AdminCancel)

	g.GET("/users", users.List)
	g.GET("/users/admin/by-plate", users.FindByPlate)
	g.GET("/users/admin/roles", users.Roles)
	g.POST("/users/admin/roles", users.AssignRole)
	g.GET("/users/:id", users.GetByID)
	g.PUT("/users/:id", users.Update)
	g.DELETE("/users/:id", users.Delete)

	// Manual reconciliation triggers, one per engine pass. The bare
	// /schedule route runs the activation pass for parity with the
	// periodic job's first step.
	g.PATCH("/schedule", schedule.Activate)
	g.PATCH("/schedule/available", schedule.ReleaseEnded)
	g.PATCH("/schedule/complete-reservations", schedule.Complete)
	g.PATCH("/schedule/available-by-cancelled", schedule.ReleaseCancelled)
}
