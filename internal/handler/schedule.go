package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/scheduler"
	"github.com/iliyamo/smart-parking/internal/utils"
)

// ScheduleHandler exposes the reconciliation passes as admin-only PATCH
// endpoints, useful when a stuck slot should be repaired without
// waiting for the next tick.
type ScheduleHandler struct {
	Engine *scheduler.Engine
}

func NewScheduleHandler(e *scheduler.Engine) *ScheduleHandler {
	return &ScheduleHandler{Engine: e}
}

func (h *ScheduleHandler) runPass(c echo.Context, message string, pass func(context.Context) (int, error)) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := pass(ctx)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "reconciliation pass failed", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, message, echo.Map{"updated": n})
}

// Activate runs pass 1 (reserve slots for covering reservations).
func (h *ScheduleHandler) Activate(c echo.Context) error {
	return h.runPass(c, "slots reserved by reservation", h.Engine.ActivateReservations)
}

// ReleaseEnded runs pass 2 (free slots whose reservation ended).
func (h *ScheduleHandler) ReleaseEnded(c echo.Context) error {
	return h.runPass(c, "slots set to available", h.Engine.ReleaseEndedReservations)
}

// Complete runs pass 3 (finish ended reservations on free slots).
func (h *ScheduleHandler) Complete(c echo.Context) error {
	return h.runPass(c, "reservations set to completed", h.Engine.CompleteFinishedReservations)
}

// ReleaseCancelled runs pass 4 (free slots stuck after cancellation).
func (h *ScheduleHandler) ReleaseCancelled(c echo.Context) error {
	return h.runPass(c, "slots set to available by cancelled reservation", h.Engine.ReleaseCancelledReservations)
}
