package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/model"
	"github.com/iliyamo/smart-parking/internal/queue"
	"github.com/iliyamo/smart-parking/internal/repository"
	queue_publisher "github.com/iliyamo/smart-parking/internal/service"
	"github.com/iliyamo/smart-parking/internal/utils"
)

// ParkingHandler serves check-in/check-out sessions. A user has at most
// one open session; a slot hosts at most one.
type ParkingHandler struct {
	Slots    repository.SlotRepository
	Sessions repository.HistoryRepository
	// Now is the booking clock, replaceable in tests.
	Now func() time.Time
}

func NewParkingHandler(s repository.SlotRepository, h repository.HistoryRepository) *ParkingHandler {
	return &ParkingHandler{Slots: s, Sessions: h, Now: func() time.Time { return time.Now().UTC() }}
}

type checkInReq struct {
	SlotID int64 `json:"slot_id"`
}

type adminCheckInReq struct {
	UserID int64 `json:"user_id"`
	SlotID int64 `json:"slot_id"`
}

type adminCheckOutReq struct {
	UserID int64 `json:"user_id"`
}

// publish fires a parking event without blocking the request. The
// publisher dials per call, so losing the broker only costs a log line.
func publish(ev queue.ParkingEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishParkingEvent(ctx, ev)
	}()
}

// CheckIn opens a session on an AVAILABLE slot for the caller.
func (h *ParkingHandler) CheckIn(c echo.Context) error {
	var req checkInReq
	if err := c.Bind(&req); err != nil || req.SlotID <= 0 {
		return utils.Fail(c, http.StatusBadRequest, "slot_id is required", codeValidation, nil)
	}
	return h.checkInFor(c, authUserID(c), req.SlotID, http.StatusCreated)
}

// AdminCheckIn opens a session on behalf of an arbitrary user.
func (h *ParkingHandler) AdminCheckIn(c echo.Context) error {
	var req adminCheckInReq
	if err := c.Bind(&req); err != nil || req.SlotID <= 0 || req.UserID <= 0 {
		return utils.Fail(c, http.StatusBadRequest, "user_id and slot_id are required", codeValidation, nil)
	}
	return h.checkInFor(c, req.UserID, req.SlotID, http.StatusCreated)
}

func (h *ParkingHandler) checkInFor(c echo.Context, userID, slotID int64, status int) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if open, err := h.Sessions.OpenSessionByUser(ctx, userID); err == nil {
		msg := fmt.Sprintf("already parked at slot %s, check out first", open.SlotName)
		return utils.Fail(c, http.StatusBadRequest, msg, codeConflict, echo.Map{"slot_name": open.SlotName})
	} else if !errors.Is(err, repository.ErrNoActiveSession) {
		return utils.Fail(c, http.StatusInternalServerError, "failed to check current session", codeInternal, nil)
	}

	slot, err := h.Slots.GetByID(ctx, slotID)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.Fail(c, http.StatusNotFound, "slot not found", codeNotFound, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load slot", codeInternal, nil)
	}
	if slot.Status != model.SlotAvailable {
		msg := fmt.Sprintf("slot %s is %s", slot.SlotName, slot.Status)
		return utils.Fail(c, http.StatusBadRequest, msg, codeValidation, nil)
	}

	now := h.Now()
	session, err := h.Sessions.CheckIn(ctx, slotID, userID, now)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to check in", codeInternal, nil)
	}
	if err := h.Slots.SetStatus(ctx, slotID, model.SlotOccupied, now); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to update slot", codeInternal, nil)
	}
	slot.Status = model.SlotOccupied
	slot.UpdatedAt = now

	publish(queue.ParkingEvent{
		Type:       queue.EventCheckIn,
		UserID:     userID,
		SlotID:     slotID,
		SlotName:   slot.SlotName,
		OccurredAt: now.Format(time.RFC3339),
	})

	return utils.OK(c, status, "checked in", echo.Map{
		"session": session,
		"slot":    slot,
	})
}

// CheckOut closes the caller's open session and frees the slot.
func (h *ParkingHandler) CheckOut(c echo.Context) error {
	return h.checkOutFor(c, authUserID(c))
}

// AdminCheckOut closes an arbitrary user's open session.
func (h *ParkingHandler) AdminCheckOut(c echo.Context) error {
	var req adminCheckOutReq
	if err := c.Bind(&req); err != nil || req.UserID <= 0 {
		return utils.Fail(c, http.StatusBadRequest, "user_id is required", codeValidation, nil)
	}
	return h.checkOutFor(c, req.UserID)
}

func (h *ParkingHandler) checkOutFor(c echo.Context, userID int64) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	open, err := h.Sessions.OpenSessionByUser(ctx, userID)
	if errors.Is(err, repository.ErrNoActiveSession) {
		return utils.Fail(c, http.StatusBadRequest, "no active parking session", codeValidation, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load session", codeInternal, nil)
	}

	now := h.Now()
	closed, err := h.Sessions.CloseSession(ctx, open.ID, now)
	if errors.Is(err, repository.ErrNoActiveSession) {
		return utils.Fail(c, http.StatusBadRequest, "no active parking session", codeValidation, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to check out", codeInternal, nil)
	}
	if err := h.Slots.SetStatus(ctx, closed.SlotID, model.SlotAvailable, now); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to update slot", codeInternal, nil)
	}

	duration := closed.DurationMinutes(now)
	publish(queue.ParkingEvent{
		Type:            queue.EventCheckOut,
		UserID:          userID,
		SlotID:          closed.SlotID,
		SlotName:        open.SlotName,
		DurationMinutes: duration,
		OccurredAt:      now.Format(time.RFC3339),
	})

	return utils.OK(c, http.StatusOK, "checked out", echo.Map{
		"session":          closed,
		"slot_name":        open.SlotName,
		"duration_minutes": duration,
	})
}

// Current returns the caller's open session with its running duration.
func (h *ParkingHandler) Current(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	open, err := h.Sessions.OpenSessionByUser(ctx, authUserID(c))
	if errors.Is(err, repository.ErrNoActiveSession) {
		return utils.Fail(c, http.StatusNotFound, "no active parking session", codeNotFound, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load session", codeInternal, nil)
	}
	elapsed := open.ParkingHistory.DurationMinutes(h.Now())
	open.DurationMinutes = &elapsed
	return utils.OK(c, http.StatusOK, "current session", open)
}

// History returns the caller's sessions, newest first.
func (h *ParkingHandler) History(c echo.Context) error {
	page, limit, offset := pageParams(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	sessions, total, err := h.Sessions.ListByUser(ctx, authUserID(c), limit, offset)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load history", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "parking history", echo.Map{
		"history":    sessions,
		"pagination": utils.NewPagination(page, limit, total),
	})
}

// AdminAll returns every user's sessions with owner info.
func (h *ParkingHandler) AdminAll(c echo.Context) error {
	page, limit, offset := pageParams(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	sessions, total, err := h.Sessions.ListAll(ctx, limit, offset)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load history", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "all parking sessions", echo.Map{
		"history":    sessions,
		"pagination": utils.NewPagination(page, limit, total),
	})
}
