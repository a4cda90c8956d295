package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/model"
	"github.com/iliyamo/smart-parking/internal/queue"
	"github.com/iliyamo/smart-parking/internal/repository"
	"github.com/iliyamo/smart-parking/internal/utils"
)

// Per-user cap on reservations with status=active that have not ended.
const maxActiveReservations = 3

// ReservationHandler serves time-window slot reservations. The backing
// table may be missing on deployments that have not run the migration;
// ErrReservationsUnavailable degrades writes to 501 and reads to an
// empty success payload instead of a hard failure.
type ReservationHandler struct {
	Slots        repository.SlotRepository
	Reservations repository.ReservationRepository
	Now          func() time.Time
}

func NewReservationHandler(s repository.SlotRepository, r repository.ReservationRepository) *ReservationHandler {
	return &ReservationHandler{Slots: s, Reservations: r, Now: func() time.Time { return time.Now().UTC() }}
}

type createReservationReq struct {
	SlotID    int64  `json:"slot_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type adminCreateReservationReq struct {
	UserID    int64  `json:"user_id"`
	SlotID    int64  `json:"slot_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func notImplemented(c echo.Context) error {
	return utils.Fail(c, http.StatusNotImplemented,
		"reservations are not available on this deployment", codeNotImplemented, nil)
}

// Create books a slot for [start_time, end_time).
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, "invalid request body", codeValidation, nil)
	}
	return h.createFor(c, authUserID(c), req.SlotID, req.StartTime, req.EndTime)
}

// AdminCreate books a slot on behalf of an arbitrary user.
func (h *ReservationHandler) AdminCreate(c echo.Context) error {
	var req adminCreateReservationReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, "invalid request body", codeValidation, nil)
	}
	if req.UserID <= 0 {
		return utils.Fail(c, http.StatusBadRequest, "user_id is required", codeValidation, nil)
	}
	return h.createFor(c, req.UserID, req.SlotID, req.StartTime, req.EndTime)
}

func (h *ReservationHandler) createFor(c echo.Context, userID, slotID int64, startRaw, endRaw string) error {
	details := map[string]string{}
	if slotID <= 0 {
		details["slot_id"] = "slot_id is required"
	}
	start, err := utils.ParseISOLocal(startRaw)
	if err != nil {
		details["start_time"] = err.Error()
	}
	end, err := utils.ParseISOLocal(endRaw)
	if err != nil {
		details["end_time"] = err.Error()
	}
	if len(details) > 0 {
		return utils.Fail(c, http.StatusBadRequest, "validation failed", codeValidation, details)
	}
	if !end.After(start) {
		return utils.Fail(c, http.StatusBadRequest, "end_time must be after start_time", codeValidation, nil)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Slots.GetByID(ctx, slotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.Fail(c, http.StatusNotFound, "slot not found", codeNotFound, nil)
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to load slot", codeInternal, nil)
	}

	count, err := h.Reservations.ActiveFutureCount(ctx, userID, h.Now())
	if errors.Is(err, repository.ErrReservationsUnavailable) {
		return notImplemented(c)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to check reservation quota", codeInternal, nil)
	}
	if count >= maxActiveReservations {
		return utils.Fail(c, http.StatusBadRequest,
			"reservation limit reached (max 3 active reservations)", codeConflict, nil)
	}

	overlap, err := h.Reservations.HasOverlap(ctx, slotID, start, end)
	if errors.Is(err, repository.ErrReservationsUnavailable) {
		return notImplemented(c)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to check slot availability", codeInternal, nil)
	}
	if overlap {
		return utils.Fail(c, http.StatusBadRequest,
			"slot is already reserved for this time window", codeConflict, nil)
	}

	res, err := h.Reservations.Create(ctx, slotID, userID, start, end)
	if errors.Is(err, repository.ErrReservationsUnavailable) {
		return notImplemented(c)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to create reservation", codeInternal, nil)
	}

	publish(queue.ParkingEvent{
		Type:          queue.EventReservationCreated,
		UserID:        userID,
		SlotID:        slotID,
		SlotName:      res.SlotName,
		ReservationID: res.ID,
		StartTime:     start.Format(time.RFC3339),
		EndTime:       end.Format(time.RFC3339),
		OccurredAt:    h.Now().Format(time.RFC3339),
	})

	return utils.OK(c, http.StatusCreated, "reservation created", res)
}

// List returns the caller's reservations in every status, ordered by
// start time. Missing table degrades to an empty list.
func (h *ReservationHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Reservations.ListByUser(ctx, authUserID(c))
	if errors.Is(err, repository.ErrReservationsUnavailable) {
		return utils.OK(c, http.StatusOK, "reservations are not available on this deployment", echo.Map{
			"reservations": []model.ReservationDetail{},
		})
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load reservations", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "reservations", echo.Map{"reservations": items})
}

// AdminList returns every reservation with owner info.
func (h *ReservationHandler) AdminList(c echo.Context) error {
	page, limit, offset := pageParams(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, total, err := h.Reservations.ListAll(ctx, limit, offset)
	if errors.Is(err, repository.ErrReservationsUnavailable) {
		return utils.OK(c, http.StatusOK, "reservations are not available on this deployment", echo.Map{
			"reservations": []model.AdminReservationDetail{},
			"pagination":   utils.NewPagination(page, limit, 0),
		})
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load reservations", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "all reservations", echo.Map{
		"reservations": items,
		"pagination":   utils.NewPagination(page, limit, total),
	})
}

// Cancel cancels the caller's own reservation. The slot itself is not
// touched here; if the window was in effect the reconciliation engine
// releases it on the next tick.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.cancelFor(c, authUserID(c))
}

// AdminCancel cancels any reservation regardless of owner.
func (h *ReservationHandler) AdminCancel(c echo.Context) error {
	return h.cancelFor(c, 0)
}

func (h *ReservationHandler) cancelFor(c echo.Context, userID int64) error {
	id, ok := idParam(c, "id")
	if !ok {
		return utils.Fail(c, http.StatusBadRequest, "invalid reservation id", codeValidation, nil)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Reservations.Cancel(ctx, id, userID)
	switch {
	case errors.Is(err, repository.ErrReservationsUnavailable):
		return notImplemented(c)
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "reservation not found", codeNotFound, nil)
	case errors.Is(err, repository.ErrForbidden):
		return utils.Fail(c, http.StatusForbidden, "reservation belongs to another user", codeForbidden, nil)
	case errors.Is(err, repository.ErrConflict):
		return utils.Fail(c, http.StatusConflict, "reservation is not active", codeConflict, nil)
	case err != nil:
		return utils.Fail(c, http.StatusInternalServerError, "failed to cancel reservation", codeInternal, nil)
	}

	publish(queue.ParkingEvent{
		Type:          queue.EventReservationCancelled,
		UserID:        res.UserID,
		SlotID:        res.SlotID,
		ReservationID: res.ID,
		StartTime:     res.StartTime.Format(time.RFC3339),
		EndTime:       res.EndTime.Format(time.RFC3339),
		OccurredAt:    h.Now().Format(time.RFC3339),
	})

	return utils.OK(c, http.StatusOK, "reservation cancelled", res)
}
