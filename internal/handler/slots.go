package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/model"
	"github.com/iliyamo/smart-parking/internal/repository"
	"github.com/iliyamo/smart-parking/internal/utils"
)

// SlotHandler serves the parking slot CRUD. Reads are open to any
// authenticated user; writes are admin-only (enforced in the router).
type SlotHandler struct {
	Slots repository.SlotRepository
}

func NewSlotHandler(s repository.SlotRepository) *SlotHandler {
	return &SlotHandler{Slots: s}
}

type createSlotReq struct {
	SlotName string `json:"slot_name"`
	Status   string `json:"status"`
}

type updateSlotStatusReq struct {
	Status string `json:"status"`
}

// Create adds a slot. Status defaults to AVAILABLE.
func (h *SlotHandler) Create(c echo.Context) error {
	var req createSlotReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, "invalid request body", codeValidation, nil)
	}
	req.SlotName = strings.TrimSpace(req.SlotName)
	if req.SlotName == "" {
		return utils.Fail(c, http.StatusBadRequest, "slot_name is required", codeValidation, nil)
	}
	if req.Status == "" {
		req.Status = model.SlotAvailable
	}
	req.Status = strings.ToUpper(req.Status)
	if !model.ValidSlotStatus(req.Status) {
		return utils.Fail(c, http.StatusBadRequest, "status must be AVAILABLE, OCCUPIED or RESERVED", codeValidation, nil)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	slot, err := h.Slots.Create(ctx, req.SlotName, req.Status)
	if errors.Is(err, repository.ErrSlotNameExists) {
		return utils.Fail(c, http.StatusConflict, "a slot with this name already exists", codeConflict, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to create slot", codeInternal, nil)
	}
	return utils.OK(c, http.StatusCreated, "slot created", slot)
}

// List returns a page of slots, optionally filtered by ?status=.
func (h *SlotHandler) List(c echo.Context) error {
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status != "" && !model.ValidSlotStatus(status) {
		return utils.Fail(c, http.StatusBadRequest, "invalid status filter", codeValidation, nil)
	}
	page, limit, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()
	slots, total, err := h.Slots.List(ctx, status, limit, offset)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to list slots", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "slots", echo.Map{
		"slots":      slots,
		"pagination": utils.NewPagination(page, limit, total),
	})
}

// ListAvailable returns every AVAILABLE slot, ordered by name. This is
// the hot path for drivers looking for a place to park and sits behind
// the response cache.
func (h *SlotHandler) ListAvailable(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	slots, err := h.Slots.ListAvailable(ctx)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to list available slots", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "available slots", echo.Map{
		"slots": slots,
		"count": len(slots),
	})
}

func (h *SlotHandler) GetByID(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return utils.Fail(c, http.StatusBadRequest, "invalid slot id", codeValidation, nil)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	slot, err := h.Slots.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.Fail(c, http.StatusNotFound, "slot not found", codeNotFound, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load slot", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "slot", slot)
}

// UpdateStatus force-sets a slot's status. Admin escape hatch; the
// reconciliation engine may overwrite it on the next tick if it
// disagrees with reservation state.
func (h *SlotHandler) UpdateStatus(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return utils.Fail(c, http.StatusBadRequest, "invalid slot id", codeValidation, nil)
	}
	var req updateSlotStatusReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, "invalid request body", codeValidation, nil)
	}
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	if !model.ValidSlotStatus(req.Status) {
		return utils.Fail(c, http.StatusBadRequest, "status must be AVAILABLE, OCCUPIED or RESERVED", codeValidation, nil)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Slots.SetStatus(ctx, id, req.Status, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.Fail(c, http.StatusNotFound, "slot not found", codeNotFound, nil)
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to update slot", codeInternal, nil)
	}
	slot, err := h.Slots.GetByID(ctx, id)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load slot", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "slot status updated", slot)
}

// Delete removes a slot. Slots with an open parking session are
// protected with a 409.
func (h *SlotHandler) Delete(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return utils.Fail(c, http.StatusBadRequest, "invalid slot id", codeValidation, nil)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	err := h.Slots.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "slot not found", codeNotFound, nil)
	case errors.Is(err, repository.ErrConflict):
		return utils.Fail(c, http.StatusConflict, "slot has an open parking session", codeConflict, nil)
	case err != nil:
		return utils.Fail(c, http.StatusInternalServerError, "failed to delete slot", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "slot deleted", nil)
}
