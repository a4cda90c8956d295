package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/repository"
	"github.com/iliyamo/smart-parking/internal/utils"
)

// UserHandler serves the admin user management endpoints.
type UserHandler struct {
	Users repository.UserRepository
}

func NewUserHandler(u repository.UserRepository) *UserHandler {
	return &UserHandler{Users: u}
}

type updateUserReq struct {
	FullName     string  `json:"full_name"`
	LicensePlate *string `json:"license_plate"`
}

type assignRoleReq struct {
	UserID int64 `json:"user_id"`
	RoleID int64 `json:"role_id"`
}

func (h *UserHandler) List(c echo.Context) error {
	page, limit, offset := pageParams(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, total, err := h.Users.List(ctx, limit, offset)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to list users", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "users", echo.Map{
		"users":      users,
		"pagination": utils.NewPagination(page, limit, total),
	})
}

func (h *UserHandler) GetByID(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return utils.Fail(c, http.StatusBadRequest, "invalid user id", codeValidation, nil)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.Fail(c, http.StatusNotFound, "user not found", codeNotFound, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load user", codeInternal, nil)
	}
	role, _ := h.Users.RoleForUser(ctx, id)
	return utils.OK(c, http.StatusOK, "user", echo.Map{"user": u, "role": role})
}

// FindByPlate resolves a license plate to its owner, so an admin at the
// gate can identify who a parked vehicle belongs to. Plates are stored
// upper-cased; the lookup normalises the query the same way.
func (h *UserHandler) FindByPlate(c echo.Context) error {
	plate := strings.ToUpper(strings.TrimSpace(c.QueryParam("plate")))
	if plate == "" {
		return utils.Fail(c, http.StatusBadRequest, "plate query parameter is required", codeValidation, nil)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.FindByLicensePlate(ctx, plate)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.Fail(c, http.StatusNotFound, "no user with this license plate", codeNotFound, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to look up license plate", codeInternal, nil)
	}
	role, _ := h.Users.RoleForUser(ctx, u.ID)
	return utils.OK(c, http.StatusOK, "user", echo.Map{"user": u, "role": role})
}

func (h *UserHandler) Update(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return utils.Fail(c, http.StatusBadRequest, "invalid user id", codeValidation, nil)
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, "invalid request body", codeValidation, nil)
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return utils.Fail(c, http.StatusBadRequest, "full_name is required", codeValidation, nil)
	}
	if req.LicensePlate != nil {
		p := strings.ToUpper(strings.TrimSpace(*req.LicensePlate))
		if p == "" {
			req.LicensePlate = nil
		} else {
			req.LicensePlate = &p
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, id, req.FullName, req.LicensePlate)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return utils.Fail(c, http.StatusNotFound, "user not found", codeNotFound, nil)
	case errors.Is(err, repository.ErrPlateExists):
		return utils.Fail(c, http.StatusConflict, "license plate already registered", codeConflict, nil)
	case err != nil:
		return utils.Fail(c, http.StatusInternalServerError, "failed to update user", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "user updated", u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return utils.Fail(c, http.StatusBadRequest, "invalid user id", codeValidation, nil)
	}
	if id == authUserID(c) {
		return utils.Fail(c, http.StatusBadRequest, "cannot delete your own account", codeValidation, nil)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	err := h.Users.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.Fail(c, http.StatusNotFound, "user not found", codeNotFound, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to delete user", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "user deleted", nil)
}

// Roles lists the assignable roles.
func (h *UserHandler) Roles(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	roles, err := h.Users.ListRoles(ctx)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to list roles", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "roles", echo.Map{"roles": roles})
}

// AssignRole grants a role to a user.
func (h *UserHandler) AssignRole(c echo.Context) error {
	var req assignRoleReq
	if err := c.Bind(&req); err != nil || req.UserID <= 0 || req.RoleID <= 0 {
		return utils.Fail(c, http.StatusBadRequest, "user_id and role_id are required", codeValidation, nil)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.Fail(c, http.StatusNotFound, "user not found", codeNotFound, nil)
		}
		return utils.Fail(c, http.StatusInternalServerError, "failed to load user", codeInternal, nil)
	}
	if err := h.Users.AssignRole(ctx, req.UserID, req.RoleID); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to assign role", codeInternal, nil)
	}
	return utils.OK(c, http.StatusOK, "role assigned", nil)
}
