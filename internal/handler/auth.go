package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking/internal/config"
	"github.com/iliyamo/smart-parking/internal/model"
	"github.com/iliyamo/smart-parking/internal/repository"
	"github.com/iliyamo/smart-parking/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  repository.UserRepository
	Tokens repository.TokenRepository
}

func NewAuthHandler(cfg config.Config, u repository.UserRepository, t repository.TokenRepository) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

type registerReq struct {
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	LicensePlate *string `json:"license_plate"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
}
type userPart struct {
	ID           int64   `json:"id"`
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	LicensePlate *string `json:"license_plate,omitempty"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func (h *AuthHandler) issuePair(c echo.Context, status int, message string, u model.User, role string) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to issue access token", codeInternal, nil)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to issue refresh token", codeInternal, nil)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to persist refresh token", codeInternal, nil)
	}
	return utils.OK(c, status, message, authResp{
		User:    userPart{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: role, LicensePlate: u.LicensePlate},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp.Format(time.RFC3339)},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp.Format(time.RFC3339)},
	})
}

// Register creates a user with the default DRIVER role and returns a
// token pair so the client is logged in immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, "invalid request body", codeValidation, nil)
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	details := map[string]string{}
	if req.FullName == "" {
		details["full_name"] = "full name is required"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		details["email"] = "a valid email is required"
	}
	if len(req.Password) < 6 {
		details["password"] = "password must be at least 6 characters"
	}
	if req.LicensePlate != nil {
		p := strings.ToUpper(strings.TrimSpace(*req.LicensePlate))
		if p == "" {
			req.LicensePlate = nil
		} else {
			req.LicensePlate = &p
		}
	}
	if len(details) > 0 {
		return utils.Fail(c, http.StatusBadRequest, "validation failed", codeValidation, details)
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to hash password", codeInternal, nil)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Create(ctx, req.FullName, req.Email, hash, req.LicensePlate)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return utils.Fail(c, http.StatusConflict, "email already registered", codeConflict, nil)
	case errors.Is(err, repository.ErrPlateExists):
		return utils.Fail(c, http.StatusConflict, "license plate already registered", codeConflict, nil)
	case err != nil:
		return utils.Fail(c, http.StatusInternalServerError, "failed to create user", codeInternal, nil)
	}

	return h.issuePair(c, http.StatusCreated, "registration successful", u, model.RoleDriver)
}

// Login verifies credentials and returns a fresh token pair. The role
// claim is the user's first assigned role, DRIVER when none.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return utils.Fail(c, http.StatusBadRequest, "invalid request body", codeValidation, nil)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return utils.Fail(c, http.StatusBadRequest, "email and password are required", codeValidation, nil)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.Fail(c, http.StatusUnauthorized, "invalid credentials", codeUnauthorized, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load user", codeInternal, nil)
	}
	if !u.IsActive {
		return utils.Fail(c, http.StatusUnauthorized, "account is deactivated", codeUnauthorized, nil)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return utils.Fail(c, http.StatusUnauthorized, "invalid credentials", codeUnauthorized, nil)
	}

	role, err := h.Users.RoleForUser(ctx, u.ID)
	if err != nil {
		role = model.RoleDriver
	}
	return h.issuePair(c, http.StatusOK, "login successful", u, role)
}

// Profile returns the authenticated user's record with role.
func (h *AuthHandler) Profile(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, authUserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		return utils.Fail(c, http.StatusNotFound, "user not found", codeNotFound, nil)
	}
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load profile", codeInternal, nil)
	}
	role, _ := c.Get("role").(string)
	if role == "" {
		role = model.RoleDriver
	}
	return utils.OK(c, http.StatusOK, "profile", userPart{
		ID: u.ID, FullName: u.FullName, Email: u.Email, Role: role, LicensePlate: u.LicensePlate,
	})
}

// Refresh rotates a refresh token: validate by hash, revoke, issue a
// new access/refresh pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return utils.Fail(c, http.StatusBadRequest, "refresh_token is required", codeValidation, nil)
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return utils.Fail(c, http.StatusUnauthorized, "invalid or expired refresh token", codeUnauthorized, nil)
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return utils.Fail(c, http.StatusInternalServerError, "failed to load user", codeInternal, nil)
	}
	role, err := h.Users.RoleForUser(ctx, userID)
	if err != nil {
		role = model.RoleDriver
	}
	return h.issuePair(c, http.StatusOK, "token refreshed", u, role)
}

// Logout revokes refresh tokens. With a bearer token and no body it
// revokes every session for the user; with a refresh_token in the body
// it revokes that single session. The endpoint is deliberately outside
// the JWT middleware so a client with only a refresh token can still
// log out.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid int64
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		raw := strings.TrimPrefix(auth, "Bearer ")
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.ErrUnauthorized
			}
			return []byte(h.Cfg.JWTSecret), nil
		})
		if err == nil && tok.Valid {
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				if sub, ok := claims["sub"].(float64); ok {
					uid = int64(sub)
				}
			}
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if uid > 0 && refreshToken == "" {
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return utils.Fail(c, http.StatusInternalServerError, "logout failed", codeInternal, nil)
		}
		return utils.OK(c, http.StatusOK, "logged out of all sessions", nil)
	}
	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return utils.Fail(c, http.StatusUnauthorized, "invalid refresh token", codeUnauthorized, nil)
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return utils.Fail(c, http.StatusInternalServerError, "logout failed", codeInternal, nil)
		}
		return utils.OK(c, http.StatusOK, "logged out", nil)
	}
	return utils.Fail(c, http.StatusBadRequest, "provide Authorization header or refresh_token", codeValidation, nil)
}
