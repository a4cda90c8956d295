// Package handler contains the HTTP handlers for the parking API. Each
// handler struct bundles the repositories it needs; all responses use
// the shared envelope from internal/utils.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Stable error codes carried in the envelope's error.code field.
const (
	codeValidation     = "VALIDATION_ERROR"
	codeUnauthorized   = "UNAUTHORIZED"
	codeForbidden      = "FORBIDDEN"
	codeNotFound       = "NOT_FOUND"
	codeConflict       = "CONFLICT"
	codeNotImplemented = "NOT_IMPLEMENTED"
	codeInternal       = "INTERNAL_ERROR"
)

const dbTimeout = 5 * time.Second

// reqCtx bounds a handler's database work with the standard timeout.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// authUserID returns the id JWTAuth stored in the context, or 0 when
// the request is unauthenticated.
func authUserID(c echo.Context) int64 {
	id, _ := c.Get("user_id").(int64)
	return id
}

// idParam parses a numeric path parameter.
func idParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// pageParams reads ?page and ?limit with the usual clamps. Limit is
// capped at 100 to keep admin listings bounded.
func pageParams(c echo.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}
