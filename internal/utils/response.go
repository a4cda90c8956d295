package utils

import (
	"time"

	"github.com/labstack/echo/v4"
)

// APIResponse is the envelope every endpoint returns. Success responses
// carry Data; failures carry Error. Timestamp is the server's UTC time
// in RFC 3339, stamped when the response is built.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
}

// APIError is the machine-readable half of a failure response. Code is
// a stable uppercase identifier; Details is optional free-form context
// such as per-field validation messages.
type APIError struct {
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// Pagination describes one page of a list response and is embedded in
// Data next to the items.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination derives the page descriptor from a total row count.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

func stamp() string { return time.Now().UTC().Format(time.RFC3339) }

// OK writes a success envelope with the given HTTP status.
func OK(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, APIResponse{
		Success:   true,
		Message:   message,
		Timestamp: stamp(),
		Data:      data,
	})
}

// Fail writes a failure envelope with the given HTTP status and error
// code.
func Fail(c echo.Context, status int, message, code string, details interface{}) error {
	return c.JSON(status, APIResponse{
		Success:   false,
		Message:   message,
		Timestamp: stamp(),
		Error:     &APIError{Code: code, Details: details},
	})
}
