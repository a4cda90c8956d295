package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user's id for cache and rate
// limit keys, or "anon" for unauthenticated requests.
func currentUserID(c echo.Context) string {
	if id, ok := c.Get("user_id").(int64); ok && id > 0 {
		return strconv.FormatInt(id, 10)
	}
	return "anon"
}
