package middleware

// identity.go holds the context keys set by JWTAuth and the helpers that
// read them back.  Handlers and the rate limiter use these instead of
// touching the context directly.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hall-booking/internal/model"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxName   = "user_name"
)

// CurrentUser returns the authenticated account id and role.  ok is false
// on routes without JWTAuth or when the values are missing.
func CurrentUser(c echo.Context) (id uint64, role model.Role, ok bool) {
	id, _ = c.Get(ctxUserID).(uint64)
	role, _ = c.Get(ctxRole).(model.Role)
	return id, role, id != 0 && role.Valid()
}

// currentUserID renders the account id for rate-limit keys and logs.  It
// returns "anon" when no user is authenticated.
func currentUserID(c echo.Context) string {
	if id, ok := c.Get(ctxUserID).(uint64); ok && id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
