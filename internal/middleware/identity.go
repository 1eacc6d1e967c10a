package middleware

// identity.go holds the context keys shared by the auth and role
// middleware, plus accessors handlers use to read the caller.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/goaltime/goaltime/internal/model"
)

// Context keys populated by Identity.
const (
    ctxIdentity = "identity"
    ctxUserID   = "user_id"
    ctxRole     = "role"
)

// CurrentUser returns the authenticated caller stored by Identity.
func CurrentUser(c echo.Context) (model.UserView, bool) {
    u, ok := c.Get(ctxIdentity).(model.UserView)
    return u, ok
}

func setIdentity(c echo.Context, u model.UserView) {
    c.Set(ctxIdentity, u)
    c.Set(ctxUserID, strconv.FormatUint(u.ID, 10))
    c.Set(ctxRole, u.Role)
}
