package router

import (
	"github.com/labstack/echo/v4"

	"github.com/goaltime/goaltime/internal/handler"
	"github.com/goaltime/goaltime/internal/middleware"
)

// RegisterUsers registers /users.  The /me routes serve any authenticated
// caller; everything else is ADMIN only.  Deleting a user releases their
// bookings, so it also drops the cached sessions.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, identity middleware.IdentityResolver, cache Cache) {
	me := e.Group("/users/me", middleware.Identity(identity))
	me.GET("", h.Me)
	me.PATCH("", h.UpdateMe)
	me.GET("/sessions", h.MySessions)

	admin := e.Group("/users", adminOnly(identity)...)
	admin.GET("", h.List)
	admin.POST("", h.Create)
	admin.GET("/:id", h.Get)
	admin.PATCH("/:id", h.Update)
	admin.DELETE("/:id", h.Delete, cache.invalidate(groupSession))
}
