package router

import (
	"github.com/labstack/echo/v4"

	"github.com/goaltime/goaltime/internal/handler"
	"github.com/goaltime/goaltime/internal/middleware"
)

// RegisterSessions registers /session.  Reads are public and cached.
// Create, update and delete need ADMIN; booking and release need any
// authenticated caller.  Every write drops the session cache.
func RegisterSessions(e *echo.Echo, h *handler.SessionHandler, identity middleware.IdentityResolver, cache Cache) {
	e.GET("/session", h.List, cache.read(groupSession))
	e.GET("/session/:id", h.Get, cache.read(groupSession))

	admin := e.Group("/session", adminOnly(identity)...)
	admin.Use(cache.invalidate(groupSession))
	admin.POST("", h.Create)
	admin.PATCH("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)

	booking := e.Group("/session/:id", middleware.Identity(identity), cache.invalidate(groupSession))
	booking.POST("/book", h.Book)
	booking.POST("/release", h.Release)
}
