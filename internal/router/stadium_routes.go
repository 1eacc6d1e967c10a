package router

import (
	"github.com/labstack/echo/v4"

	"github.com/goaltime/goaltime/internal/handler"
	"github.com/goaltime/goaltime/internal/middleware"
)

// RegisterStadiums registers /stadium.  Reads are public and cached;
// writes need ADMIN and invalidate the stadium and session caches.
func RegisterStadiums(e *echo.Echo, h *handler.StadiumHandler, identity middleware.IdentityResolver, cache Cache) {
	e.GET("/stadium", h.List, cache.read(groupStadium))
	e.GET("/stadium/:id", h.Get, cache.read(groupStadium))

	admin := e.Group("/stadium", adminOnly(identity)...)
	admin.Use(cache.invalidate(groupStadium, groupSession))
	admin.POST("", h.Create)
	admin.PATCH("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}
