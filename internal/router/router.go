package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"  // Echo web framework used for routing
	"github.com/redis/go-redis/v9" // Redis client backing the response cache

	"github.com/goaltime/goaltime/internal/config"     // cache settings
	"github.com/goaltime/goaltime/internal/handler"    // HTTP handlers
	"github.com/goaltime/goaltime/internal/metrics"    // Prometheus exposition
	"github.com/goaltime/goaltime/internal/middleware" // identity, role and cache middleware
	"github.com/goaltime/goaltime/internal/model"      // role names
)

// Cache groups, one per cached resource.  Sessions embed their stadium, so
// stadium mutations drop both groups.
const (
	groupStadium = "stadium"
	groupSession = "session"
)

// Cache bundles what the cached read routes and the invalidating write
// routes need.  A nil Redis client turns both into pass-throughs.
type Cache struct {
	Cfg   config.CacheConfig
	Redis *redis.Client
}

func (c Cache) read(group string) echo.MiddlewareFunc {
	return middleware.NewRedisCache(c.Cfg, c.Redis, group)
}

func (c Cache) invalidate(groups ...string) echo.MiddlewareFunc {
	return middleware.InvalidateCache(c.Cfg, c.Redis, groups...)
}

// RegisterRoutes registers the operational endpoints: the health check,
// which pings the database, and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers the authentication routes.  Register and login
// are public; profile requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, identity middleware.IdentityResolver) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/profile", a.Profile, middleware.Identity(identity))
}

func adminOnly(identity middleware.IdentityResolver) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.Identity(identity),
		middleware.RequireRole(model.RoleAdmin),
	}
}
