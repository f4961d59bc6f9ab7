package router // route registration for the tracker's HTTP API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/magiaym/cartelera/internal/config"
	"github.com/magiaym/cartelera/internal/handler"
	"github.com/magiaym/cartelera/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication or state.
// Currently this is only the health check used by monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated query endpoints under /v1.
// When a Redis client is available they sit behind the rate limiter and the
// response cache; without one both middlewares pass requests straight
// through.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, hist *handler.HistoryHandler, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	g.GET("/sessions", p.GetSessions)
	g.GET("/sessions/low-stock", p.GetLowStock)
	g.GET("/sessions/sold-out", p.GetSoldOut)
	g.GET("/shows", p.GetShows)
	g.GET("/history", hist.GetHistory)
}

// RegisterAdmin registers the operator endpoints.  Token issuing is open
// (it verifies the admin key itself); the poll trigger requires a valid
// ADMIN token.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler) {
	e.POST("/v1/auth/token", a.IssueToken)

	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(a.JWTSecret, handler.RoleAdmin))
	g.POST("/poll", a.TriggerPoll)
}
