package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/axellelanca/urlanalytics/internal/metrics"
	"github.com/axellelanca/urlanalytics/internal/ratelimit"
	"github.com/axellelanca/urlanalytics/internal/services"
)

// Dependencies groups what the HTTP layer needs.
type Dependencies struct {
	Links     *services.LinkService
	Analytics *services.AnalyticsService
	Tokens    *TokenService
	Limiter   *ratelimit.Limiter
	BaseURL   string
}

// NewRouter builds a gin engine with logging, recovery, metrics and every route.
func NewRouter(deps Dependencies) *gin.Engine {
	metrics.Init()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())
	SetupRoutes(router, deps)
	return router
}

// SetupRoutes configures all Gin API routes and injects necessary dependencies
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", HealthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limit := func(c *gin.Context) { c.Next() }
	if deps.Limiter != nil {
		limit = deps.Limiter.Middleware()
	}

	api := router.Group("/api/v1")
	{
		// Anonymous creation is allowed; a valid token makes the caller the owner
		api.POST("/links", limit, OptionalAuth(deps.Tokens), CreateShortLinkHandler(deps.Links, deps.BaseURL))
		api.POST("/links/bulk", limit, OptionalAuth(deps.Tokens), BulkCreateHandler(deps.Links, deps.BaseURL))

		owned := api.Group("/links", RequireAuth(deps.Tokens))
		owned.GET("", ListLinksHandler(deps.Links))
		owned.PATCH("/:id", UpdateLinkHandler(deps.Links))
		owned.DELETE("/:id", DeleteLinkHandler(deps.Links))
		owned.GET("/:id/analytics", GetAnalyticsHandler(deps.Analytics))
		owned.POST("/:id/analytics/refresh", RefreshAnalyticsHandler(deps.Analytics))
	}

	// Redirection Route - handles the actual URL redirection at root level
	router.GET("/:shortCode", RedirectHandler(deps.Links))
}
