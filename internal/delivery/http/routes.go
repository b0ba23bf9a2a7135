package http

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/config"
	"github.com/pantrylens/backend/internal/logging"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	logger = logging.OrNop(logger).Named("http")

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(requestid.New())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(BodySizeLimit(cfg.Server.MaxBodyBytes))

	// Health check and metrics endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(TimeoutMiddleware(cfg.Server.RequestTimeout))
	{
		matches := v1.Group("/matches")
		{
			matches.POST("", handler.MatchIngredient)
			matches.POST("/line", handler.MatchLine)
			matches.POST("/batch", handler.MatchBatch)
		}

		sources := v1.Group("/sources")
		{
			sources.GET("/health", handler.AllSourcesHealth)
			sources.GET("/:source/health", handler.SourceHealth)
			sources.GET("/:source/promotions", handler.Promotions)
			sources.DELETE("/:source/cache", handler.InvalidateCache)
		}
	}

	return router
}
