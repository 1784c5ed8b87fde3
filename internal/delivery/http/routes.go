package http

import (
	"github.com/gin-gonic/gin"

	"github.com/exportlens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint, outside the rate limit
	router.GET("/health", handler.HealthCheck)

	limiter := NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(limiter))
	{
		product := v1.Group("/product")
		{
			product.POST("/extract", handler.ExtractProduct)
			product.POST("/split", handler.SplitIngredients)
			product.POST("/analyze", handler.AnalyzeProduct)
		}
	}

	return router
}
