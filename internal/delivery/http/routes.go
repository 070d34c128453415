package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/grocerai/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	if cfg.Server.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	}

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// Order assistant routes
	api := router.Group("/")
	api.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	api.Use(TimeoutMiddleware(cfg.Server.RequestTimeout))
	{
		api.POST("/process-order/", handler.ProcessOrder)
		api.GET("/products", handler.ListProducts)
		api.POST("/upload-audio/", handler.UploadAudio)
		api.POST("/upload-image/", handler.UploadImage)
	}

	return router
}
