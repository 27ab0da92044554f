package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pnsenthil/smartshop/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestLogger(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/profiles", handler.ListProfiles)
		v1.GET("/profiles/:id/scenarios", handler.ProfileScenarios)
		v1.GET("/engine/status", handler.EngineInfo)

		session := v1.Group("/session")
		{
			session.POST("", handler.SelectProfile)
			session.GET("", handler.GetSession)
			session.POST("/home", handler.ReturnHome)
			session.POST("/scan", handler.Scan)

			session.GET("/nudge", handler.OpenNudge)
			session.POST("/nudge/accept", handler.AcceptNudge)
			session.POST("/nudge/dismiss", handler.DismissNudge)

			session.GET("/checkout", handler.CheckoutSummary)
			session.POST("/checkout/complete", handler.CompleteOrder)
		}
	}

	return router
}
