package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/config"
	"github.com/pageza/recipebox/backend/internal/api"
	"github.com/pageza/recipebox/backend/internal/middleware"
	"github.com/pageza/recipebox/backend/internal/service"
)

// SetupRouter configures the application routes. A nil limiter disables
// rate limiting.
func SetupRouter(db *gorm.DB, cfg *config.Config, limiter middleware.Limiter) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Operational endpoints are not rate limited
	router.GET("/health", api.HealthCheck(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	recipeHandler := api.NewRecipeHandler(service.NewRecipeService(db))

	public := router.Group("")
	if limiter != nil {
		public.Use(middleware.RateLimit(limiter))
	}
	recipeHandler.RegisterRoutes(public)

	return router
}
