package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"dnsproxy/internal/api/handlers"
	"dnsproxy/internal/api/middleware"
	"dnsproxy/internal/config"
)

// RegisterRoutes wires every management endpoint onto r.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg config.Config) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	if cfg.API.APIKey != "" {
		v1.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	v1.GET("/health", h.Health)
	v1.GET("/stats", h.Stats)
	v1.GET("/events", h.Events)

	v1.GET("/lifecycle/state", h.LifecycleState)
	v1.POST("/lifecycle/start", h.LifecycleStart)
	v1.POST("/lifecycle/stop", h.LifecycleStop)
	v1.POST("/lifecycle/toggle", h.LifecycleToggle)

	v1.GET("/config", h.GetConfig)
	v1.PUT("/config", h.PutConfig)
	v1.PUT("/storage/drivers", h.PutStorageDrivers)

	v1.GET("/filtering/whitelist", h.GetWhitelist)
	v1.POST("/filtering/whitelist", h.AddWhitelist)
	v1.DELETE("/filtering/whitelist", h.RemoveWhitelist)

	v1.GET("/filtering/blacklist", h.GetBlacklist)
	v1.POST("/filtering/blacklist", h.AddBlacklist)
	v1.DELETE("/filtering/blacklist", h.RemoveBlacklist)

	v1.GET("/filtering/stats", h.FilteringStats)
	v1.PUT("/filtering/enabled", h.SetFilteringEnabled)

	v1.GET("/logs", h.GetLogs)
	v1.DELETE("/logs", h.ClearLogs)
	v1.GET("/logs/stats", h.LogStats)
}
