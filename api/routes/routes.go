package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/minutes-generator/api/handlers"
	"github.com/feichai0017/minutes-generator/api/middleware"
	"github.com/feichai0017/minutes-generator/pkg/logger"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger) {
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.CORS())

	r.GET("/health", handlers.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.GET("/form", h.Minutes.GetForm)

	docs := v1.Group("/minutes")
	{
		docs.POST("", h.Minutes.Generate)
		docs.GET("/:filename", h.Minutes.Download)
	}
}
