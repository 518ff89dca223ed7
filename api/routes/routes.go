package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-client/api/handlers"
	"github.com/feichai0017/document-client/api/middleware"
	"github.com/feichai0017/document-client/pkg/logger"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger, origins ...string) {
	r.Use(middleware.CORS(origins...))
	r.Use(middleware.RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	docs := v1.Group("/documents")
	{
		docs.POST("/batch", h.Document.FetchBatch)
		docs.GET("/:id", h.Document.GetDocument)
		docs.POST("/:id/fetch", h.Document.FetchDocument)
	}

	v1.GET("/briefs", h.Document.GetBriefs)
	v1.POST("/briefs/refresh", h.Document.RefreshBriefs)

	v1.GET("/user", h.User.GetUser)
	v1.PUT("/user", h.User.SetUser)

	v1.GET("/subscriptions", h.Document.GetSubscriptions)
	v1.DELETE("/subscriptions", h.Document.CloseSubscriptions)
}
