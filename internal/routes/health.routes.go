package routes

import (
	"nodewarden/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterHealthRoutes(r *gin.Engine) {
	health := r.Group("/health")
	{
		health.GET("/", controllers.GetHealthSummary)
		health.GET("/reports", controllers.GetHealthReports)
	}

	// WebSocket endpoint for the live report stream
	r.GET("/ws", controllers.HandleWebSocket)
}
