package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ktnshm/receipt-scanner/api/handlers"
	"github.com/ktnshm/receipt-scanner/api/middleware"
)

// SetupRoutes wires the receipt API.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	v1.GET("/capabilities", h.Receipt.Capabilities)

	receipts := v1.Group("/receipts")
	{
		receipts.POST("/process", h.Receipt.Process)
		receipts.POST("/batch", h.Receipt.ProcessBatch)
		receipts.GET("", h.Receipt.List)
		receipts.GET("/export", h.Receipt.Export)
		receipts.DELETE("", h.Receipt.Clear)
		receipts.GET("/status/:taskId", h.Receipt.Status)
		receipts.DELETE("/task/:taskId", h.Receipt.Cancel)
	}
}
