package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nodewarden/internal/services"
)

// GetHealthSummary returns the node's aggregated health state
func GetHealthSummary(c *gin.Context) {
	store := services.GetReportStore()
	c.JSON(http.StatusOK, store.Summary())
}

// GetHealthReports returns the currently active health reports
func GetHealthReports(c *gin.Context) {
	store := services.GetReportStore()
	reports := store.Active()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(reports),
		"reports": reports,
	})
}
