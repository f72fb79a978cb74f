package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nodewarden/internal/services"
)

func GetStatus(c *gin.Context) {
	status, err := services.GetSystemStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func GetCPU(c *gin.Context) {
	cpu, err := services.GetCPUUsage(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cpu)
}

func GetMemory(c *gin.Context) {
	memory, err := services.GetMemoryUsage(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, memory)
}

func GetDisk(c *gin.Context) {
	disks, err := services.GetAllDiskUsage(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, disks)
}

func GetNetwork(c *gin.Context) {
	network, err := services.GetNetworkUsage(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, network)
}
