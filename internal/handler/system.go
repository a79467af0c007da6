package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/LingVoice/pkg/response"
)

// HealthCheck health check endpoint
func (h *Handlers) HealthCheck(c *gin.Context) {
	// Check database connection
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	modelStatus := "ok"
	if err := h.engine.CheckHealth(ctx); err != nil {
		modelStatus = "unavailable"
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy", "model": modelStatus})
}

// SystemStatus 系统状态，含已注册用户数量
func (h *Handlers) SystemStatus(c *gin.Context) {
	names, err := h.engine.ListUsers(c.Request.Context())
	if err != nil {
		response.FailWithError(c, err)
		return
	}

	response.Success(c, "Success", gin.H{
		"enrolled_users": len(names),
		"clone_enabled":  h.cloneService != nil,
		"timestamp":      time.Now().Unix(),
	})
}
