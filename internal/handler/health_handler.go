package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadinessChecker reports whether backing services are reachable.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checker ReadinessChecker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checker ReadinessChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Liveness handles GET /healthz
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
// @Summary      Readiness probe
// @Description  Reports whether the database is reachable
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	if err := h.checker.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database not reachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
