package http

import (
	"context"
	"net/http"
	"time"

	"streamgate/internal/infrastructure/monitoring"

	"github.com/gin-gonic/gin"
)

// ReadinessChecker runs the registered dependency checks.
type ReadinessChecker interface {
	CheckAll(ctx context.Context) monitoring.HealthStatus
}

// HealthHandler serves the liveness and readiness endpoints. Liveness is
// unconditional; readiness reflects the dependency checks.
type HealthHandler struct {
	checker ReadinessChecker
	started time.Time
}

func NewHealthHandler(checker ReadinessChecker, started time.Time) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		started: started,
	}
}

func (h *HealthHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.started).String(),
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	status := h.checker.CheckAll(c.Request.Context())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
