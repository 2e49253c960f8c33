package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pyreportal/kiosk-agent/internal/scanner"
	"github.com/pyreportal/kiosk-agent/pkg/response"
)

// HealthHandler reports agent liveness.
type HealthHandler struct {
	adapter scanner.Adapter
	started time.Time
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(adapter scanner.Adapter) *HealthHandler {
	return &HealthHandler{adapter: adapter, started: time.Now().UTC()}
}

// Health godoc
// @Summary Agent health
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(h.started).String(),
		"scanner": h.adapter.Status(c.Request.Context()),
	}, nil)
}

// Ready godoc
// @Summary Agent readiness
// @Tags Health
// @Success 204
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
