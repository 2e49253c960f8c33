package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pyreportal/kiosk-agent/internal/client"
	"github.com/pyreportal/kiosk-agent/internal/service"
	"github.com/pyreportal/kiosk-agent/pkg/response"
)

// AdminHandler serves the PIN-guarded maintenance screen.
type AdminHandler struct {
	metrics  *service.MetricsService
	checkins *service.CheckinService
	roster   *service.RosterService
	api      client.AssignmentAPI
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(metrics *service.MetricsService, checkins *service.CheckinService, roster *service.RosterService, api client.AssignmentAPI) *AdminHandler {
	return &AdminHandler{metrics: metrics, checkins: checkins, roster: roster, api: api}
}

// Metrics godoc
// @Summary Maintenance metrics snapshot
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/metrics [get]
func (h *AdminHandler) Metrics(c *gin.Context) {
	snapshot := h.metrics.Snapshot()
	if pending, err := h.checkins.PendingCount(c.Request.Context()); err == nil {
		snapshot.PendingScans = pending
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// InvalidateRoster godoc
// @Summary Drop the cached roster
// @Tags Admin
// @Success 204
// @Router /admin/roster/cache [delete]
func (h *AdminHandler) InvalidateRoster(c *gin.Context) {
	h.roster.Invalidate(c.Request.Context())
	response.NoContent(c)
}

// Upstream godoc
// @Summary Probe the assignment service
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/upstream [get]
func (h *AdminHandler) Upstream(c *gin.Context) {
	if err := h.api.Health(c.Request.Context()); err != nil {
		response.JSON(c, http.StatusOK, gin.H{"reachable": false, "error": err.Error()}, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"reachable": true}, nil)
}
