package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/internal/service"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
	"github.com/pyreportal/kiosk-agent/pkg/response"
)

// CheckinHandler exposes attendance check-in scans and the offline queue.
type CheckinHandler struct {
	checkins *service.CheckinService
	metrics  *service.MetricsService
}

// NewCheckinHandler constructs CheckinHandler.
func NewCheckinHandler(checkins *service.CheckinService, metrics *service.MetricsService) *CheckinHandler {
	return &CheckinHandler{checkins: checkins, metrics: metrics}
}

type checkinRequest struct {
	TagID string `json:"tag_id" binding:"required"`
}

// Checkin godoc
// @Summary Record an attendance scan
// @Tags Checkin
// @Accept json
// @Produce json
// @Param payload body checkinRequest true "Scanned tag"
// @Success 200 {object} response.Envelope
// @Router /checkin [post]
func (h *CheckinHandler) Checkin(c *gin.Context) {
	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.checkins.Checkin(c.Request.Context(), models.Tag(req.TagID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Pending godoc
// @Summary Report the offline scan backlog
// @Tags Checkin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /checkin/pending [get]
func (h *CheckinHandler) Pending(c *gin.Context) {
	count, err := h.checkins.PendingCount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.SetPendingScans(count)
	response.JSON(c, http.StatusOK, gin.H{"pending": count}, nil)
}

// Flush godoc
// @Summary Trigger an offline queue flush
// @Tags Checkin
// @Success 202
// @Router /checkin/flush [post]
func (h *CheckinHandler) Flush(c *gin.Context) {
	h.checkins.TriggerFlush()
	c.Status(http.StatusAccepted)
}
