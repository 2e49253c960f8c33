package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/internal/service"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
	"github.com/pyreportal/kiosk-agent/pkg/response"
)

// AuditHandler serves the local scan log and its exports.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary List scan log entries
// @Tags ScanLog
// @Produce json
// @Param day query string false "Filter by day (YYYY-MM-DD)"
// @Param kind query string false "SCAN, LOOKUP or COMMIT"
// @Param tag query string false "Filter by tag id"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /scan-log [get]
func (h *AuditHandler) List(c *gin.Context) {
	filter, err := parseScanLogFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	events, pagination, err := h.audit.List(c.Request.Context(), *filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Export godoc
// @Summary Export the scan log
// @Tags ScanLog
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Param day query string false "Filter by day (YYYY-MM-DD)"
// @Param X-Admin-PIN header string true "Maintenance PIN"
// @Success 200 {file} binary
// @Router /admin/scan-log/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	filter, err := parseScanLogFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		payload, err := h.audit.ExportCSV(c.Request.Context(), *filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="scan-log.csv"`)
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.audit.ExportPDF(c.Request.Context(), *filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="scan-log.pdf"`)
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func parseScanLogFilter(c *gin.Context) (*models.ScanEventFilter, error) {
	filter := models.ScanEventFilter{}

	if day := c.Query("day"); day != "" {
		parsed, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "day must be formatted YYYY-MM-DD")
		}
		filter.Day = &parsed
	}
	if kind := c.Query("kind"); kind != "" {
		switch models.ScanEventKind(kind) {
		case models.ScanEventScan, models.ScanEventLookup, models.ScanEventCommit:
			filter.Kind = models.ScanEventKind(kind)
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be SCAN, LOOKUP or COMMIT")
		}
	}
	filter.TagID = c.Query("tag")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	return &filter, nil
}
