package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pyreportal/kiosk-agent/internal/scanner"
	"github.com/pyreportal/kiosk-agent/pkg/response"
)

// ScannerHandler reports the scan adapter's health.
type ScannerHandler struct {
	adapter scanner.Adapter
}

// NewScannerHandler constructs ScannerHandler.
func NewScannerHandler(adapter scanner.Adapter) *ScannerHandler {
	return &ScannerHandler{adapter: adapter}
}

// Status godoc
// @Summary Report scanner availability
// @Tags Scanner
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scanner/status [get]
func (h *ScannerHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.adapter.Status(c.Request.Context()), nil)
}
