package scanner

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/pkg/config"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
)

// HardwareAdapter delegates to the scanner daemon with an upper bound wait.
// The adapter, not the UI modal, is the source of truth for the timeout
// outcome: after scanTimeout it surfaces SCAN_TIMEOUT rather than hanging.
type HardwareAdapter struct {
	bridge      Bridge
	scanTimeout time.Duration
	logger      *zap.Logger
}

// NewHardware builds the hardware-backed adapter.
func NewHardware(bridge Bridge, cfg config.ScannerConfig, logger *zap.Logger) *HardwareAdapter {
	timeout := cfg.ScanTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HardwareAdapter{bridge: bridge, scanTimeout: timeout, logger: logger}
}

// BeginScan performs one bounded read on the physical reader.
func (a *HardwareAdapter) BeginScan(ctx context.Context) (models.ScanResult, error) {
	scanCtx, cancel := context.WithTimeout(ctx, a.scanTimeout)
	defer cancel()

	result, err := a.bridge.ScanOnce(scanCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(scanCtx.Err(), context.DeadlineExceeded) {
			return models.ScanResult{}, appErrors.Wrap(err, appErrors.ErrScanTimeout.Code, appErrors.ErrScanTimeout.Status, appErrors.ErrScanTimeout.Message)
		}
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			return models.ScanResult{}, appErrors.Wrap(err, appErrors.ErrScanTimeout.Code, appErrors.ErrScanTimeout.Status, appErrors.ErrScanTimeout.Message)
		}
		return models.ScanResult{}, appErrors.Wrap(err, appErrors.ErrScanHardware.Code, appErrors.ErrScanHardware.Status, appErrors.ErrScanHardware.Message)
	}

	if !result.TagID.Valid() {
		a.logger.Warn("hardware scan returned malformed tag", zap.String("tag", result.TagID.String()))
		return models.ScanResult{}, appErrors.Clone(appErrors.ErrInvalidTagFormat, "")
	}

	return result, nil
}

// Status proxies the daemon's reader availability.
func (a *HardwareAdapter) Status(ctx context.Context) models.ScannerStatus {
	status, err := a.bridge.Status(ctx)
	if err != nil {
		return models.ScannerStatus{
			Available: false,
			Platform:  config.PlatformKiosk,
			LastError: err.Error(),
		}
	}
	if status.Platform == "" {
		status.Platform = config.PlatformKiosk
	}
	return status
}
