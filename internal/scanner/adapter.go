package scanner

import (
	"context"

	"go.uber.org/zap"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/pkg/config"
)

// Adapter acquires a single tag read. Both implementations produce the
// same result shape so the workflow never branches on adapter identity
// after the initial selection.
type Adapter interface {
	// BeginScan blocks until a tag is read, the adapter's upper bound
	// elapses, or ctx is cancelled. Errors are drawn from the workflow
	// error taxonomy.
	BeginScan(ctx context.Context) (models.ScanResult, error)
	// Status reports reader availability and the platform label.
	Status(ctx context.Context) models.ScannerStatus
}

// Select picks the adapter once, at session construction. A real reader is
// used only when the bridge answers and mock mode is not forced; any other
// situation (non-kiosk execution context, bridge daemon down, explicit
// config) degrades to the deterministic mock.
func Select(ctx context.Context, cfg config.ScannerConfig, bridge Bridge, logger *zap.Logger) Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.ForceMock {
		logger.Info("scanner: mock adapter forced by configuration")
		return NewMock(cfg)
	}

	if bridge == nil {
		logger.Info("scanner: no bridge configured, using mock adapter")
		return NewMock(cfg)
	}

	status, err := bridge.Status(ctx)
	if err != nil {
		logger.Warn("scanner: bridge unreachable, using mock adapter", zap.Error(err))
		return NewMock(cfg)
	}

	logger.Info("scanner: hardware bridge detected",
		zap.String("platform", status.Platform),
		zap.Bool("available", status.Available))
	return NewHardware(bridge, cfg, logger)
}
