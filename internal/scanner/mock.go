package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/pkg/config"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
)

// defaultMockTags mirrors the hardware tag format so downstream validation
// behaves identically in development and on the kiosk.
var defaultMockTags = []models.Tag{
	"04:D6:94:82:97:6A:80",
	"04:A7:B3:C2:D1:E0:F5",
	"04:12:34:56:78:9A:BC",
	"04:FE:DC:BA:98:76:54",
	"04:11:22:33:44:55:66",
}

// MockAdapter produces deterministic tag reads from a fixed pool with a
// simulated latency. It stands in whenever the hardware bridge is not
// reachable or mock mode is forced.
type MockAdapter struct {
	pool    []models.Tag
	latency time.Duration

	mu   sync.Mutex
	next int
}

// NewMock builds the mock adapter. The seed rotates the pool's starting
// position so separate sessions do not always begin on the same tag, while
// reads within a session stay fully predictable.
func NewMock(cfg config.ScannerConfig) *MockAdapter {
	pool := make([]models.Tag, 0, len(cfg.MockTags))
	for _, raw := range cfg.MockTags {
		pool = append(pool, models.Tag(raw))
	}
	if len(pool) == 0 {
		pool = append(pool, defaultMockTags...)
	}

	latency := cfg.MockLatency
	if latency < 0 {
		latency = 0
	}

	start := 0
	if cfg.MockSeed > 0 {
		start = int(cfg.MockSeed % int64(len(pool)))
	}

	return &MockAdapter{pool: pool, latency: latency, next: start}
}

// BeginScan waits the simulated latency then yields the next pool tag.
func (a *MockAdapter) BeginScan(ctx context.Context) (models.ScanResult, error) {
	if a.latency > 0 {
		timer := time.NewTimer(a.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.ScanResult{}, appErrors.Wrap(ctx.Err(), appErrors.ErrScanTimeout.Code, appErrors.ErrScanTimeout.Status, appErrors.ErrScanTimeout.Message)
		case <-timer.C:
		}
	}

	a.mu.Lock()
	tag := a.pool[a.next%len(a.pool)]
	a.next++
	a.mu.Unlock()

	return models.ScanResult{TagID: tag, ScannedAt: time.Now().UTC()}, nil
}

// Status always reports available: the mock has no hardware to lose.
func (a *MockAdapter) Status(ctx context.Context) models.ScannerStatus {
	return models.ScannerStatus{
		Available: true,
		Platform:  fmt.Sprintf("%s (%s, mock)", config.PlatformDevelopment, runtime.GOARCH),
	}
}
