package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/pkg/config"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
)

type fakeBridge struct {
	status    models.ScannerStatus
	statusErr error
	result    models.ScanResult
	scanErr   error
	block     bool
}

func (b *fakeBridge) Status(ctx context.Context) (models.ScannerStatus, error) {
	return b.status, b.statusErr
}

func (b *fakeBridge) ScanOnce(ctx context.Context) (models.ScanResult, error) {
	if b.block {
		<-ctx.Done()
		return models.ScanResult{}, ctx.Err()
	}
	return b.result, b.scanErr
}

func TestHardwareAdapterSuccessfulRead(t *testing.T) {
	bridge := &fakeBridge{result: models.ScanResult{TagID: "04:D6:94:82:97:6A:80", ScannedAt: time.Now()}}
	adapter := NewHardware(bridge, config.ScannerConfig{ScanTimeout: time.Second}, nil)

	result, err := adapter.BeginScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Tag("04:D6:94:82:97:6A:80"), result.TagID)
}

func TestHardwareAdapterTimeout(t *testing.T) {
	bridge := &fakeBridge{block: true}
	adapter := NewHardware(bridge, config.ScannerConfig{ScanTimeout: 20 * time.Millisecond}, nil)

	_, err := adapter.BeginScan(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrScanTimeout))
}

func TestHardwareAdapterDaemonTimeoutMessage(t *testing.T) {
	bridge := &fakeBridge{scanErr: errors.New("scanner bridge: card polling timeout")}
	adapter := NewHardware(bridge, config.ScannerConfig{ScanTimeout: time.Second}, nil)

	_, err := adapter.BeginScan(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrScanTimeout))
}

func TestHardwareAdapterHardwareError(t *testing.T) {
	bridge := &fakeBridge{scanErr: errors.New("scanner bridge: reader fault")}
	adapter := NewHardware(bridge, config.ScannerConfig{ScanTimeout: time.Second}, nil)

	_, err := adapter.BeginScan(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrScanHardware))
}

func TestHardwareAdapterRejectsMalformedTag(t *testing.T) {
	bridge := &fakeBridge{result: models.ScanResult{TagID: "!!"}}
	adapter := NewHardware(bridge, config.ScannerConfig{ScanTimeout: time.Second}, nil)

	_, err := adapter.BeginScan(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTagFormat))
}

func TestHardwareAdapterStatusFallsBackOnError(t *testing.T) {
	bridge := &fakeBridge{statusErr: errors.New("connection refused")}
	adapter := NewHardware(bridge, config.ScannerConfig{}, nil)

	status := adapter.Status(context.Background())
	assert.False(t, status.Available)
	assert.Equal(t, config.PlatformKiosk, status.Platform)
	assert.Contains(t, status.LastError, "connection refused")
}

func TestSelectPrefersMockWhenForcedOrBridgeDown(t *testing.T) {
	cfg := config.ScannerConfig{ForceMock: true}
	adapter := Select(context.Background(), cfg, &fakeBridge{}, nil)
	_, isMock := adapter.(*MockAdapter)
	assert.True(t, isMock)

	cfg = config.ScannerConfig{}
	adapter = Select(context.Background(), cfg, &fakeBridge{statusErr: errors.New("down")}, nil)
	_, isMock = adapter.(*MockAdapter)
	assert.True(t, isMock)

	adapter = Select(context.Background(), cfg, &fakeBridge{status: models.ScannerStatus{Available: true, Platform: "kiosk"}}, nil)
	_, isHardware := adapter.(*HardwareAdapter)
	assert.True(t, isHardware)
}
