package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreportal/kiosk-agent/pkg/config"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
)

func TestMockAdapterRoundRobin(t *testing.T) {
	adapter := NewMock(config.ScannerConfig{MockLatency: 0})

	seen := make([]string, 0, len(defaultMockTags)+1)
	for i := 0; i <= len(defaultMockTags); i++ {
		result, err := adapter.BeginScan(context.Background())
		require.NoError(t, err)
		assert.True(t, result.TagID.Valid())
		seen = append(seen, result.TagID.String())
	}

	assert.Equal(t, defaultMockTags[0].String(), seen[0])
	assert.Equal(t, defaultMockTags[1].String(), seen[1])
	// The pool wraps around after the last entry.
	assert.Equal(t, seen[0], seen[len(defaultMockTags)])
}

func TestMockAdapterSeedRotatesStart(t *testing.T) {
	adapter := NewMock(config.ScannerConfig{MockLatency: 0, MockSeed: 2})

	result, err := adapter.BeginScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultMockTags[2], result.TagID)
}

func TestMockAdapterCustomPool(t *testing.T) {
	adapter := NewMock(config.ScannerConfig{
		MockLatency: 0,
		MockTags:    []string{"BADGE-001", "BADGE-002"},
	})

	first, err := adapter.BeginScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BADGE-001", first.TagID.String())

	second, err := adapter.BeginScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BADGE-002", second.TagID.String())
}

func TestMockAdapterLatencyRespectsContext(t *testing.T) {
	adapter := NewMock(config.ScannerConfig{MockLatency: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := adapter.BeginScan(ctx)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrScanTimeout))
}

func TestMockAdapterAlwaysAvailable(t *testing.T) {
	adapter := NewMock(config.ScannerConfig{})

	status := adapter.Status(context.Background())
	assert.True(t, status.Available)
	assert.Contains(t, status.Platform, "mock")
}
