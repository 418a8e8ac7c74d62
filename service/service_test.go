package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dnldd/chartfeed/shared"
	"github.com/peterldowns/testy/assert"
)

const replayData = `{
	"market": "^GSPC",
	"1day": [
		{"date":"2025-03-06","open":5700,"high":5750,"low":5650,"close":5720,"volume":1000},
		{"date":"2025-03-07","open":5720,"high":5780,"low":5690,"close":5770,"volume":1200}
	],
	"1hour": [
		{"date":"2025-03-07 09:30:00","open":5720,"high":5740,"low":5710,"close":5735,"volume":300},
		{"date":"2025-03-07 10:30:00","open":5735,"high":5745,"low":5700,"close":5705,"volume":200}
	],
	"5min": [
		{"date":"2025-03-07 09:30:00","open":5720,"high":5726,"low":5719,"close":5725,"volume":50},
		{"date":"2025-03-07 09:35:00","open":5725,"high":5727,"low":5715,"close":5716,"volume":40},
		{"date":"2025-03-07 09:40:00","open":5716,"high":5730,"low":5716,"close":5729,"volume":30}
	]
}`

// setupReplayFile writes the replay payload to a temp file.
func setupReplayFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "replay.json")
	err := os.WriteFile(path, []byte(replayData), 0o600)
	assert.NoError(t, err)

	return path
}

func TestChartFeedConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ChartFeedConfig
		wantErr []string
	}{
		{
			name: "valid provider config",
			cfg:  ChartFeedConfig{Markets: []string{"AAPL"}, FMPAPIKey: "key"},
		},
		{
			name: "missing api key is not a config error",
			cfg:  ChartFeedConfig{},
		},
		{
			name:    "replay without filepath",
			cfg:     ChartFeedConfig{Replay: true},
			wantErr: []string{"replay data filepath cannot be an empty string"},
		},
		{
			name: "invalid bounds",
			cfg:  ChartFeedConfig{Timeout: -time.Second, LookbackDays: -1, CacheSize: -1},
			wantErr: []string{
				"timeout cannot be negative",
				"lookback days must be between",
				"cache size cannot be negative",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("expected error to contain %q, got %v", want, err)
				}
			}
		})
	}
}

func TestChartFeedReplay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := NewChartFeed(ctx, &ChartFeedConfig{
		Replay:             true,
		ReplayDataFilepath: setupReplayFile(t),
		LookbackDays:       5,
	})
	assert.NoError(t, err)

	// Ensure the replayed market is tracked.
	assert.Equal(t, feed.markets, []string{"^GSPC"})

	// Ensure chart data is served from the replayed market data.
	data, err := feed.ChartData(ctx, "^gspc", "5min", 0)
	assert.NoError(t, err)
	assert.Equal(t, len(data.Bars), 3)
	assert.Equal(t, len(data.RSI), 3)
	assert.Equal(t, data.RSI[1].Value, float64(0))
	assert.Equal(t, data.RSI[2].Value, float64(59.09))

	data, err = feed.ChartData(ctx, "^GSPC", "1day", 0)
	assert.NoError(t, err)
	assert.Equal(t, len(data.Bars), 2)
	assert.Equal(t, len(data.VolumeDeltaRSI.RSI), 1)

	// Ensure unknown markets report no data.
	_, err = feed.ChartData(ctx, "AAPL", "5min", 0)
	assert.True(t, errors.Is(err, shared.ErrNoData))

	// Ensure invalid requests are rejected.
	_, err = feed.ChartData(ctx, "^GSPC", "2min", 0)
	assert.Error(t, err)

	// Ensure the warm up job populates the chart cache.
	feed.warmUp(ctx)
	assert.GreaterThanOrEqual(t, feed.chartCache.Len(), 3)

	// Ensure sweeping keeps unexpired entries.
	feed.sweepCaches()
	assert.GreaterThanOrEqual(t, feed.chartCache.Len(), 3)
}

func TestChartFeedGracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := NewChartFeed(ctx, &ChartFeedConfig{
		Replay:             true,
		ReplayDataFilepath: setupReplayFile(t),
	})
	assert.NoError(t, err)

	// Ensure the service can be run and gracefully terminated.
	time.AfterFunc(time.Millisecond*200, func() {
		cancel()
	})
	done := make(chan error)
	go func() {
		done <- feed.Run(ctx)
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second * 5):
		t.Fatal("timed out waiting for the service to stop")
	}
}
