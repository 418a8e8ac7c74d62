package chart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dnldd/chartfeed/cache"
	"github.com/dnldd/chartfeed/market"
	"github.com/dnldd/chartfeed/shared"
)

// RelativeStrengthPoint is the ratio of a symbol's close to a benchmark's close at a bucket.
type RelativeStrengthPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// auxiliaryKey returns the auxiliary cache key of a bar lookup.
func auxiliaryKey(symbol string, interval shared.Interval, lookbackDays int) string {
	return fmt.Sprintf("bars:%s:%s:%d", symbol, interval.String(), lookbackDays)
}

// fetchCachedCandles returns the bars of a symbol, served from the auxiliary cache when present.
func (c *Chart) fetchCachedCandles(ctx context.Context, symbol string, interval shared.Interval, lookbackDays int) ([]shared.CandleBar, error) {
	key := auxiliaryKey(symbol, interval, lookbackDays)
	if bars, ok := c.cfg.AuxCache.Get(key); ok {
		return bars, nil
	}

	bars, err := c.fetchCandles(ctx, symbol, interval, lookbackDays)
	if err != nil {
		return nil, err
	}

	c.cfg.AuxCache.SetTTL(key, bars, cache.AuxiliaryTTL)

	return bars, nil
}

// bucketMinutes returns the alignment bucket size for the provided interval. Daily and weekly
// bars are stamped at utc midnight so they align on day buckets.
func bucketMinutes(interval shared.Interval) int {
	minutes := int(interval.Duration().Minutes())
	if minutes > 24*60 {
		return 24 * 60
	}

	return minutes
}

// FetchRelativeStrength returns the ratio of the requested symbol's closes to the benchmark's
// closes over the buckets both series have bars for.
func (c *Chart) FetchRelativeStrength(ctx context.Context, req *shared.ChartRequest, benchmark string) ([]RelativeStrengthPoint, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validating chart request: %w", err)
	}

	benchmark = strings.ToUpper(strings.TrimSpace(benchmark))
	if benchmark == "" {
		return nil, fmt.Errorf("benchmark cannot be an empty string")
	}

	var wg sync.WaitGroup
	var bars, benchBars []shared.CandleBar
	var barsErr, benchErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		bars, barsErr = c.fetchCachedCandles(ctx, req.Symbol, req.Interval, req.LookbackDays)
	}()
	go func() {
		defer wg.Done()
		benchBars, benchErr = c.fetchCachedCandles(ctx, benchmark, req.Interval, req.LookbackDays)
	}()
	wg.Wait()

	if barsErr != nil {
		return nil, fmt.Errorf("fetching %s bars: %w", req.Symbol, barsErr)
	}
	if benchErr != nil {
		return nil, fmt.Errorf("fetching %s benchmark bars: %w", benchmark, benchErr)
	}

	pairs := market.AlignSeries(bars, benchBars, bucketMinutes(req.Interval))
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%s against %s: %w", req.Symbol, benchmark, shared.ErrNoData)
	}

	points := make([]RelativeStrengthPoint, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Right.Close == 0 {
			continue
		}

		points = append(points, RelativeStrengthPoint{
			Time:  pair.Time,
			Value: pair.Left.Close / pair.Right.Close,
		})
	}

	return points, nil
}
