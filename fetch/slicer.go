package fetch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dnldd/chartfeed/shared"
	"github.com/tidwall/gjson"
)

// defaultSliceDays is the number of days requested per intraday history slice. Finer
// intervals use shorter slices to stay within the rows the provider returns per call.
var defaultSliceDays = map[shared.Interval]int{
	shared.OneMinute:     5,
	shared.FiveMinute:    20,
	shared.FifteenMinute: 40,
	shared.ThirtyMinute:  60,
	shared.OneHour:       90,
	shared.FourHour:      180,
}

// dateRange represents the inclusive calendar day bounds of a history slice.
type dateRange struct {
	from time.Time
	to   time.Time
}

// sliceDays returns the slice size for the provided interval.
func (c *FMPClient) sliceDays(interval shared.Interval) int {
	if days, ok := c.cfg.SliceDays[interval]; ok && days > 0 {
		return days
	}
	if days, ok := defaultSliceDays[interval]; ok {
		return days
	}

	return 30
}

// dateSlices partitions [today - lookbackDays, today] into consecutive, non overlapping
// ranges of at most sliceDays days, oldest first.
func dateSlices(today time.Time, lookbackDays int, sliceDays int) []dateRange {
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	start := end.AddDate(0, 0, -lookbackDays)

	var ranges []dateRange
	for from := start; !from.After(end); {
		to := from.AddDate(0, 0, sliceDays-1)
		if to.After(end) {
			to = end
		}

		ranges = append(ranges, dateRange{from: from, to: to})
		from = to.AddDate(0, 0, 1)
	}

	return ranges
}

// rowDatetime returns the raw timestamp of an intraday row.
func rowDatetime(row gjson.Result) string {
	if date := row.Get("date").String(); date != "" {
		return date
	}

	return row.Get("datetime").String()
}

// mergeRows adds the provided rows to the merged set keyed by normalized exchange timestamp,
// overwriting earlier rows sharing a timestamp. Rows with unparseable timestamps are dropped.
func (c *FMPClient) mergeRows(merged map[string]gjson.Result, rows []gjson.Result) {
	for idx := range rows {
		key, err := c.cfg.Calendar.NormalizeDatetime(rowDatetime(rows[idx]))
		if err != nil {
			continue
		}

		merged[key] = rows[idx]
	}
}

// FetchIntradayHistory assembles intraday rows for the provided symbol covering the lookback
// window by requesting successive date bounded slices.
//
// Slices are requested sequentially so a subscription restriction aborts the whole sequence.
// Other slice failures are logged and skipped. When no slice yields rows a single request
// without date bounds is issued. Rows are returned in ascending timestamp order.
func (c *FMPClient) FetchIntradayHistory(ctx context.Context, symbol string, interval shared.Interval, lookbackDays int) ([]gjson.Result, error) {
	if !interval.IsIntraday() {
		return nil, fmt.Errorf("unsupported intraday interval: %s", interval.String())
	}

	merged := make(map[string]gjson.Result)

	var lastErr error
	if lookbackDays > 0 {
		today := c.cfg.Now().In(c.cfg.Calendar.Location())
		for _, r := range dateSlices(today, lookbackDays, c.sliceDays(interval)) {
			rows, err := c.fetchFirst(ctx, c.intradayURLs(symbol, interval, r.from, r.to), nil)
			if err != nil {
				if isFatal(err) || ctx.Err() != nil {
					return nil, fmt.Errorf("fetching %s %s slice %s to %s: %w", symbol, interval.String(),
						r.from.Format(shared.DayLayout), r.to.Format(shared.DayLayout), err)
				}

				c.cfg.Logger.Warn().Msgf("fetching %s %s slice %s to %s: %v", symbol, interval.String(),
					r.from.Format(shared.DayLayout), r.to.Format(shared.DayLayout), err)
				lastErr = err
				continue
			}

			c.mergeRows(merged, rows)
		}
	}

	if len(merged) == 0 {
		rows, err := c.fetchFirst(ctx, c.intradayURLs(symbol, interval, time.Time{}, time.Time{}), nil)
		if err != nil {
			return nil, fmt.Errorf("fetching unbounded %s %s history: %w", symbol, interval.String(), err)
		}

		c.mergeRows(merged, rows)
	}

	if len(merged) == 0 && lastErr != nil {
		return nil, fmt.Errorf("fetching %s %s history: %w", symbol, interval.String(), lastErr)
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]gjson.Result, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, merged[key])
	}

	return rows, nil
}

// FetchIntradayBars fetches normalized intraday bars for the provided symbol, retrying the
// whole history assembly for alternate symbol notations until one yields rows.
func (c *FMPClient) FetchIntradayBars(ctx context.Context, symbol string, interval shared.Interval, lookbackDays int) ([]shared.IntradayBar, error) {
	var lastErr error
	for _, variant := range SymbolVariants(symbol) {
		rows, err := c.FetchIntradayHistory(ctx, variant, interval, lookbackDays)
		if err != nil {
			if isFatal(err) || ctx.Err() != nil {
				return nil, err
			}

			c.cfg.Logger.Warn().Msgf("fetching intraday bars for %s: %v", variant, err)
			lastErr = err
			continue
		}

		bars := ParseIntradayBars(rows, c.cfg.Calendar)
		if len(bars) > 0 {
			return bars, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("fetching intraday bars for %s: %w", symbol, lastErr)
	}

	return []shared.IntradayBar{}, nil
}
