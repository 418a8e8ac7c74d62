package shared

import (
	"context"
)

// BarFetcher defines the requirements for fetching normalized market bars.
type BarFetcher interface {
	// FetchDailyBars fetches the daily bar history of the provided symbol.
	FetchDailyBars(ctx context.Context, symbol string) ([]DailyBar, error)
	// FetchIntradayBars fetches intraday bars for the provided symbol covering the lookback window.
	FetchIntradayBars(ctx context.Context, symbol string, interval Interval, lookbackDays int) ([]IntradayBar, error)
}

// BarStorer defines the requirements for persisting computed chart bars.
type BarStorer interface {
	// PersistBars stores the provided bars of a symbol and interval.
	PersistBars(ctx context.Context, symbol string, interval Interval, bars []CandleBar) error
}
