package chart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dnldd/chartfeed/cache"
	"github.com/dnldd/chartfeed/indicator"
	"github.com/dnldd/chartfeed/market"
	"github.com/dnldd/chartfeed/shared"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// volumeDeltaSource maps a chart interval to the finer interval its volume delta is built from.
var volumeDeltaSource = map[shared.Interval]shared.Interval{
	shared.FiveMinute:    shared.OneMinute,
	shared.FifteenMinute: shared.OneMinute,
	shared.ThirtyMinute:  shared.FiveMinute,
	shared.OneHour:       shared.FiveMinute,
	shared.FourHour:      shared.FiveMinute,
	shared.OneDay:        shared.OneHour,
	shared.OneWeek:       shared.FourHour,
}

// VolumeDeltaSource returns the finer interval used to compute the volume delta of the
// provided chart interval.
func VolumeDeltaSource(interval shared.Interval) (shared.Interval, bool) {
	source, ok := volumeDeltaSource[interval]
	return source, ok
}

// VolumeDeltaRSI represents the volume delta oscillator of a chart.
type VolumeDeltaRSI struct {
	RSI []shared.OscillatorPoint `json:"rsi"`
}

// ChartData represents the bars and oscillators of a chart.
type ChartData struct {
	Bars           []shared.CandleBar       `json:"bars"`
	RSI            []shared.OscillatorPoint `json:"rsi"`
	VolumeDeltaRSI VolumeDeltaRSI           `json:"volumeDeltaRsi"`
}

// Config represents the chart configuration.
type Config struct {
	// Fetcher fetches normalized market bars.
	Fetcher shared.BarFetcher
	// Calendar represents the exchange calendar.
	Calendar *market.Calendar
	// Cache holds composed chart data.
	Cache *cache.Cache[*ChartData]
	// AuxCache holds fixed lifetime bar lookups used by comparisons.
	AuxCache *cache.Cache[[]shared.CandleBar]
	// Storer persists computed bars. Optional.
	Storer shared.BarStorer
	// RSIPeriod is the oscillator period.
	RSIPeriod int
	// RefreshInterval is how long results are cached during regular trading hours.
	RefreshInterval time.Duration
	// Now returns the current time.
	Now func() time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Fetcher == nil {
		errs = errors.Join(errs, fmt.Errorf("bar fetcher cannot be nil"))
	}
	if cfg.Calendar == nil {
		errs = errors.Join(errs, fmt.Errorf("calendar cannot be nil"))
	}
	if cfg.Cache == nil {
		errs = errors.Join(errs, fmt.Errorf("chart cache cannot be nil"))
	}
	if cfg.AuxCache == nil {
		errs = errors.Join(errs, fmt.Errorf("auxiliary cache cannot be nil"))
	}
	if cfg.RSIPeriod < 0 {
		errs = errors.Join(errs, fmt.Errorf("rsi period cannot be negative"))
	}
	if cfg.RefreshInterval < 0 {
		errs = errors.Join(errs, fmt.Errorf("refresh interval cannot be negative"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Chart composes chart data for market requests.
type Chart struct {
	cfg *Config
}

// NewChart initializes a new chart.
func NewChart(cfg *Config) (*Chart, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating chart config: %w", err)
	}

	if cfg.RSIPeriod == 0 {
		cfg.RSIPeriod = indicator.DefaultRSIPeriod
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = cache.DefaultRefreshInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Chart{cfg: cfg}, nil
}

// fetchCandles fetches the chart bars of a symbol at the provided interval.
func (c *Chart) fetchCandles(ctx context.Context, symbol string, interval shared.Interval, lookbackDays int) ([]shared.CandleBar, error) {
	switch interval {
	case shared.OneDay, shared.OneWeek:
		daily, err := c.cfg.Fetcher.FetchDailyBars(ctx, symbol)
		if err != nil {
			return nil, err
		}

		candles := make([]shared.CandleBar, 0, len(daily))
		for idx := range daily {
			candles = append(candles, shared.DailyCandle(daily[idx]))
		}

		if interval == shared.OneWeek {
			return WeeklyCandles(candles), nil
		}

		return candles, nil

	default:
		intraday, err := c.cfg.Fetcher.FetchIntradayBars(ctx, symbol, interval, lookbackDays)
		if err != nil {
			return nil, err
		}

		aligned := c.cfg.Calendar.Align(intraday)
		candles := make([]shared.CandleBar, 0, len(aligned))
		for idx := range aligned {
			candles = append(candles, shared.IntradayCandle(aligned[idx]))
		}

		return candles, nil
	}
}

// FetchChartData returns the bars and oscillators for the provided request, serving cached
// results until they expire.
//
// The chart series and the finer volume delta source series are fetched concurrently. A
// failure of the volume delta source leaves its oscillator empty rather than failing the chart.
func (c *Chart) FetchChartData(ctx context.Context, req *shared.ChartRequest) (*ChartData, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validating chart request: %w", err)
	}

	key := req.Key()
	if data, ok := c.cfg.Cache.Get(key); ok {
		return data, nil
	}

	id := uuid.New().String()
	c.cfg.Logger.Debug().Str("request", id).Msgf("computing chart data for %s", key)

	var wg sync.WaitGroup
	var bars, fine []shared.CandleBar
	var barsErr, fineErr error

	source, hasSource := volumeDeltaSource[req.Interval]

	wg.Add(1)
	go func() {
		defer wg.Done()
		bars, barsErr = c.fetchCandles(ctx, req.Symbol, req.Interval, req.LookbackDays)
	}()

	if hasSource {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fine, fineErr = c.fetchCandles(ctx, req.Symbol, source, req.LookbackDays)
		}()
	}

	wg.Wait()

	if barsErr != nil {
		return nil, fmt.Errorf("fetching %s bars: %w", key, barsErr)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", key, shared.ErrNoData)
	}
	if fineErr != nil {
		c.cfg.Logger.Warn().Str("request", id).Msgf("fetching %s volume delta source for %s: %v",
			source.String(), key, fineErr)
		fine = nil
	}

	deltas := indicator.VolumeDelta(bars, fine, req.Interval.Seconds())

	data := &ChartData{
		Bars: bars,
		RSI:  indicator.RSI(bars, c.cfg.RSIPeriod),
		VolumeDeltaRSI: VolumeDeltaRSI{
			RSI: indicator.VolumeDeltaRSI(deltas, c.cfg.RSIPeriod),
		},
	}
	if data.RSI == nil {
		data.RSI = []shared.OscillatorPoint{}
	}
	if data.VolumeDeltaRSI.RSI == nil {
		data.VolumeDeltaRSI.RSI = []shared.OscillatorPoint{}
	}

	now := c.cfg.Now()
	c.cfg.Cache.Set(key, data, cache.NextCacheExpiry(c.cfg.Calendar, now, c.cfg.RefreshInterval))

	if c.cfg.Storer != nil {
		err := c.cfg.Storer.PersistBars(ctx, req.Symbol, req.Interval, bars)
		if err != nil {
			c.cfg.Logger.Error().Str("request", id).Msgf("persisting %s bars: %v", key, err)
		}
	}

	return data, nil
}

// WeeklyCandles aggregates daily candles into weekly candles keyed by the monday of each
// week in utc. The provided candles must be in time order.
func WeeklyCandles(daily []shared.CandleBar) []shared.CandleBar {
	var weekly []shared.CandleBar

	for idx := range daily {
		day := time.Unix(daily[idx].Time, 0).UTC()
		offset := (int(day.Weekday()) + 6) % 7
		monday := time.Date(day.Year(), day.Month(), day.Day()-offset, 0, 0, 0, 0, time.UTC).Unix()

		last := len(weekly) - 1
		if last >= 0 && weekly[last].Time == monday {
			weekly[last].High = max(weekly[last].High, daily[idx].High)
			weekly[last].Low = min(weekly[last].Low, daily[idx].Low)
			weekly[last].Close = daily[idx].Close
			weekly[last].Volume += daily[idx].Volume
			continue
		}

		weekly = append(weekly, shared.CandleBar{
			Time:   monday,
			Open:   daily[idx].Open,
			High:   daily[idx].High,
			Low:    daily[idx].Low,
			Close:  daily[idx].Close,
			Volume: daily[idx].Volume,
		})
	}

	return weekly
}
