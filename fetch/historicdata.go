package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dnldd/chartfeed/market"
	"github.com/dnldd/chartfeed/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// HistoricDataConfig represents the historic data source configuration.
type HistoricDataConfig struct {
	// FilePath is the filepath to the recorded market data.
	FilePath string
	// Calendar represents the exchange calendar.
	Calendar *market.Calendar
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *HistoricDataConfig) Validate() error {
	var errs error

	if cfg.FilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("no historic data file path provided"))
	}
	if cfg.Calendar == nil {
		errs = errors.Join(errs, fmt.Errorf("no calendar provided"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("no logger provided"))
	}

	return errs
}

// HistoricData serves recorded provider payloads for a single market.
type HistoricData struct {
	cfg      *HistoricDataConfig
	market   string
	daily    []shared.DailyBar
	intraday map[shared.Interval][]shared.IntradayBar
}

var _ shared.BarFetcher = (*HistoricData)(nil)

// loadHistoricData loads the historic data bytes from the provided file path.
func loadHistoricData(filepath string) (*gjson.Result, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading historic data from file with path '%s': %w", filepath, err)
	}

	if !gjson.ValidBytes(readb) {
		return nil, fmt.Errorf("historic data file '%s': %w", filepath, shared.ErrMalformedPayload)
	}

	b := gjson.ParseBytes(readb)

	return &b, nil
}

// NewHistoricData initializes a new historic data source.
func NewHistoricData(cfg *HistoricDataConfig) (*HistoricData, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating historic data config: %w", err)
	}

	b, err := loadHistoricData(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("loading historic data: %w", err)
	}

	mkt := strings.ToUpper(strings.TrimSpace(b.Get("market").String()))
	if mkt == "" {
		return nil, fmt.Errorf("historic data has no market")
	}

	h := &HistoricData{
		cfg:      cfg,
		market:   mkt,
		intraday: make(map[shared.Interval][]shared.IntradayBar),
	}

	daily := b.Get(shared.OneDay.String()).Array()
	if len(daily) > 0 {
		h.daily, err = ParseDailyBars(daily, cfg.Calendar)
		if err != nil {
			return nil, fmt.Errorf("parsing daily bars: %w", err)
		}
	}

	intervals := []shared.Interval{shared.OneMinute, shared.FiveMinute, shared.FifteenMinute,
		shared.ThirtyMinute, shared.OneHour, shared.FourHour}
	var loaded []string
	for _, interval := range intervals {
		rows := b.Get(interval.String()).Array()
		if len(rows) == 0 {
			continue
		}

		h.intraday[interval] = ParseIntradayBars(rows, cfg.Calendar)
		loaded = append(loaded, interval.String())
	}

	cfg.Logger.Info().Msgf("loaded historic data for %s: %d daily bars, intraday [%s]",
		mkt, len(h.daily), strings.Join(loaded, ","))

	return h, nil
}

// FetchMarket returns the replayed market.
func (h *HistoricData) FetchMarket() string {
	return h.market
}

// matches reports whether the provided symbol refers to the replayed market.
func (h *HistoricData) matches(symbol string) bool {
	for _, variant := range SymbolVariants(symbol) {
		if strings.EqualFold(variant, h.market) {
			return true
		}
	}

	return false
}

// FetchDailyBars returns the recorded daily bars of the market.
func (h *HistoricData) FetchDailyBars(ctx context.Context, symbol string) ([]shared.DailyBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !h.matches(symbol) {
		return []shared.DailyBar{}, nil
	}

	bars := make([]shared.DailyBar, len(h.daily))
	copy(bars, h.daily)

	return bars, nil
}

// FetchIntradayBars returns the recorded intraday bars of the market covering the lookback
// window, measured back from the last recorded bar.
func (h *HistoricData) FetchIntradayBars(ctx context.Context, symbol string, interval shared.Interval, lookbackDays int) ([]shared.IntradayBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !interval.IsIntraday() {
		return nil, fmt.Errorf("unsupported intraday interval: %s", interval.String())
	}

	recorded := h.intraday[interval]
	if !h.matches(symbol) || len(recorded) == 0 {
		return []shared.IntradayBar{}, nil
	}

	if lookbackDays <= 0 {
		bars := make([]shared.IntradayBar, len(recorded))
		copy(bars, recorded)
		return bars, nil
	}

	last, err := h.cfg.Calendar.ParseEastern(recorded[len(recorded)-1].Datetime)
	if err != nil {
		return nil, fmt.Errorf("parsing last recorded bar time: %w", err)
	}

	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, last.Location())
	cutoff := lastDay.AddDate(0, 0, -lookbackDays)

	bars := make([]shared.IntradayBar, 0, len(recorded))
	for _, bar := range recorded {
		t, err := h.cfg.Calendar.ParseEastern(bar.Datetime)
		if err != nil || t.Before(cutoff) {
			continue
		}

		bars = append(bars, bar)
	}

	return bars, nil
}
