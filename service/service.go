package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dnldd/chartfeed/cache"
	"github.com/dnldd/chartfeed/chart"
	"github.com/dnldd/chartfeed/database"
	"github.com/dnldd/chartfeed/fetch"
	"github.com/dnldd/chartfeed/market"
	"github.com/dnldd/chartfeed/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// sweepInterval is how often expired cache entries are removed.
	sweepInterval = time.Minute
)

// warmUpIntervals are the chart intervals precomputed for tracked markets.
var warmUpIntervals = []shared.Interval{shared.FiveMinute, shared.OneHour, shared.OneDay}

// ChartFeedConfig represents the configuration struct for the chart feed service.
type ChartFeedConfig struct {
	// Markets represents the markets warmed up during trading hours.
	Markets []string
	// FMPAPIkey is the FMP service API Key.
	FMPAPIKey string
	// FMPBaseURL overrides the primary FMP api base url.
	FMPBaseURL string
	// FMPLegacyURL overrides the legacy FMP api base url.
	FMPLegacyURL string
	// Timeout bounds each provider request.
	Timeout time.Duration
	// LookbackDays is the lookback window used when a request does not provide one.
	LookbackDays int
	// Replay serves recorded market data instead of querying the provider.
	Replay bool
	// ReplayDataFilepath is the filepath to the recorded market data.
	ReplayDataFilepath string
	// DBEndpoint is the bar sink endpoint. Bars are not persisted when empty.
	DBEndpoint string
	// DBUser is the bar sink user.
	DBUser string
	// DBPass is the bar sink user pass.
	DBPass string
	// CacheSize is the number of chart results cached.
	CacheSize int
}

// Validate asserts the config sane inputs.
func (cfg *ChartFeedConfig) Validate() error {
	var errs error

	if cfg.Replay && cfg.ReplayDataFilepath == "" {
		errs = errors.Join(errs, fmt.Errorf("replay data filepath cannot be an empty string"))
	}
	if cfg.Timeout < 0 {
		errs = errors.Join(errs, fmt.Errorf("timeout cannot be negative"))
	}
	if cfg.LookbackDays < 0 || cfg.LookbackDays > shared.MaxLookbackDays {
		errs = errors.Join(errs, fmt.Errorf("lookback days must be between 0 and %d", shared.MaxLookbackDays))
	}
	if cfg.CacheSize < 0 {
		errs = errors.Join(errs, fmt.Errorf("cache size cannot be negative"))
	}

	return errs
}

// ChartFeed represents the chart data service.
type ChartFeed struct {
	cfg          *ChartFeedConfig
	calendar     *market.Calendar
	chart        *chart.Chart
	chartCache   *cache.Cache[*chart.ChartData]
	auxCache     *cache.Cache[[]shared.CandleBar]
	db           *database.Database
	jobScheduler *gocron.Scheduler
	markets      []string
	now          func() time.Time
	logger       *zerolog.Logger
}

// NewChartFeed initializes a new chart feed service.
func NewChartFeed(ctx context.Context, cfg *ChartFeedConfig) (*ChartFeed, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating chart feed config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "chartfeed").Logger()

	cal, err := market.NewCalendar()
	if err != nil {
		return nil, fmt.Errorf("creating calendar: %w", err)
	}

	now := time.Now
	markets := cfg.Markets

	var fetcher shared.BarFetcher
	switch cfg.Replay {
	case true:
		historicDataLogger := logger.With().Str("component", "historicdata").Logger()
		historicData, err := fetch.NewHistoricData(&fetch.HistoricDataConfig{
			FilePath: cfg.ReplayDataFilepath,
			Calendar: cal,
			Logger:   &historicDataLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating historic data: %w", err)
		}

		markets = []string{historicData.FetchMarket()}
		fetcher = historicData

	default:
		if cfg.FMPAPIKey == "" {
			logger.Warn().Msg("no fmp api key configured, provider requests will fail")
		}

		baseURL := cfg.FMPBaseURL
		if baseURL == "" {
			baseURL = fetch.BaseURL
		}
		legacyURL := cfg.FMPLegacyURL
		if legacyURL == "" {
			legacyURL = fetch.LegacyBaseURL
		}

		fmpLogger := logger.With().Str("component", "fmp").Logger()
		fmp, err := fetch.NewFMPClient(&fetch.FMPConfig{
			APIKey:        cfg.FMPAPIKey,
			BaseURL:       baseURL,
			LegacyBaseURL: legacyURL,
			Timeout:       cfg.Timeout,
			Calendar:      cal,
			Now:           now,
			Logger:        &fmpLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating fmp client: %w", err)
		}

		fetcher = fmp
	}

	cacheLogger := logger.With().Str("component", "cache").Logger()
	chartCache, err := cache.New[*chart.ChartData](&cache.Config{
		Name:       "chart",
		MaxEntries: cfg.CacheSize,
		Now:        now,
		Logger:     &cacheLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chart cache: %w", err)
	}

	auxCache, err := cache.New[[]shared.CandleBar](&cache.Config{
		Name:       "auxiliary",
		MaxEntries: cfg.CacheSize,
		Now:        now,
		Logger:     &cacheLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating auxiliary cache: %w", err)
	}

	var db *database.Database
	var storer shared.BarStorer
	if cfg.DBEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err = database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
			Now:      now,
		})
		if err != nil {
			return nil, fmt.Errorf("creating database: %w", err)
		}

		storer = db
	}

	chartLogger := logger.With().Str("component", "chart").Logger()
	c, err := chart.NewChart(&chart.Config{
		Fetcher:  fetcher,
		Calendar: cal,
		Cache:    chartCache,
		AuxCache: auxCache,
		Storer:   storer,
		Now:      now,
		Logger:   &chartLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chart: %w", err)
	}

	return &ChartFeed{
		cfg:          cfg,
		calendar:     cal,
		chart:        c,
		chartCache:   chartCache,
		auxCache:     auxCache,
		db:           db,
		jobScheduler: gocron.NewScheduler(cal.Location()),
		markets:      markets,
		now:          now,
		logger:       &logger,
	}, nil
}

// request builds a chart request, applying the configured lookback when none is provided.
func (s *ChartFeed) request(symbol string, interval string, lookbackDays int) (*shared.ChartRequest, error) {
	if lookbackDays == 0 && s.cfg.LookbackDays > 0 {
		lookbackDays = s.cfg.LookbackDays
	}

	return shared.NewChartRequest(symbol, interval, lookbackDays)
}

// ChartData returns the chart data of the provided symbol and interval.
func (s *ChartFeed) ChartData(ctx context.Context, symbol string, interval string, lookbackDays int) (*chart.ChartData, error) {
	req, err := s.request(symbol, interval, lookbackDays)
	if err != nil {
		return nil, err
	}

	return s.chart.FetchChartData(ctx, req)
}

// RelativeStrength returns the ratio series of the provided symbol against a benchmark.
func (s *ChartFeed) RelativeStrength(ctx context.Context, symbol string, benchmark string, interval string, lookbackDays int) ([]chart.RelativeStrengthPoint, error) {
	req, err := s.request(symbol, interval, lookbackDays)
	if err != nil {
		return nil, err
	}

	return s.chart.FetchRelativeStrength(ctx, req, benchmark)
}

// sweepCaches removes expired entries from the service caches.
func (s *ChartFeed) sweepCaches() {
	removed := s.chartCache.Sweep() + s.auxCache.Sweep()
	if removed > 0 {
		stats := s.chartCache.Stats()
		s.logger.Debug().Msgf("swept %d cache entries, chart cache hits %d, misses %d, evictions %d",
			removed, stats.Hits, stats.Misses, stats.Evictions)
	}
}

// warmUp precomputes chart data for the tracked markets during regular trading hours.
func (s *ChartFeed) warmUp(ctx context.Context) {
	if !s.cfg.Replay && !s.calendar.IsRegularTradingHours(s.now()) {
		return
	}

	for _, mkt := range s.markets {
		for _, interval := range warmUpIntervals {
			if ctx.Err() != nil {
				return
			}

			_, err := s.ChartData(ctx, mkt, interval.String(), 0)
			if err != nil {
				s.logger.Warn().Msgf("warming up %s %s chart: %v", mkt, interval.String(), err)
			}
		}
	}
}

// Run handles the lifecycle processes of the chart feed service.
func (s *ChartFeed) Run(ctx context.Context) error {
	_, err := s.jobScheduler.Every(sweepInterval).Do(s.sweepCaches)
	if err != nil {
		return fmt.Errorf("scheduling cache sweep job: %w", err)
	}

	if len(s.markets) > 0 {
		_, err = s.jobScheduler.Every(cache.DefaultRefreshInterval).Do(s.warmUp, ctx)
		if err != nil {
			return fmt.Errorf("scheduling warm up job: %w", err)
		}
	}

	s.logger.Info().Msgf("chart feed running, tracking [%s]", strings.Join(s.markets, ","))

	s.jobScheduler.StartAsync()
	<-ctx.Done()
	s.jobScheduler.Stop()

	s.logger.Info().Msg("chart feed stopped")

	return nil
}
