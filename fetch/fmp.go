package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dnldd/chartfeed/market"
	"github.com/dnldd/chartfeed/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// BaseURL is the primary FMP api base url.
	BaseURL = "https://financialmodelingprep.com/stable"
	// LegacyBaseURL is the legacy FMP api base url.
	LegacyBaseURL = "https://financialmodelingprep.com/api/v3"
	// DefaultTimeout is the default per request timeout.
	DefaultTimeout = time.Second * 15
)

// FMPConfig represents the configuration for the FMP client.
type FMPConfig struct {
	// APIkey is the FMP API Key.
	APIKey string
	// BaseURL is the primary FMP api base url.
	BaseURL string
	// LegacyBaseURL is the legacy FMP api base url, tried after the primary.
	LegacyBaseURL string
	// Timeout bounds each individual request.
	Timeout time.Duration
	// SliceDays overrides the number of days requested per intraday history slice.
	SliceDays map[shared.Interval]int
	// Calendar is the exchange calendar.
	Calendar *market.Calendar
	// Now returns the current time.
	Now func() time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs. An empty api key is not a configuration error,
// requests fail with ErrMissingAPIKey instead.
func (cfg *FMPConfig) Validate() error {
	var errs error

	if cfg.BaseURL == "" {
		errs = errors.Join(errs, fmt.Errorf("base url cannot be an empty string"))
	}
	if cfg.Timeout < 0 {
		errs = errors.Join(errs, fmt.Errorf("timeout cannot be negative"))
	}
	for interval, days := range cfg.SliceDays {
		if days <= 0 {
			errs = errors.Join(errs, fmt.Errorf("slice days for %s must be positive", interval.String()))
		}
	}
	if cfg.Calendar == nil {
		errs = errors.Join(errs, fmt.Errorf("calendar cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// FMPClient represents the Financial Modeling Preparation (FMP) API client.
type FMPClient struct {
	cfg   *FMPConfig
	httpc *http.Client
}

// Ensure the FMPClient implements the BarFetcher interface.
var _ shared.BarFetcher = (*FMPClient)(nil)

// NewFMPClient instantiates a new FMP client.
func NewFMPClient(cfg *FMPConfig) (*FMPClient, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating fmp config: %w", err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &FMPClient{
		cfg:   cfg,
		httpc: &http.Client{},
	}, nil
}

// formURL creates full urls including parameters for the api.
func formURL(base string, path string, params string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(base, "/"))
	b.WriteString(path)
	b.WriteString("?")
	b.WriteString(params)

	return b.String()
}

// dailyURLs returns the candidate urls for the full daily history of a symbol.
func (c *FMPClient) dailyURLs(symbol string) []string {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("apikey", c.cfg.APIKey)

	urls := []string{formURL(c.cfg.BaseURL, "/historical-price-eod/full", params.Encode())}

	if c.cfg.LegacyBaseURL != "" {
		legacy := url.Values{}
		legacy.Add("apikey", c.cfg.APIKey)
		urls = append(urls, formURL(c.cfg.LegacyBaseURL,
			"/historical-price-full/"+url.PathEscape(symbol), legacy.Encode()))
	}

	return urls
}

// intradayURLs returns the candidate urls for intraday data of a symbol. Zero bounds are
// omitted from the request.
func (c *FMPClient) intradayURLs(symbol string, interval shared.Interval, from time.Time, to time.Time) []string {
	bounds := func(params url.Values) url.Values {
		if !from.IsZero() {
			params.Add("from", from.Format(shared.DayLayout))
		}
		if !to.IsZero() {
			params.Add("to", to.Format(shared.DayLayout))
		}
		return params
	}

	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("apikey", c.cfg.APIKey)

	urls := []string{formURL(c.cfg.BaseURL, "/historical-chart/"+interval.String(), bounds(params).Encode())}

	if c.cfg.LegacyBaseURL != "" {
		legacy := url.Values{}
		legacy.Add("apikey", c.cfg.APIKey)
		path := "/historical-chart/" + interval.String() + "/" + url.PathEscape(symbol)
		urls = append(urls, formURL(c.cfg.LegacyBaseURL, path, bounds(legacy).Encode()))
	}

	return urls
}

// FetchDailyBars fetches the daily bar history of the provided symbol, retrying alternate
// symbol notations when the primary spelling yields no data. Endpoints returning close-only
// data are skipped in favour of ones carrying genuine open/high/low values.
func (c *FMPClient) FetchDailyBars(ctx context.Context, symbol string) ([]shared.DailyBar, error) {
	acceptOHLC := func(rows []gjson.Result) error {
		_, err := ParseDailyBars(rows, c.cfg.Calendar)
		return err
	}

	var lastErr error
	for _, variant := range SymbolVariants(symbol) {
		rows, err := c.fetchFirst(ctx, c.dailyURLs(variant), acceptOHLC)
		if err != nil {
			if isFatal(err) || ctx.Err() != nil {
				return nil, fmt.Errorf("fetching daily bars for %s: %w", variant, err)
			}

			c.cfg.Logger.Warn().Msgf("fetching daily bars for %s: %v", variant, err)
			lastErr = err
			continue
		}

		bars, err := ParseDailyBars(rows, c.cfg.Calendar)
		if err != nil {
			lastErr = err
			continue
		}
		if len(bars) > 0 {
			return bars, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("fetching daily bars for %s: %w", symbol, lastErr)
	}

	return []shared.DailyBar{}, nil
}

// isFatal checks whether the provided error cannot be resolved by trying other candidates.
func isFatal(err error) bool {
	return errors.Is(err, shared.ErrSubscriptionRestricted) || errors.Is(err, shared.ErrMissingAPIKey)
}
