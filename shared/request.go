package shared

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultLookbackDays is the lookback window used when a request does not provide one.
	DefaultLookbackDays = 60
	// MaxLookbackDays is the largest lookback window a request may ask for.
	MaxLookbackDays = 3650
)

// ChartRequest represents a request for chart data of a market.
type ChartRequest struct {
	Symbol       string
	Interval     Interval
	LookbackDays int
}

// NewChartRequest initializes a new chart request from caller supplied values.
func NewChartRequest(symbol string, interval string, lookbackDays int) (*ChartRequest, error) {
	iv, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}

	req := &ChartRequest{
		Symbol:       strings.ToUpper(strings.TrimSpace(symbol)),
		Interval:     iv,
		LookbackDays: lookbackDays,
	}
	if req.LookbackDays == 0 {
		req.LookbackDays = DefaultLookbackDays
	}

	err = req.Validate()
	if err != nil {
		return nil, err
	}

	return req, nil
}

// Validate asserts the request has sane inputs.
func (r *ChartRequest) Validate() error {
	var errs error

	if r.Symbol == "" {
		errs = errors.Join(errs, fmt.Errorf("symbol cannot be an empty string"))
	}
	if r.Interval < FiveMinute || r.Interval > OneWeek {
		errs = errors.Join(errs, fmt.Errorf("unsupported chart interval: %s", r.Interval.String()))
	}
	if r.LookbackDays < 0 {
		errs = errors.Join(errs, fmt.Errorf("lookback days cannot be negative"))
	}
	if r.LookbackDays > MaxLookbackDays {
		errs = errors.Join(errs, fmt.Errorf("lookback days cannot exceed %d", MaxLookbackDays))
	}

	return errs
}

// Key returns the cache key of the request.
func (r *ChartRequest) Key() string {
	return fmt.Sprintf("%s:%s:%d", r.Symbol, r.Interval.String(), r.LookbackDays)
}
