package shared

import (
	"fmt"
	"time"
)

const (
	// SessionTimeLayout is the format layout for parsing session times in a day.
	SessionTimeLayout = "15:04"
	// DateLayout is the format layout for parsing intraday timestamps.
	DateLayout = "2006-01-02 15:04:05"
	// DayLayout is the format layout for parsing calendar dates.
	DayLayout = "2006-01-02"
	// NewYorkLocation is the locale of the exchange.
	NewYorkLocation = "America/New_York"
)

// Interval represents the market data time period.
type Interval int

const (
	OneMinute Interval = iota
	FiveMinute
	FifteenMinute
	ThirtyMinute
	OneHour
	FourHour
	OneDay
	OneWeek
)

// String stringifies the provided interval using the provider notation.
func (i Interval) String() string {
	switch i {
	case OneMinute:
		return "1min"
	case FiveMinute:
		return "5min"
	case FifteenMinute:
		return "15min"
	case ThirtyMinute:
		return "30min"
	case OneHour:
		return "1hour"
	case FourHour:
		return "4hour"
	case OneDay:
		return "1day"
	case OneWeek:
		return "1week"
	default:
		return "unknown"
	}
}

// ParseInterval parses the provided interval string.
func ParseInterval(s string) (Interval, error) {
	switch s {
	case "1min":
		return OneMinute, nil
	case "5min":
		return FiveMinute, nil
	case "15min":
		return FifteenMinute, nil
	case "30min":
		return ThirtyMinute, nil
	case "1hour":
		return OneHour, nil
	case "4hour":
		return FourHour, nil
	case "1day":
		return OneDay, nil
	case "1week":
		return OneWeek, nil
	default:
		return 0, fmt.Errorf("unknown interval provided: %s", s)
	}
}

// Duration returns the length of a bar of the provided interval.
func (i Interval) Duration() time.Duration {
	switch i {
	case OneMinute:
		return time.Minute
	case FiveMinute:
		return time.Minute * 5
	case FifteenMinute:
		return time.Minute * 15
	case ThirtyMinute:
		return time.Minute * 30
	case OneHour:
		return time.Hour
	case FourHour:
		return time.Hour * 4
	case OneDay:
		return time.Hour * 24
	case OneWeek:
		return time.Hour * 24 * 7
	default:
		return 0
	}
}

// Seconds returns the length of a bar of the provided interval in seconds.
func (i Interval) Seconds() int64 {
	return int64(i.Duration() / time.Second)
}

// IsIntraday checks whether the interval is served by the intraday endpoints.
func (i Interval) IsIntraday() bool {
	return i >= OneMinute && i <= FourHour
}

// NewYorkTime returns the current time in new york (EST/EDT adjusted automatically).
func NewYorkTime() (time.Time, *time.Location, error) {
	loc, err := time.LoadLocation(NewYorkLocation)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("loading new york timezone: %w", err)
	}

	now := time.Now().In(loc)
	return now, loc, nil
}
