package shared

import (
	"math"
	"time"
)

// Sentiment represents the direction attributed to a bar.
type Sentiment int

const (
	Neutral Sentiment = iota
	Bullish
	Bearish
)

// String stringifies the provided sentiment.
func (s Sentiment) String() string {
	switch s {
	case Neutral:
		return "neutral"
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "unknown"
	}
}

// DailyBar represents a single trading day observation for a market.
type DailyBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IntradayBar represents a sub-daily observation for a market.
type IntradayBar struct {
	// Datetime is the exchange local timestamp, formatted with DateLayout.
	Datetime string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64

	// Epoch is the true utc time of the bar in seconds, set once aligned.
	Epoch int64
}

// CandleBar represents a chart ready bar keyed by epoch seconds.
type CandleBar struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// FetchSentiment returns the provided bar's sentiment from its body alone.
func (c *CandleBar) FetchSentiment() Sentiment {
	sentiment := c.Close - c.Open
	switch {
	case sentiment < 0:
		return Bearish
	case sentiment > 0:
		return Bullish
	default:
		return Neutral
	}
}

// RepairOHLC returns the high and low adjusted so they bound both the open and the close.
func RepairOHLC(open, high, low, close float64) (float64, float64) {
	high = math.Max(high, math.Max(open, close))
	low = math.Min(low, math.Min(open, close))
	return high, low
}

// DailyCandle converts a daily bar into a chart bar stamped at the session date in utc.
func DailyCandle(bar DailyBar) CandleBar {
	day := time.Date(bar.Date.Year(), bar.Date.Month(), bar.Date.Day(), 0, 0, 0, 0, time.UTC)
	return CandleBar{
		Time:   day.Unix(),
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
	}
}

// IntradayCandle converts an aligned intraday bar into a chart bar.
func IntradayCandle(bar IntradayBar) CandleBar {
	return CandleBar{
		Time:   bar.Epoch,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: bar.Volume,
	}
}
