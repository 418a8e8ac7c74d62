package shared

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestFetchSentiment(t *testing.T) {
	tests := []struct {
		name   string
		candle CandleBar
		want   Sentiment
	}{
		{
			name: "neutral candle",
			candle: CandleBar{
				Open:  5,
				Close: 5,
				High:  9,
				Low:   1,
			},
			want: Neutral,
		},
		{
			name: "bullish candle",
			candle: CandleBar{
				Open:  5,
				Close: 15,
				High:  20,
				Low:   1,
			},
			want: Bullish,
		},
		{
			name: "bearish candle",
			candle: CandleBar{
				Open:  15,
				Close: 5,
				High:  20,
				Low:   1,
			},
			want: Bearish,
		},
	}

	for _, test := range tests {
		sentiment := test.candle.FetchSentiment()
		if sentiment != test.want {
			t.Errorf("%s: expected %s sentiment, got %s",
				test.name, test.want.String(), sentiment.String())
		}
	}
}

func TestRepairOHLC(t *testing.T) {
	tests := []struct {
		name     string
		open     float64
		high     float64
		low      float64
		close    float64
		wantHigh float64
		wantLow  float64
	}{
		{"consistent bar", 10, 12, 9, 11, 12, 9},
		{"high below open", 10, 9, 8, 9.5, 10, 8},
		{"low above close", 10, 12, 11, 9, 12, 9},
		{"flat high and low", 10, 11, 11, 11, 11, 10},
	}

	for _, test := range tests {
		high, low := RepairOHLC(test.open, test.high, test.low, test.close)
		if high != test.wantHigh || low != test.wantLow {
			t.Errorf("%s: expected high/low %v/%v, got %v/%v", test.name,
				test.wantHigh, test.wantLow, high, low)
		}
	}
}

func TestCandleConversion(t *testing.T) {
	// Ensure daily bars are stamped at utc midnight of their date.
	loc, err := time.LoadLocation(NewYorkLocation)
	assert.NoError(t, err)

	daily := DailyBar{
		Date:   time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
		Open:   1,
		High:   2,
		Low:    0.5,
		Close:  1.5,
		Volume: 100,
	}
	candle := DailyCandle(daily)
	assert.Equal(t, candle.Time, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).Unix())
	assert.Equal(t, candle.Volume, float64(100))

	// Ensure intraday bars use their aligned epoch.
	intraday := IntradayBar{Datetime: "2025-03-10 09:30:00", Close: 3, Epoch: 1741613400}
	assert.Equal(t, IntradayCandle(intraday).Time, int64(1741613400))
}
