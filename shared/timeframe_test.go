package shared

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestNewYorkTime(t *testing.T) {
	// Ensure new york locale times can be created.
	now, loc, err := NewYorkTime()
	assert.NoError(t, err)
	assert.Equal(t, now.Location().String(), "America/New_York")
	assert.Equal(t, now.Location().String(), loc.String())
}

func TestIntervalString(t *testing.T) {
	tests := []struct {
		name     string
		interval Interval
		want     string
	}{
		{"one minute", OneMinute, "1min"},
		{"five minute", FiveMinute, "5min"},
		{"fifteen minute", FifteenMinute, "15min"},
		{"thirty minute", ThirtyMinute, "30min"},
		{"one hour", OneHour, "1hour"},
		{"four hour", FourHour, "4hour"},
		{"one day", OneDay, "1day"},
		{"one week", OneWeek, "1week"},
		{"unknown", Interval(99), "unknown"},
	}

	for _, test := range tests {
		str := test.interval.String()
		if str != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, str)
		}
	}
}

func TestParseInterval(t *testing.T) {
	// Ensure every known interval round trips through its string form.
	for _, interval := range []Interval{OneMinute, FiveMinute, FifteenMinute, ThirtyMinute,
		OneHour, FourHour, OneDay, OneWeek} {
		parsed, err := ParseInterval(interval.String())
		assert.NoError(t, err)
		assert.Equal(t, parsed, interval)
	}

	// Ensure unknown intervals are rejected.
	_, err := ParseInterval("2hour")
	assert.Error(t, err)
}

func TestIntervalDuration(t *testing.T) {
	assert.Equal(t, FiveMinute.Duration(), time.Minute*5)
	assert.Equal(t, FourHour.Seconds(), int64(14400))
	assert.Equal(t, OneWeek.Duration(), time.Hour*24*7)
	assert.Equal(t, Interval(99).Duration(), time.Duration(0))

	// Ensure only sub-daily intervals are considered intraday.
	assert.True(t, OneMinute.IsIntraday())
	assert.True(t, FourHour.IsIntraday())
	assert.False(t, OneDay.IsIntraday())
	assert.False(t, OneWeek.IsIntraday())
}
