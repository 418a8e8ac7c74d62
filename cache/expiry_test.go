package cache

import (
	"testing"
	"time"

	"github.com/dnldd/chartfeed/market"
	"github.com/peterldowns/testy/assert"
)

func TestNextCacheExpiry(t *testing.T) {
	cal, err := market.NewCalendar()
	assert.NoError(t, err)
	loc := cal.Location()

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "mid session refreshes after the fixed duration",
			now:  time.Date(2025, 3, 12, 11, 0, 0, 0, loc),
			want: time.Date(2025, 3, 12, 11, 5, 0, 0, loc),
		},
		{
			name: "near the close is capped at the close",
			now:  time.Date(2025, 3, 12, 15, 58, 0, 0, loc),
			want: time.Date(2025, 3, 12, 16, 0, 0, 0, loc),
		},
		{
			name: "after the close holds until the next open",
			now:  time.Date(2025, 3, 12, 18, 0, 0, 0, loc),
			want: time.Date(2025, 3, 13, 9, 30, 0, 0, loc),
		},
		{
			name: "pre-market holds until today's open",
			now:  time.Date(2025, 3, 12, 6, 0, 0, 0, loc),
			want: time.Date(2025, 3, 12, 9, 30, 0, 0, loc),
		},
		{
			name: "weekend holds until monday",
			now:  time.Date(2025, 3, 15, 11, 0, 0, 0, loc),
			want: time.Date(2025, 3, 17, 9, 30, 0, 0, loc),
		},
	}

	for _, test := range tests {
		got := NextCacheExpiry(cal, test.now, DefaultRefreshInterval)
		if !got.Equal(test.want) {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, got)
		}
	}

	// Ensure the expiry is never before now across a full week in fifteen minute steps.
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	for now := start; now.Before(start.AddDate(0, 0, 7)); now = now.Add(time.Minute * 15) {
		expiry := NextCacheExpiry(cal, now, DefaultRefreshInterval)
		assert.False(t, expiry.Before(now))
	}
}
