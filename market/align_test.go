package market

import (
	"testing"

	"github.com/dnldd/chartfeed/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

func TestEasternToUTC(t *testing.T) {
	cal := setupCalendar(t)

	tests := []struct {
		name     string
		datetime string
		want     int64
		wantErr  bool
	}{
		// 2025-01-06 09:30 EST is 14:30 UTC.
		{"winter session open", "2025-01-06 09:30:00", 1736173800, false},
		// 2025-07-01 09:30 EDT is 13:30 UTC.
		{"summer session open", "2025-07-01 09:30:00", 1751376600, false},
		{"t separator", "2025-07-01T09:30:00", 1751376600, false},
		{"missing seconds", "2025-07-01 09:30", 1751376600, false},
		// The first bar after the spring forward transition.
		{"spring forward day", "2025-03-10 09:30:00", 1741613400, false},
		{"garbage", "not a date", 0, true},
		{"empty", "", 0, true},
	}

	for _, test := range tests {
		got, err := cal.EasternToUTC(test.datetime)
		if test.wantErr {
			if err == nil {
				t.Errorf("%s: expected an error", test.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("%s: expected %d, got %d", test.name, test.want, got)
		}
	}
}

func TestNormalizeDatetime(t *testing.T) {
	cal := setupCalendar(t)

	got, err := cal.NormalizeDatetime("2025-02-04T15:05")
	assert.NoError(t, err)
	assert.Equal(t, got, "2025-02-04 15:05:00")

	_, err = cal.NormalizeDatetime("04/02/2025")
	assert.Error(t, err)
}

func TestAlign(t *testing.T) {
	cal := setupCalendar(t)

	bars := []shared.IntradayBar{
		{Datetime: "2025-07-01 09:30:00", Close: 1},
		{Datetime: "bogus", Close: 2},
		{Datetime: "2025-07-01 09:35:00", Close: 3},
	}

	// Ensure bars with unparseable timestamps are dropped and the rest gain an epoch.
	aligned := cal.Align(bars)
	assert.Equal(t, len(aligned), 2)
	assert.Equal(t, aligned[0].Epoch, int64(1751376600))
	assert.Equal(t, aligned[1].Epoch, int64(1751376900))

	// Ensure the input is left untouched.
	assert.Equal(t, bars[0].Epoch, int64(0))
}

func TestFloorToBucket(t *testing.T) {
	tests := []struct {
		name    string
		epoch   int64
		minutes int
		want    int64
	}{
		{"already aligned", 1751376600, 5, 1751376600},
		{"offset by seconds", 1751376607, 5, 1751376600},
		{"offset by minutes", 1751376600 + 4*60 + 59, 5, 1751376600},
		{"hourly bucket", 1751376600, 60, 1751374800},
		{"zero minutes", 1751376607, 0, 1751376607},
		{"negative epoch", -1, 1, -60},
	}

	for _, test := range tests {
		got := FloorToBucket(test.epoch, test.minutes)
		if got != test.want {
			t.Errorf("%s: expected %d, got %d", test.name, test.want, got)
		}
	}
}

func TestAlignSeries(t *testing.T) {
	left := []shared.CandleBar{
		{Time: 1000 * 60, Close: 10},
		{Time: 1005*60 + 2, Close: 11},
		{Time: 1010 * 60, Close: 12},
	}
	right := []shared.CandleBar{
		{Time: 1000*60 + 30, Close: 20},
		{Time: 1005 * 60, Close: 21},
		{Time: 1015 * 60, Close: 22},
	}

	// Ensure only buckets present in both series are paired, keyed by the bucket time.
	pairs := AlignSeries(left, right, 5)
	want := []AlignedPair{
		{Time: 1000 * 60, Left: left[0], Right: right[0]},
		{Time: 1005 * 60, Left: left[1], Right: right[1]},
	}
	if !cmp.Equal(pairs, want) {
		t.Errorf("mismatching aligned pairs: %v", cmp.Diff(want, pairs))
	}

	// Ensure the latest bar wins when several share a bucket.
	dup := []shared.CandleBar{{Time: 1000 * 60, Close: 1}, {Time: 1000*60 + 60, Close: 2}}
	pairs = AlignSeries(dup, right, 5)
	assert.Equal(t, len(pairs), 1)
	assert.Equal(t, pairs[0].Left.Close, float64(2))
}
