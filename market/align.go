package market

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dnldd/chartfeed/shared"
)

// datetimeLayouts are the provider timestamp layouts accepted, most specific first.
var datetimeLayouts = []string{
	shared.DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	shared.DayLayout,
}

// ParseEastern parses the provided exchange local wall clock timestamp. The utc offset is
// resolved for the specific date, so daylight saving transitions are honoured.
func (c *Calendar) ParseEastern(datetime string) (time.Time, error) {
	datetime = strings.TrimSpace(datetime)
	if datetime == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range datetimeLayouts {
		t, err := time.ParseInLocation(layout, datetime, c.loc)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", datetime)
}

// NormalizeDatetime re-expresses the provided exchange local timestamp using DateLayout.
func (c *Calendar) NormalizeDatetime(datetime string) (string, error) {
	t, err := c.ParseEastern(datetime)
	if err != nil {
		return "", err
	}

	return t.Format(shared.DateLayout), nil
}

// EasternToUTC converts an exchange local timestamp into utc epoch seconds.
func (c *Calendar) EasternToUTC(datetime string) (int64, error) {
	t, err := c.ParseEastern(datetime)
	if err != nil {
		return 0, err
	}

	return t.Unix(), nil
}

// Align sets the epoch of each intraday bar, dropping bars whose timestamp cannot be parsed.
func (c *Calendar) Align(bars []shared.IntradayBar) []shared.IntradayBar {
	aligned := make([]shared.IntradayBar, 0, len(bars))
	for idx := range bars {
		epoch, err := c.EasternToUTC(bars[idx].Datetime)
		if err != nil {
			continue
		}

		bar := bars[idx]
		bar.Epoch = epoch
		aligned = append(aligned, bar)
	}

	return aligned
}

// FloorToBucket rounds the provided epoch down to the nearest n-minute bucket.
func FloorToBucket(epoch int64, minutes int) int64 {
	if minutes <= 0 {
		return epoch
	}

	size := int64(minutes) * 60
	floored := epoch - epoch%size
	if epoch < 0 && epoch%size != 0 {
		floored -= size
	}

	return floored
}

// AlignedPair represents two bars sharing a bucketed timestamp.
type AlignedPair struct {
	Time  int64
	Left  shared.CandleBar
	Right shared.CandleBar
}

// AlignSeries joins two independently fetched series on their bucketed timestamps. Where
// several bars of a series fall into one bucket, the latest one is used.
func AlignSeries(left, right []shared.CandleBar, minutes int) []AlignedPair {
	index := func(bars []shared.CandleBar) map[int64]shared.CandleBar {
		m := make(map[int64]shared.CandleBar, len(bars))
		for idx := range bars {
			bucket := FloorToBucket(bars[idx].Time, minutes)
			existing, ok := m[bucket]
			if !ok || bars[idx].Time >= existing.Time {
				m[bucket] = bars[idx]
			}
		}
		return m
	}

	l := index(left)
	r := index(right)

	pairs := make([]AlignedPair, 0, len(l))
	for bucket, lbar := range l {
		rbar, ok := r[bucket]
		if !ok {
			continue
		}

		pairs = append(pairs, AlignedPair{Time: bucket, Left: lbar, Right: rbar})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Time < pairs[j].Time })

	return pairs
}
