package fetch

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/dnldd/chartfeed/market"
	"github.com/dnldd/chartfeed/shared"
	"github.com/tidwall/gjson"
)

// numberField returns the first finite numeric value found under the provided keys.
func numberField(row gjson.Result, keys ...string) (float64, bool) {
	for _, key := range keys {
		v := row.Get(key)

		var f float64
		switch v.Type {
		case gjson.Number:
			f = v.Float()
		case gjson.String:
			parsed, err := strconv.ParseFloat(v.String(), 64)
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}

		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}

		return f, true
	}

	return 0, false
}

// ohlcv represents the price fields of a provider row after defaults are applied.
type ohlcv struct {
	open, high, low, close, volume float64
	explicit                       bool
}

// parseOHLCV extracts the price fields of a row. Missing open, high and low values default to
// the close and the bar is repaired so its high and low bound its body. The explicit flag
// reports whether the row carries open/high/low values distinct from its close.
func parseOHLCV(row gjson.Result) (ohlcv, bool) {
	closePrice, ok := numberField(row, "close", "price")
	if !ok {
		return ohlcv{}, false
	}

	open, hasOpen := numberField(row, "open")
	high, hasHigh := numberField(row, "high")
	low, hasLow := numberField(row, "low")

	explicit := (hasOpen && open != closePrice) || (hasHigh && high != closePrice) ||
		(hasLow && low != closePrice)

	if !hasOpen {
		open = closePrice
	}
	if !hasHigh {
		high = closePrice
	}
	if !hasLow {
		low = closePrice
	}

	high, low = shared.RepairOHLC(open, high, low, closePrice)

	volume, _ := numberField(row, "volume")
	if volume < 0 {
		volume = 0
	}

	return ohlcv{
		open:     open,
		high:     high,
		low:      low,
		close:    closePrice,
		volume:   volume,
		explicit: explicit,
	}, true
}

// ParseDailyBars normalizes provider rows into daily bars sorted by date.
//
// Rows without a date or a finite close are dropped. A series whose rows carry no genuine
// open/high/low values is rejected with ErrCloseOnlySeries, since rendering it as candles
// would be misleading.
func ParseDailyBars(rows []gjson.Result, cal *market.Calendar) ([]shared.DailyBar, error) {
	byDate := make(map[time.Time]shared.DailyBar, len(rows))

	var explicit bool
	for idx := range rows {
		t, err := cal.ParseEastern(rows[idx].Get("date").String())
		if err != nil {
			continue
		}

		fields, ok := parseOHLCV(rows[idx])
		if !ok {
			continue
		}

		explicit = explicit || fields.explicit

		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, cal.Location())
		byDate[date] = shared.DailyBar{
			Date:   date,
			Open:   fields.open,
			High:   fields.high,
			Low:    fields.low,
			Close:  fields.close,
			Volume: fields.volume,
		}
	}

	if len(byDate) > 0 && !explicit {
		return nil, shared.ErrCloseOnlySeries
	}

	bars := make([]shared.DailyBar, 0, len(byDate))
	for _, bar := range byDate {
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return bars, nil
}

// ParseIntradayBars normalizes provider rows into intraday bars sorted by timestamp.
//
// The timestamp is read from either the date or the datetime field and re-expressed using
// DateLayout. Rows without a parseable timestamp or a finite close are dropped.
func ParseIntradayBars(rows []gjson.Result, cal *market.Calendar) []shared.IntradayBar {
	byDatetime := make(map[string]shared.IntradayBar, len(rows))

	for idx := range rows {
		raw := rows[idx].Get("date").String()
		if raw == "" {
			raw = rows[idx].Get("datetime").String()
		}

		datetime, err := cal.NormalizeDatetime(raw)
		if err != nil {
			continue
		}

		fields, ok := parseOHLCV(rows[idx])
		if !ok {
			continue
		}

		byDatetime[datetime] = shared.IntradayBar{
			Datetime: datetime,
			Open:     fields.open,
			High:     fields.high,
			Low:      fields.low,
			Close:    fields.close,
			Volume:   fields.volume,
		}
	}

	bars := make([]shared.IntradayBar, 0, len(byDatetime))
	for _, bar := range byDatetime {
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Datetime < bars[j].Datetime })

	return bars
}
