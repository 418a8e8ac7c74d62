package indicator

import (
	"github.com/dnldd/chartfeed/shared"
)

// RMA computes wilder's running moving average over the provided values.
//
// The first defined value seeds the running average. Undefined values are skipped: they
// produce no output and leave the running average untouched for the next defined value.
func RMA(values []shared.Optional, period int) []shared.Optional {
	if period <= 0 {
		period = DefaultRSIPeriod
	}

	out := make([]shared.Optional, len(values))

	var seeded bool
	var avg float64
	for i := range values {
		if !values[i].Valid {
			continue
		}

		if !seeded {
			avg = values[i].Value
			seeded = true
		} else {
			avg = (avg*float64(period-1) + values[i].Value) / float64(period)
		}

		out[i] = shared.Some(avg)
	}

	return out
}
