package cache

import (
	"time"

	"github.com/dnldd/chartfeed/market"
)

const (
	// DefaultRefreshInterval is how long intraday results are held while the market is open.
	DefaultRefreshInterval = time.Minute * 5
	// AuxiliaryTTL is the lifetime of auxiliary cross-ticker lookups.
	AuxiliaryTTL = time.Minute * 5
)

// NextCacheExpiry returns when a value computed at the provided time should expire.
//
// During regular trading hours values refresh every fixed duration but never outlive the
// session close. Outside of them values are held until the next session opens.
func NextCacheExpiry(cal *market.Calendar, now time.Time, fixed time.Duration) time.Time {
	if cal.IsRegularTradingHours(now) {
		expiry := now.Add(fixed)
		sessionClose := cal.SessionClose(now)
		if sessionClose.Before(expiry) {
			expiry = sessionClose
		}

		return expiry
	}

	return cal.NextMarketOpen(now)
}
