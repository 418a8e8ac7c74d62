package market

import (
	"fmt"
	"time"

	"github.com/dnldd/chartfeed/shared"
)

const (
	// Regular trading session times in new york time (ET).
	RegularOpen  = "09:30"
	RegularClose = "16:00"

	// maxCalendarSearchDays bounds the search for the next trading day.
	maxCalendarSearchDays = 7
)

// Calendar represents the exchange trading calendar.
type Calendar struct {
	loc        *time.Location
	openHour   int
	openMinute int
	closeHour  int
	closeMin   int
}

// NewCalendar initializes the exchange calendar in new york time.
func NewCalendar() (*Calendar, error) {
	loc, err := time.LoadLocation(shared.NewYorkLocation)
	if err != nil {
		return nil, fmt.Errorf("loading new york location: %w", err)
	}

	open, err := time.Parse(shared.SessionTimeLayout, RegularOpen)
	if err != nil {
		return nil, fmt.Errorf("parsing session open: %w", err)
	}

	sessionClose, err := time.Parse(shared.SessionTimeLayout, RegularClose)
	if err != nil {
		return nil, fmt.Errorf("parsing session close: %w", err)
	}

	return &Calendar{
		loc:        loc,
		openHour:   open.Hour(),
		openMinute: open.Minute(),
		closeHour:  sessionClose.Hour(),
		closeMin:   sessionClose.Minute(),
	}, nil
}

// Location returns the exchange location.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// IsTradingDay checks whether the provided time falls on a weekday in exchange time.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	switch t.In(c.loc).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// SessionOpen returns the regular session open for the exchange day of the provided time.
func (c *Calendar) SessionOpen(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), c.openHour, c.openMinute, 0, 0, c.loc)
}

// SessionClose returns the regular session close for the exchange day of the provided time.
func (c *Calendar) SessionClose(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), c.closeHour, c.closeMin, 0, 0, c.loc)
}

// IsRegularTradingHours checks whether the provided time is within the regular session
// of a trading day.
func (c *Calendar) IsRegularTradingHours(t time.Time) bool {
	if !c.IsTradingDay(t) {
		return false
	}

	open := c.SessionOpen(t)
	sessionClose := c.SessionClose(t)

	return !t.Before(open) && t.Before(sessionClose)
}

// NextMarketOpen returns the next regular session open strictly after the provided time,
// skipping weekends.
func (c *Calendar) NextMarketOpen(t time.Time) time.Time {
	local := t.In(c.loc)
	for day := 0; day <= maxCalendarSearchDays; day++ {
		candidate := c.SessionOpen(time.Date(local.Year(), local.Month(), local.Day()+day, 12, 0, 0, 0, c.loc))
		if !c.IsTradingDay(candidate) {
			continue
		}
		if candidate.After(t) {
			return candidate
		}
	}

	// Unreachable with a five day trading week.
	return c.SessionOpen(local.AddDate(0, 0, 1))
}
