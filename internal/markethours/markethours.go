// Package markethours decides which calendar days an exchange trades, so
// generated daily bars skip weekends and holidays.
package markethours

import (
	"fmt"
	"time"
)

// Calendar is a weekday session calendar in one location.
type Calendar struct {
	Location *time.Location
	holidays map[string]bool
}

// New creates a calendar. A nil loc means UTC.
func New(loc *time.Location, holidays ...time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	c := &Calendar{Location: loc, holidays: make(map[string]bool, len(holidays))}
	for _, h := range holidays {
		c.AddHoliday(h)
	}
	return c
}

// Weekdays is a Monday to Friday calendar in UTC with no holidays.
func Weekdays() *Calendar { return New(time.UTC) }

// AddHoliday marks the calendar day of t as closed.
func (c *Calendar) AddHoliday(t time.Time) {
	c.holidays[c.dateKey(t)] = true
}

func (c *Calendar) dateKey(t time.Time) string {
	return t.In(c.Location).Format("2006-01-02")
}

// IsHoliday reports whether t falls on a listed holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	return c.holidays[c.dateKey(t)]
}

// IsWeekday returns true if t is Mon–Fri.
func (c *Calendar) IsWeekday(t time.Time) bool {
	wd := t.In(c.Location).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t is a weekday and not a holiday.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	return c.IsWeekday(t) && !c.IsHoliday(t)
}

// NextTradingDay returns t moved forward by whole days until it lands on a
// trading day. A trading-day t is returned unchanged.
func (c *Calendar) NextTradingDay(t time.Time) time.Time {
	for i := 0; i < 366; i++ {
		if c.IsTradingDay(t) {
			return t
		}
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// ParseHolidays parses YYYY-MM-DD dates in loc.
func ParseHolidays(loc *time.Location, dates []string) ([]time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		t, err := time.ParseInLocation("2006-01-02", d, loc)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", d, err)
		}
		out = append(out, t)
	}
	return out, nil
}
