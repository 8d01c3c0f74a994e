package utils

import (
	"time"
)

// NewYork is the US Eastern time zone the exchanges trade in.
var NewYork *time.Location

func init() {
	var err error
	NewYork, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback: fixed EST zone if tz database is not available
		NewYork = time.FixedZone("EST", -5*60*60)
	}
}

// NowET returns the current time in US Eastern time.
func NowET() time.Time {
	return time.Now().In(NewYork)
}

// MarketOpenTime returns the regular session open (9:30 AM ET) for a given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(NewYork)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, NewYork)
}

// MarketCloseTime returns the regular session close (4:00 PM ET) for a given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(NewYork)
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, NewYork)
}

// PreMarketStart returns the pre-market session start (4:00 AM ET).
func PreMarketStart(date time.Time) time.Time {
	d := date.In(NewYork)
	return time.Date(d.Year(), d.Month(), d.Day(), 4, 0, 0, 0, NewYork)
}

// IsMarketOpenAt checks if the regular session would be open at the given time.
func IsMarketOpenAt(t time.Time) bool {
	if !IsTradingDay(t) {
		return false
	}
	open := MarketOpenTime(t)
	close := MarketCloseTime(t)
	return !t.Before(open) && t.Before(close)
}

// IsTradingDay checks if the given date is a trading day (not weekend, not holiday).
func IsTradingDay(t time.Time) bool {
	t = t.In(NewYork)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsTradingHoliday(t)
}

// IsTradingHoliday checks if the given date is an NYSE holiday.
// This list should be updated annually.
func IsTradingHoliday(t time.Time) bool {
	_, ok := nyseHolidays2026[t.In(NewYork).Format("2006-01-02")]
	return ok
}

// NYSE holidays for 2026 (update annually).
var nyseHolidays2026 = map[string]string{
	"2026-01-01": "New Year's Day",
	"2026-01-19": "Martin Luther King Jr. Day",
	"2026-02-16": "Washington's Birthday",
	"2026-04-03": "Good Friday",
	"2026-05-25": "Memorial Day",
	"2026-06-19": "Juneteenth",
	"2026-07-03": "Independence Day (observed)",
	"2026-09-07": "Labor Day",
	"2026-11-26": "Thanksgiving Day",
	"2026-12-25": "Christmas Day",
}

// MarketStatus returns the current market status string.
func MarketStatus() string {
	return MarketStatusAt(NowET())
}

// MarketStatusAt returns the market status at t.
func MarketStatusAt(t time.Time) string {
	t = t.In(NewYork)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return "CLOSED (Weekend)"
	}
	if holiday, ok := nyseHolidays2026[t.Format("2006-01-02")]; ok {
		return "CLOSED (" + holiday + ")"
	}

	switch {
	case t.Before(PreMarketStart(t)):
		return "CLOSED"
	case t.Before(MarketOpenTime(t)):
		return "PRE-MARKET"
	case t.Before(MarketCloseTime(t)):
		return "OPEN"
	default:
		return "AFTER-HOURS"
	}
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of t's UTC day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// TrailingWindow returns the [from, to] range covering the last days days
// up to now, in UTC.
func TrailingWindow(now time.Time, days int) (from, to time.Time) {
	to = now.UTC()
	return to.AddDate(0, 0, -days), to
}

// FormatDate formats t as "2006-01-02" in UTC, the date format news APIs take.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
