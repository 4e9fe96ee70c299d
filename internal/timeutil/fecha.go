package timeutil

import (
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Clock returns the current instant. Services take a Clock so that "today"
// can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reports wall time in the business time zone.
type SystemClock struct {
	Loc *time.Location
}

// NewSystemClock loads the named zone, falling back to UTC when the zone
// database does not know it.
func NewSystemClock(zone string) SystemClock {
	loc, err := time.LoadLocation(zone)
	if err != nil || zone == "" {
		loc = time.UTC
	}
	return SystemClock{Loc: loc}
}

func (c SystemClock) Now() time.Time {
	if c.Loc == nil {
		return time.Now()
	}
	return time.Now().In(c.Loc)
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Fecha strips the clock part of t and returns the calendar date at 00:00 UTC.
// Every date stored or compared by the ledger goes through Fecha.
func Fecha(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Hoy returns today's calendar date according to c.
func Hoy(c Clock) time.Time {
	return Fecha(c.Now())
}

// ParseFecha parses a YYYY-MM-DD string into a calendar date.
func ParseFecha(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatFecha formats a calendar date as YYYY-MM-DD.
func FormatFecha(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays moves a calendar date by n days.
func AddDays(d time.Time, n int) time.Time {
	return Fecha(d).AddDate(0, 0, n)
}

// AddMonths moves a calendar date by n months, clamping the day to the last
// day of the target month (Jan 31 + 1 month = Feb 28 or 29).
func AddMonths(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(Fecha(b).Sub(Fecha(a)).Hours() / 24)
}
