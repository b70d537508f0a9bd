// Package calendar holds the date arithmetic behind the reservation window:
// "today" at midnight, the three-calendar-month horizon, and the two string
// forms a reservation date travels in.
package calendar

import (
	"fmt"
	"time"
)

const (
	// ISOLayout is the wire format sent to the booking API.
	ISOLayout = "2006-01-02"
	// DisplayLayout is the format shown back to the user.
	DisplayLayout = "02/01/2006"

	// HorizonMonths is how far ahead a reservation may be placed.
	HorizonMonths = 3
)

// Clock supplies the reference moment. Production code passes time.Now.
type Clock func() time.Time

// Fixed returns a Clock frozen at t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddMonths advances t by n calendar months. Day-of-month overflow rolls into
// the next month the way time.AddDate normalizes it (Nov 30 + 3 = Mar 2).
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

// Window is the inclusive range of dates a reservation may fall on.
type Window struct {
	Min time.Time
	Max time.Time
}

// WindowAt computes the reservation window relative to now.
func WindowAt(now time.Time) Window {
	today := StartOfDay(now)
	return Window{
		Min: today,
		Max: AddMonths(today, HorizonMonths),
	}
}

// Contains reports whether the calendar day of d lies inside the window.
func (w Window) Contains(d time.Time) bool {
	day := StartOfDay(d.In(w.Min.Location()))
	return !day.Before(w.Min) && !day.After(w.Max)
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", ISODate(w.Min), ISODate(w.Max))
}

// ISODate formats d as YYYY-MM-DD.
func ISODate(d time.Time) string {
	return d.Format(ISOLayout)
}

// DisplayDate formats d as DD/MM/YYYY.
func DisplayDate(d time.Time) string {
	return d.Format(DisplayLayout)
}

// ParseISODate parses a YYYY-MM-DD string as midnight in loc.
func ParseISODate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(ISOLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}
