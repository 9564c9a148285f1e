// Package timeutil provides calendar-day helpers for streaks and daily challenges.
// All day arithmetic happens in a single configurable location (default: local time),
// so "today" means the same thing for the streak counter and the challenge selector.
package timeutil

import (
	"sync"
	"time"
)

// DateLayout is the canonical calendar-day layout used in keys and identifiers.
const DateLayout = "2006-01-02"

var (
	locMu    sync.RWMutex
	location = time.Local
)

// SetLocation changes the location used for calendar-day calculations.
// A nil location resets to time.Local.
func SetLocation(loc *time.Location) {
	locMu.Lock()
	defer locMu.Unlock()
	if loc == nil {
		loc = time.Local
	}
	location = loc
}

// Location returns the location used for calendar-day calculations.
func Location() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	return location
}

// LoadLocation resolves a timezone name, falling back to time.Local on error or empty input.
func LoadLocation(name string) *time.Location {
	if name == "" || name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// Now returns the current time in the configured location.
func Now() time.Time {
	return time.Now().In(Location())
}

// StartOfDay returns midnight of t's calendar day in the configured location.
func StartOfDay(t time.Time) time.Time {
	local := t.In(Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
}

// IsSameDay checks if two times fall on the same calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	a1, a2 := t1.In(Location()), t2.In(Location())
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// DaysBetween returns the signed number of calendar days from t1 to t2.
// Computed on civil dates so DST shifts never produce off-by-one results.
func DaysBetween(t1, t2 time.Time) int {
	a1, a2 := t1.In(Location()), t2.In(Location())
	d1 := time.Date(a1.Year(), a1.Month(), a1.Day(), 0, 0, 0, 0, time.UTC)
	d2 := time.Date(a2.Year(), a2.Month(), a2.Day(), 0, 0, 0, 0, time.UTC)
	return int(d2.Sub(d1).Hours() / 24)
}

// FormatDate formats t as YYYY-MM-DD in the configured location.
func FormatDate(t time.Time) string {
	return t.In(Location()).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as midnight in the configured location.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Location())
}
