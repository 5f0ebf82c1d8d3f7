package hr

import (
	"strings"
	"time"
)

// DateLayout is how calendar dates are stored.
const DateLayout = "2006-01-02"

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ParseDate reads a calendar date. Full RFC 3339 timestamps are accepted
// and cut to their date. The result is midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), true
	}
	return time.Time{}, false
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// BRDate renders a stored date as DD/MM/YYYY, or "" when it does not parse.
func BRDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return t.Format("02/01/2006")
}

// DaysBetween counts calendar days from a to b, negative when b is earlier.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
