package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar days
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day at 00:00 UTC.
// Values produced by Day are safe to use as map keys and compare with ==.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a calendar day
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (expected YYYY-MM-DD)", ErrInvalidInput, s)
	}
	return Day(t), nil
}

// FormatDay renders a calendar day as YYYY-MM-DD
func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}
