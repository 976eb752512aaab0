package options

import (
	"fmt"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// DefaultMinDaysToExpiration is how far out a monthly contract must be to
// qualify.
const DefaultMinDaysToExpiration = 30

// IsThirdFriday reports whether t is the third Friday of its calendar month,
// the standard monthly options expiration.
func IsThirdFriday(t time.Time) bool {
	if t.Weekday() != time.Friday {
		return false
	}
	return (t.Day()-1)/7 == 2
}

// ValidateExpiration parses and validates a requested expiration date against
// today. It must be a well-formed ISO date, not in the past, at least minDays
// out, and a third-Friday monthly contract. Returns the normalized ISO date.
func ValidateExpiration(raw string, today time.Time, minDays int) (string, error) {
	d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	day := truncateToDay(today)
	if d.Before(day) {
		return "", fmt.Errorf("%w: %s", ErrPastDate, raw)
	}
	if d.Before(day.AddDate(0, 0, minDays)) {
		return "", fmt.Errorf("%w: %s is less than %d days out", ErrExpirationTooNear, raw, minDays)
	}
	if !IsThirdFriday(d) {
		return "", fmt.Errorf("%w: %s", ErrNotMonthly, raw)
	}
	return d.Format(dateLayout), nil
}

// FilterValidExpirations keeps only the dates that qualify as tradable
// monthly contracts: at least minDays from today and on a third Friday.
// Unparseable entries are skipped. The result is sorted ascending.
func FilterValidExpirations(dates []string, today time.Time, minDays int) []string {
	cutoff := truncateToDay(today).AddDate(0, 0, minDays)
	out := make([]string, 0, len(dates))
	for _, raw := range dates {
		d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			continue
		}
		if d.Before(cutoff) || !IsThirdFriday(d) {
			continue
		}
		out = append(out, d.Format(dateLayout))
	}
	// ISO dates sort chronologically as strings
	sort.Strings(out)
	return out
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
