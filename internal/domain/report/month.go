package report

import (
	"fmt"
	"time"
)

const (
	monthLayout = "2006-01"
	dateLayout  = "02/01/2006"
)

// ParseMonth parses a YYYY-MM month key.
func ParseMonth(key string) (time.Time, error) {
	t, err := time.Parse(monthLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, key)
	}
	return t, nil
}

// MonthKey formats the month of t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// ParseDate parses an activity date in DD/MM/YYYY form.
func ParseDate(date string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MonthOf returns the month key of an activity date.
func MonthOf(date string) (string, bool) {
	t, ok := ParseDate(date)
	if !ok {
		return "", false
	}
	return MonthKey(t), true
}

// Previous returns the month before key.
func Previous(key string) (string, error) {
	t, err := ParseMonth(key)
	if err != nil {
		return "", err
	}
	return MonthKey(t.AddDate(0, -1, 0)), nil
}

// Next returns the month after key.
func Next(key string) (string, error) {
	t, err := ParseMonth(key)
	if err != nil {
		return "", err
	}
	return MonthKey(t.AddDate(0, 1, 0)), nil
}

// IsPast reports whether key lies before the month of now. Invalid keys are never past.
func IsPast(key string, now time.Time) bool {
	t, err := ParseMonth(key)
	if err != nil {
		return false
	}
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return t.Before(current)
}
