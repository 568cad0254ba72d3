package core

import (
	"errors"
	"regexp"
	"time"
)

const monthLayout = "2006-01"

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

var ErrInvalidMonth = errors.New("invalid month")

// Month is a calendar month in strict YYYY-MM form.
type Month string

// ParseMonth validates s against the YYYY-MM format.
func ParseMonth(s string) (Month, error) {
	if !monthPattern.MatchString(s) {
		return "", ErrInvalidMonth
	}
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", ErrInvalidMonth
	}
	return Month(s), nil
}

// MonthOf returns the month containing t, evaluated in UTC.
func MonthOf(t time.Time) Month {
	return Month(t.UTC().Format(monthLayout))
}

// Before reports whether m is strictly earlier than other. Both must be
// well formed, which makes lexicographic order chronological.
func (m Month) Before(other Month) bool {
	return m < other
}

// Range returns the half-open interval [start, end) covered by the month.
func (m Month) Range() (time.Time, time.Time, error) {
	start, err := time.Parse(monthLayout, string(m))
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidMonth
	}
	return start, start.AddDate(0, 1, 0), nil
}

func (m Month) String() string {
	return string(m)
}
