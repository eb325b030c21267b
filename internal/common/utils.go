package common

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used on the wire and in storage keys.
const DateLayout = "2006-01-02"

var (
	errEmptyValue  = errors.New("value is empty")
	errInvalidDate = errors.New("invalid date format; use YYYY-MM-DD or RFC3339")
)

// ParseDate accepts either a calendar date or an RFC3339 timestamp and returns
// midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyValue
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return TruncateDate(ts), nil
	}
	return time.Time{}, errInvalidDate
}

// ParseDecimal parses a coordinate without going through float64.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errEmptyValue
	}
	return decimal.NewFromString(s)
}

// TruncateDate drops the time-of-day, keeping the calendar day as seen in t's zone.
func TruncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
