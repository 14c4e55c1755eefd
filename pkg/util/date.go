package util

import (
	"strconv"
	"time"
)

// DateLayout is the calendar-date layout used on every external surface.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD, RFC3339 and unix seconds. Returns (t, true) if any worked.
// Results are truncated to the UTC calendar day.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Day(t), true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return Day(time.Unix(ts, 0)), true
	}
	return time.Time{}, false
}

// Day truncates t to midnight UTC of its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Lookback returns the [end-days, end] range with both ends truncated to the day.
func Lookback(end time.Time, days int) (time.Time, time.Time) {
	e := Day(end)
	return e.AddDate(0, 0, -days), e
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
