package attendance

import (
	"errors"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Fractional seconds are accepted after the seconds field by time.Parse
// even when a layout omits them.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var errBadTime = errors.New("unrecognised time format")

// ParseTime accepts an ISO-8601 timestamp first and falls back to a plain
// date. Results are in UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, errBadTime
}

// ParseDate accepts only YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

// FormatTime renders t like an ISO-8601 local timestamp, adding
// microseconds only when present.
func FormatTime(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/1000 != 0 {
		return t.Format("2006-01-02T15:04:05.000000")
	}
	return t.Format("2006-01-02T15:04:05")
}
