package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// ISOLayout matches the millisecond UTC timestamps written by browsers
// (2024-03-01T12:00:00.000Z).
const ISOLayout = "2006-01-02T15:04:05.000Z"

// DayLayout is the calendar-day key format.
const DayLayout = "2006-01-02"

// FormatISO renders t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ParseTimestamp accepts RFC 3339 timestamps (with or without fractional
// seconds) and bare dates. Bare dates are read as UTC midnight.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// DayKey returns the calendar day of t in loc. A nil loc means the local zone.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// DocumentID returns the UTC date prefix of an ISO timestamp, used as the
// per-day document identifier. Strings shorter than a date are returned as is.
func DocumentID(timestamp string) string {
	if len(timestamp) < len(DayLayout) {
		return timestamp
	}
	return timestamp[:len(DayLayout)]
}

// EpochMillis returns t as milliseconds since the Unix epoch.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}
