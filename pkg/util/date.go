package util

import (
	"strconv"
	"time"
)

// Layouts tried by ParseTime in order. RubyDate is what the Twitter proxy returns.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RubyDate,
	time.RFC1123Z,
	"2006-01-02 15:04:05",
}

// ParseTime tries the known layouts, then unix seconds or milliseconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		if ts > 1e11 {
			return time.UnixMilli(ts), true
		}
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}
