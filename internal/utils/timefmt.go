package utils

import (
	"errors"
	"regexp"
	"time"
)

// ErrBadTimeFormat is returned for timestamps that are not ISO local
// time in one of the accepted precisions.
var ErrBadTimeFormat = errors.New("time must be ISO format, e.g. 2026-01-02T15:04 or 2026-01-02T15:04:05")

// isoLocal accepts minute, second, or millisecond precision with no
// zone designator. Offsets and trailing Z are rejected on purpose: the
// whole system runs in UTC and a client-supplied zone would silently
// shift reservation windows.
var isoLocal = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d{3})?)?$`)

var isoLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseISOLocal parses a zone-less ISO timestamp as UTC.
func ParseISOLocal(s string) (time.Time, error) {
	if !isoLocal.MatchString(s) {
		return time.Time{}, ErrBadTimeFormat
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	// Matched the shape but not a real calendar date, e.g. month 13.
	return time.Time{}, ErrBadTimeFormat
}
