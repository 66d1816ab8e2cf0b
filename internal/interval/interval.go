// Package interval validates and converts the time ranges of schedule items.
package interval

import (
	"strings"
	"time"

	"github.com/eventsphere/event-service/internal/domain"
)

// Accepted input layouts, most specific first. The zone-less forms are what an
// HTML datetime-local input submits and are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Parse reads a timestamp from client input.
func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, domain.ErrMalformedTimestamp
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.ErrMalformedTimestamp
}

// Format renders t the way the API emits timestamps.
func Format(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Validate accepts the interval only when end strictly follows start.
func Validate(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return domain.ErrMalformedTimestamp
	}
	if !end.After(start) {
		return domain.ErrInvalidInterval
	}
	return nil
}
