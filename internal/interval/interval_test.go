package interval

import (
	"errors"
	"testing"
	"time"

	"github.com/eventsphere/event-service/internal/domain"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
	}{
		{name: "end after start", start: base, end: base.Add(time.Hour)},
		{name: "one nanosecond apart", start: base, end: base.Add(time.Nanosecond)},
		{name: "equal", start: base, end: base, wantErr: domain.ErrInvalidInterval},
		{name: "end before start", start: base, end: base.Add(-time.Minute), wantErr: domain.ErrInvalidInterval},
		{name: "missing start", end: base, wantErr: domain.ErrMalformedTimestamp},
		{name: "missing end", start: base, wantErr: domain.ErrMalformedTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.start, tt.end)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil && !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	for _, raw := range []string{
		"2025-06-01T09:30:00Z",
		"2025-06-01T11:30:00+02:00",
		"2025-06-01T09:30:00.000Z",
		"2025-06-01T09:30:00",
		"2025-06-01T09:30",
		"  2025-06-01T09:30:00Z ",
	} {
		got, err := Parse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: expected %v, got %v", raw, want, got)
		}
		if got.Location() != time.UTC {
			t.Fatalf("parse %q: expected UTC, got %v", raw, got.Location())
		}
	}

	for _, raw := range []string{"", "tomorrow", "2025-13-01T00:00:00Z", "2025-06-01"} {
		if _, err := Parse(raw); !errors.Is(err, domain.ErrMalformedTimestamp) {
			t.Fatalf("parse %q: expected ErrMalformedTimestamp, got %v", raw, err)
		}
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	t.Parallel()

	start, err := Parse("2025-06-01T11:00:00+02:00")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := Format(start); got != "2025-06-01T09:00:00Z" {
		t.Fatalf("unexpected format %q", got)
	}
	if err := Validate(start, start.Add(time.Hour)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
