package app

import (
	"context"
	"errors"
	"testing"

	"github.com/eventsphere/event-service/internal/domain"
)

func TestLedger_TryReserve(t *testing.T) {
	t.Parallel()

	going := func(guests int) domain.Seating { return domain.Seating{Status: domain.RSVPGoing, Guests: guests} }
	declined := domain.Seating{Status: domain.RSVPDeclined}

	cases := []struct {
		name      string
		available int
		prev      domain.Seating
		next      domain.Seating
		want      int
		wantErr   error
	}{
		{"new going reservation", 10, domain.Seating{}, going(3), 6, nil},
		{"exact fit", 4, domain.Seating{}, going(3), 0, nil},
		{"does not fit", 3, domain.Seating{}, going(3), 3, domain.ErrCapacityExceeded},
		{"going to declined releases", 6, going(3), declined, 10, nil},
		{"guest decrease releases difference", 2, going(5), going(1), 6, nil},
		{"declined to going consumes", 10, declined, going(0), 9, nil},
		{"unchanged", 0, going(2), going(2), 0, nil},
		{"negative guests", 10, domain.Seating{}, going(-1), 10, domain.ErrInvalidGuestCount},
		{"guests beyond seat column", 10, domain.Seating{}, going(domain.MaxGuests + 1), 10, domain.ErrInvalidGuestCount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore(domain.Event{ID: "event-1", Capacity: 10, AvailableSeats: tc.available})
			if tc.available == 0 {
				e := store.events["event-1"]
				e.AvailableSeats = 0
				store.events["event-1"] = e
			}
			ledger := NewLedger(store, nil)

			err := ledger.TryReserve(context.Background(), "event-1", tc.prev, tc.next)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if got := store.available("event-1"); got != tc.want {
				t.Fatalf("expected %d available, got %d", tc.want, got)
			}
		})
	}

	t.Run("unknown event", func(t *testing.T) {
		ledger := NewLedger(newFakeStore(), nil)
		err := ledger.TryReserve(context.Background(), "missing", domain.Seating{}, going(0))
		if !errors.Is(err, domain.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})
}

func TestLedger_Release(t *testing.T) {
	t.Parallel()

	store := newFakeStore(domain.Event{ID: "event-1", Capacity: 10, AvailableSeats: 8})
	ledger := NewLedger(store, nil)

	if err := ledger.Release(context.Background(), "event-1", 5); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := store.available("event-1"); got != 10 {
		t.Fatalf("expected release clamped to capacity, got %d", got)
	}
	if err := ledger.Release(context.Background(), "missing", 1); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if err := ledger.Release(context.Background(), "missing", 0); err != nil {
		t.Fatalf("expected zero release to be a no-op, got %v", err)
	}
}

func TestLedger_ChangeCapacity(t *testing.T) {
	t.Parallel()

	store := newFakeStore(domain.Event{ID: "event-1", Capacity: 10, AvailableSeats: 4})
	ledger := NewLedger(store, nil)

	event, err := ledger.ChangeCapacity(context.Background(), "event-1", 20)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if event.Capacity != 20 || event.AvailableSeats != 14 {
		t.Fatalf("expected 20/14, got %d/%d", event.Capacity, event.AvailableSeats)
	}

	if _, err := ledger.ChangeCapacity(context.Background(), "event-1", 5); !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded below consumed seats, got %v", err)
	}
	if _, err := ledger.ChangeCapacity(context.Background(), "event-1", -1); !errors.Is(err, domain.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if _, err := ledger.ChangeCapacity(context.Background(), "event-1", domain.MaxCapacity+1); !errors.Is(err, domain.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity above the seat column, got %v", err)
	}
}
