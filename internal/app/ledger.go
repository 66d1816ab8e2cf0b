package app

import (
	"context"
	"errors"

	"github.com/eventsphere/event-service/internal/domain"
	"github.com/eventsphere/event-service/internal/metrics"
)

// SeatRepository applies seat arithmetic to the events table. Each method is a
// single conditional statement, so admission holds across processes.
type SeatRepository interface {
	ApplySeatDelta(ctx context.Context, eventID string, delta int) (int, error)
	ReleaseSeats(ctx context.Context, eventID string, seats int) (int, error)
	ChangeCapacity(ctx context.Context, eventID string, capacity int) (domain.Event, error)
}

// Ledger is the only writer of an event's available seats.
type Ledger struct {
	repo    SeatRepository
	metrics *metrics.Metrics
}

func NewLedger(repo SeatRepository, m *metrics.Metrics) *Ledger {
	return &Ledger{repo: repo, metrics: m}
}

// TryReserve moves a reservation from prev to next and applies the seat
// difference. A zero difference touches nothing.
func (l *Ledger) TryReserve(ctx context.Context, eventID string, prev, next domain.Seating) error {
	if next.Guests < 0 || next.Guests > domain.MaxGuests {
		return domain.ErrInvalidGuestCount
	}
	delta := next.Cost() - prev.Cost()
	if delta == 0 {
		l.metrics.Admission("unchanged")
		return nil
	}

	_, err := l.repo.ApplySeatDelta(ctx, eventID, delta)
	switch {
	case err == nil && delta > 0:
		l.metrics.Admission("admitted")
	case err == nil:
		l.metrics.Admission("released")
	case errors.Is(err, domain.ErrCapacityExceeded):
		l.metrics.Admission("rejected")
	}
	return err
}

// Release returns seats to the event. The result is clamped to capacity.
func (l *Ledger) Release(ctx context.Context, eventID string, seats int) error {
	if seats <= 0 {
		return nil
	}
	if _, err := l.repo.ReleaseSeats(ctx, eventID, seats); err != nil {
		return err
	}
	l.metrics.Admission("released")
	return nil
}

// ChangeCapacity resizes an event, refusing sizes below the seats in use.
func (l *Ledger) ChangeCapacity(ctx context.Context, eventID string, capacity int) (domain.Event, error) {
	if !domain.ValidCapacity(capacity) {
		return domain.Event{}, domain.ErrInvalidCapacity
	}
	return l.repo.ChangeCapacity(ctx, eventID, capacity)
}
