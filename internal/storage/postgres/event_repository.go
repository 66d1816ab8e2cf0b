package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eventsphere/event-service/internal/domain"
)

const eventColumns = `id, title, description, category, venue, date, capacity, available_seats, price::text, organizer, created_at`

// EventRepository stores events and is the persistence side of the capacity
// ledger: available_seats only ever changes through the conditional updates
// below.
type EventRepository struct {
	conn
}

func NewEventRepository(pool *pgxpool.Pool, timeout time.Duration) *EventRepository {
	return &EventRepository{conn: newConn(pool, timeout)}
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.withTx(ctx, fn)
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, title, description, category, venue, date, capacity, available_seats, price, organizer, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8::numeric, $9, $10)`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	_, err := r.exec(ctx, stmt,
		event.ID,
		event.Title,
		event.Description,
		event.Category,
		event.Venue,
		event.Date,
		event.Capacity,
		event.Price.String(),
		event.Organizer,
		event.CreatedAt,
	)
	if err != nil {
		return classify("create event", err)
	}
	return nil
}

func (r *EventRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events ORDER BY date ASC, created_at ASC`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, classify("list events", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, classify("scan event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate events", err)
	}
	return events, nil
}

func (r *EventRepository) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	event, err := scanEvent(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, classify("get event", err)
	}
	return event, nil
}

// DeleteEvent removes the event; schedules and rsvps go with it by cascade.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) (domain.Event, error) {
	const stmt = `DELETE FROM events WHERE id = $1 RETURNING ` + eventColumns

	ctx, cancel := r.bound(ctx)
	defer cancel()

	event, err := scanEvent(r.queryRow(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, classify("delete event", err)
	}
	return event, nil
}

func (r *EventRepository) LockEvent(ctx context.Context, id string) (domain.Event, error) {
	return r.lockEvent(ctx, id)
}

// ApplySeatDelta consumes delta seats (or returns them when negative) in one
// conditional statement. The result never drops below zero and never rises
// above capacity.
func (r *EventRepository) ApplySeatDelta(ctx context.Context, eventID string, delta int) (int, error) {
	const stmt = `
UPDATE events
SET available_seats = LEAST(capacity, available_seats - $2::bigint)
WHERE id = $1 AND available_seats - $2::bigint >= 0
RETURNING available_seats`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	var available int
	err := r.queryRow(ctx, stmt, eventID, delta).Scan(&available)
	if err == nil {
		return available, nil
	}
	if isInvalidUUID(err) {
		return 0, domain.ErrEventNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, classify("apply seat delta", err)
	}
	if exists, err := r.eventExists(ctx, eventID); err != nil {
		return 0, err
	} else if !exists {
		return 0, domain.ErrEventNotFound
	}
	return 0, domain.ErrCapacityExceeded
}

func (r *EventRepository) ReleaseSeats(ctx context.Context, eventID string, seats int) (int, error) {
	const stmt = `
UPDATE events
SET available_seats = LEAST(capacity, available_seats + $2::bigint)
WHERE id = $1
RETURNING available_seats`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	var available int
	if err := r.queryRow(ctx, stmt, eventID, seats).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return 0, domain.ErrEventNotFound
		}
		return 0, classify("release seats", err)
	}
	return available, nil
}

// ChangeCapacity resizes the event while keeping the seats already consumed.
func (r *EventRepository) ChangeCapacity(ctx context.Context, eventID string, capacity int) (domain.Event, error) {
	const stmt = `
UPDATE events
SET available_seats = available_seats + ($2::bigint - capacity), capacity = $2::bigint
WHERE id = $1 AND available_seats + ($2::bigint - capacity) >= 0
RETURNING ` + eventColumns

	ctx, cancel := r.bound(ctx)
	defer cancel()

	event, err := scanEvent(r.queryRow(ctx, stmt, eventID, capacity))
	if err == nil {
		return event, nil
	}
	if isInvalidUUID(err) {
		return domain.Event{}, domain.ErrEventNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Event{}, classify("change capacity", err)
	}
	if exists, err := r.eventExists(ctx, eventID); err != nil {
		return domain.Event{}, err
	} else if !exists {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return domain.Event{}, domain.ErrCapacityExceeded
}

func (r *EventRepository) eventExists(ctx context.Context, eventID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`
	var exists bool
	if err := r.queryRow(ctx, query, eventID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, nil
		}
		return false, classify("check event", err)
	}
	return exists, nil
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var (
		e     domain.Event
		price string
	)
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Category,
		&e.Venue,
		&e.Date,
		&e.Capacity,
		&e.AvailableSeats,
		&price,
		&e.Organizer,
		&e.CreatedAt,
	)
	if err != nil {
		return domain.Event{}, err
	}
	if e.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Event{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	return e, nil
}
