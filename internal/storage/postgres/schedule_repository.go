package postgres

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventsphere/event-service/internal/domain"
)

const scheduleColumns = `id, event_id, title, description, speaker, location, start_time, end_time, seq, created_at, updated_at`

type ScheduleRepository struct {
	conn
}

func NewScheduleRepository(pool *pgxpool.Pool, timeout time.Duration) *ScheduleRepository {
	return &ScheduleRepository{conn: newConn(pool, timeout)}
}

func (r *ScheduleRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.withTx(ctx, fn)
}

func (r *ScheduleRepository) LockEvent(ctx context.Context, id string) (domain.Event, error) {
	return r.lockEvent(ctx, id)
}

func (r *ScheduleRepository) CreateSchedule(ctx context.Context, item domain.ScheduleItem) (domain.ScheduleItem, error) {
	const stmt = `
INSERT INTO schedules (id, event_id, title, description, speaker, location, start_time, end_time, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + scheduleColumns

	ctx, cancel := r.bound(ctx)
	defer cancel()

	created, err := scanSchedule(r.queryRow(ctx, stmt,
		item.ID,
		item.EventID,
		item.Title,
		item.Description,
		item.Speaker,
		item.Location,
		item.StartTime,
		item.EndTime,
		item.CreatedAt,
		item.UpdatedAt,
	))
	if err != nil {
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.ScheduleItem{}, domain.ErrEventNotFound
		}
		return domain.ScheduleItem{}, classify("create schedule", err)
	}
	return created, nil
}

func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (domain.ScheduleItem, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	return r.getSchedule(ctx, query, id)
}

func (r *ScheduleRepository) GetScheduleForUpdate(ctx context.Context, id string) (domain.ScheduleItem, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1 FOR UPDATE`
	return r.getSchedule(ctx, query, id)
}

func (r *ScheduleRepository) getSchedule(ctx context.Context, query, id string) (domain.ScheduleItem, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	item, err := scanSchedule(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.ScheduleItem{}, domain.ErrScheduleNotFound
		}
		return domain.ScheduleItem{}, classify("get schedule", err)
	}
	return item, nil
}

func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, item domain.ScheduleItem) error {
	const stmt = `
UPDATE schedules
SET event_id = $2, title = $3, description = $4, speaker = $5, location = $6,
    start_time = $7, end_time = $8, updated_at = $9
WHERE id = $1`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	tag, err := r.exec(ctx, stmt,
		item.ID,
		item.EventID,
		item.Title,
		item.Description,
		item.Speaker,
		item.Location,
		item.StartTime,
		item.EndTime,
		item.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrScheduleNotFound
		}
		return classify("update schedule", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) (domain.ScheduleItem, error) {
	const stmt = `DELETE FROM schedules WHERE id = $1 RETURNING ` + scheduleColumns
	ctx, cancel := r.bound(ctx)
	defer cancel()

	item, err := scanSchedule(r.queryRow(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.ScheduleItem{}, domain.ErrScheduleNotFound
		}
		return domain.ScheduleItem{}, classify("delete schedule", err)
	}
	return item, nil
}

// HasOverlap reports whether another item of the event intersects [start, end).
func (r *ScheduleRepository) HasOverlap(ctx context.Context, eventID, excludeID string, start, end time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM schedules
	WHERE event_id = $1
	  AND ($2 = '' OR id::text <> $2)
	  AND start_time < $4
	  AND end_time > $3
)`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	var overlap bool
	if err := r.queryRow(ctx, query, eventID, excludeID, start, end).Scan(&overlap); err != nil {
		return false, classify("check overlap", err)
	}
	return overlap, nil
}

// ListSchedules yields the items of one event, or of all events when eventID is
// empty, by start time and then insertion order. The query runs when the
// sequence is ranged over and again on every new range.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, eventID string) iter.Seq2[domain.ScheduleItem, error] {
	const query = `
SELECT ` + scheduleColumns + `
FROM schedules
WHERE ($1::uuid IS NULL OR event_id = $1::uuid)
ORDER BY start_time ASC, seq ASC`

	return func(yield func(domain.ScheduleItem, error) bool) {
		var filter *string
		if eventID != "" {
			if uuid.Validate(eventID) != nil {
				return
			}
			filter = &eventID
		}

		ctx, cancel := r.bound(ctx)
		defer cancel()

		rows, err := r.query(ctx, query, filter)
		if err != nil {
			if !isInvalidUUID(err) {
				yield(domain.ScheduleItem{}, classify("list schedules", err))
			}
			return
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scanSchedule(rows)
			if err != nil {
				yield(domain.ScheduleItem{}, classify("scan schedule", err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil && !isInvalidUUID(err) {
			yield(domain.ScheduleItem{}, classify("iterate schedules", err))
		}
	}
}

func scanSchedule(row pgx.Row) (domain.ScheduleItem, error) {
	var s domain.ScheduleItem
	err := row.Scan(
		&s.ID,
		&s.EventID,
		&s.Title,
		&s.Description,
		&s.Speaker,
		&s.Location,
		&s.StartTime,
		&s.EndTime,
		&s.Seq,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return domain.ScheduleItem{}, err
	}
	s.StartTime = s.StartTime.UTC()
	s.EndTime = s.EndTime.UTC()
	return s, nil
}
