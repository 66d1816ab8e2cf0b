package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventsphere/event-service/internal/domain"
)

const rsvpColumns = `id, event_id, user_id, name, email, phone, status, guests, notes, created_at, updated_at`

type RSVPRepository struct {
	conn
}

func NewRSVPRepository(pool *pgxpool.Pool, timeout time.Duration) *RSVPRepository {
	return &RSVPRepository{conn: newConn(pool, timeout)}
}

func (r *RSVPRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.withTx(ctx, fn)
}

func (r *RSVPRepository) LockEvent(ctx context.Context, id string) (domain.Event, error) {
	return r.lockEvent(ctx, id)
}

// FindRSVP returns the reservation of userID for eventID, or nil.
func (r *RSVPRepository) FindRSVP(ctx context.Context, eventID, userID string) (*domain.RSVP, error) {
	const query = `SELECT ` + rsvpColumns + ` FROM rsvps WHERE event_id = $1 AND user_id = $2`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	rsvp, err := scanRSVP(r.queryRow(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isInvalidUUID(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, classify("find rsvp", err)
	}
	return &rsvp, nil
}

func (r *RSVPRepository) GetRSVP(ctx context.Context, id string) (domain.RSVP, error) {
	const query = `SELECT ` + rsvpColumns + ` FROM rsvps WHERE id = $1`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	rsvp, err := scanRSVP(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.RSVP{}, domain.ErrRSVPNotFound
		}
		return domain.RSVP{}, classify("get rsvp", err)
	}
	return rsvp, nil
}

// UpsertRSVP writes the reservation keyed by (event_id, user_id) in a single
// statement. created reports whether a new row was inserted.
func (r *RSVPRepository) UpsertRSVP(ctx context.Context, rsvp domain.RSVP) (domain.RSVP, bool, error) {
	const stmt = `
INSERT INTO rsvps (` + rsvpColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (event_id, user_id) DO UPDATE SET
	name = EXCLUDED.name,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	status = EXCLUDED.status,
	guests = EXCLUDED.guests,
	notes = EXCLUDED.notes,
	updated_at = EXCLUDED.updated_at
RETURNING ` + rsvpColumns + `, (xmax = 0) AS inserted`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	var (
		saved   domain.RSVP
		created bool
	)
	err := r.queryRow(ctx, stmt,
		rsvp.ID,
		rsvp.EventID,
		rsvp.UserID,
		rsvp.Name,
		rsvp.Email,
		rsvp.Phone,
		rsvp.Status,
		rsvp.Guests,
		rsvp.Notes,
		rsvp.CreatedAt,
		rsvp.UpdatedAt,
	).Scan(append(rsvpDest(&saved), &created)...)
	if err != nil {
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.RSVP{}, false, domain.ErrEventNotFound
		}
		if isUniqueViolation(err) {
			return domain.RSVP{}, false, domain.ErrDuplicateRSVP
		}
		return domain.RSVP{}, false, classify("upsert rsvp", err)
	}
	return saved, created, nil
}

func (r *RSVPRepository) UpdateRSVP(ctx context.Context, rsvp domain.RSVP) error {
	const stmt = `
UPDATE rsvps
SET status = $2, guests = $3, notes = $4, phone = $5, updated_at = $6
WHERE id = $1`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	tag, err := r.exec(ctx, stmt, rsvp.ID, rsvp.Status, rsvp.Guests, rsvp.Notes, rsvp.Phone, rsvp.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrRSVPNotFound
		}
		return classify("update rsvp", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRSVPNotFound
	}
	return nil
}

func (r *RSVPRepository) DeleteRSVP(ctx context.Context, id string) error {
	const stmt = `DELETE FROM rsvps WHERE id = $1`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrRSVPNotFound
		}
		return classify("delete rsvp", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRSVPNotFound
	}
	return nil
}

// ListRSVPs returns matching reservations, newest first.
func (r *RSVPRepository) ListRSVPs(ctx context.Context, filter domain.RSVPFilter) ([]domain.RSVP, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(args))))
	}
	if filter.EventID != "" {
		if uuid.Validate(filter.EventID) != nil {
			return []domain.RSVP{}, nil
		}
		add("event_id = ?::uuid", filter.EventID)
	}
	if filter.UserID != "" {
		add("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		add("status = ?", string(filter.Status))
	}

	query := `SELECT ` + rsvpColumns + ` FROM rsvps`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`

	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return []domain.RSVP{}, nil
		}
		return nil, classify("list rsvps", err)
	}
	defer rows.Close()

	var out []domain.RSVP
	for rows.Next() {
		rsvp, err := scanRSVP(rows)
		if err != nil {
			return nil, classify("scan rsvp", err)
		}
		out = append(out, rsvp)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return []domain.RSVP{}, nil
		}
		return nil, classify("iterate rsvps", err)
	}
	return out, nil
}

func rsvpDest(r *domain.RSVP) []any {
	return []any{
		&r.ID,
		&r.EventID,
		&r.UserID,
		&r.Name,
		&r.Email,
		&r.Phone,
		&r.Status,
		&r.Guests,
		&r.Notes,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
}

func scanRSVP(row pgx.Row) (domain.RSVP, error) {
	var r domain.RSVP
	if err := row.Scan(rsvpDest(&r)...); err != nil {
		return domain.RSVP{}, err
	}
	return r, nil
}
