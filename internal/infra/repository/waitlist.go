package repository

import (
	"context"
	"errors"

	"careslot/internal/domain/waitlist"
	"careslot/internal/infra"
	"careslot/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type WaitlistRepository struct{}

func NewWaitlistRepository() *WaitlistRepository {
	return &WaitlistRepository{}
}

const waitlistColumns = `id, pool_id, booking_id, requester_id, contact, "position", status, created_at`

func (r *WaitlistRepository) Create(ctx context.Context, tx db.DBTX, e *waitlist.Entry) error {
	const stmt = `
INSERT INTO waitlist_entries (id, pool_id, booking_id, requester_id, contact, "position", status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, stmt,
		e.ID,
		e.PoolID,
		e.BookingID,
		e.RequesterID,
		e.Contact,
		e.Position,
		e.Status.String(),
		e.CreatedAt,
	)
	if err != nil {
		// Unique (pool_id, position): two admits raced past the pool lock.
		if infra.IsUniqueViolation(err) {
			return infra.NewRepoErr(infra.KindConflict, "waitlist position taken", err)
		}
		return infra.NewRepoErr(infra.KindDBFailure, "create waitlist entry", err)
	}
	return nil
}

func (r *WaitlistRepository) NextPosition(ctx context.Context, tx db.DBTX, poolID uuid.UUID) (int32, error) {
	const query = `
SELECT COALESCE(MAX("position"), 0) + 1
FROM waitlist_entries
WHERE pool_id = $1`

	var next int32
	if err := tx.QueryRow(ctx, query, poolID).Scan(&next); err != nil {
		return 0, infra.NewRepoErr(infra.KindDBFailure, "next waitlist position", err)
	}
	return next, nil
}

func (r *WaitlistRepository) FindWaiting(ctx context.Context, tx db.DBTX, poolID uuid.UUID) ([]*waitlist.Entry, error) {
	const query = `
SELECT ` + waitlistColumns + `
FROM waitlist_entries
WHERE pool_id = $1 AND status = 'waiting'
ORDER BY "position"`

	rows, err := tx.Query(ctx, query, poolID)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "list waiting entries", err)
	}
	defer rows.Close()

	var entries []*waitlist.Entry
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, infra.NewRepoErr(infra.KindDBFailure, "scan waitlist entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "list waiting entries", err)
	}
	return entries, nil
}

func (r *WaitlistRepository) FindByBookingID(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (*waitlist.Entry, error) {
	const query = `
SELECT ` + waitlistColumns + `
FROM waitlist_entries
WHERE booking_id = $1`

	e, err := scanWaitlistEntry(tx.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "waitlist entry not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "find waitlist entry", err)
	}
	return e, nil
}

func (r *WaitlistRepository) Save(ctx context.Context, tx db.DBTX, e *waitlist.Entry) error {
	const stmt = `
UPDATE waitlist_entries
SET status = $2
WHERE id = $1`

	tag, err := tx.Exec(ctx, stmt, e.ID, e.Status.String())
	if err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "save waitlist entry", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "waitlist entry not found", nil)
	}
	return nil
}

func scanWaitlistEntry(row pgx.Row) (*waitlist.Entry, error) {
	var e waitlist.Entry
	err := row.Scan(
		&e.ID, &e.PoolID, &e.BookingID, &e.RequesterID, &e.Contact, &e.Position, (*string)(&e.Status), &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
