package repository

import (
	"context"
	"errors"

	"careslot/internal/domain/booking"
	"careslot/internal/domain/pool"
	"careslot/internal/infra"
	"careslot/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BookingRepository struct{}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

func (r *BookingRepository) Create(ctx context.Context, tx db.DBTX, b *booking.Booking) error {
	const stmt = `
INSERT INTO bookings (id, pool_id, kind, requester_id, status, contact, note, promoted_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, stmt,
		b.ID,
		b.PoolID,
		b.Kind.String(),
		b.RequesterID,
		b.Status.String(),
		b.Contact,
		b.Note,
		b.PromotedAt,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if infra.IsForeignKeyViolation(err) {
			return infra.NewRepoErr(infra.KindForeignKeyViolated, "booking references missing pool", err)
		}
		return infra.NewRepoErr(infra.KindDBFailure, "create booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	const query = `
SELECT id, pool_id, kind, requester_id, status, contact, note, promoted_at, created_at, updated_at
FROM bookings
WHERE id = $1
FOR UPDATE`

	var (
		b    booking.Booking
		kind string
	)
	err := tx.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.PoolID, &kind, &b.RequesterID, (*string)(&b.Status), &b.Contact, &b.Note, &b.PromotedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "find booking", err)
	}
	b.Kind = pool.ResourceKind(kind)
	return &b, nil
}

func (r *BookingRepository) Save(ctx context.Context, tx db.DBTX, b *booking.Booking) error {
	const stmt = `
UPDATE bookings
SET status = $2, promoted_at = $3, updated_at = $4
WHERE id = $1`

	tag, err := tx.Exec(ctx, stmt, b.ID, b.Status.String(), b.PromotedAt, b.UpdatedAt)
	if err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "save booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "booking not found", nil)
	}
	return nil
}
