package readstore

import (
	"context"
	"errors"
	"time"

	"careslot/internal/domain/pool"
	"careslot/internal/infra"
	"careslot/internal/pkg/pgconv"
	"careslot/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingReadStore serves the query side straight from the pool; reads never
// join the allocation engine's transactions.
type BookingReadStore struct {
	db *pgxpool.Pool
}

func NewBookingReadStore(db *pgxpool.Pool) *BookingReadStore {
	return &BookingReadStore{db: db}
}

const bookingViewQuery = `
SELECT b.id, b.kind, p.resource_id, r.name, p.bucket, b.requester_id, b.status,
       w."position", b.note, b.promoted_at, b.created_at, b.updated_at
FROM bookings b
JOIN pools p ON p.id = b.pool_id
JOIN resources r ON r.id = p.resource_id
LEFT JOIN waitlist_entries w ON w.booking_id = b.id AND w.status = 'waiting'`

func (s *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	row := s.db.QueryRow(ctx, bookingViewQuery+` WHERE b.id = $1`, id)

	view, err := scanBookingView(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "find booking view", err)
	}
	return view, nil
}

func (s *BookingReadStore) FindByRequester(ctx context.Context, requesterID uuid.UUID) ([]*queries.BookingListItem, error) {
	rows, err := s.db.Query(ctx, bookingViewQuery+` WHERE b.requester_id = $1 ORDER BY b.created_at DESC`, requesterID)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "list bookings by requester", err)
	}
	defer rows.Close()

	items := make([]*queries.BookingListItem, 0)
	for rows.Next() {
		view, err := scanBookingView(rows)
		if err != nil {
			return nil, infra.NewRepoErr(infra.KindDBFailure, "scan booking view", err)
		}
		items = append(items, toListItem(view))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "list bookings by requester", err)
	}
	return items, nil
}

func (s *BookingReadStore) FindPool(ctx context.Context, key pool.Key) (*queries.PoolView, error) {
	const poolQuery = `
SELECT p.id, p.kind, p.resource_id, r.name, p.bucket, p.capacity_total, p.capacity_used,
       (SELECT COUNT(*) FROM waitlist_entries w WHERE w.pool_id = p.id AND w.status = 'waiting')
FROM pools p
JOIN resources r ON r.id = p.resource_id
WHERE p.kind = $1 AND p.resource_id = $2 AND p.bucket = $3`

	var (
		view   queries.PoolView
		poolID uuid.UUID
		bucket time.Time
	)
	err := s.db.QueryRow(ctx, poolQuery, key.Kind.String(), key.ResourceID, key.Bucket()).Scan(
		&poolID, &view.Kind, &view.ResourceID, &view.ResourceName, &bucket,
		&view.CapacityTotal, &view.CapacityUsed, &view.WaitlistDepth,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "pool not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "find pool view", err)
	}
	view.Bucket = nullableBucket(bucket)

	rows, err := s.db.Query(ctx, bookingViewQuery+` WHERE b.pool_id = $1 ORDER BY b.created_at`, poolID)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "list pool bookings", err)
	}
	defer rows.Close()

	view.Bookings = make([]*queries.BookingListItem, 0)
	for rows.Next() {
		bv, err := scanBookingView(rows)
		if err != nil {
			return nil, infra.NewRepoErr(infra.KindDBFailure, "scan booking view", err)
		}
		view.Bookings = append(view.Bookings, toListItem(bv))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "list pool bookings", err)
	}
	return &view, nil
}

func scanBookingView(row pgx.Row) (*queries.BookingView, error) {
	var (
		view       queries.BookingView
		bucket     time.Time
		position   pgtype.Int4
		note       pgtype.Text
		promotedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&view.ID, &view.Kind, &view.ResourceID, &view.ResourceName, &bucket,
		&view.RequesterID, &view.Status, &position, &note,
		&promotedAt, &view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	view.Bucket = nullableBucket(bucket)
	view.Position = pgconv.Int32PtrFromPgtype(position)
	view.Note = pgconv.StringPtrFromPgtype(note)
	view.PromotedAt = pgconv.TimePtrFromPgtype(promotedAt)
	return &view, nil
}

func toListItem(view *queries.BookingView) *queries.BookingListItem {
	return &queries.BookingListItem{
		ID:           view.ID,
		Kind:         view.Kind,
		ResourceID:   view.ResourceID,
		ResourceName: view.ResourceName,
		Bucket:       view.Bucket,
		Status:       view.Status,
		Position:     view.Position,
		CreatedAt:    view.CreatedAt,
	}
}

// Standing inventory pools store the zero date; the API shows no bucket.
func nullableBucket(bucket time.Time) *time.Time {
	if bucket.IsZero() {
		return nil
	}
	b := bucket
	return &b
}
