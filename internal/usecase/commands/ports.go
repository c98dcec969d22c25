package commands

import (
	"context"
	"time"

	"careslot/internal/domain/booking"
	"careslot/internal/domain/pool"
	"careslot/internal/domain/waitlist"
	"careslot/internal/infra/db"

	"github.com/google/uuid"
)

// PoolRepository resolves and mutates capacity pools. Both ForUpdate methods
// must lock the pool row for the rest of the transaction so two concurrent
// admissions can never both observe spare capacity.
type PoolRepository interface {
	// ResolveForUpdate returns the pool for key, lazily creating it with
	// defaultCapacity on first access. At most one pool row may ever exist
	// per key, even under concurrent first access.
	ResolveForUpdate(ctx context.Context, tx db.DBTX, key pool.Key, defaultCapacity int32) (*pool.Pool, error)
	GetForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*pool.Pool, error)
	// SaveCapacity persists the capacity counters, guarded by the version
	// the pool was read at.
	SaveCapacity(ctx context.Context, tx db.DBTX, p *pool.Pool) error
}

// BookingRepository owns booking-record rows. Mutations run only inside the
// allocation engine's transaction; nothing else may touch the status column.
type BookingRepository interface {
	Create(ctx context.Context, tx db.DBTX, b *booking.Booking) error
	FindByIDForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error)
	Save(ctx context.Context, tx db.DBTX, b *booking.Booking) error
}

type WaitlistRepository interface {
	Create(ctx context.Context, tx db.DBTX, e *waitlist.Entry) error
	// NextPosition returns max(position)+1 for the pool, starting at 1.
	// Serialized per pool by the caller's pool row lock.
	NextPosition(ctx context.Context, tx db.DBTX, poolID uuid.UUID) (int32, error)
	// FindWaiting returns the pool's waiting entries in position order.
	FindWaiting(ctx context.Context, tx db.DBTX, poolID uuid.UUID) ([]*waitlist.Entry, error)
	FindByBookingID(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (*waitlist.Entry, error)
	Save(ctx context.Context, tx db.DBTX, e *waitlist.Entry) error
}

// ResourceSnapshot is the engine's view of the external resource catalog
// (doctors, wards): existence plus capacity configuration.
type ResourceSnapshot struct {
	ID              uuid.UUID
	Kind            pool.ResourceKind
	Name            string
	DefaultCapacity *int32
	Active          bool
}

type ResourceRepository interface {
	FindByID(ctx context.Context, tx db.DBTX, kind pool.ResourceKind, id uuid.UUID) (*ResourceSnapshot, error)
}

// NotificationRepository enqueues outbox jobs in the same transaction as the
// state change. Delivery is an external collaborator; a delivery failure can
// never roll back an allocation.
type NotificationRepository interface {
	CreateJob(ctx context.Context, tx db.DBTX, kind, topic string, payload []byte, runAt time.Time) error
}
