package queries

import (
	"context"

	"careslot/internal/domain/identity"
	"careslot/internal/domain/pool"
	"careslot/internal/infra"
	"careslot/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errs.New("booking not found")
	ErrPoolNotFound    = errs.New("pool not found")
	ErrForbidden       = errs.New("actor may not view this booking")
)

// Actor is the authenticated caller on the read side; patients only see
// their own records, staff see everything.
type Actor struct {
	ID   uuid.UUID
	Role identity.Role
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	FindByRequester(ctx context.Context, requesterID uuid.UUID) ([]*BookingListItem, error)
	FindPool(ctx context.Context, key pool.Key) (*PoolView, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*BookingView, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*BookingListItem, error)
	GetPool(ctx context.Context, key pool.Key) (*PoolView, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*BookingView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if view.RequesterID != actor.ID && !actor.Role.CanManagePools() {
		return nil, ErrForbidden
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*BookingListItem, error) {
	return q.store.FindByRequester(ctx, requesterID)
}

func (q *bookingQueriesImpl) GetPool(ctx context.Context, key pool.Key) (*PoolView, error) {
	view, err := q.store.FindPool(ctx, key)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	return view, nil
}
