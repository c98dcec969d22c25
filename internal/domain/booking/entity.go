package booking

import (
	"errors"
	"time"

	"careslot/internal/domain/pool"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("operation not legal for current booking status")
	ErrNotApprovable     = errors.New("only appointment bookings take approval")
)

// Booking is one allocation attempt by one requester against one pool.
type Booking struct {
	ID          uuid.UUID
	PoolID      uuid.UUID
	Kind        pool.ResourceKind
	RequesterID uuid.UUID
	Status      Status
	Contact     string
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// PromotedAt is set when a waitlisted record was converted to
	// confirmed by a release on its pool.
	PromotedAt *time.Time
}

func New(poolID uuid.UUID, kind pool.ResourceKind, requesterID uuid.UUID, status Status, contact, note string, now time.Time) *Booking {
	return &Booking{
		ID:          uuid.New(),
		PoolID:      poolID,
		Kind:        kind,
		RequesterID: requesterID,
		Status:      status,
		Contact:     contact,
		Note:        note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Release transitions a capacity-holding record to its terminal status
// (cancelled, completed, or transferred).
func (b *Booking) Release(to Status, now time.Time) error {
	if !b.Status.HoldsCapacity() {
		return ErrInvalidTransition
	}
	if !to.IsTerminal() {
		return ErrInvalidTransition
	}
	b.Status = to
	b.UpdatedAt = now
	return nil
}

// CancelWaitlisted cancels a record that never held capacity.
func (b *Booking) CancelWaitlisted(now time.Time) error {
	if b.Status != StatusWaitlisted {
		return ErrInvalidTransition
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now
	return nil
}

// TransferOut marks a waitlisted record superseded by a reschedule into
// another pool.
func (b *Booking) TransferOut(now time.Time) error {
	if b.Status != StatusWaitlisted {
		return ErrInvalidTransition
	}
	b.Status = StatusTransferred
	b.UpdatedAt = now
	return nil
}

// Promote converts a waitlisted record to confirmed after its pool freed a
// unit of capacity.
func (b *Booking) Promote(now time.Time) error {
	if b.Status != StatusWaitlisted {
		return ErrInvalidTransition
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now
	promotedAt := now
	b.PromotedAt = &promotedAt
	return nil
}

// Approve ratifies a confirmed appointment booking.
func (b *Booking) Approve(now time.Time) error {
	if !b.Kind.RequiresApproval() {
		return ErrNotApprovable
	}
	if b.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	b.Status = StatusApproved
	b.UpdatedAt = now
	return nil
}
