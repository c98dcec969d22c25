package commands

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"careslot/internal/domain/booking"
	"careslot/internal/domain/identity"
	"careslot/internal/domain/pool"
	"careslot/internal/domain/waitlist"
	"careslot/internal/infra"
	"careslot/internal/infra/db"
	"careslot/internal/pkg/clock"
	"careslot/internal/pkg/config"
	"careslot/internal/pkg/errs"
	"careslot/internal/pkg/patch"
	"careslot/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrInvalidKey              = errs.New("pool resource unknown")
	ErrBookingNotFound         = errs.New("booking not found")
	ErrInvalidState            = errs.New("operation not legal for current booking status")
	ErrConflict                = errs.New("concurrent modification detected")
	ErrTransferFailed          = errs.New("transfer could not complete")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

// Actor is the authenticated caller. Patients may only release or reschedule
// their own bookings; staff may act on any.
type Actor struct {
	ID   uuid.UUID
	Role identity.Role
}

func (a Actor) mayAct(requesterID uuid.UUID) bool {
	return a.ID == requesterID || a.Role.CanManagePools()
}

type ReleaseReason string

const (
	ReasonCancelled ReleaseReason = "cancelled"
	ReasonCompleted ReleaseReason = "completed"
)

type AdmitInput struct {
	Kind        pool.ResourceKind
	ResourceID  uuid.UUID
	Date        *time.Time
	RequesterID uuid.UUID
	Contact     string
	Note        string
}

type AdmitResult struct {
	BookingID uuid.UUID
	Status    booking.Status
	// Position is set only when the request was waitlisted.
	Position *int32
}

type ReleaseResult struct {
	Status booking.Status
	// PromotedBookingID is set when the freed unit went to a waitlisted
	// requester in the same transaction.
	PromotedBookingID *uuid.UUID
}

type TransferTarget struct {
	Kind       pool.ResourceKind
	ResourceID uuid.UUID
	Date       *time.Time
}

type TransferResult struct {
	// BookingID identifies the new record in the target pool; the old
	// record keeps status transferred.
	BookingID uuid.UUID
	Status    booking.Status
	Position  *int32
}

// AllocationCommands is the capacity-constrained booking engine. Every
// operation runs as one atomic unit of work; waitlisting is a success path
// of Admit, not an error.
type AllocationCommands interface {
	Admit(ctx context.Context, in AdmitInput) (*AdmitResult, error)
	Release(ctx context.Context, actor Actor, bookingID uuid.UUID, reason ReleaseReason) (*ReleaseResult, error)
	Transfer(ctx context.Context, actor Actor, bookingID uuid.UUID, target TransferTarget) (*TransferResult, error)
	Approve(ctx context.Context, bookingID uuid.UUID) error
}

type allocationUseCaseImpl struct {
	uow              shared.UnitOfWork
	poolRepo         PoolRepository
	bookingRepo      BookingRepository
	waitlistRepo     WaitlistRepository
	resourceRepo     ResourceRepository
	notificationRepo NotificationRepository
	clock            clock.Clock
	cfg              config.BookingConfig
}

func NewAllocationCommands(
	uow shared.UnitOfWork,
	poolRepo PoolRepository,
	bookingRepo BookingRepository,
	waitlistRepo WaitlistRepository,
	resourceRepo ResourceRepository,
	notificationRepo NotificationRepository,
	clk clock.Clock,
	cfg config.BookingConfig,
) AllocationCommands {
	return &allocationUseCaseImpl{
		uow:              uow,
		poolRepo:         poolRepo,
		bookingRepo:      bookingRepo,
		waitlistRepo:     waitlistRepo,
		resourceRepo:     resourceRepo,
		notificationRepo: notificationRepo,
		clock:            clk,
		cfg:              cfg,
	}
}

func (a *allocationUseCaseImpl) Admit(ctx context.Context, in AdmitInput) (*AdmitResult, error) {
	key, err := pool.NewKey(in.Kind, in.ResourceID, in.Date)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidKey)
	}

	var result *AdmitResult
	err = a.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		result, err = a.admitIntoPool(ctx, tx, key, in.RequesterID, in.Contact, in.Note)
		return err
	})
	if err != nil {
		return nil, a.mapRepoErr(err)
	}
	return result, nil
}

func (a *allocationUseCaseImpl) Release(ctx context.Context, actor Actor, bookingID uuid.UUID, reason ReleaseReason) (*ReleaseResult, error) {
	terminal := booking.StatusCancelled
	if reason == ReasonCompleted {
		terminal = booking.StatusCompleted
	}

	var result *ReleaseResult
	err := a.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		b, err := a.bookingRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		// Hide existence from non-owners.
		if !actor.mayAct(b.RequesterID) {
			return ErrBookingNotFound
		}

		// A waitlisted booking holds no capacity; cancelling it just
		// retires its queue entry without promotion.
		if b.Status == booking.StatusWaitlisted && reason == ReasonCancelled {
			if err := a.cancelWaitlisted(ctx, tx, b); err != nil {
				return err
			}
			result = &ReleaseResult{Status: b.Status}
			return nil
		}

		promotedID, err := a.releaseHeld(ctx, tx, b, terminal)
		if err != nil {
			return err
		}
		result = &ReleaseResult{Status: b.Status, PromotedBookingID: promotedID}
		return nil
	})
	if err != nil {
		return nil, a.mapRepoErr(err)
	}
	return result, nil
}

func (a *allocationUseCaseImpl) Transfer(ctx context.Context, actor Actor, bookingID uuid.UUID, target TransferTarget) (*TransferResult, error) {
	newKey, err := pool.NewKey(target.Kind, target.ResourceID, target.Date)
	if err != nil {
		return nil, errs.Mark(err, ErrTransferFailed)
	}

	var result *TransferResult
	err = a.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		b, err := a.bookingRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		// Hide existence from non-owners.
		if !actor.mayAct(b.RequesterID) {
			return ErrBookingNotFound
		}
		if !b.Status.HoldsCapacity() && b.Status != booking.StatusWaitlisted {
			return ErrInvalidState
		}

		// A transfer must change pools. Rejecting the identical key up
		// front also keeps a waitlisted requester from losing their
		// queue position to a no-op reschedule.
		oldPool, err := a.poolRepo.GetForUpdate(ctx, tx, b.PoolID)
		if err != nil {
			return err
		}
		if oldPool.Key.Equal(newKey) {
			return ErrInvalidState
		}

		if b.Status.HoldsCapacity() {
			if _, err := a.releaseLocked(ctx, tx, b, oldPool, booking.StatusTransferred); err != nil {
				return err
			}
		} else {
			entry, err := a.waitlistRepo.FindByBookingID(ctx, tx, b.ID)
			if err != nil {
				return err
			}
			if err := a.cancelWaitlistedWithStatus(ctx, tx, b, entry, booking.StatusTransferred); err != nil {
				return err
			}
		}

		// Leg 2. Any failure aborts the whole transaction, so the old
		// booking is restored rather than left released.
		admitted, err := a.admitIntoPool(ctx, tx, newKey, b.RequesterID, b.Contact, b.Note)
		if err != nil {
			if errors.Is(err, ErrInvalidKey) {
				return errs.Mark(err, ErrTransferFailed)
			}
			return err
		}
		result = &TransferResult{
			BookingID: admitted.BookingID,
			Status:    admitted.Status,
			Position:  admitted.Position,
		}
		return nil
	})
	if err != nil {
		return nil, a.mapRepoErr(err)
	}
	return result, nil
}

func (a *allocationUseCaseImpl) Approve(ctx context.Context, bookingID uuid.UUID) error {
	err := a.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		b, err := a.bookingRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := b.Approve(a.clock.Now()); err != nil {
			return errs.Mark(err, ErrInvalidState)
		}
		if err := a.bookingRepo.Save(ctx, tx, b); err != nil {
			return err
		}
		return a.enqueueBookingEvent(ctx, tx, b, "booking_approved", nil)
	})
	return a.mapRepoErr(err)
}

// admitIntoPool is the single admission path shared by Admit and the second
// leg of Transfer. Caller must be inside a unit of work.
func (a *allocationUseCaseImpl) admitIntoPool(
	ctx context.Context,
	tx db.DBTX,
	key pool.Key,
	requesterID uuid.UUID,
	contact, note string,
) (*AdmitResult, error) {
	res, err := a.resourceRepo.FindByID(ctx, tx, key.Kind, key.ResourceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, err
	}
	if !res.Active {
		return nil, ErrInvalidKey
	}

	p, err := a.poolRepo.ResolveForUpdate(ctx, tx, key, a.defaultCapacity(res))
	if err != nil {
		return nil, err
	}

	now := a.clock.Now()
	if p.HasCapacity() {
		if err := p.Consume(); err != nil {
			return nil, errs.Wrap(err, "capacity invariant violated on admit")
		}
		if err := a.poolRepo.SaveCapacity(ctx, tx, p); err != nil {
			return nil, err
		}
		b := booking.New(p.ID, key.Kind, requesterID, booking.StatusConfirmed, contact, note, now)
		if err := a.bookingRepo.Create(ctx, tx, b); err != nil {
			return nil, err
		}
		if err := a.enqueueBookingEvent(ctx, tx, b, "booking_confirmed", nil); err != nil {
			return nil, err
		}
		return &AdmitResult{BookingID: b.ID, Status: b.Status}, nil
	}

	// Pool is full: waitlisting is the defined success path.
	b := booking.New(p.ID, key.Kind, requesterID, booking.StatusWaitlisted, contact, note, now)
	if err := a.bookingRepo.Create(ctx, tx, b); err != nil {
		return nil, err
	}
	position, err := a.waitlistRepo.NextPosition(ctx, tx, p.ID)
	if err != nil {
		return nil, err
	}
	entry := waitlist.NewEntry(p.ID, b.ID, requesterID, contact, position, now)
	if err := a.waitlistRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := a.enqueueBookingEvent(ctx, tx, b, "booking_waitlisted", &position); err != nil {
		return nil, err
	}
	return &AdmitResult{BookingID: b.ID, Status: b.Status, Position: &position}, nil
}

// releaseHeld locks the pool and releases a capacity-holding booking.
func (a *allocationUseCaseImpl) releaseHeld(
	ctx context.Context,
	tx db.DBTX,
	b *booking.Booking,
	terminal booking.Status,
) (*uuid.UUID, error) {
	if !b.Status.HoldsCapacity() {
		return nil, ErrInvalidState
	}
	p, err := a.poolRepo.GetForUpdate(ctx, tx, b.PoolID)
	if err != nil {
		return nil, err
	}
	return a.releaseLocked(ctx, tx, b, p, terminal)
}

// releaseLocked frees the booking's unit and promotes the earliest waiting
// entry, all against an already-locked pool. capacity_used never exceeds
// capacity_total at any observable point: promotion only re-consumes the
// unit this release freed.
func (a *allocationUseCaseImpl) releaseLocked(
	ctx context.Context,
	tx db.DBTX,
	b *booking.Booking,
	p *pool.Pool,
	terminal booking.Status,
) (*uuid.UUID, error) {
	now := a.clock.Now()
	if err := b.Release(terminal, now); err != nil {
		return nil, errs.Mark(err, ErrInvalidState)
	}
	if err := p.Free(); err != nil {
		return nil, errs.Wrap(err, "capacity invariant violated on release")
	}
	if err := a.bookingRepo.Save(ctx, tx, b); err != nil {
		return nil, err
	}

	promotedID, err := a.promoteNext(ctx, tx, p, now)
	if err != nil {
		return nil, err
	}

	if err := a.poolRepo.SaveCapacity(ctx, tx, p); err != nil {
		return nil, err
	}

	topic := "booking_cancelled"
	if terminal == booking.StatusCompleted {
		topic = "booking_completed"
	}
	if terminal != booking.StatusTransferred {
		if err := a.enqueueBookingEvent(ctx, tx, b, topic, nil); err != nil {
			return nil, err
		}
	}
	return promotedID, nil
}

// promoteNext applies the FIFO promotion rule: the waiting entry with the
// minimum position, if any, becomes a confirmed booking in this same
// transaction.
func (a *allocationUseCaseImpl) promoteNext(ctx context.Context, tx db.DBTX, p *pool.Pool, now time.Time) (*uuid.UUID, error) {
	entries, err := a.waitlistRepo.FindWaiting(ctx, tx, p.ID)
	if err != nil {
		return nil, err
	}
	entry, ok := waitlist.Next(entries)
	if !ok {
		return nil, nil
	}

	if err := entry.Book(); err != nil {
		return nil, errs.Wrap(err, "waitlist entry not promotable")
	}
	if err := a.waitlistRepo.Save(ctx, tx, entry); err != nil {
		return nil, err
	}

	wb, err := a.bookingRepo.FindByIDForUpdate(ctx, tx, entry.BookingID)
	if err != nil {
		return nil, err
	}
	if err := wb.Promote(now); err != nil {
		return nil, errs.Wrap(err, "waitlisted booking not promotable")
	}
	if err := a.bookingRepo.Save(ctx, tx, wb); err != nil {
		return nil, err
	}
	if err := p.Consume(); err != nil {
		return nil, errs.Wrap(err, "capacity invariant violated on promote")
	}

	if err := a.enqueuePromotion(ctx, tx, entry, wb); err != nil {
		return nil, err
	}
	return &wb.ID, nil
}

func (a *allocationUseCaseImpl) cancelWaitlisted(ctx context.Context, tx db.DBTX, b *booking.Booking) error {
	entry, err := a.waitlistRepo.FindByBookingID(ctx, tx, b.ID)
	if err != nil {
		return err
	}
	return a.cancelWaitlistedWithStatus(ctx, tx, b, entry, booking.StatusCancelled)
}

func (a *allocationUseCaseImpl) cancelWaitlistedWithStatus(
	ctx context.Context,
	tx db.DBTX,
	b *booking.Booking,
	entry *waitlist.Entry,
	terminal booking.Status,
) error {
	now := a.clock.Now()
	if terminal == booking.StatusCancelled {
		if err := b.CancelWaitlisted(now); err != nil {
			return errs.Mark(err, ErrInvalidState)
		}
	} else {
		if err := b.TransferOut(now); err != nil {
			return errs.Mark(err, ErrInvalidState)
		}
	}
	if err := entry.Expire(); err != nil {
		return errs.Mark(err, ErrInvalidState)
	}
	if err := a.bookingRepo.Save(ctx, tx, b); err != nil {
		return err
	}
	if err := a.waitlistRepo.Save(ctx, tx, entry); err != nil {
		return err
	}
	if terminal == booking.StatusCancelled {
		return a.enqueueBookingEvent(ctx, tx, b, "booking_cancelled", nil)
	}
	return nil
}

func (a *allocationUseCaseImpl) defaultCapacity(res *ResourceSnapshot) int32 {
	switch res.Kind {
	case pool.KindAppointment:
		return patch.Coalesce(res.DefaultCapacity, a.cfg.AppointmentCapacity)
	case pool.KindICUBed:
		return patch.Coalesce(res.DefaultCapacity, a.cfg.ICUBedCapacity)
	case pool.KindGeneralBed:
		return patch.Coalesce(res.DefaultCapacity, a.cfg.GeneralBedCapacity)
	default:
		return patch.Coalesce(res.DefaultCapacity, a.cfg.CabinCapacity)
	}
}

func (a *allocationUseCaseImpl) enqueueBookingEvent(ctx context.Context, tx db.DBTX, b *booking.Booking, topic string, position *int32) error {
	payload, err := json.Marshal(map[string]any{
		"booking_id":   b.ID,
		"requester_id": b.RequesterID,
		"kind":         b.Kind,
		"position":     position,
		"type":         topic,
	})
	if err != nil {
		return err
	}
	return a.notificationRepo.CreateJob(ctx, tx, "email", topic, payload, a.clock.Now())
}

func (a *allocationUseCaseImpl) enqueuePromotion(ctx context.Context, tx db.DBTX, entry *waitlist.Entry, b *booking.Booking) error {
	payload, err := json.Marshal(map[string]any{
		"booking_id":   b.ID,
		"requester_id": entry.RequesterID,
		"contact":      entry.Contact,
		"position":     entry.Position,
		"type":         "pool_available",
	})
	if err != nil {
		return err
	}
	return a.notificationRepo.CreateJob(ctx, tx, "email", "pool_available", payload, a.clock.Now())
}

// mapRepoErr translates storage error kinds to the engine's typed errors.
func (a *allocationUseCaseImpl) mapRepoErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Mark(err, ErrBookingNotFound)
	case infra.IsKind(err, infra.KindConflict):
		return errs.Mark(err, ErrConflict)
	case infra.IsKind(err, infra.KindDBFailure):
		return errs.Mark(err, ErrDatabaseOperationFailed)
	default:
		return err
	}
}
