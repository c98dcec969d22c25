package waitlist

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotWaiting = errors.New("waitlist entry is not waiting")

type EntryStatus string

const (
	StatusWaiting  EntryStatus = "waiting"
	StatusNotified EntryStatus = "notified"
	StatusBooked   EntryStatus = "booked"
	StatusExpired  EntryStatus = "expired"
)

func (s EntryStatus) String() string {
	return string(s)
}

// Entry is a position-ordered placeholder for a requester denied immediate
// confirmation. Positions are per-pool monotonic and never reused.
type Entry struct {
	ID          uuid.UUID
	PoolID      uuid.UUID
	BookingID   uuid.UUID
	RequesterID uuid.UUID
	Contact     string
	Position    int32
	Status      EntryStatus
	CreatedAt   time.Time
}

func NewEntry(poolID, bookingID, requesterID uuid.UUID, contact string, position int32, now time.Time) *Entry {
	return &Entry{
		ID:          uuid.New(),
		PoolID:      poolID,
		BookingID:   bookingID,
		RequesterID: requesterID,
		Contact:     contact,
		Position:    position,
		Status:      StatusWaiting,
		CreatedAt:   now,
	}
}

// Book consumes the entry after its linked booking was promoted.
func (e *Entry) Book() error {
	if e.Status != StatusWaiting {
		return ErrNotWaiting
	}
	e.Status = StatusBooked
	return nil
}

// Expire drops the entry from the queue without promotion.
func (e *Entry) Expire() error {
	if e.Status != StatusWaiting {
		return ErrNotWaiting
	}
	e.Status = StatusExpired
	return nil
}
