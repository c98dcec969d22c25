package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type BookingView struct {
	ID           uuid.UUID  `json:"id"`
	Kind         string     `json:"kind"`
	ResourceID   uuid.UUID  `json:"resource_id"`
	ResourceName string     `json:"resource_name"`
	Bucket       *time.Time `json:"bucket,omitempty"`
	RequesterID  uuid.UUID  `json:"requester_id"`
	Status       string     `json:"status"`
	Position     *int32     `json:"position,omitempty"`
	Note         *string    `json:"note,omitempty"`
	PromotedAt   *time.Time `json:"promoted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type BookingListItem struct {
	ID           uuid.UUID  `json:"id"`
	Kind         string     `json:"kind"`
	ResourceID   uuid.UUID  `json:"resource_id"`
	ResourceName string     `json:"resource_name"`
	Bucket       *time.Time `json:"bucket,omitempty"`
	Status       string     `json:"status"`
	Position     *int32     `json:"position,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// PoolView is the resource owner's management view of one pool.
type PoolView struct {
	Kind          string             `json:"kind"`
	ResourceID    uuid.UUID          `json:"resource_id"`
	ResourceName  string             `json:"resource_name"`
	Bucket        *time.Time         `json:"bucket,omitempty"`
	CapacityTotal int32              `json:"capacity_total"`
	CapacityUsed  int32              `json:"capacity_used"`
	WaitlistDepth int32              `json:"waitlist_depth"`
	Bookings      []*BookingListItem `json:"bookings"`
}
