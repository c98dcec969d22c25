package response

import (
	"time"

	"careslot/internal/usecase/commands"
	"careslot/internal/usecase/queries"

	"github.com/google/uuid"
)

type AdmitResponse struct {
	BookingID uuid.UUID `json:"bookingId"`
	Status    string    `json:"status"`
	Position  *int32    `json:"position,omitempty"`
}

type ReleaseResponse struct {
	Status            string     `json:"status"`
	PromotedBookingID *uuid.UUID `json:"promotedBookingId,omitempty"`
}

type TransferResponse struct {
	BookingID uuid.UUID `json:"bookingId"`
	Status    string    `json:"status"`
	Position  *int32    `json:"position,omitempty"`
}

type BookingResponse struct {
	ID           uuid.UUID  `json:"id"`
	Kind         string     `json:"kind"`
	ResourceID   uuid.UUID  `json:"resourceId"`
	ResourceName string     `json:"resourceName"`
	Bucket       *string    `json:"bucket,omitempty"`
	RequesterID  uuid.UUID  `json:"requesterId"`
	Status       string     `json:"status"`
	Position     *int32     `json:"position,omitempty"`
	Note         *string    `json:"note,omitempty"`
	PromotedAt   *time.Time `json:"promotedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type BookingListResponse struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	ResourceID   uuid.UUID `json:"resourceId"`
	ResourceName string    `json:"resourceName"`
	Bucket       *string   `json:"bucket,omitempty"`
	Status       string    `json:"status"`
	Position     *int32    `json:"position,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type PoolResponse struct {
	Kind          string                 `json:"kind"`
	ResourceID    uuid.UUID              `json:"resourceId"`
	ResourceName  string                 `json:"resourceName"`
	Bucket        *string                `json:"bucket,omitempty"`
	CapacityTotal int32                  `json:"capacityTotal"`
	CapacityUsed  int32                  `json:"capacityUsed"`
	WaitlistDepth int32                  `json:"waitlistDepth"`
	Bookings      []*BookingListResponse `json:"bookings"`
}

func FromAdmitResult(result *commands.AdmitResult) *AdmitResponse {
	return &AdmitResponse{
		BookingID: result.BookingID,
		Status:    result.Status.String(),
		Position:  result.Position,
	}
}

func FromReleaseResult(result *commands.ReleaseResult) *ReleaseResponse {
	return &ReleaseResponse{
		Status:            result.Status.String(),
		PromotedBookingID: result.PromotedBookingID,
	}
}

func FromTransferResult(result *commands.TransferResult) *TransferResponse {
	return &TransferResponse{
		BookingID: result.BookingID,
		Status:    result.Status.String(),
		Position:  result.Position,
	}
}

func FromBookingView(view *queries.BookingView) *BookingResponse {
	return &BookingResponse{
		ID:           view.ID,
		Kind:         view.Kind,
		ResourceID:   view.ResourceID,
		ResourceName: view.ResourceName,
		Bucket:       formatBucket(view.Bucket),
		RequesterID:  view.RequesterID,
		Status:       view.Status,
		Position:     view.Position,
		Note:         view.Note,
		PromotedAt:   view.PromotedAt,
		CreatedAt:    view.CreatedAt,
		UpdatedAt:    view.UpdatedAt,
	}
}

func FromBookingListItem(item *queries.BookingListItem) *BookingListResponse {
	return &BookingListResponse{
		ID:           item.ID,
		Kind:         item.Kind,
		ResourceID:   item.ResourceID,
		ResourceName: item.ResourceName,
		Bucket:       formatBucket(item.Bucket),
		Status:       item.Status,
		Position:     item.Position,
		CreatedAt:    item.CreatedAt,
	}
}

func FromPoolView(view *queries.PoolView) *PoolResponse {
	bookings := make([]*BookingListResponse, len(view.Bookings))
	for i, item := range view.Bookings {
		bookings[i] = FromBookingListItem(item)
	}
	return &PoolResponse{
		Kind:          view.Kind,
		ResourceID:    view.ResourceID,
		ResourceName:  view.ResourceName,
		Bucket:        formatBucket(view.Bucket),
		CapacityTotal: view.CapacityTotal,
		CapacityUsed:  view.CapacityUsed,
		WaitlistDepth: view.WaitlistDepth,
		Bookings:      bookings,
	}
}

func formatBucket(bucket *time.Time) *string {
	if bucket == nil {
		return nil
	}
	s := bucket.Format("2006-01-02")
	return &s
}
