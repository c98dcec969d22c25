//go:build unit || e2e

package builder

import (
	"time"

	dombooking "careslot/internal/domain/booking"
	dompool "careslot/internal/domain/pool"
	reqdto "careslot/internal/handler/dto/request"
	"careslot/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID           uuid.UUID
	Kind         string
	ResourceID   uuid.UUID
	ResourceName string
	Bucket       *time.Time
	RequesterID  uuid.UUID
	Status       string
	Contact      string
	Note         string
	CreatedAt    time.Time
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Now().UTC()
	bucket := now.Truncate(24 * time.Hour).AddDate(0, 0, 7)
	return &BookingBuilder{
		ID:           uuid.New(),
		Kind:         "appointment",
		ResourceID:   uuid.New(),
		ResourceName: "Dr. Sato",
		Bucket:       &bucket,
		RequesterID:  uuid.New(),
		Status:       "confirmed",
		Contact:      "patient@example.com",
		Note:         "first visit",
		CreatedAt:    now,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) StandingKind(kind string) *BookingBuilder {
	b.Kind = kind
	b.Bucket = nil
	return b
}

func (b *BookingBuilder) BuildDomain() (*dombooking.Booking, error) {
	if _, err := dompool.NewKey(dompool.ResourceKind(b.Kind), b.ResourceID, b.Bucket); err != nil {
		return nil, err
	}
	return dombooking.New(uuid.New(), dompool.ResourceKind(b.Kind), b.RequesterID, dombooking.Status(b.Status), b.Contact, b.Note, b.CreatedAt), nil
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	req := reqdto.CreateBookingRequest{
		Kind:       b.Kind,
		ResourceID: b.ResourceID,
		Contact:    &b.Contact,
		Note:       &b.Note,
	}
	if b.Bucket != nil {
		formatted := b.Bucket.Format("2006-01-02")
		req.Bucket = &formatted
	}
	return req
}

func (b *BookingBuilder) BuildTransferRequestDTO() reqdto.TransferBookingRequest {
	req := reqdto.TransferBookingRequest{
		Kind:       b.Kind,
		ResourceID: b.ResourceID,
	}
	if b.Bucket != nil {
		formatted := b.Bucket.Format("2006-01-02")
		req.Bucket = &formatted
	}
	return req
}

func (b *BookingBuilder) BuildViewQuery() *queries.BookingView {
	return &queries.BookingView{
		ID:           b.ID,
		Kind:         b.Kind,
		ResourceID:   b.ResourceID,
		ResourceName: b.ResourceName,
		Bucket:       b.Bucket,
		RequesterID:  b.RequesterID,
		Status:       b.Status,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.CreatedAt,
	}
}
