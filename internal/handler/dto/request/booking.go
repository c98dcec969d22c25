package request

import (
	"strings"
	"time"

	"careslot/internal/domain/pool"
	"careslot/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrInvalidBucket = errs.New("bucket must be a YYYY-MM-DD date")

const bucketLayout = "2006-01-02"

type CreateBookingRequest struct {
	Kind       string    `json:"kind" binding:"required"`
	ResourceID uuid.UUID `json:"resource_id" binding:"required"`
	// Bucket is the appointment day; inventory kinds omit it.
	Bucket  *string `json:"bucket,omitempty"`
	Contact *string `json:"contact,omitempty"`
	Note    *string `json:"note,omitempty"`
}

func (r CreateBookingRequest) ResourceKind() pool.ResourceKind {
	return pool.ResourceKind(strings.TrimSpace(r.Kind))
}

func (r CreateBookingRequest) BucketDate() (*time.Time, error) {
	return parseBucket(r.Bucket)
}

func (r CreateBookingRequest) GetContact() string {
	if r.Contact == nil {
		return ""
	}
	return strings.TrimSpace(*r.Contact)
}

func (r CreateBookingRequest) GetNote() string {
	if r.Note == nil {
		return ""
	}
	return strings.TrimSpace(*r.Note)
}

type TransferBookingRequest struct {
	Kind       string    `json:"kind" binding:"required"`
	ResourceID uuid.UUID `json:"resource_id" binding:"required"`
	Bucket     *string   `json:"bucket,omitempty"`
}

func (r TransferBookingRequest) ResourceKind() pool.ResourceKind {
	return pool.ResourceKind(strings.TrimSpace(r.Kind))
}

func (r TransferBookingRequest) BucketDate() (*time.Time, error) {
	return parseBucket(r.Bucket)
}

func parseBucket(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(bucketLayout, trimmed, time.UTC)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidBucket)
	}
	return &t, nil
}
