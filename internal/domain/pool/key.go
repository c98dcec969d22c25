package pool

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidKind    = errors.New("invalid resource kind")
	ErrMissingBucket  = errors.New("appointment pools require a date bucket")
	ErrUnexpectedDate = errors.New("inventory pools do not take a date bucket")
)

// ResourceKind selects which capacity pool family a booking targets. All
// kinds share one allocation engine; the kind only drives pool keying,
// default capacity, and whether staff approval applies.
type ResourceKind string

const (
	KindAppointment ResourceKind = "appointment"
	KindICUBed      ResourceKind = "icu_bed"
	KindGeneralBed  ResourceKind = "general_bed"
	KindCabin       ResourceKind = "cabin"
)

func (k ResourceKind) String() string {
	return string(k)
}

func (k ResourceKind) IsValid() bool {
	switch k {
	case KindAppointment, KindICUBed, KindGeneralBed, KindCabin:
		return true
	default:
		return false
	}
}

// IsBucketed reports whether pools of this kind are keyed per calendar day
// (doctor appointment slots) rather than as one standing inventory pool.
func (k ResourceKind) IsBucketed() bool {
	return k == KindAppointment
}

// RequiresApproval reports whether a second party must ratify a confirmed
// booking before it is actionable.
func (k ResourceKind) RequiresApproval() bool {
	return k == KindAppointment
}

// noBucket is the bucket value stored for standing inventory pools, keeping
// the (kind, resource, bucket) key unique without a nullable column.
var noBucket = time.Time{}

// Key identifies one capacity pool: (kind, resource, day) for appointment
// slots, (kind, resource) for standing bed/cabin inventory.
type Key struct {
	Kind       ResourceKind
	ResourceID uuid.UUID
	bucket     time.Time
}

func NewKey(kind ResourceKind, resourceID uuid.UUID, bucket *time.Time) (Key, error) {
	if !kind.IsValid() {
		return Key{}, ErrInvalidKind
	}
	if kind.IsBucketed() {
		if bucket == nil {
			return Key{}, ErrMissingBucket
		}
		return Key{Kind: kind, ResourceID: resourceID, bucket: truncateToDay(*bucket)}, nil
	}
	if bucket != nil {
		return Key{}, ErrUnexpectedDate
	}
	return Key{Kind: kind, ResourceID: resourceID, bucket: noBucket}, nil
}

// Bucket returns the pool's calendar day, UTC midnight. The zero time marks
// a standing inventory pool.
func (k Key) Bucket() time.Time {
	return k.bucket
}

func (k Key) HasBucket() bool {
	return !k.bucket.IsZero()
}

func (k Key) Equal(other Key) bool {
	return k.Kind == other.Kind && k.ResourceID == other.ResourceID && k.bucket.Equal(other.bucket)
}

func (k Key) String() string {
	if k.HasBucket() {
		return fmt.Sprintf("%s/%s/%s", k.Kind, k.ResourceID, k.bucket.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s/%s", k.Kind, k.ResourceID)
}

// ReconstructKey rebuilds a Key from persisted columns without re-validating
// the kind/bucket pairing.
func ReconstructKey(kind ResourceKind, resourceID uuid.UUID, bucket time.Time) Key {
	return Key{Kind: kind, ResourceID: resourceID, bucket: bucket.UTC()}
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
