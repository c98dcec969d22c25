package pool

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNegativeCapacity = errors.New("capacity cannot be negative")
	ErrCapacityOverflow = errors.New("capacity_used would exceed capacity_total")
	ErrCapacityUnderrun = errors.New("capacity_used would drop below zero")
)

// Pool is one capacity-bounded allocation unit. Its counters only mutate
// through Consume/Free inside the allocation engine's transaction; Version
// backs the optimistic write guard in storage.
type Pool struct {
	ID            uuid.UUID
	Key           Key
	CapacityTotal int32
	CapacityUsed  int32
	Version       int64
	CreatedAt     time.Time
}

func NewPool(key Key, capacityTotal int32, now time.Time) (*Pool, error) {
	if capacityTotal < 0 {
		return nil, ErrNegativeCapacity
	}
	return &Pool{
		ID:            uuid.New(),
		Key:           key,
		CapacityTotal: capacityTotal,
		CapacityUsed:  0,
		Version:       1,
		CreatedAt:     now,
	}, nil
}

// HasCapacity reports whether one more unit can be confirmed.
func (p *Pool) HasCapacity() bool {
	return p.CapacityUsed < p.CapacityTotal
}

// Consume takes one unit of capacity. The overflow check guards the engine
// invariant; tripping it means a caller skipped the admission path.
func (p *Pool) Consume() error {
	if p.CapacityUsed >= p.CapacityTotal {
		return ErrCapacityOverflow
	}
	p.CapacityUsed++
	return nil
}

// Free returns one unit of capacity.
func (p *Pool) Free() error {
	if p.CapacityUsed <= 0 {
		return ErrCapacityUnderrun
	}
	p.CapacityUsed--
	return nil
}
