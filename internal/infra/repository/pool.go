package repository

import (
	"context"
	"errors"
	"time"

	"careslot/internal/domain/pool"
	"careslot/internal/infra"
	"careslot/internal/infra/db"
	"careslot/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PoolRepository struct {
	clock clock.Clock
}

func NewPoolRepository(clk clock.Clock) *PoolRepository {
	return &PoolRepository{clock: clk}
}

const poolColumns = `id, kind, resource_id, bucket, capacity_total, capacity_used, version, created_at`

func (r *PoolRepository) ResolveForUpdate(ctx context.Context, tx db.DBTX, key pool.Key, defaultCapacity int32) (*pool.Pool, error) {
	candidate, err := pool.NewPool(key, defaultCapacity, r.clock.Now())
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "invalid pool capacity", err)
	}

	// Lazy creation: the unique (kind, resource_id, bucket) constraint
	// guarantees at most one row per key even when two first-access admits
	// race; the loser's insert is a no-op and both lock the same row below.
	const insert = `
INSERT INTO pools (id, kind, resource_id, bucket, capacity_total, capacity_used, version, created_at)
VALUES ($1, $2, $3, $4, $5, 0, 1, $6)
ON CONFLICT (kind, resource_id, bucket) DO NOTHING`

	_, err = tx.Exec(ctx, insert,
		candidate.ID,
		key.Kind.String(),
		key.ResourceID,
		key.Bucket(),
		defaultCapacity,
		candidate.CreatedAt,
	)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "create pool", err)
	}

	const query = `
SELECT ` + poolColumns + `
FROM pools
WHERE kind = $1 AND resource_id = $2 AND bucket = $3
FOR UPDATE`

	p, err := scanPool(tx.QueryRow(ctx, query, key.Kind.String(), key.ResourceID, key.Bucket()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "pool vanished after upsert", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "lock pool", err)
	}
	return p, nil
}

func (r *PoolRepository) GetForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*pool.Pool, error) {
	const query = `
SELECT ` + poolColumns + `
FROM pools
WHERE id = $1
FOR UPDATE`

	p, err := scanPool(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "pool not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "lock pool", err)
	}
	return p, nil
}

func (r *PoolRepository) SaveCapacity(ctx context.Context, tx db.DBTX, p *pool.Pool) error {
	// Version guard backs up the row lock; a miss means someone wrote the
	// pool outside the lock and the operation must be retried whole.
	const stmt = `
UPDATE pools
SET capacity_used = $2, version = version + 1
WHERE id = $1 AND version = $3`

	tag, err := tx.Exec(ctx, stmt, p.ID, p.CapacityUsed, p.Version)
	if err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "save pool capacity", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "pool version changed", nil)
	}
	p.Version++
	return nil
}

func scanPool(row pgx.Row) (*pool.Pool, error) {
	var (
		p          pool.Pool
		kind       string
		resourceID uuid.UUID
		bucket     time.Time
	)
	if err := row.Scan(&p.ID, &kind, &resourceID, &bucket, &p.CapacityTotal, &p.CapacityUsed, &p.Version, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Key = pool.ReconstructKey(pool.ResourceKind(kind), resourceID, bucket)
	return &p, nil
}
