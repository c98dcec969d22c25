package repository

import (
	"context"
	"errors"

	"careslot/internal/domain/pool"
	"careslot/internal/infra"
	"careslot/internal/infra/db"
	"careslot/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ResourceRepository reads the resource catalog (doctors, wards) this
// engine allocates against. The catalog itself is maintained by the rest of
// the portal.
type ResourceRepository struct{}

func NewResourceRepository() *ResourceRepository {
	return &ResourceRepository{}
}

func (r *ResourceRepository) FindByID(ctx context.Context, tx db.DBTX, kind pool.ResourceKind, id uuid.UUID) (*commands.ResourceSnapshot, error) {
	const query = `
SELECT id, kind, name, default_capacity, active
FROM resources
WHERE id = $1 AND kind = $2`

	var (
		snap commands.ResourceSnapshot
		k    string
	)
	err := tx.QueryRow(ctx, query, id, kind.String()).Scan(
		&snap.ID, &k, &snap.Name, &snap.DefaultCapacity, &snap.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "resource not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "find resource", err)
	}
	snap.Kind = pool.ResourceKind(k)
	return &snap, nil
}
