package uow

import (
	"context"

	"careslot/internal/infra/db"
	"careslot/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresUoW struct {
	pool       *pgxpool.Pool
	maxRetries int
}

func NewPostgresUoW(pool *pgxpool.Pool, maxRetries int) *PostgresUoW {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &PostgresUoW{pool: pool, maxRetries: maxRetries}
}

func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	_, err := shared.RunInTxWithRetry(ctx, u.pool, u.maxRetries, func(tx db.DBTX) (struct{}, error) {
		return struct{}{}, fn(ctx, tx)
	})
	return err
}
