package shared

import (
	"context"

	"careslot/internal/infra/db"
)

// UnitOfWork runs one allocation operation as a single read-modify-write
// transaction. Admit/Release/Transfer each use exactly one Within call so
// capacity counters, confirmed-list membership, and waitlist positions
// commit together or not at all.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error
}
