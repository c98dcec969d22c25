//go:build unit || e2e

package dbtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// CreateTestResource inserts a catalog row (doctor, ward) and returns its ID.
func CreateTestResource(t *testing.T, db DBLike, kind, name string, defaultCapacity *int32) uuid.UUID {
	t.Helper()

	resourceID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx,
		"INSERT INTO resources (id, kind, name, default_capacity, active) VALUES ($1, $2, $3, $4, true) ON CONFLICT (id) DO NOTHING",
		resourceID, kind, name, defaultCapacity)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected())

	return resourceID
}

// DeactivateResource flips the active flag so admissions against the
// resource start failing.
func DeactivateResource(t *testing.T, db DBLike, resourceID uuid.UUID) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"UPDATE resources SET active = false WHERE id = $1", resourceID)
	require.NoError(t, err)
}

// PoolCounters reads the capacity counters straight from the pool row.
func PoolCounters(t *testing.T, db DBLike, kind string, resourceID uuid.UUID) (total, used int32) {
	t.Helper()

	err := db.QueryRow(context.Background(),
		"SELECT capacity_total, capacity_used FROM pools WHERE kind = $1 AND resource_id = $2",
		kind, resourceID).Scan(&total, &used)
	require.NoError(t, err)
	return total, used
}

// WaitlistPositions returns the waiting positions for a pool in order.
func WaitlistPositions(t *testing.T, db DBLike, kind string, resourceID uuid.UUID) []int32 {
	t.Helper()

	ctx := context.Background()

	var poolID uuid.UUID
	err := db.QueryRow(ctx,
		"SELECT id FROM pools WHERE kind = $1 AND resource_id = $2", kind, resourceID).Scan(&poolID)
	require.NoError(t, err)

	rows, err := db.Query(ctx,
		`SELECT "position" FROM waitlist_entries WHERE pool_id = $1 AND status = 'waiting' ORDER BY "position"`, poolID)
	require.NoError(t, err)
	defer rows.Close()

	positions := make([]int32, 0)
	for rows.Next() {
		var p int32
		require.NoError(t, rows.Scan(&p))
		positions = append(positions, p)
	}
	require.NoError(t, rows.Err())
	return positions
}

// NotificationTopics returns the outbox topics recorded so far, oldest first.
func NotificationTopics(t *testing.T, db DBLike) []string {
	t.Helper()

	rows, err := db.Query(context.Background(),
		"SELECT topic FROM notification_jobs ORDER BY created_at")
	require.NoError(t, err)
	defer rows.Close()

	topics := make([]string, 0)
	for rows.Next() {
		var topic string
		require.NoError(t, rows.Scan(&topic))
		topics = append(topics, topic)
	}
	require.NoError(t, rows.Err())
	return topics
}
