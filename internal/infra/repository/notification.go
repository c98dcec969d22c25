package repository

import (
	"context"
	"time"

	"careslot/internal/infra"
	"careslot/internal/infra/db"
)

// NotificationRepository writes outbox jobs; a separate dispatcher outside
// this service drains them. The insert shares the allocation transaction so
// a committed state change always has its job row.
type NotificationRepository struct{}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, tx db.DBTX, kind, topic string, payload []byte, runAt time.Time) error {
	const stmt = `
INSERT INTO notification_jobs (kind, topic, payload, run_at, status)
VALUES ($1, $2, $3, $4, 'pending')`

	_, err := tx.Exec(ctx, stmt, kind, topic, payload, runAt)
	if err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "create notification job", err)
	}
	return nil
}
