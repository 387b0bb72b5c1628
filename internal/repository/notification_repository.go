package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolsuite/exam-engine-api/internal/models"
)

// NotificationRepository persists workflow notification events for the
// asynchronous dispatcher. The messaging stack consumes these rows; this API
// never sends directly.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// InsertBatch stores pending events in one transaction.
func (r *NotificationRepository) InsertBatch(ctx context.Context, events []models.NotificationEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification insert: %w", err)
	}
	const query = `INSERT INTO notification_events (id, school_id, type, reference_type, reference_id, trigger,
                recipient_role, recipient_id, status, scheduled_at, created_at)
        VALUES (:id, :school_id, :type, :reference_type, :reference_id, :trigger,
                :recipient_role, :recipient_id, :status, :scheduled_at, :created_at)`
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		events[i].CreatedAt = now
		if events[i].ScheduledAt.IsZero() {
			events[i].ScheduledAt = now
		}
		if events[i].Status == "" {
			events[i].Status = models.NotificationStatusPending
		}
		if _, err := tx.NamedExecContext(ctx, query, events[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert notification event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notification events: %w", err)
	}
	return nil
}

// MarkSent records successful dispatch.
func (r *NotificationRepository) MarkSent(ctx context.Context, id string) error {
	now := time.Now().UTC()
	const query = `UPDATE notification_events SET status = $1, sent_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, models.NotificationStatusSent, now, id); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a dispatch failure. The producing workflow is never
// rolled back on account of this.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id string) error {
	const query = `UPDATE notification_events SET status = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, models.NotificationStatusFailed, id); err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

// ListPending returns undelivered events, oldest first.
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]models.NotificationEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT id, school_id, type, reference_type, reference_id, trigger, recipient_role, recipient_id,
                status, scheduled_at, sent_at, created_at
        FROM notification_events WHERE status = $1 ORDER BY scheduled_at LIMIT $2`
	var events []models.NotificationEvent
	if err := r.db.SelectContext(ctx, &events, query, models.NotificationStatusPending, limit); err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return events, nil
}
