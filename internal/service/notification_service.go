package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/schoolsuite/exam-engine-api/internal/models"
	"github.com/schoolsuite/exam-engine-api/pkg/jobs"
)

type notificationRepo interface {
	InsertBatch(ctx context.Context, events []models.NotificationEvent) error
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
	ListPending(ctx context.Context, limit int) ([]models.NotificationEvent, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

const notificationChannel = "exam-engine:notifications"

// NotificationService persists workflow events and dispatches them in the
// background. Dispatch happens strictly after the transaction that produced
// the event has committed; a failed delivery marks the event FAILED and
// never disturbs the workflow state.
type NotificationService struct {
	events    notificationRepo
	publisher eventPublisher
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationService constructs NotificationService and its dispatch
// queue. Call Start before dispatching and Stop on shutdown.
func NewNotificationService(events notificationRepo, publisher eventPublisher, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		events:    events,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("notifications", s.deliver, cfg)
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch persists the events as PENDING and enqueues their delivery.
// Callers invoke this after their own transaction has committed; failures
// here are logged, never returned as workflow errors.
func (s *NotificationService) Dispatch(ctx context.Context, events []models.NotificationEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.events.InsertBatch(ctx, events); err != nil {
		s.logger.Error("failed to persist notification events", zap.Error(err))
		return
	}
	for _, event := range events {
		job := jobs.Job{ID: event.ID, Type: string(event.Type), Payload: event}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue notification",
				zap.String("event_id", event.ID), zap.Error(err))
		}
	}
}

// RequeuePending re-enqueues events left PENDING, typically after a restart.
func (s *NotificationService) RequeuePending(ctx context.Context, limit int) (int, error) {
	pending, err := s.events.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}
	requeued := 0
	for _, event := range pending {
		job := jobs.Job{ID: event.ID, Type: string(event.Type), Payload: event}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to requeue notification",
				zap.String("event_id", event.ID), zap.Error(err))
			continue
		}
		requeued++
	}
	return requeued, nil
}

// deliver publishes one event to the notification channel and records the
// outcome. Returning an error lets the queue retry before the event is
// marked FAILED for good.
func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.NotificationEvent)
	if !ok {
		s.logger.Error("dropping malformed notification job", zap.String("job_id", job.ID))
		return nil
	}

	deliverCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.publisher.Publish(deliverCtx, notificationChannel, event.ID).Err(); err != nil {
		// A retry that succeeds later flips the record back to SENT.
		if markErr := s.events.MarkFailed(context.WithoutCancel(ctx), event.ID); markErr != nil {
			s.logger.Error("failed to mark notification failed",
				zap.String("event_id", event.ID), zap.Error(markErr))
		}
		if s.metrics != nil {
			s.metrics.IncNotification(string(event.Type), "failed")
		}
		return err
	}

	if err := s.events.MarkSent(deliverCtx, event.ID); err != nil {
		s.logger.Error("failed to mark notification sent",
			zap.String("event_id", event.ID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.IncNotification(string(event.Type), "sent")
	}
	return nil
}
