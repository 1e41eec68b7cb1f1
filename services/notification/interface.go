package notification

import (
	"context"
	"fmt"

	"fixhive/models"
	"fixhive/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Sink is the fire-and-forget notification boundary. Failures are logged and
// never block the booking flow.
type Sink interface {
	Notify(ctx context.Context, target, id, title, content, referenceType, referenceID string) error
}

// TokenResolver looks up the push token for a target account.
type TokenResolver func(ctx context.Context, target, id string) (string, error)

// QueueSink enqueues deliveries on asynq; the push worker drains the queue
// and talks to FCM so no caller ever waits on a network round-trip.
type QueueSink struct {
	Client *asynq.Client
	Logger *zap.Logger
}

func NewQueueSink(client *asynq.Client, logger *zap.Logger) *QueueSink {
	return &QueueSink{Client: client, Logger: logger}
}

func (s *QueueSink) Notify(ctx context.Context, target, id, title, content, referenceType, referenceID string) error {
	task, err := tasks.NewPushTask(models.PushPayload{
		Target:        target,
		ID:            id,
		Title:         title,
		Body:          content,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
	})
	if err != nil {
		return fmt.Errorf("failed to build push task: %w", err)
	}
	if _, err := s.Client.EnqueueContext(ctx, task); err != nil {
		s.Logger.Warn("push enqueue failed",
			zap.String("target", target), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to enqueue push: %w", err)
	}
	return nil
}
