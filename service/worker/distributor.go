// Package worker runs background jobs (notifications, welcome emails)
// through a Redis-backed asynq queue.
package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskDistributor enqueues background jobs. Handlers depend on this
// interface so tests can swap in a no-op implementation.
type TaskDistributor interface {
	DistributeTaskSendWelcomeEmail(ctx context.Context, payload EmailPayload, opts ...asynq.Option) (err error)
	DistributeTaskSendNotification(ctx context.Context, payload NotificationPayload, opts ...asynq.Option) (err error)
}

type RedisTaskDistributor struct {
	client *asynq.Client
	logger *slog.Logger
}

func NewRedisTaskDistributor(redisOpt asynq.RedisClientOpt, logger *slog.Logger) TaskDistributor {
	client := asynq.NewClient(redisOpt)
	return &RedisTaskDistributor{
		client: client,
		logger: logger,
	}
}
