package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/ulternae/kcchat/db"
	"github.com/ulternae/kcchat/service/mail"
	"github.com/ulternae/kcchat/service/pubsub"
)

// TaskProcessor consumes queued jobs.
type TaskProcessor interface {
	Start() error
	ProcessTaskSendWelcomeEmail(ctx context.Context, task *asynq.Task) (err error)
	ProcessTaskSendNotification(ctx context.Context, task *asynq.Task) (err error)
}

type RedisTaskProcessor struct {
	server      *asynq.Server
	queries     *db.Queries
	mailService *mail.EmailService
	hub         *pubsub.Hub
	logger      *slog.Logger
}

func NewRedisTaskProcessor(
	redisOpts asynq.RedisClientOpt,
	queries *db.Queries,
	mailService *mail.EmailService,
	hub *pubsub.Hub,
	logger *slog.Logger,
) TaskProcessor {
	return &RedisTaskProcessor{
		server:      asynq.NewServer(redisOpts, asynq.Config{}),
		queries:     queries,
		mailService: mailService,
		hub:         hub,
		logger:      logger,
	}
}

// Start registers the task handlers and runs the worker server.
func (processor *RedisTaskProcessor) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(SendWelcomeEmail, processor.ProcessTaskSendWelcomeEmail)
	mux.HandleFunc(SendNotification, processor.ProcessTaskSendNotification)

	return processor.server.Start(mux)
}
