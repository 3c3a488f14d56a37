package worker

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"strings"

	"github.com/hibiken/asynq"
)

// EmailPayload carries the recipient data for the welcome email job.
type EmailPayload struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

const SendWelcomeEmail = "send-welcome-email"

//go:embed welcome.html
var welcome embed.FS

func (distributor *RedisTaskDistributor) DistributeTaskSendWelcomeEmail(
	ctx context.Context,
	payload EmailPayload,
	opts ...asynq.Option,
) (err error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(SendWelcomeEmail, data, opts...)

	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	distributor.logger.Info("Task info", "task_name", SendWelcomeEmail, "queue", info.Queue, "max_retry", info.MaxRetry)

	return nil
}

func (processor *RedisTaskProcessor) ProcessTaskSendWelcomeEmail(ctx context.Context, task *asynq.Task) (err error) {
	processor.logger.Info("Start processing task", "task_name", SendWelcomeEmail)

	var payload EmailPayload
	if err = json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	tmpl, err := template.ParseFS(welcome, "welcome.html")
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err = tmpl.Execute(&sb, payload); err != nil {
		return err
	}

	return processor.mailService.SendEmail(payload.Email, "Welcome to KC Chat", sb.String())
}
