package worker

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/ulternae/kcchat/db"
)

// NotificationPayload carries one user-to-user notification through the
// queue.
type NotificationPayload struct {
	SourceID string `json:"source_id"`
	DestID   string `json:"dest_id"`
	Content  string `json:"content"`
}

const SendNotification = "send-notification"

func (distributor *RedisTaskDistributor) DistributeTaskSendNotification(
	ctx context.Context,
	payload NotificationPayload,
	opts ...asynq.Option,
) (err error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(SendNotification, data, opts...)

	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	distributor.logger.Info("Task info", "task_name", SendNotification, "queue", info.Queue, "max_retry", info.MaxRetry)

	return nil
}

// ProcessTaskSendNotification persists the notification, then pushes it to
// the destination user's open sockets. Offline users pick it up from the
// database on their next login.
func (processor *RedisTaskProcessor) ProcessTaskSendNotification(ctx context.Context, task *asynq.Task) (err error) {
	processor.logger.Info("Start processing task", "task_name", SendNotification)

	var payload NotificationPayload
	if err = json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	notification := db.Notification{
		SourceID: payload.SourceID,
		DestID:   payload.DestID,
		Content:  payload.Content,
		Status:   db.Unread,
	}
	result := processor.queries.DB.Create(&notification)
	if result.Error != nil {
		return result.Error
	}
	processor.logger.Info("Insert notification successfully", "content", notification.Content)

	processor.hub.Notify(payload.DestID, "notification", notification)

	return nil
}
