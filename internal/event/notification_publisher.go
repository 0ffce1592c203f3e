package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationPublisher publishes notification events to RabbitMQ.
type NotificationPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

func NewNotificationPublisher(conn *RabbitMQConnection) *NotificationPublisher {
	return &NotificationPublisher{
		conn:            conn,
		lastPublishTime: time.Now(),
	}
}

// PublishNotification publishes a notification event to the push_noti_events queue.
func (p *NotificationPublisher) PublishNotification(ctx context.Context, event NotificationEventPushModel) error {
	_, err := p.conn.Channel.QueueDeclare(
		PushNotiQueue, // queue name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",            // exchange
		PushNotiQueue, // routing key (queue name)
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	p.messagesPublished++
	p.lastPublishTime = time.Now()

	slog.Info("Notification event published",
		"queue", PushNotiQueue,
		"title", event.Title,
		"user_count", len(event.LstUserIds),
	)

	return nil
}

// NotifyImportFinished tells the uploader the import session reached a
// terminal state.
func (p *NotificationPublisher) NotifyImportFinished(ctx context.Context, userID, sessionID, status string, claimsCreated, errorCount int) error {
	body := fmt.Sprintf("Import session %s finished with status %s (%d claims created).", sessionID, status, claimsCreated)
	if errorCount > 0 {
		body = fmt.Sprintf("Import session %s finished with status %s (%d claims created, %d row errors). An error report is available.",
			sessionID, status, claimsCreated, errorCount)
	}

	return p.PublishNotification(ctx, NotificationEventPushModel{
		LstUserIds: []string{userID},
		Title:      "Claims Import Finished",
		Body:       body,
		Data: map[string]any{
			"session_id": sessionID,
			"status":     status,
		},
	})
}

// NotifyImportFailed tells the uploader the import session aborted.
func (p *NotificationPublisher) NotifyImportFailed(ctx context.Context, userID, sessionID, reason string) error {
	return p.PublishNotification(ctx, NotificationEventPushModel{
		LstUserIds: []string{userID},
		Title:      "Claims Import Failed",
		Body:       fmt.Sprintf("Import session %s failed: %s", sessionID, reason),
		Data: map[string]any{
			"session_id": sessionID,
			"status":     "error",
		},
	})
}

// GetMetrics returns publisher metrics.
func (p *NotificationPublisher) GetMetrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished,
		"messages_failed":    p.messagesFailed,
		"last_publish_time":  p.lastPublishTime,
		"queue":              PushNotiQueue,
	}
}
