package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/compost-norm-service/internal/config"
	"github.com/couchcryptid/compost-norm-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// NotificationWriter publishes notification intents to the notification topic.
// It implements pipeline.NotificationSink.
type NotificationWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotificationWriter creates a Kafka producer for the configured notification topic.
func NewNotificationWriter(cfg *config.Config, logger *slog.Logger) *NotificationWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaNotificationTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &NotificationWriter{writer: w, logger: logger}
}

// notificationMessage is the wire form of a notification intent.
type notificationMessage struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	CompostID int64     `json:"compostId"`
	ReadingID int64     `json:"readingId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Deliver publishes one intent, keyed by its ID.
func (w *NotificationWriter) Deliver(ctx context.Context, intent domain.NotificationIntent) error {
	msg, err := serializeToMessage(intent)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification %s: %w", intent.ID, err)
	}
	w.logger.Debug("notification published", "notification_id", intent.ID, "user_id", intent.UserID)
	return nil
}

// Name labels the sink in logs and metrics.
func (w *NotificationWriter) Name() string { return "kafka" }

func (w *NotificationWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a NotificationIntent into a Kafka message.
func serializeToMessage(intent domain.NotificationIntent) (kafkago.Message, error) {
	data, err := json.Marshal(notificationMessage{
		ID:        intent.ID,
		UserID:    intent.UserID,
		CompostID: intent.CompostID,
		ReadingID: intent.ReadingID,
		Message:   intent.Message,
		CreatedAt: intent.CreatedAt.UTC(),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(intent.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "compost_id", Value: []byte(strconv.FormatInt(intent.CompostID, 10))},
			{Key: "created_at", Value: []byte(intent.CreatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
