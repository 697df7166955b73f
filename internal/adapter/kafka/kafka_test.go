package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/compost-norm-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("reading-42"),
		Value:     []byte(`{"action":"created"}`),
		Topic:     "compost-readings",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("crud")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("reading-42"), raw.Key)
	assert.JSONEq(t, `{"action":"created"}`, string(raw.Value))
	assert.Equal(t, "compost-readings", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "crud", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	created := time.Date(2025, time.March, 3, 9, 0, 1, 0, time.UTC)
	intent := domain.NotificationIntent{
		ID:        "7a1d0c52-0f8e-5b5e-8a7e-2f3c4d5e6f70",
		UserID:    1,
		CompostID: 3,
		ReadingID: 42,
		Message:   "Warning: Temperature (75°C) above the norm (70°C) for compost unit Bac A.",
		CreatedAt: created,
	}

	msg, err := serializeToMessage(intent)
	require.NoError(t, err)

	assert.Equal(t, []byte(intent.ID), msg.Key)
	assert.JSONEq(t, `{
		"id": "7a1d0c52-0f8e-5b5e-8a7e-2f3c4d5e6f70",
		"userId": 1,
		"compostId": 3,
		"readingId": 42,
		"message": "Warning: Temperature (75°C) above the norm (70°C) for compost unit Bac A.",
		"createdAt": "2025-03-03T09:00:01Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "compost_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("3"), msg.Headers[0].Value)
	assert.Equal(t, "created_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(created.Format(time.RFC3339)), msg.Headers[1].Value)
}
