package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ReadingAction is the write that produced a reading event.
type ReadingAction string

const (
	ReadingCreated ReadingAction = "created"
	ReadingUpdated ReadingAction = "updated"
)

// ReadingEvent is published by the CRUD service right after a reading is
// persisted. Each event triggers one evaluation pass.
type ReadingEvent struct {
	Action      ReadingAction
	CommittedAt time.Time
	Reading     Reading
}

// readingEventPayload is the wire shape of a ReadingEvent.
type readingEventPayload struct {
	Action      string        `json:"action"`
	CommittedAt string        `json:"committedAt,omitempty"`
	Reading     *ReadingInput `json:"reading"`
}

// ParseReadingEvent decodes and validates a reading-committed message. The
// commit time falls back to the message timestamp when the payload omits it.
func ParseReadingEvent(raw RawEvent) (ReadingEvent, error) {
	var p readingEventPayload
	if err := DecodeJSON(raw.Value, &p); err != nil {
		return ReadingEvent{}, fmt.Errorf("parse reading event: %w", err)
	}

	action := ReadingAction(strings.ToLower(strings.TrimSpace(p.Action)))
	if action != ReadingCreated && action != ReadingUpdated {
		return ReadingEvent{}, fmt.Errorf("parse reading event: unknown action %q", p.Action)
	}
	if p.Reading == nil {
		return ReadingEvent{}, errors.New("parse reading event: missing reading")
	}
	if p.Reading.ID <= 0 {
		return ReadingEvent{}, errors.New("parse reading event: reading id is required")
	}

	reading, err := p.Reading.Validate()
	if err != nil {
		return ReadingEvent{}, fmt.Errorf("parse reading event: %w", err)
	}

	committedAt := raw.Timestamp.UTC()
	if s := strings.TrimSpace(p.CommittedAt); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return ReadingEvent{}, fmt.Errorf("parse reading event: invalid committedAt %q", p.CommittedAt)
		}
		committedAt = t.UTC()
	}
	if committedAt.IsZero() {
		committedAt = clock.Now().UTC()
	}

	return ReadingEvent{
		Action:      action,
		CommittedAt: committedAt,
		Reading:     reading,
	}, nil
}

// MarshalReadingEvent encodes an event in the wire format accepted by
// ParseReadingEvent. Producers and tests use it to publish events.
func MarshalReadingEvent(e ReadingEvent) ([]byte, error) {
	r := e.Reading
	in := ReadingInput{
		ID:            r.ID,
		CompostID:     r.CompostID,
		RecordedByID:  r.RecordedByID,
		RecordedAt:    r.RecordedAt.UTC().Format(time.RFC3339Nano),
		OdorLevel:     r.OdorLevel,
		Turned:        r.Turned,
		Redistributed: r.Redistributed,
	}
	// Absent values must be untyped nil, not a nil *float64 in an interface.
	in.Temperature = optional(r.Temperature)
	in.Humidity = optional(r.Humidity)
	in.Oxygenation = optional(r.Oxygenation)
	in.CompostMass = optional(r.CompostMass)
	in.WoodChipsAdded = optional(r.WoodChipsAdded)

	data, err := json.Marshal(readingEventPayload{
		Action:      string(e.Action),
		CommittedAt: e.CommittedAt.UTC().Format(time.RFC3339Nano),
		Reading:     &in,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize reading event: %w", err)
	}
	return data, nil
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
