package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/compost-norm-service/internal/domain"
)

// Decision is the outcome of evaluating one committed reading.
type Decision struct {
	Event      domain.ReadingEvent
	Violations []domain.Violation
	Intents    []domain.NotificationIntent
}

// Dispatcher turns reading-committed events into notification intents using
// the compost state loaded from a consistent snapshot.
type Dispatcher struct {
	snapshots SnapshotLoader
}

// NewDispatcher creates a Dispatcher reading compost state from snapshots.
func NewDispatcher(snapshots SnapshotLoader) *Dispatcher {
	return &Dispatcher{snapshots: snapshots}
}

// Decode parses and validates a raw reading event.
func (d *Dispatcher) Decode(raw domain.RawEvent) (domain.ReadingEvent, error) {
	return domain.ParseReadingEvent(raw)
}

// Dispatch evaluates the event's reading against the compost norms and
// decides who gets notified. It never persists anything.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.ReadingEvent) (Decision, error) {
	snap, err := d.snapshots.LoadDispatchSnapshot(ctx, ev.Reading.CompostID)
	if err != nil {
		return Decision{Event: ev}, fmt.Errorf("dispatch reading %d: %w", ev.Reading.ID, err)
	}

	return Decision{
		Event:      ev,
		Violations: domain.Evaluate(ev.Reading, snap.Config),
		Intents:    domain.OnReadingCommitted(ev.Reading, snap.Config, snap.CompostName, snap.AssignedUsers, ev.CommittedAt),
	}, nil
}
