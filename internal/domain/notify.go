package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// intentNamespace scopes the name-based UUIDs of notification intents.
var intentNamespace = uuid.MustParse("6f3b2a8e-4c1d-5e7f-9a0b-1c2d3e4f5a6b")

// OnReadingCommitted decides which notifications a freshly written reading
// warrants. A reading without violations yields no intents. Otherwise every
// assigned user receives one intent, all sharing a single message that lists
// each violated parameter. Persisting the intents is the caller's job.
func OnReadingCommitted(r Reading, cfg *ThresholdConfig, compostName string, assigned []User, committedAt time.Time) []NotificationIntent {
	violations := Evaluate(r, cfg)
	if len(violations) == 0 || len(assigned) == 0 {
		return nil
	}

	message := ComposeMessage(violations, compostName)
	intents := make([]NotificationIntent, len(assigned))
	for i, u := range assigned {
		intents[i] = NotificationIntent{
			ID:        intentID(r, u.ID, committedAt),
			UserID:    u.ID,
			CompostID: r.CompostID,
			ReadingID: r.ID,
			Message:   message,
			CreatedAt: committedAt.UTC(),
		}
	}
	return intents
}

// ComposeMessage renders violations as one human-readable alert, e.g.
// "Warning: Temperature (75°C) above the norm (70°C) for compost unit Bac A."
func ComposeMessage(violations []Violation, compostName string) string {
	alerts := make([]string, len(violations))
	for i, v := range violations {
		unit := v.Param.Unit()
		relation := "above"
		if v.Direction == DirectionMin {
			relation = "below"
		}
		alerts[i] = fmt.Sprintf("%s (%s) %s the norm (%s)",
			v.Param.Label(), formatMeasure(v.Value, unit), relation, formatMeasure(v.Bound, unit))
	}
	return fmt.Sprintf("Warning: %s for compost unit %s.", strings.Join(alerts, ", "), compostName)
}

// intentID derives a stable ID from the reading, recipient and commit time,
// so redelivered events map onto the same notification row.
func intentID(r Reading, userID int64, committedAt time.Time) string {
	name := fmt.Sprintf("%d|%d|%d|%s", r.CompostID, r.ID, userID, committedAt.UTC().Format(time.RFC3339Nano))
	return uuid.NewSHA1(intentNamespace, []byte(name)).String()
}
