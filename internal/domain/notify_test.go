package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assignees = []User{
	{ID: 1, FirstName: "Ana", LastName: "Lopez"},
	{ID: 2, FirstName: "Marc", LastName: "Petit"},
	{ID: 3, FirstName: "Lea", LastName: "Dubois"},
}

func TestOnReadingCommitted_OneIntentPerAssignee(t *testing.T) {
	cfg := &ThresholdConfig{TemperatureMax: num(70), OxygenationMin: num(10)}
	r := Reading{ID: 42, CompostID: 3, Temperature: num(75), Oxygenation: num(8)}
	committedAt := time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC)

	intents := OnReadingCommitted(r, cfg, "Bac A", assignees, committedAt)

	require.Len(t, intents, len(assignees))
	want := "Warning: Temperature (75°C) above the norm (70°C), Oxygenation (8%) below the norm (10%) for compost unit Bac A."
	seen := map[string]bool{}
	for i, in := range intents {
		assert.Equal(t, assignees[i].ID, in.UserID)
		assert.Equal(t, int64(3), in.CompostID)
		assert.Equal(t, int64(42), in.ReadingID)
		assert.Equal(t, want, in.Message)
		assert.Equal(t, committedAt, in.CreatedAt)
		assert.NotEmpty(t, in.ID)
		seen[in.ID] = true
	}
	assert.Len(t, seen, len(assignees), "intent IDs must be unique per recipient")
}

func TestOnReadingCommitted_NoViolationNoIntent(t *testing.T) {
	cfg := &ThresholdConfig{TemperatureMax: num(70)}
	r := Reading{ID: 1, CompostID: 3, Temperature: num(70)}

	assert.Empty(t, OnReadingCommitted(r, cfg, "Bac A", assignees, time.Now()))
	assert.Empty(t, OnReadingCommitted(r, nil, "Bac A", assignees, time.Now()))
}

func TestOnReadingCommitted_NoAssignees(t *testing.T) {
	cfg := &ThresholdConfig{TemperatureMax: num(70)}
	r := Reading{ID: 1, CompostID: 3, Temperature: num(90)}

	assert.Empty(t, OnReadingCommitted(r, cfg, "Bac A", nil, time.Now()))
}

func TestOnReadingCommitted_StableIDs(t *testing.T) {
	cfg := &ThresholdConfig{HumidityMax: num(60)}
	r := Reading{ID: 9, CompostID: 2, Humidity: num(61)}
	committedAt := time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC)

	a := OnReadingCommitted(r, cfg, "Bac C", assignees[:1], committedAt)
	b := OnReadingCommitted(r, cfg, "Bac C", assignees[:1], committedAt)
	c := OnReadingCommitted(r, cfg, "Bac C", assignees[:1], committedAt.Add(time.Minute))

	require.Len(t, a, 1)
	assert.Equal(t, a[0].ID, b[0].ID)
	assert.NotEqual(t, a[0].ID, c[0].ID, "an update commits a new notification")
}

func TestComposeMessage(t *testing.T) {
	tests := []struct {
		name       string
		violations []Violation
		want       string
	}{
		{
			name:       "single upper bound",
			violations: []Violation{{Param: ParamHumidity, Value: 62.5, Bound: 60, Direction: DirectionMax}},
			want:       "Warning: Humidity (62.5%) above the norm (60%) for compost unit Bac A.",
		},
		{
			name: "mass and wood chips",
			violations: []Violation{
				{Param: ParamCompostMass, Value: 320, Bound: 300, Direction: DirectionMax},
				{Param: ParamWoodChipsAdded, Value: 12, Bound: 10, Direction: DirectionMax},
			},
			want: "Warning: Mass (320kg) above the norm (300kg), Wood chips (12kg) above the norm (10kg) for compost unit Bac A.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeMessage(tt.violations, "Bac A"))
		})
	}
}
