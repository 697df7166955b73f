package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadingEvent(t *testing.T) {
	msgTime := time.Date(2025, time.March, 3, 9, 0, 5, 0, time.UTC)

	t.Run("created with commit time", func(t *testing.T) {
		raw := RawEvent{
			Value:     []byte(`{"action":"created","committedAt":"2025-03-03T09:00:01Z","reading":{"id":42,"compostId":3,"recordedById":7,"recordedAt":"2025-03-03T09:00:00Z","temperature":"75","oxygenation":8}}`),
			Timestamp: msgTime,
		}
		ev, err := ParseReadingEvent(raw)
		require.NoError(t, err)

		assert.Equal(t, ReadingCreated, ev.Action)
		assert.Equal(t, time.Date(2025, time.March, 3, 9, 0, 1, 0, time.UTC), ev.CommittedAt)
		assert.Equal(t, int64(42), ev.Reading.ID)
		require.NotNil(t, ev.Reading.Temperature)
		assert.Equal(t, 75.0, *ev.Reading.Temperature)
		require.NotNil(t, ev.Reading.Oxygenation)
		assert.Equal(t, 8.0, *ev.Reading.Oxygenation)
	})

	t.Run("updated falls back to message time", func(t *testing.T) {
		raw := RawEvent{
			Value:     []byte(`{"action":"UPDATED","reading":{"id":42,"compostId":3,"recordedById":7,"recordedAt":"2025-03-03T09:00:00Z"}}`),
			Timestamp: msgTime,
		}
		ev, err := ParseReadingEvent(raw)
		require.NoError(t, err)
		assert.Equal(t, ReadingUpdated, ev.Action)
		assert.Equal(t, msgTime, ev.CommittedAt)
	})

	t.Run("no timestamps uses clock", func(t *testing.T) {
		now := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
		SetClock(clockwork.NewFakeClockAt(now))
		t.Cleanup(func() { SetClock(nil) })

		ev, err := ParseReadingEvent(RawEvent{
			Value: []byte(`{"action":"created","reading":{"id":1,"compostId":3,"recordedById":7}}`),
		})
		require.NoError(t, err)
		assert.Equal(t, now, ev.CommittedAt)
		assert.Equal(t, now, ev.Reading.RecordedAt)
	})

	t.Run("out of range number is absent", func(t *testing.T) {
		raw := RawEvent{
			Value:     []byte(`{"action":"created","reading":{"id":9,"compostId":3,"recordedById":7,"temperature":80,"humidity":1e400,"compostMass":-1e999}}`),
			Timestamp: msgTime,
		}
		ev, err := ParseReadingEvent(raw)
		require.NoError(t, err)

		require.NotNil(t, ev.Reading.Temperature)
		assert.Equal(t, 80.0, *ev.Reading.Temperature)
		assert.Nil(t, ev.Reading.Humidity)
		assert.Nil(t, ev.Reading.CompostMass)

		violations := Evaluate(ev.Reading, &ThresholdConfig{TemperatureMax: num(70), HumidityMax: num(60)})
		require.Len(t, violations, 1)
		assert.Equal(t, ParamTemperature, violations[0].Param)
	})

	errorCases := []struct {
		name    string
		payload string
		want    string
	}{
		{"invalid JSON", `{nope`, "parse reading event"},
		{"trailing data", `{"action":"created","reading":{"id":1,"compostId":1,"recordedById":1}} {}`, "unexpected data"},
		{"unknown action", `{"action":"deleted","reading":{"id":1,"compostId":1,"recordedById":1}}`, "unknown action"},
		{"missing reading", `{"action":"created"}`, "missing reading"},
		{"missing id", `{"action":"created","reading":{"compostId":1,"recordedById":1}}`, "reading id is required"},
		{"invalid reading", `{"action":"created","reading":{"id":1,"recordedById":1}}`, "compostId"},
		{"invalid commit time", `{"action":"created","committedAt":"soon","reading":{"id":1,"compostId":1,"recordedById":1}}`, "invalid committedAt"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseReadingEvent(RawEvent{Value: []byte(tc.payload), Timestamp: msgTime})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	t.Run("validation error is unwrappable", func(t *testing.T) {
		_, err := ParseReadingEvent(RawEvent{Value: []byte(`{"action":"created","reading":{"id":1}}`)})
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}

func TestMarshalReadingEvent_Roundtrip(t *testing.T) {
	ev := ReadingEvent{
		Action:      ReadingUpdated,
		CommittedAt: time.Date(2025, time.March, 3, 9, 0, 1, 0, time.UTC),
		Reading: Reading{
			ID:           42,
			CompostID:    3,
			RecordedByID: 7,
			RecordedAt:   time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC),
			Temperature:  num(75),
			OdorLevel:    text("forte"),
			Turned:       true,
		},
	}

	data, err := MarshalReadingEvent(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"humidity"`)

	got, err := ParseReadingEvent(RawEvent{Value: data})
	require.NoError(t, err)
	if diff := cmp.Diff(ev, got); diff != "" {
		t.Fatalf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}
