package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ReadingInput is the typed body of a reading create/update. Numeric fields
// accept JSON numbers or numeric strings; Validate normalizes them.
type ReadingInput struct {
	ID             int64   `json:"id,omitempty"`
	CompostID      int64   `json:"compostId"`
	RecordedByID   int64   `json:"recordedById"`
	RecordedAt     string  `json:"recordedAt,omitempty"`
	Temperature    any     `json:"temperature,omitempty"`
	Humidity       any     `json:"humidity,omitempty"`
	Oxygenation    any     `json:"oxygenation,omitempty"`
	CompostMass    any     `json:"compostMass,omitempty"`
	WoodChipsAdded any     `json:"woodChipsAdded,omitempty"`
	OdorLevel      *string `json:"odorLevel,omitempty"`
	Turned         any     `json:"turned,omitempty"`
	Redistributed  any     `json:"redistributed,omitempty"`
}

// ValidationError lists the invalid fields of an input and why.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid reading: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = reason
}

// Validate checks the input and converts it to a Reading. Unparsable numeric
// values become absent rather than errors. A missing recordedAt defaults to
// the current time.
func (in ReadingInput) Validate() (Reading, error) {
	verr := &ValidationError{}

	if in.CompostID <= 0 {
		verr.add("compostId", "must be a positive integer")
	}
	if in.RecordedByID <= 0 {
		verr.add("recordedById", "must be a positive integer")
	}

	recordedAt := clock.Now().UTC()
	if s := strings.TrimSpace(in.RecordedAt); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			verr.add("recordedAt", fmt.Sprintf("must be an RFC 3339 timestamp, got %q", in.RecordedAt))
		} else {
			recordedAt = t.UTC()
		}
	}

	if len(verr.Fields) > 0 {
		return Reading{}, verr
	}

	return Reading{
		ID:             in.ID,
		CompostID:      in.CompostID,
		RecordedByID:   in.RecordedByID,
		RecordedAt:     recordedAt,
		Temperature:    ParseOptionalNumber(in.Temperature),
		Humidity:       ParseOptionalNumber(in.Humidity),
		Oxygenation:    ParseOptionalNumber(in.Oxygenation),
		CompostMass:    ParseOptionalNumber(in.CompostMass),
		WoodChipsAdded: ParseOptionalNumber(in.WoodChipsAdded),
		OdorLevel:      parseOptionalText(in.OdorLevel),
		Turned:         ParseFlag(in.Turned),
		Redistributed:  ParseFlag(in.Redistributed),
	}, nil
}
