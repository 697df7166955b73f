package domain

import (
	"math"
	"strconv"
	"time"
)

// UnknownRecorder is shown when a reading's recorder cannot be resolved.
const UnknownRecorder = "Unknown"

// Average is a per-parameter mean. Available is false when no reading
// measured the parameter, which is distinct from a mean of zero.
type Average struct {
	Value     float64
	Available bool
}

// ViolationDetail is one violation formatted for display.
type ViolationDetail struct {
	Param Param
	Label string
	Value string // e.g. "75°C"
	Norm  string // e.g. "70°C"
}

// ViolationEvent groups the violations of one reading.
type ViolationEvent struct {
	ReadingID  int64
	RecordedAt time.Time
	RecordedBy string
	Violations []Violation
	Details    []ViolationDetail
}

// Summary is the aggregated view of a compost unit's reading history.
type Summary struct {
	CompostID       int64
	CompostName     string
	TotalRecords    int
	LastOdorLevel   *string
	Averages        map[Param]Average
	ViolationCounts map[Param]int
	Events          []ViolationEvent
}

// Summarize aggregates a compost's readings: averages over measured values,
// the most recent known odor level, and violation counts plus one event per
// violating reading in input order. Readings must be ascending by
// RecordedAt; averages and counts do not depend on order.
func Summarize(in ReportData) Summary {
	s := Summary{
		CompostID:       in.CompostID,
		CompostName:     in.CompostName,
		TotalRecords:    len(in.Readings),
		Averages:        make(map[Param]Average, len(params)),
		ViolationCounts: make(map[Param]int, len(params)),
		Events:          []ViolationEvent{},
	}

	sums := make(map[Param]float64, len(params))
	counts := make(map[Param]int, len(params))
	for _, p := range params {
		s.ViolationCounts[p.param] = 0
	}

	var lastOdorAt time.Time
	for _, r := range in.Readings {
		for _, p := range params {
			if v := p.value(r); v != nil {
				sums[p.param] += *v
				counts[p.param]++
			}
		}

		if r.OdorLevel != nil && (s.LastOdorLevel == nil || !r.RecordedAt.Before(lastOdorAt)) {
			odor := *r.OdorLevel
			s.LastOdorLevel = &odor
			lastOdorAt = r.RecordedAt
		}

		violations := Evaluate(r, in.Config)
		if len(violations) == 0 {
			continue
		}
		for _, v := range violations {
			s.ViolationCounts[v.Param]++
		}
		s.Events = append(s.Events, ViolationEvent{
			ReadingID:  r.ID,
			RecordedAt: r.RecordedAt,
			RecordedBy: recorderName(in.Recorders, r.RecordedByID),
			Violations: violations,
			Details:    describe(violations),
		})
	}

	for _, p := range params {
		n := counts[p.param]
		if n == 0 {
			s.Averages[p.param] = Average{}
			continue
		}
		s.Averages[p.param] = Average{
			Value:     roundHalfUp(sums[p.param]/float64(n), 1),
			Available: true,
		}
	}

	return s
}

func recorderName(recorders map[int64]User, id int64) string {
	u, ok := recorders[id]
	if !ok {
		return UnknownRecorder
	}
	if name := u.DisplayName(); name != "" {
		return name
	}
	return UnknownRecorder
}

func describe(violations []Violation) []ViolationDetail {
	out := make([]ViolationDetail, len(violations))
	for i, v := range violations {
		unit := v.Param.Unit()
		out[i] = ViolationDetail{
			Param: v.Param,
			Label: v.Param.Label(),
			Value: formatMeasure(v.Value, unit),
			Norm:  formatMeasure(v.Bound, unit),
		}
	}
	return out
}

// roundHalfUp rounds x to the given number of decimals, ties away from zero.
// The scaled value is first cut to nine decimals so that inputs such as 1.45,
// stored as 1.4499999..., still round up.
func roundHalfUp(x float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	scaled, err := strconv.ParseFloat(strconv.FormatFloat(x*scale, 'f', 9, 64), 64)
	if err != nil {
		scaled = x * scale
	}
	return math.Copysign(math.Floor(math.Abs(scaled)+0.5), scaled) / scale
}
