package domain

// Evaluate compares one reading against its compost's norms and returns the
// violated bounds in parameter order. Comparisons are strict: a value equal
// to its bound is compliant. A parameter is skipped when either the reading
// value or the bound is absent, and a nil config yields no violations.
//
// OdorLevelMax is not evaluated: odor levels are free-form strings with no
// defined ordering.
func Evaluate(r Reading, cfg *ThresholdConfig) []Violation {
	if cfg == nil {
		return nil
	}

	var out []Violation
	for _, p := range params {
		value, bound := p.value(r), p.bound(cfg)
		if value == nil || bound == nil {
			continue
		}
		if breaches(p.direction, *value, *bound) {
			out = append(out, Violation{
				Param:     p.param,
				Value:     *value,
				Bound:     *bound,
				Direction: p.direction,
			})
		}
	}
	return out
}

func breaches(d Direction, value, bound float64) bool {
	if d == DirectionMin {
		return value < bound
	}
	return value > bound
}
