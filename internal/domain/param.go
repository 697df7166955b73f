package domain

import "strconv"

// Param identifies a numeric measured parameter.
type Param string

const (
	ParamTemperature    Param = "temperature"
	ParamHumidity       Param = "humidity"
	ParamCompostMass    Param = "compostMass"
	ParamOxygenation    Param = "oxygenation"
	ParamWoodChipsAdded Param = "woodChipsAdded"
)

// paramSpec describes how one parameter is read from a Reading, which bound
// governs it, and how it is labelled in messages and reports.
type paramSpec struct {
	param     Param
	normKey   string
	label     string
	unit      string
	direction Direction
	value     func(Reading) *float64
	bound     func(*ThresholdConfig) *float64
}

// params lists the numeric parameters in evaluation order. Report rendering
// and tests depend on this order being stable.
var params = []paramSpec{
	{
		param: ParamTemperature, normKey: "temperatureMax", label: "Temperature", unit: "°C", direction: DirectionMax,
		value: func(r Reading) *float64 { return r.Temperature },
		bound: func(c *ThresholdConfig) *float64 { return c.TemperatureMax },
	},
	{
		param: ParamHumidity, normKey: "humidityMax", label: "Humidity", unit: "%", direction: DirectionMax,
		value: func(r Reading) *float64 { return r.Humidity },
		bound: func(c *ThresholdConfig) *float64 { return c.HumidityMax },
	},
	{
		param: ParamCompostMass, normKey: "compostMassMax", label: "Mass", unit: "kg", direction: DirectionMax,
		value: func(r Reading) *float64 { return r.CompostMass },
		bound: func(c *ThresholdConfig) *float64 { return c.CompostMassMax },
	},
	{
		param: ParamOxygenation, normKey: "oxygenationMin", label: "Oxygenation", unit: "%", direction: DirectionMin,
		value: func(r Reading) *float64 { return r.Oxygenation },
		bound: func(c *ThresholdConfig) *float64 { return c.OxygenationMin },
	},
	{
		param: ParamWoodChipsAdded, normKey: "woodChipsAddedMax", label: "Wood chips", unit: "kg", direction: DirectionMax,
		value: func(r Reading) *float64 { return r.WoodChipsAdded },
		bound: func(c *ThresholdConfig) *float64 { return c.WoodChipsAddedMax },
	},
}

var paramIndex = func() map[Param]paramSpec {
	m := make(map[Param]paramSpec, len(params))
	for _, p := range params {
		m[p.param] = p
	}
	return m
}()

// Params returns the numeric parameters in evaluation order.
func Params() []Param {
	out := make([]Param, len(params))
	for i, p := range params {
		out[i] = p.param
	}
	return out
}

// Label returns the human-readable name used in messages and reports.
func (p Param) Label() string {
	if s, ok := paramIndex[p]; ok {
		return s.label
	}
	return string(p)
}

// Unit returns the display unit, e.g. "°C".
func (p Param) Unit() string {
	return paramIndex[p].unit
}

// NormKey returns the name of the bound governing the parameter in the
// report contract, e.g. "oxygenationMin".
func (p Param) NormKey() string {
	return paramIndex[p].normKey
}

// formatMeasure renders a value with its unit using the shortest decimal
// representation: 75 -> "75°C", 62.5 -> "62.5%".
func formatMeasure(v float64, unit string) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + unit
}
