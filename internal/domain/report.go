package domain

import (
	"strconv"
	"time"
)

// NotAvailable marks an average or odor level with no underlying data.
const NotAvailable = "N/A"

// Report is the JSON contract served to the report-rendering layer.
type Report struct {
	ComposteurName    string                `json:"composteurName"`
	TotalRecords      int                   `json:"totalRecords"`
	LastOdorLevel     string                `json:"lastOdorLevel"`
	Averages          ReportAverages        `json:"averages"`
	NormViolations    ReportViolationCounts `json:"normViolations"`
	ViolationsDetails []ReportViolation     `json:"violationsDetails"`
}

// ReportAverages holds one-decimal averages or "N/A".
type ReportAverages struct {
	Temperature    string `json:"temperature"`
	Humidity       string `json:"humidity"`
	Oxygenation    string `json:"oxygenation"`
	CompostMass    string `json:"compostMass"`
	WoodChipsAdded string `json:"woodChipsAdded"`
}

// ReportViolationCounts holds the number of violating readings per bound.
type ReportViolationCounts struct {
	TemperatureMax    int `json:"temperatureMax"`
	HumidityMax       int `json:"humidityMax"`
	CompostMassMax    int `json:"compostMassMax"`
	OxygenationMin    int `json:"oxygenationMin"`
	WoodChipsAddedMax int `json:"woodChipsAddedMax"`
}

// ReportViolation is one violating reading.
type ReportViolation struct {
	Date       time.Time             `json:"date"`
	RecordedBy string                `json:"recordedBy"`
	Details    []ReportViolationItem `json:"details"`
}

// ReportViolationItem is one violated parameter of a reading.
type ReportViolationItem struct {
	Param string `json:"param"`
	Value string `json:"value"`
	Norm  string `json:"norm"`
}

// NewReport formats a Summary into the report contract.
func NewReport(s Summary) Report {
	r := Report{
		ComposteurName: s.CompostName,
		TotalRecords:   s.TotalRecords,
		LastOdorLevel:  NotAvailable,
		Averages: ReportAverages{
			Temperature:    formatAverage(s.Averages[ParamTemperature]),
			Humidity:       formatAverage(s.Averages[ParamHumidity]),
			Oxygenation:    formatAverage(s.Averages[ParamOxygenation]),
			CompostMass:    formatAverage(s.Averages[ParamCompostMass]),
			WoodChipsAdded: formatAverage(s.Averages[ParamWoodChipsAdded]),
		},
		NormViolations: ReportViolationCounts{
			TemperatureMax:    s.ViolationCounts[ParamTemperature],
			HumidityMax:       s.ViolationCounts[ParamHumidity],
			CompostMassMax:    s.ViolationCounts[ParamCompostMass],
			OxygenationMin:    s.ViolationCounts[ParamOxygenation],
			WoodChipsAddedMax: s.ViolationCounts[ParamWoodChipsAdded],
		},
		ViolationsDetails: make([]ReportViolation, 0, len(s.Events)),
	}
	if s.LastOdorLevel != nil {
		r.LastOdorLevel = *s.LastOdorLevel
	}

	for _, e := range s.Events {
		items := make([]ReportViolationItem, len(e.Details))
		for i, d := range e.Details {
			items[i] = ReportViolationItem{Param: d.Label, Value: d.Value, Norm: d.Norm}
		}
		r.ViolationsDetails = append(r.ViolationsDetails, ReportViolation{
			Date:       e.RecordedAt.UTC(),
			RecordedBy: e.RecordedBy,
			Details:    items,
		})
	}

	return r
}

func formatAverage(a Average) string {
	if !a.Available {
		return NotAvailable
	}
	return strconv.FormatFloat(a.Value, 'f', 1, 64)
}
