package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrCompostNotFound is returned by persistence collaborators when the
// compost unit referenced by a reading or report request does not exist.
var ErrCompostNotFound = errors.New("compost not found")

// ThresholdConfig is the norm record for one compost unit. Every bound is
// independently optional; a nil bound disables the check for its parameter.
type ThresholdConfig struct {
	CompostID         int64    `json:"compostId"`
	TemperatureMax    *float64 `json:"temperatureMax"`
	HumidityMax       *float64 `json:"humidityMax"`
	OdorLevelMax      *string  `json:"odorLevelMax"` // stored, never enforced
	CompostMassMax    *float64 `json:"compostMassMax"`
	OxygenationMin    *float64 `json:"oxygenationMin"`
	WoodChipsAddedMax *float64 `json:"woodChipsAddedMax"`
}

// Reading is one recorded observation for a compost unit. Nil numeric fields
// mean "not measured" and are never treated as zero.
type Reading struct {
	ID             int64     `json:"id"`
	CompostID      int64     `json:"compostId"`
	RecordedByID   int64     `json:"recordedById"`
	RecordedAt     time.Time `json:"recordedAt"`
	Temperature    *float64  `json:"temperature"`
	Humidity       *float64  `json:"humidity"`
	Oxygenation    *float64  `json:"oxygenation"`
	CompostMass    *float64  `json:"compostMass"`
	WoodChipsAdded *float64  `json:"woodChipsAdded"`
	OdorLevel      *string   `json:"odorLevel"`
	Turned         bool      `json:"turned"`
	Redistributed  bool      `json:"redistributed"`
}

// User is the subset of a user account the engine needs: an identifier for
// notification recipients and a name for report attribution.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// DisplayName joins first and last name, e.g. "Jeanne Martin".
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Direction tells whether a bound is an upper or a lower limit.
type Direction string

const (
	DirectionMax Direction = "max" // value exceeded an upper bound
	DirectionMin Direction = "min" // value undershot a lower bound
)

// Violation is a single parameter value breaching its configured bound.
type Violation struct {
	Param     Param     `json:"param"`
	Value     float64   `json:"value"`
	Bound     float64   `json:"bound"`
	Direction Direction `json:"direction"`
}

// NotificationIntent is a notification the engine wants persisted for one
// recipient. It is handed to a sink; the engine never stores it.
type NotificationIntent struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	CompostID int64     `json:"compostId"`
	ReadingID int64     `json:"readingId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// DispatchSnapshot bundles the inputs of one dispatch decision, read by the
// persistence collaborator from a single consistent snapshot.
type DispatchSnapshot struct {
	CompostName   string
	Config        *ThresholdConfig
	AssignedUsers []User
}

// ReportData is everything Summarize needs for one compost unit. Readings
// must be ordered by RecordedAt ascending.
type ReportData struct {
	CompostID   int64
	CompostName string
	Config      *ThresholdConfig
	Readings    []Reading
	Recorders   map[int64]User
}
