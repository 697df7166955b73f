// Package domain holds the compost norm engine: the reading and threshold
// types, the violation evaluator, the report aggregator and the notification
// dispatch decision. Everything here is pure; storage and transport live in
// the adapter packages.
//
// # Readings
//
// A reading is one observation of a compost unit. Every numeric field is
// optional and nil means "not measured":
//
//	temperature     °C
//	humidity        %
//	compostMass     kg
//	oxygenation     %
//	woodChipsAdded  kg
//	odorLevel       free text, e.g. "faible", "forte"
//
// Request bodies arrive loosely typed (numbers may be strings). They are
// normalized once by [ParseOptionalNumber]: absent, empty or unparsable
// input becomes nil, never zero and never NaN.
//
// # Norms
//
// A [ThresholdConfig] carries one optional bound per parameter. Four are
// upper bounds (temperatureMax, humidityMax, compostMassMax,
// woodChipsAddedMax) and one is a lower bound (oxygenationMin). Comparisons
// are strict, so a value equal to its bound is compliant. odorLevelMax is
// stored but not enforced because odor levels have no agreed ordering.
//
// # Evaluation order
//
// Violations are always reported in the order temperature, humidity, mass,
// oxygenation, wood chips. Reports and notification messages inherit it.
//
// # Reports
//
// [Summarize] consumes a compost's history ascending by recordedAt.
// Averages are rounded half-up to one decimal and rendered as "N/A" when no
// reading measured the parameter. Violation events keep input order.
//
// # Notifications
//
// [OnReadingCommitted] runs on every reading create or update. One message
// per reading lists every violated parameter; each assigned user gets an
// intent carrying that message. Intent IDs are name-based UUIDs of
// compost|reading|user|commit time, which lets sinks insert idempotently.
package domain
