// Package metrics provides custom Prometheus metrics for the eBird recommender.
package metrics

// Recorder defines a minimal interface for recording metrics.
// Components depend on this abstraction instead of a concrete metric set,
// so a nil-safe implementation or a test double can be passed in.
type Recorder interface {
	// RecordOperation records a generic operation with its status.
	// The operation parameter describes what was performed (e.g., "recommend", "fetch").
	// The status parameter indicates the outcome (e.g., "success", "error").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its type.
	// The errorType parameter is usually an error category such as "network" or "validation".
	RecordError(operation, errorType string)
}
