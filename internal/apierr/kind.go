// Package apierr maps the access control service's domain errors onto a
// small, stable taxonomy that the frontend boundary and acsctl both render
// without depending on internal package error types directly.
package apierr

// Kind is the stable error taxonomy returned to callers across the command
// buffer boundary (§7). Kind values are part of the wire contract and must
// not be renumbered once shipped.
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindInvalidArgument    Kind = "INVALID_ARGUMENT"
	KindCycleDetected      Kind = "CYCLE_DETECTED"
	KindDependenciesExist  Kind = "DEPENDENCIES_EXIST"
	KindBackpressure       Kind = "BACKPRESSURE"
	KindTimeout            Kind = "TIMEOUT"
	KindIntegrityViolation Kind = "INTEGRITY_VIOLATION"
	KindPersistenceFailure Kind = "PERSISTENCE_FAILURE"
	KindCircuitOpen        Kind = "CIRCUIT_OPEN"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindInternal           Kind = "INTERNAL"
)
