package services

import "errors"

// Operation-level errors surfaced by the core services. Handlers map these to
// HTTP responses; none of them are fatal to the process.
var (
	// ErrDuplicateSpawnReport — a report fell inside the duplicate tolerance
	// window of an existing event for the same boss.
	ErrDuplicateSpawnReport = errors.New("duplicate spawn report within tolerance window")

	// ErrInvalidTimestamp — spawn_time unparsable, in the future of the
	// allowed window, or older than the 30-day floor.
	ErrInvalidTimestamp = errors.New("invalid spawn timestamp")

	// ErrConcurrencyConflict — a ledger increment lost its row lock race and
	// exhausted its retries.
	ErrConcurrencyConflict = errors.New("concurrent write conflict")
)
