package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	// ErrStoreUnavailable marks an unreachable or timed-out source. The
	// access layer converts it into an empty-data state; it must never
	// propagate into the reconciliation computation.
	ErrStoreUnavailable = errors.New("metric store unavailable")

	// ErrBadRecord marks a malformed flat-file row.
	ErrBadRecord = errors.New("malformed metric record")
)
