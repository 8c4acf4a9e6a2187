package reconcile

import "errors"

// Sentinel kinds for reconciliation errors.
var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrUnknownMode   = errors.New("unknown mode")
)
