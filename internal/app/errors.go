package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrInvalidRequest marks a request missing a required parameter or
	// carrying an unparseable metric/mode. Surfaced immediately, never
	// retried.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotStarted marks use of a service before Start.
	ErrNotStarted = errors.New("service not started")
)
