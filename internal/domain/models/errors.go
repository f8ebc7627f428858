package models

import "errors"

// Engine error taxonomy. Handlers map these to transport status codes;
// everything else propagates wrapped with its cause.
var (
	// ErrInvalidRange marks bad caller input (lookback, action kind).
	ErrInvalidRange = errors.New("invalid range")

	// ErrInsufficientData marks an empty trade window. The engine recovers
	// from it internally with neutral-default signals; it is never surfaced.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUpstreamUnavailable marks an unreachable or malformed collaborator
	// (ledger, market data). Fatal to the request, not retried here.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
