package models

import "errors"

// Error taxonomy for upstream data. Indicator-level shortfalls are not
// errors at all; they resolve to documented neutral defaults or a
// WAITING state at the call site.
var (
	// ErrUpstreamUnavailable marks a failed or empty fetch from a
	// market-data source. The affected instrument gets an ERROR
	// record; other instruments are unaffected.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrInvalidValue marks a fetched field that parsed to a
	// non-numeric or nonsensical value. Discarded at the parse
	// boundary; never aborts the batch.
	ErrInvalidValue = errors.New("invalid value")
)
