package audit

import "errors"

var (
	// ErrUnconfigured: the reasoning or vision service has no client or credential bound.
	ErrUnconfigured = errors.New("audit service is not configured")
	// ErrServiceUnavailable wraps a network or provider failure during a call.
	ErrServiceUnavailable = errors.New("audit service unavailable")
	// ErrMalformedResponse: the response could not be parsed as JSON at all.
	ErrMalformedResponse = errors.New("malformed audit response")
	// ErrExtractionFailure wraps any failure of the vision extraction step.
	ErrExtractionFailure = errors.New("bill extraction failed")
	ErrEmptyBill         = errors.New("bill text is empty")
)
