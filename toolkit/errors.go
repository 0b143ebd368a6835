package toolkit

import "errors"

// Failure categories for the outer operations. Callers match them with
// errors.Is; the wrapped message carries the specifics.
var (
	// ErrInvalidInput marks malformed template or data input and
	// out-of-range page references.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSourceUnavailable marks an input document that cannot be
	// opened or decoded.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrExtractionFailure marks an unreadable glyph stream. Fatal in
	// comparison, where both sides must align.
	ErrExtractionFailure = errors.New("extraction failure")
	// ErrOutputWriteFailure marks a failed final save.
	ErrOutputWriteFailure = errors.New("output write failure")
)
