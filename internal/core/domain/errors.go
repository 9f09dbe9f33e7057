package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Job queue errors.

	// ErrDuplicate indicates a checksum already enqueued for the organisation
	// in a non-failed state. Callers receive the existing job alongside it.
	ErrDuplicate = errors.New("duplicate checksum")

	// ErrNoJobAvailable indicates no pending job is currently leasable.
	ErrNoJobAvailable = errors.New("no job available")

	// ErrLeaseNotHeld indicates an ack or fail for a job the caller no longer
	// holds a lease on (expired and reclaimed, or never leased).
	ErrLeaseNotHeld = errors.New("lease not held")

	// ErrAttemptsExhausted indicates a job has reached its retry limit.
	ErrAttemptsExhausted = errors.New("attempts exhausted")

	// ErrMalformedInput indicates an unparseable source file. Jobs failing
	// with this cause are terminal immediately; retrying cannot help.
	ErrMalformedInput = errors.New("malformed input")

	// OCR errors.

	// ErrEngineFailure indicates a single OCR engine call failed outright
	// (unreachable, timeout, or malformed response). Low confidence is not
	// an engine failure.
	ErrEngineFailure = errors.New("ocr engine failure")

	// ErrAllEnginesFailed indicates both the primary and fallback engines
	// failed for a segment. The segment result carries an explicit failure
	// marker and the document must surface a pipeline-level error.
	ErrAllEnginesFailed = errors.New("all ocr engines failed")

	// Review errors.

	// ErrInvalidTransition indicates a review status change that the
	// one-directional state machine does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCorrectionRequired indicates an approval without corrected text.
	ErrCorrectionRequired = errors.New("corrected text required for approval")

	// Format adapter errors.

	// ErrUnsupportedFormat indicates no adapter handles the detected format.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
