package types

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to the UI boundary. Every pipeline failure maps to
// exactly one of these.
const (
	ErrorKindClassificationAmbiguous = "classification_ambiguous"
	ErrorKindSynthesisFailed         = "synthesis_failed"
	ErrorKindSynthesisMalformed      = "synthesis_malformed"
	ErrorKindValidationRejected      = "validation_rejected"
	ErrorKindDispatchFailed          = "dispatch_failed"
)

// ErrClassificationAmbiguous is returned when a prompt cannot be resolved
// to a mail or database intent. Recoverable: the UI asks the user to clarify.
type ErrClassificationAmbiguous struct {
	Text string
}

func (e *ErrClassificationAmbiguous) Error() string {
	return fmt.Sprintf("could not determine intent for prompt: %q", e.Text)
}

// ErrSynthesisFailed is returned when the completion service errors or
// times out. Recoverable: the user may retry the same turn.
type ErrSynthesisFailed struct {
	Cause error
}

func (e *ErrSynthesisFailed) Error() string {
	return fmt.Sprintf("query synthesis failed: %v", e.Cause)
}

func (e *ErrSynthesisFailed) Unwrap() error {
	return e.Cause
}

// ErrSynthesisMalformed is returned when model output cannot be parsed into
// a query payload, after the one bounded re-prompt has been spent.
type ErrSynthesisMalformed struct {
	Output string
}

func (e *ErrSynthesisMalformed) Error() string {
	return fmt.Sprintf("model output could not be parsed into a query: %q", e.Output)
}

// ErrValidationRejected is returned when a synthesized query fails the
// safety contract. Never retried with a relaxed rule.
type ErrValidationRejected struct {
	Reason string
}

func (e *ErrValidationRejected) Error() string {
	return fmt.Sprintf("query rejected: %s", e.Reason)
}

// ErrDispatchFailed is returned when a collaborator call fails. The
// underlying cause is preserved.
type ErrDispatchFailed struct {
	Cause error
}

func (e *ErrDispatchFailed) Error() string {
	return fmt.Sprintf("dispatch failed: %v", e.Cause)
}

func (e *ErrDispatchFailed) Unwrap() error {
	return e.Cause
}

// ErrorKind maps a pipeline error to its UI taxonomy kind, or "" for
// errors outside the taxonomy.
func ErrorKind(err error) string {
	var ambiguous *ErrClassificationAmbiguous
	var synthFailed *ErrSynthesisFailed
	var malformed *ErrSynthesisMalformed
	var rejected *ErrValidationRejected
	var dispatch *ErrDispatchFailed

	switch {
	case errors.As(err, &ambiguous):
		return ErrorKindClassificationAmbiguous
	case errors.As(err, &synthFailed):
		return ErrorKindSynthesisFailed
	case errors.As(err, &malformed):
		return ErrorKindSynthesisMalformed
	case errors.As(err, &rejected):
		return ErrorKindValidationRejected
	case errors.As(err, &dispatch):
		return ErrorKindDispatchFailed
	}
	return ""
}
