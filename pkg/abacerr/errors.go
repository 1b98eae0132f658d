// Package abacerr defines the closed set of tagged error kinds the
// decision engine can produce. Condition and policy evaluation never
// raise: a failed comparison is data returned to the combiner, not a
// control-flow escape. Only the facade and the storage layer surface
// fatal errors, and always as one of these kinds so callers can branch
// on Kind() instead of matching strings.
package abacerr

import "errors"

// Kind is a tag identifying why an operation failed.
type Kind string

const (
	// AttributeMissing means the condition's attribute was not present
	// in the resolved attribute map.
	AttributeMissing Kind = "AttributeMissing"
	// AttributeTypeError means a value failed to parse as the expected
	// type, or the operator does not apply to that type.
	AttributeTypeError Kind = "AttributeTypeError"
	// ConditionMalformed means the operator or attribute category is
	// not one of the known enums.
	ConditionMalformed Kind = "ConditionMalformed"
	// ResourceNotFound means the resource referenced by the request
	// does not exist or is soft-deleted.
	ResourceNotFound Kind = "ResourceNotFound"
	// AuditWriteError means the append-only audit record could not be
	// persisted; the evaluation that produced it must fail.
	AuditWriteError Kind = "AuditWriteError"
	// StoreUnavailable means a backing store call failed for reasons
	// unrelated to the data itself (connection, timeout, driver error).
	StoreUnavailable Kind = "StoreUnavailable"
	// EvaluationTimeout means the caller-supplied deadline elapsed
	// before a decision could be produced.
	EvaluationTimeout Kind = "EvaluationTimeout"
)

// Error is the tagged error value carried through the stack.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an *Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As reports whether err is (or wraps) an *Error and returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
