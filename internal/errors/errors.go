// Package errors defines the failure taxonomy of an evaluation run.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure
type Kind string

const (
	// KindConfiguration covers a missing or placeholder recipient, missing
	// required columns and a missing source table
	KindConfiguration Kind = "configuration"
	// KindSourceAccess covers an unreachable or malformed tabular source
	KindSourceAccess Kind = "source_access"
	// KindTransport covers a failed notification send
	KindTransport Kind = "transport"
)

// Error is a classified failure. Every kind is fatal for the invocation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration wraps err as a configuration failure
func Configuration(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

// Configurationf builds a configuration failure from a format string
func Configurationf(op, format string, args ...interface{}) error {
	return Configuration(op, fmt.Errorf(format, args...))
}

// SourceAccess wraps err as a source access failure
func SourceAccess(op string, err error) error {
	return &Error{Kind: KindSourceAccess, Op: op, Err: err}
}

// Transport wraps err as a notification transport failure
func Transport(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
