// Package vcserrors implements the error taxonomy the timeline store
// surfaces to its callers: the command surface, the checkpoint engine
// and the persistence layer all report failures through this type so
// the external dispatch collaborator can map a single `Kind` onto its
// own wire-level error codes.
package vcserrors

import (
	"errors"
	"fmt"
)

// Kind identifies the taxonomy of failures a caller may need to
// distinguish. It is not a type per se (the wire encoding is the
// dispatch collaborator's concern) but it is how callers branch.
type Kind string

const (
	// MalformedFile: parse failure, bounds violation, unknown pointer width.
	MalformedFile Kind = "MalformedFile"
	// NotFound: missing checkpoint/branch/block by id.
	NotFound Kind = "NotFound"
	// Conflict: duplicate branch name.
	Conflict Kind = "Conflict"
	// Forbidden: attempt to delete the `main` branch.
	Forbidden Kind = "Forbidden"
	// CorruptStore: checkpoint references an absent block, or ancestry cycles.
	CorruptStore Kind = "CorruptStore"
	// StorageError: underlying I/O or transaction failure.
	StorageError Kind = "StorageError"
	// SchemaMismatch: incompatible store version.
	SchemaMismatch Kind = "SchemaMismatch"
)

// Error is the concrete error value carried across package boundaries.
// It wraps an optional cause and never discards it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message and no wrapped cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around an existing cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrapf builds an Error around an existing cause with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the taxonomy Kind of err, or "" if err is nil or not
// one of ours.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err's Kind matches kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
