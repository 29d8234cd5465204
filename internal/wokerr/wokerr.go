// Package wokerr defines the taxonomy of error kinds and the *Error
// wrapper that carries one, so callers can branch on Kind rather than
// matching strings. The config package and the storage facade's
// not-found errors use it; the other packages return plain wrapped
// errors, which the IPC layer reports under KindIPC.
package wokerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error without naming the specific entity involved.
type Kind string

const (
	KindInput         Kind = "input"
	KindNotFound      Kind = "not_found"
	KindStateConflict Kind = "state_conflict"
	KindConcurrency   Kind = "concurrency"
	KindDurability    Kind = "durability"
	KindIPC           Kind = "ipc"
	KindLifecycle     Kind = "lifecycle"
)

// Error wraps an underlying error with a Kind and the entity it
// concerns: an issue id, a file path, a prefix, whatever names the
// specific thing.
type Error struct {
	Kind   Kind
	Entity string
	Err    error
}

func (e *Error) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Kind, e.Entity, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error from a Kind, entity, and message.
func New(kind Kind, entity, msg string) *Error {
	return &Error{Kind: kind, Entity: entity, Err: errors.New(msg)}
}

// Wrap constructs an *Error from a Kind, entity, and an underlying error.
func Wrap(kind Kind, entity string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Entity: entity, Err: err}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
