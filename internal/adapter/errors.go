package adapter

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed search.
type ErrorKind string

const (
	KindInvalidInput ErrorKind = "invalid_input"
	KindCollaborator ErrorKind = "collaborator"
	KindCanceled     ErrorKind = "canceled"
	KindInternal     ErrorKind = "internal"
)

// Error is a failed perform_search call. Debug holds whatever the agent
// wrote to its diagnostic output before failing.
type Error struct {
	Kind  ErrorKind
	Err   error
	Debug string
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Text renders the error the way it is returned to the client.
func (e *Error) Text() string {
	msg := "Error performing search: " + e.Err.Error()
	if e.Debug != "" {
		msg += "\n\nDebug output: " + e.Debug
	}
	return msg
}

func newError(kind ErrorKind, err error, debug string) *Error {
	if kind == KindCollaborator && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		kind = KindCanceled
	}
	return &Error{Kind: kind, Err: err, Debug: debug}
}

// panicError converts a recovered value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
