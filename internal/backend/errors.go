package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a backend failure.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindUnknown      Kind = "unknown"
)

// Error is the tagged error returned by every backend implementation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches sentinel kinds so callers can write errors.Is(err, backend.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
)

// NotFound builds a not-found error for op.
func NotFound(op, message string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

// Conflict builds a conflict error for op.
func Conflict(op, message string) error {
	return &Error{Kind: KindConflict, Op: op, Message: message}
}

// Unauthorized builds an unauthorized error for op.
func Unauthorized(op, message string) error {
	return &Error{Kind: KindUnauthorized, Op: op, Message: message}
}

// Wrap tags err as unknown unless it already carries a backend kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: KindUnknown, Op: op, Err: err}
}

// KindOf reports the kind of err, KindUnknown for untagged errors.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) && be.Kind != "" {
		return be.Kind
	}
	return KindUnknown
}

// Message returns the backend-reported message without the op prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var be *Error
	if errors.As(err, &be) {
		if be.Message != "" {
			return be.Message
		}
		if be.Err != nil {
			return be.Err.Error()
		}
		return string(be.Kind)
	}
	return err.Error()
}
