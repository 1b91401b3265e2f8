package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrAuth            = &Error{Kind: KindAuth}
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrServerRejection = &Error{Kind: KindServer}
)

// Error is the single failure type surfaced by the client.
type Error struct {
	Kind    Kind
	Op      string // e.g. "upload flashcards"
	Status  int    // HTTP status, 0 when no response was received
	Message string // human readable detail
	Err     error  // underlying cause, if any
}

func (e *Error) Error() string {
	var what string
	switch e.Kind {
	case KindValidation:
		what = "invalid request"
	case KindAuth:
		what = "authentication required"
	case KindNetwork:
		what = "network failure"
	case KindServer:
		what = "server rejected request"
	default:
		what = "request failed"
	}
	if e.Status != 0 {
		what = fmt.Sprintf("%s (status %d)", what, e.Status)
	}

	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg != "" {
		what += ": " + msg
	}
	if e.Op != "" {
		return fmt.Sprintf("failed to %s: %s", e.Op, what)
	}
	return what
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Status == 0 && t.Message == "" && t.Err == nil
}

// Retryable reports whether repeating the same request could succeed without
// the user changing anything: connectivity failures, throttling and 5xx.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork:
		return true
	case KindServer:
		return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}
