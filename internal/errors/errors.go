package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies an error so the transport layer can pick a status code
// and callers can decide on retries.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthenticated
	KindUnavailable
	KindInvalidInput
)

// Error is the classified error type returned by service operations.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound means a referenced profile/match/record is absent.
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

// Unauthenticated means there is no current identity.
func Unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Msg: msg} }

// Unavailable means the store or network failed; these are retry candidates.
func Unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
}

// InvalidInput means the caller supplied a bad value (empty id, empty message).
func InvalidInput(msg string) error { return &Error{Kind: KindInvalidInput, Msg: msg} }

// Map converts repo/infra errors into classified errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var ce *Error
	if errors.As(err, &ce) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return Unavailable("request timed out", err)

	case errors.Is(err, context.Canceled):
		return Unavailable("request was canceled", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Unavailable("store unreachable", err)
	}

	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf extracts the classification; unclassified errors are internal.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a NotFound-classified error.
func IsNotFound(err error) bool { return KindOf(Map(err)) == KindNotFound }

// IsUnavailable reports whether err should be treated as a transient
// store/network failure. Used by the discovery retry loop.
func IsUnavailable(err error) bool { return KindOf(Map(err)) == KindUnavailable }

// HTTPStatus maps a classified error to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(Map(err)) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
