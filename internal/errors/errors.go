// Package errors declares the error taxonomy shared by every subsystem:
// Timeout, NetworkError, InvalidResponse, HTTPError, UPnPError,
// PreconditionFailed, and SubscriptionLost. Each constructor wraps an
// underlying cause with github.com/pkg/errors so that %+v printing keeps a
// stack trace across goroutine and package boundaries.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which taxonomy bucket an error belongs to, so callers can
// branch on it without string matching.
type Kind int

const (
	KindTimeout Kind = iota
	KindNetworkError
	KindInvalidResponse
	KindHTTPError
	KindUPnPError
	KindPreconditionFailed
	KindSubscriptionLost
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindNetworkError:
		return "NetworkError"
	case KindInvalidResponse:
		return "InvalidResponse"
	case KindHTTPError:
		return "HttpError"
	case KindUPnPError:
		return "UPnPError"
	case KindPreconditionFailed:
		return "PreconditionFailed"
	case KindSubscriptionLost:
		return "SubscriptionLost"
	default:
		return "Unknown"
	}
}

// Error is the concrete type every taxonomy constructor below returns.
// Status and Code are only meaningful for KindHTTPError and KindUPnPError
// respectively.
type Error struct {
	Kind    Kind
	Status  int
	Code    int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Cause lets github.com/pkg/errors.Cause unwrap through Error the same way
// it unwraps any other errors.Wrap-produced chain.
func (e *Error) Cause() error { return e.cause }

func newError(kind Kind, cause error, format string, args ...interface{}) *Error {
	e := &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if cause != nil {
		e.cause = errors.WithStack(cause)
	}
	return e
}

func Timeout(cause error, format string, args ...interface{}) *Error {
	return newError(KindTimeout, cause, format, args...)
}

func NetworkError(cause error, format string, args ...interface{}) *Error {
	return newError(KindNetworkError, cause, format, args...)
}

func InvalidResponse(cause error, format string, args ...interface{}) *Error {
	return newError(KindInvalidResponse, cause, format, args...)
}

func HTTPError(status int, format string, args ...interface{}) *Error {
	e := newError(KindHTTPError, nil, format, args...)
	e.Status = status
	return e
}

func UPnPError(code int, message string) *Error {
	e := newError(KindUPnPError, nil, "%s", message)
	e.Code = code
	return e
}

func PreconditionFailed(format string, args ...interface{}) *Error {
	return newError(KindPreconditionFailed, nil, format, args...)
}

func SubscriptionLost(cause error, format string, args ...interface{}) *Error {
	return newError(KindSubscriptionLost, cause, format, args...)
}

// Wrap attaches additional context to err using pkg/errors, preserving its
// taxonomy Kind when err (or something in its chain) is an *Error.
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, fmt.Sprintf(format, args...))
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
