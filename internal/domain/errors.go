package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindUnknownProduct      ErrorKind = "unknown_product"
	KindValidation          ErrorKind = "validation"
	KindInsufficientStock   ErrorKind = "insufficient_stock"
	KindUpstreamTimeout     ErrorKind = "upstream_timeout"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindConflict            ErrorKind = "conflict"
	KindInternal            ErrorKind = "internal"
)

// Error is the single error type surfaced by the engine. Callers branch on
// Kind via errors.Is against the sentinels below.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels (no message) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrUnknownProduct      = &Error{Kind: KindUnknownProduct}
	ErrValidation          = &Error{Kind: KindValidation}
	ErrInsufficientStock   = &Error{Kind: KindInsufficientStock}
	ErrUpstreamTimeout     = &Error{Kind: KindUpstreamTimeout}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrConflict            = &Error{Kind: KindConflict}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func UnknownProduct(format string, args ...any) *Error {
	return newError(KindUnknownProduct, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func InsufficientStock(format string, args ...any) *Error {
	return newError(KindInsufficientStock, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func UpstreamTimeout(err error, format string, args ...any) *Error {
	e := newError(KindUpstreamTimeout, format, args...)
	e.Err = err
	return e
}

func UpstreamUnavailable(err error, format string, args ...any) *Error {
	e := newError(KindUpstreamUnavailable, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first domain error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the domain message when present, else err.Error().
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Error()
	}
	return err.Error()
}
