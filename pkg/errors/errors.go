package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable, client facing error identifier written into the error envelope.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeTransientConflict Code = "TRANSIENT_CONFLICT"
	CodeIdempotency       Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit         Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDependency        Code = "DEPENDENCY_ERROR"
)

// Metadata drives how responses render a code.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

type metaOpt func(*Metadata)

var (
	retryable   metaOpt = func(m *Metadata) { m.Retryable = true }
	withDetails metaOpt = func(m *Metadata) { m.DetailsAllowed = true }
)

func define(status int, public string, opts ...metaOpt) Metadata {
	m := Metadata{HTTPStatus: status, PublicMessage: public}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

var registry = map[Code]Metadata{
	CodeValidation:        define(http.StatusBadRequest, "validation failed", withDetails),
	CodeUnauthorized:      define(http.StatusUnauthorized, "authentication required"),
	CodeNotFound:          define(http.StatusNotFound, "resource not found"),
	CodeConflict:          define(http.StatusConflict, "conflict detected", withDetails),
	CodeTransientConflict: define(http.StatusServiceUnavailable, "concurrent update detected, retry the request", retryable),
	CodeIdempotency:       define(http.StatusConflict, "idempotency key reused", withDetails),
	CodeRateLimit:         define(http.StatusTooManyRequests, "rate limit exceeded"),
	CodeInternal:          define(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:        define(http.StatusServiceUnavailable, "dependency unavailable", retryable, withDetails),
}

// MetadataFor falls back to the internal error entry for unknown codes.
func MetadataFor(code Code) Metadata {
	meta, ok := registry[code]
	if !ok {
		return registry[CodeInternal]
	}
	return meta
}

// Error is the typed error services return; handlers never build envelopes themselves.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return string(e.code) + ": " + e.message
	default:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the provided typed code anywhere in its chain.
func IsCode(err error, code Code) bool {
	return As(err).codeIs(code)
}

func (e *Error) codeIs(code Code) bool {
	return e != nil && e.code == code
}
