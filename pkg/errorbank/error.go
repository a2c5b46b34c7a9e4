package errorbank

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind enumerates supported application error categories.
type Kind string

const (
	KindBadRequest          Kind = "bad_request"
	KindNotFound            Kind = "not_found"
	KindMethodNotAllowed    Kind = "method_not_allowed"
	KindUnprocessableEntity Kind = "unprocessable_entity"
	KindUnavailable         Kind = "unavailable"
	KindInternal            Kind = "internal"
)

type mapping struct {
	status int
	code   codes.Code
}

var mappings = map[Kind]mapping{
	KindBadRequest:          {http.StatusBadRequest, codes.InvalidArgument},
	KindNotFound:            {http.StatusNotFound, codes.NotFound},
	KindMethodNotAllowed:    {http.StatusMethodNotAllowed, codes.Unimplemented},
	KindUnprocessableEntity: {http.StatusUnprocessableEntity, codes.FailedPrecondition},
	KindUnavailable:         {http.StatusServiceUnavailable, codes.Unavailable},
	KindInternal:            {http.StatusInternalServerError, codes.Internal},
}

// AppError carries a kind, a client-safe message, optional details and the
// underlying cause. Transports render it; the cause is never exposed.
type AppError struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

// Option mutates an AppError during construction.
type Option func(*AppError)

// WithCause attaches an underlying error.
func WithCause(err error) Option {
	return func(e *AppError) { e.cause = err }
}

// WithDetail adds a single named detail value.
func WithDetail(key string, value any) Option {
	return WithDetails(map[string]any{key: value})
}

// WithDetails merges detail values.
func WithDetails(details map[string]any) Option {
	return func(e *AppError) {
		if len(details) == 0 {
			return
		}
		if e.details == nil {
			e.details = make(map[string]any, len(details))
		}
		for k, v := range details {
			e.details[k] = v
		}
	}
}

// New constructs an AppError. Unknown kinds are treated as internal and an
// empty message falls back to the kind name.
func New(kind Kind, message string, opts ...Option) *AppError {
	if _, ok := mappings[kind]; !ok {
		kind = KindInternal
	}
	if message == "" {
		message = string(kind)
	}
	e := &AppError{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BadRequest reports a malformed or incomplete request.
func BadRequest(message string, opts ...Option) *AppError {
	return New(KindBadRequest, message, opts...)
}

// NotFound reports an unknown route or resource.
func NotFound(message string, opts ...Option) *AppError {
	return New(KindNotFound, message, opts...)
}

// Unprocessable reports a well-formed request rejected by storage constraints.
func Unprocessable(message string, opts ...Option) *AppError {
	return New(KindUnprocessableEntity, message, opts...)
}

// Unavailable reports an unreachable dependency.
func Unavailable(message string, opts ...Option) *AppError {
	return New(KindUnavailable, message, opts...)
}

// Internal reports anything else.
func Internal(message string, opts ...Option) *AppError {
	return New(KindInternal, message, opts...)
}

// FromStatus builds an AppError for an HTTP status produced outside the
// handlers, such as router 404/405 responses.
func FromStatus(code int, message string, opts ...Option) *AppError {
	for kind, m := range mappings {
		if m.status == code {
			return New(kind, message, opts...)
		}
	}
	if code >= 400 && code < 500 {
		return New(KindBadRequest, message, opts...)
	}
	return New(KindInternal, message, opts...)
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the error category; internal for a nil error.
func (e *AppError) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *AppError) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *AppError) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// StatusCode resolves the HTTP status for the error kind.
func (e *AppError) StatusCode() int {
	return mappings[e.Kind()].status
}

// GRPCCode maps the error kind onto a gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	return mappings[e.Kind()].code
}

// GRPCStatus lets status.FromError and grpc handlers translate an AppError.
func (e *AppError) GRPCStatus() *status.Status {
	return status.New(e.GRPCCode(), e.Message())
}

// Is reports whether err carries an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind() == kind
}

// From returns the AppError inside err, wrapping anything else as internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal error", WithCause(err))
}
