package apperrors

import (
	"context"
	"fmt"
	"net/http"
)

// Layer identifies where in the stack an error originated.
type Layer string

const (
	LayerRoute      Layer = "route"
	LayerDomain     Layer = "domain"
	LayerRepository Layer = "repository"
)

// ErrorType classifies an error for HTTP mapping and logging.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation_error"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeRateLimited ErrorType = "rate_limited"
	ErrorTypeDatabase    ErrorType = "database_error"
	ErrorTypeInternal    ErrorType = "internal_error"
)

// AppError is the typed error carried across layers.
type AppError struct {
	Layer     Layer
	Type      ErrorType
	Message   string
	Code      string
	RequestID string
	Cause     error
}

// New builds an AppError, capturing the request id from context when bound.
func New(ctx context.Context, layer Layer, errType ErrorType, message string, cause error, code string) *AppError {
	return &AppError{
		Layer:     layer,
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestIDFrom(ctx),
		Cause:     cause,
	}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s/%s]: %v", e.Message, e.Layer, e.Type, e.Cause)
	}
	return fmt.Sprintf("%s [%s/%s]", e.Message, e.Layer, e.Type)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error type to a status code.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case ErrorTypeDatabase:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type requestIDKey struct{}

// WithRequestID binds a request id to the context for error construction.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the bound request id, or "".
func RequestIDFrom(ctx context.Context) string {
	return requestIDFrom(ctx)
}

func requestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
