package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory groups errors for logging and retry decisions.
type ErrorCategory string

const (
	CategoryValidation  ErrorCategory = "validation"
	CategoryNotFound    ErrorCategory = "not_found"
	CategoryNetwork     ErrorCategory = "network"
	CategoryTimeout     ErrorCategory = "timeout"
	CategoryRateLimit   ErrorCategory = "rate_limit"
	CategoryExternalAPI ErrorCategory = "external_api"
	CategoryInternal    ErrorCategory = "internal"
)

// AppError wraps an errbuilder error with the HTTP mapping the API layer
// needs to serialize it.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory
	HTTPStatus int
	Details    map[string]string
	Timestamp  time.Time
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Category, e.ErrBuilder.Msg)
}

func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// errorResponse is the wire envelope for a failed request. The embedded
// builder is never marshaled directly: its encoder dereferences the cause,
// and client-fault errors carry none.
type errorResponse struct {
	Status    int               `json:"status"`
	Category  ErrorCategory     `json:"category"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func (e *AppError) response() errorResponse {
	return errorResponse{
		Status:    e.HTTPStatus,
		Category:  e.Category,
		Message:   e.ErrBuilder.Msg,
		Details:   e.Details,
		Timestamp: e.Timestamp,
	}
}

// NewAppError creates an AppError from errbuilder with additional context.
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError creates a bad-request error for malformed client input.
func NewValidationError(message string, details ...interface{}) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	appErr := NewAppError(builder, CategoryValidation, http.StatusBadRequest)
	if len(details) > 0 {
		appErr.Details = map[string]string{"validation": fmt.Sprintf("%v", details[0])}
	}
	return appErr
}

// NewNotFoundError reports a project with no stored score.
func NewNotFoundError(project string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("no score for project %q", project))

	appErr := NewAppError(builder, CategoryNotFound, http.StatusNotFound)
	appErr.Details = map[string]string{"project": project}
	return appErr
}

// NewNetworkError creates a network error using errbuilder.
func NewNetworkError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryNetwork, http.StatusBadGateway)
}

// NewTimeoutError creates a timeout error using errbuilder.
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewRateLimitError creates a rate limit error with a retry hint.
func NewRateLimitError(retryAfter string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Rate limit exceeded")

	appErr := NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
	appErr.Details = map[string]string{"retry_after": retryAfter}
	return appErr
}

// NewExternalAPIError wraps a failure from an upstream collector source
// (registry, GitHub, Twitter, StackExchange, scorecard).
func NewExternalAPIError(source string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("%s API error", source))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryExternalAPI, http.StatusBadGateway)
	appErr.Details = map[string]string{"source": source}
	return appErr
}

// NewInternalError creates an internal server error using errbuilder.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error")

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)
	appErr.Details = map[string]string{"reason": message}
	return appErr
}

// ErrorHandler is a Gin middleware that serializes the last error pushed
// onto the context as a structured JSON envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			appErr := ToAppError(c.Errors.Last().Err)
			LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr.response())
		}
	}
}

// ToAppError converts any error to an AppError.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "network is unreachable") {
		return NewNetworkError("Network connection failed", err)
	}

	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("Request cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("Request deadline exceeded", err)
	}
	if strings.Contains(errMsg, "timeout") {
		return NewTimeoutError("Request timeout", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// LogError logs an error with request context at a level matching its category.
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetHeader("X-Request-ID"),
	)

	switch err.Category {
	case CategoryValidation, CategoryNotFound, CategoryRateLimit:
		logEntry.Warn(err.ErrBuilder.Msg)
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Info(err.ErrBuilder.Msg, "cause", cause)
		} else {
			logEntry.Info(err.ErrBuilder.Msg)
		}
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Error(err.ErrBuilder.Msg, "cause", cause)
		} else {
			logEntry.Error(err.ErrBuilder.Msg)
		}
	}
}

// IsRetryable reports whether a collector should retry after this error.
func IsRetryable(err error) bool {
	switch ToAppError(err).Category {
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI, CategoryRateLimit:
		return true
	default:
		return false
	}
}

// SafeClose closes a resource and logs instead of returning the error.
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource", "resource", resourceName, "error", err)
	}
}
