package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypePermission    ErrorType = "permission"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeUpstreamQuota ErrorType = "upstream_quota"
	ErrorTypeMalformed     ErrorType = "malformed_response"
	ErrorTypeExternal      ErrorType = "external_api"
	ErrorTypeDatabase      ErrorType = "database"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypeTimeout       ErrorType = "timeout"
)

// AppError represents an application error with additional context
type AppError struct {
	Type       ErrorType
	Message    string
	Code       string
	Internal   error
	Context    map[string]interface{}
	Source     string
	RetryAfter int // seconds; only meaningful for rate limit errors
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Internal, target)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRetryAfter sets the retry hint returned to the client
func (e *AppError) WithRetryAfter(seconds int) *AppError {
	e.RetryAfter = seconds
	return e
}

// HTTPStatus maps the error type to the externally visible status code
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypePermission:
		return http.StatusUnauthorized
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the message safe to echo to the client. Internal
// error text (provider responses, credentials) is never included.
func (e *AppError) UserMessage() string {
	return e.Message
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}

	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}

	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  source,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   source,
		Context:  make(map[string]interface{}),
	}
}

// quotaSignals are phrases that identify provider-side throttling in
// upstream error text. Matching is a fallback for providers that do not
// expose structured error codes.
var quotaSignals = []string{
	"quota",
	"rate limit",
	"429",
	"resource exhausted",
	"resource_exhausted",
}

// isUpstreamQuota reports whether err looks like provider-side throttling
func isUpstreamQuota(err error) bool {
	text := strings.ToLower(err.Error())
	for _, s := range quotaSignals {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// Classify converts any raised condition into an AppError with a stable
// external taxonomy. AppErrors pass through unchanged; upstream quota
// signals are separated from generic invocation failures so the client
// can tell "service busy" from "something broke".
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrorTypeTimeout, "TIMEOUT", "The analysis service took too long to respond. Please try again.")
	}

	if isUpstreamQuota(err) {
		return Wrap(err, ErrorTypeUpstreamQuota, "UPSTREAM_QUOTA", "AI service is busy right now. Please try again in a moment.")
	}

	return Wrap(err, ErrorTypeExternal, "UPSTREAM_ERROR", "Something went wrong while processing your request. Please try again.")
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle processes an error according to its type
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		h.handleAppError(ctx, appErr)
	} else {
		h.handleGenericError(ctx, err)
	}
}

// handleAppError handles AppError instances
func (h *Handler) handleAppError(ctx context.Context, err *AppError) {
	switch err.Type {
	case ErrorTypeValidation, ErrorTypePermission, ErrorTypeRateLimit:
		h.logger.WarnContext(ctx, "Request rejected", err.LogFields()...)
	case ErrorTypeUpstreamQuota:
		h.logger.WarnContext(ctx, "Upstream throttling", err.LogFields()...)
	case ErrorTypeMalformed, ErrorTypeExternal, ErrorTypeDatabase, ErrorTypeInternal, ErrorTypeTimeout:
		h.logger.ErrorContext(ctx, "Critical error", err.LogFields()...)
	default:
		h.logger.ErrorContext(ctx, "Unknown error type", err.LogFields()...)
	}
}

// handleGenericError handles generic errors
func (h *Handler) handleGenericError(ctx context.Context, err error) {
	h.logger.ErrorContext(ctx, "Unhandled error", "error", err.Error())
}

// Predefined errors
var (
	ErrInvalidInput      = New(ErrorTypeValidation, "INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized      = New(ErrorTypePermission, "UNAUTHORIZED", "Authentication required")
	ErrRateLimitExceeded = New(ErrorTypeRateLimit, "RATE_LIMIT", "Too many requests. Please slow down.")
	ErrMalformedResponse = New(ErrorTypeMalformed, "MALFORMED_RESPONSE", "Could not understand the AI response. Please try again.")
	ErrTimeout           = New(ErrorTypeTimeout, "TIMEOUT", "Operation timed out")
	ErrInternalServer    = New(ErrorTypeInternal, "INTERNAL", "Internal server error")
)

// Convenience functions for common errors
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, "VALIDATION", message)
}

func NewRateLimitError(retryAfter int) *AppError {
	return New(ErrorTypeRateLimit, "RATE_LIMIT", "Too many requests. Please slow down.").
		WithRetryAfter(retryAfter)
}

func NewDatabaseError(err error) *AppError {
	return Wrap(err, ErrorTypeDatabase, "DB_ERROR", "Database operation failed")
}

func NewExternalAPIError(err error, api string) *AppError {
	return Wrap(err, ErrorTypeExternal, "EXTERNAL_API", fmt.Sprintf("%s API error", api)).
		WithContext("api", api)
}

func NewMalformedResponseError(err error) *AppError {
	return Wrap(err, ErrorTypeMalformed, "MALFORMED_RESPONSE", "Could not understand the AI response. Please try again.")
}

func NewInternalError(err error) *AppError {
	return Wrap(err, ErrorTypeInternal, "INTERNAL", "Internal server error")
}
