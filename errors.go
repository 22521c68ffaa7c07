package agriintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorCode identifies a class of failure in the service taxonomy.
type ErrorCode string

const (
	CodeBadRequest  ErrorCode = "BAD_REQUEST"
	CodeAuth        ErrorCode = "AUTH_ERROR"
	CodeForbidden   ErrorCode = "FORBIDDEN"
	CodeNotFound    ErrorCode = "NOT_FOUND"
	CodeRateLimit   ErrorCode = "RATE_LIMIT_ERROR"
	CodeServer      ErrorCode = "SERVER_ERROR"
	CodeNetwork     ErrorCode = "NETWORK_ERROR"
	CodeTimeout     ErrorCode = "TIMEOUT_ERROR"
	CodeUnknown     ErrorCode = "UNKNOWN_ERROR"
	CodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"
)

const maxRetryAfter = time.Hour

// Sentinel errors usable with errors.Is against any *ServiceError of the same code.
var (
	ErrNetwork     = &ServiceError{Code: CodeNetwork}
	ErrTimeout     = &ServiceError{Code: CodeTimeout}
	ErrRateLimited = &ServiceError{Code: CodeRateLimit}
	ErrAuth        = &ServiceError{Code: CodeAuth}
	ErrCircuitOpen = &ServiceError{Code: CodeCircuitOpen}
)

// ServiceError is the single error type produced by the request pipeline.
// Code selects the branch taken by the retry executor; Retryable is fixed by
// the constructor that created the error.
type ServiceError struct {
	Message    string
	Code       ErrorCode
	StatusCode int
	Retryable  bool
	// RetryAfter is the server supplied wait for rate limit errors, zero if absent.
	RetryAfter time.Duration
	Cause      error
}

// NewServiceError builds a generic error of the given code.
func NewServiceError(message string, code ErrorCode, statusCode int, retryable bool) *ServiceError {
	return &ServiceError{Message: message, Code: code, StatusCode: statusCode, Retryable: retryable}
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(message string, cause error) *ServiceError {
	return &ServiceError{Message: message, Code: CodeNetwork, Retryable: true, Cause: cause}
}

// NewTimeoutError reports an attempt that exceeded the configured timeout.
func NewTimeoutError(message string) *ServiceError {
	return &ServiceError{Message: message, Code: CodeTimeout, StatusCode: http.StatusRequestTimeout, Retryable: true}
}

// NewRateLimitError reports a local or remote rate limit denial.
func NewRateLimitError(message string, retryAfter time.Duration) *ServiceError {
	return &ServiceError{
		Message:    message,
		Code:       CodeRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Retryable:  true,
		RetryAfter: retryAfter,
	}
}

// NewAuthenticationError reports rejected or missing credentials.
func NewAuthenticationError(message string) *ServiceError {
	return &ServiceError{Message: message, Code: CodeAuth, StatusCode: http.StatusUnauthorized}
}

// Error implements error.
func (e *ServiceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches any *ServiceError carrying the same code.
func (e *ServiceError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*ServiceError); ok {
		return e.Code == t.Code
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ServiceError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Code: %s\n", e.Code)
	fmt.Fprintf(&b, "Message: %s\n", e.Message)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "Status Code: %d\n", e.StatusCode)
	}
	fmt.Fprintf(&b, "Retryable: %t\n", e.Retryable)
	if e.RetryAfter > 0 {
		fmt.Fprintf(&b, "Retry After: %v\n", e.RetryAfter)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, "Cause: %v\n", e.Cause)
	}
	return b.String()
}

// AsServiceError converts any error into the taxonomy. Errors that are already
// *ServiceError are returned as is; context errors become timeouts (deadline)
// or fatal unknown errors (cancellation); everything else is UNKNOWN_ERROR.
func AsServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		e := NewTimeoutError("request timed out")
		e.Cause = err
		return e
	}
	if errors.Is(err, context.Canceled) {
		return &ServiceError{Message: "request cancelled", Code: CodeUnknown, Cause: err}
	}
	return &ServiceError{Message: err.Error(), Code: CodeUnknown, Cause: err}
}

// IsRetryable reports whether err may succeed on a later attempt. Plain errors
// outside the taxonomy are treated as transient, cancellation never is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return true
}

// errorBody is the error shape returned by the dashboard route handlers.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ErrorFromResponse classifies a non-2xx HTTP response. A JSON body carrying
// "message" (or else "error") replaces the default message.
func ErrorFromResponse(statusCode int, header http.Header, body []byte) *ServiceError {
	var se *ServiceError
	switch {
	case statusCode == http.StatusBadRequest:
		se = NewServiceError("Bad request", CodeBadRequest, statusCode, false)
	case statusCode == http.StatusUnauthorized:
		se = NewAuthenticationError("Authentication required")
	case statusCode == http.StatusForbidden:
		se = NewServiceError("Access forbidden", CodeForbidden, statusCode, false)
	case statusCode == http.StatusNotFound:
		se = NewServiceError("Resource not found", CodeNotFound, statusCode, false)
	case statusCode == http.StatusTooManyRequests:
		se = NewRateLimitError("Rate limit exceeded", parseRetryAfter(header.Get("Retry-After")))
	case statusCode >= 500 && statusCode <= 504:
		se = NewServiceError("Server error", CodeServer, statusCode, true)
	default:
		se = NewServiceError(fmt.Sprintf("Unexpected HTTP status %d", statusCode), CodeUnknown, statusCode, false)
	}

	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		if eb.Message != "" {
			se.Message = eb.Message
		} else if eb.Error != "" {
			se.Message = eb.Error
		}
	}
	return se
}

// parseRetryAfter accepts delay-seconds or an HTTP-date, capped at one hour.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0
		}
		delay := time.Duration(seconds) * time.Second
		if delay > maxRetryAfter {
			delay = maxRetryAfter
		}
		return delay
	}

	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay <= 0 {
			return 0
		}
		return min(delay, maxRetryAfter)
	}

	return 0
}
