package agriintel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceErrorMessage(t *testing.T) {
	err := NewServiceError("Resource not found", CodeNotFound, 404, false)
	assert.Equal(t, "NOT_FOUND: Resource not found", err.Error())

	cause := errors.New("connection refused")
	withCause := NewNetworkError("Network request failed", cause)
	assert.Equal(t, "NETWORK_ERROR: Network request failed (connection refused)", withCause.Error())
	assert.ErrorIs(t, withCause, cause)

	var nilErr *ServiceError
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.NoError(t, nilErr.Unwrap())
}

func TestServiceErrorIsMatchesCode(t *testing.T) {
	wrapped := fmt.Errorf("fetch animals: %w", NewTimeoutError("Request timed out after 10s"))
	assert.ErrorIs(t, wrapped, ErrTimeout)
	assert.NotErrorIs(t, wrapped, ErrNetwork)

	var se *ServiceError
	require.ErrorAs(t, wrapped, &se)
	assert.Equal(t, http.StatusRequestTimeout, se.StatusCode)
}

func TestConstructorsRetryability(t *testing.T) {
	assert.True(t, NewNetworkError("x", nil).Retryable)
	assert.True(t, NewTimeoutError("x").Retryable)
	assert.True(t, NewRateLimitError("x", time.Second).Retryable)
	assert.False(t, NewAuthenticationError("x").Retryable)

	rl := NewRateLimitError("slow down", 2*time.Second)
	assert.Equal(t, CodeRateLimit, rl.Code)
	assert.Equal(t, 2*time.Second, rl.RetryAfter)
	assert.Equal(t, http.StatusTooManyRequests, rl.StatusCode)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errors.New("plain failure")))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.True(t, IsRetryable(NewServiceError("Server error", CodeServer, 500, true)))
	assert.False(t, IsRetryable(NewServiceError("Bad request", CodeBadRequest, 400, false)))
}

func TestAsServiceError(t *testing.T) {
	assert.Nil(t, AsServiceError(nil))

	original := NewAuthenticationError("nope")
	assert.Same(t, original, AsServiceError(fmt.Errorf("wrap: %w", original)))

	timeout := AsServiceError(context.DeadlineExceeded)
	assert.Equal(t, CodeTimeout, timeout.Code)
	assert.True(t, timeout.Retryable)

	cancelled := AsServiceError(context.Canceled)
	assert.Equal(t, CodeUnknown, cancelled.Code)
	assert.False(t, cancelled.Retryable)

	unknown := AsServiceError(errors.New("boom"))
	assert.Equal(t, CodeUnknown, unknown.Code)
	assert.Equal(t, "boom", unknown.Message)
}

func TestErrorFromResponse(t *testing.T) {
	tests := []struct {
		status    int
		code      ErrorCode
		message   string
		retryable bool
	}{
		{400, CodeBadRequest, "Bad request", false},
		{401, CodeAuth, "Authentication required", false},
		{403, CodeForbidden, "Access forbidden", false},
		{404, CodeNotFound, "Resource not found", false},
		{429, CodeRateLimit, "Rate limit exceeded", true},
		{500, CodeServer, "Server error", true},
		{502, CodeServer, "Server error", true},
		{503, CodeServer, "Server error", true},
		{504, CodeServer, "Server error", true},
		{418, CodeUnknown, "Unexpected HTTP status 418", false},
		{505, CodeUnknown, "Unexpected HTTP status 505", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := ErrorFromResponse(tt.status, http.Header{}, nil)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.status, err.StatusCode)
		})
	}
}

func TestErrorFromResponseBodyMessage(t *testing.T) {
	err := ErrorFromResponse(400, nil, []byte(`{"message":"tagId is required","error":"validation"}`))
	assert.Equal(t, "tagId is required", err.Message)

	err = ErrorFromResponse(500, nil, []byte(`{"error":"database unavailable"}`))
	assert.Equal(t, "database unavailable", err.Message)

	err = ErrorFromResponse(500, nil, []byte(`<html>oops</html>`))
	assert.Equal(t, "Server error", err.Message)
}

func TestErrorFromResponseRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, ErrorFromResponse(429, h, nil).RetryAfter)

	h.Set("Retry-After", "86400")
	assert.Equal(t, time.Hour, ErrorFromResponse(429, h, nil).RetryAfter, "capped")

	h.Set("Retry-After", "soon")
	assert.Zero(t, ErrorFromResponse(429, h, nil).RetryAfter)

	h.Set("Retry-After", time.Now().Add(30*time.Second).UTC().Format(http.TimeFormat))
	d := ErrorFromResponse(429, h, nil).RetryAfter
	assert.Greater(t, d, 20*time.Second)
	assert.LessOrEqual(t, d, 30*time.Second)

	h.Set("Retry-After", time.Now().Add(24*time.Hour).UTC().Format(http.TimeFormat))
	assert.Equal(t, time.Hour, ErrorFromResponse(429, h, nil).RetryAfter, "dates are capped like seconds")

	h.Set("Retry-After", time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))
	assert.Zero(t, ErrorFromResponse(429, h, nil).RetryAfter)
}

func TestDebugInfo(t *testing.T) {
	err := NewRateLimitError("Rate limit exceeded", 3*time.Second)
	err.Cause = errors.New("upstream")
	info := err.DebugInfo()
	assert.Contains(t, info, "Code: RATE_LIMIT_ERROR")
	assert.Contains(t, info, "Status Code: 429")
	assert.Contains(t, info, "Retryable: true")
	assert.Contains(t, info, "Retry After: 3s")
	assert.Contains(t, info, "Cause: upstream")
}
