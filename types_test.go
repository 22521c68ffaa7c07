package agriintel

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServiceConfig(t *testing.T) {
	cfg := DefaultServiceConfig()
	assert.Equal(t, "http://localhost:3000/api", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 100, cfg.Cache.MaxSize)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.NoError(t, cfg.Validate())
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServiceConfig)
		want   string
	}{
		{"missing base url", func(c *ServiceConfig) { c.BaseURL = "" }, "baseURL must be set"},
		{"relative base url", func(c *ServiceConfig) { c.BaseURL = "/api" }, "must be an absolute URL"},
		{"zero timeout", func(c *ServiceConfig) { c.Timeout = 0 }, "timeout must be positive"},
		{"negative retries", func(c *ServiceConfig) { c.Retries = -1 }, "retries must be non-negative"},
		{"excessive retries", func(c *ServiceConfig) { c.Retries = 101 }, "retries > 100"},
		{"negative delay", func(c *ServiceConfig) { c.RetryDelay = -time.Second }, "retryDelay must be non-negative"},
		{"cache ttl", func(c *ServiceConfig) { c.Cache.TTL = 0 }, "cache ttl must be positive"},
		{"cache size", func(c *ServiceConfig) { c.Cache.MaxSize = 0 }, "cache maxSize must be positive"},
		{"rate limit requests", func(c *ServiceConfig) { c.RateLimit.Requests = -5 }, "rateLimit requests must be non-negative"},
		{"rate limit window", func(c *ServiceConfig) { c.RateLimit.Window = 0 }, "rateLimit window must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServiceConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestServiceConfigValidateDisabledFeatures(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.Cache = CacheConfig{Enabled: false}
	cfg.RateLimit = RateLimitConfig{}
	cfg.Retries = 0
	assert.NoError(t, cfg.Validate())
}

func TestRequestOptionsMethodDefaultsToGet(t *testing.T) {
	assert.Equal(t, "GET", RequestOptions{}.method())
	assert.Equal(t, "DELETE", RequestOptions{Method: "DELETE"}.method())
}

func TestResponseEnvelopeInvariant(t *testing.T) {
	meta := ResponseMetadata{Timestamp: time.Now(), RequestID: "r1"}

	data := 5
	ok := successResponse(&data, meta)
	assert.True(t, ok.Success)
	assert.Empty(t, ok.Error)
	assert.Equal(t, 5, *ok.Data)
	assert.NoError(t, ok.Err)

	for _, err := range []error{
		NewServiceError("Server error", CodeServer, 500, true),
		errors.New("boom"),
		&ServiceError{Code: CodeForbidden},
	} {
		fail := failureResponse[int](err, meta)
		assert.False(t, fail.Success)
		assert.NotEmpty(t, fail.Error, "failures always carry a message")
		assert.Nil(t, fail.Data)
		assert.Error(t, fail.Err)
	}

	fail := failureResponse[int](&ServiceError{Code: CodeForbidden}, meta)
	assert.Equal(t, "FORBIDDEN", fail.Error)
	assert.Equal(t, CodeForbidden, fail.Code)
}

func TestResponseEnvelopeJSON(t *testing.T) {
	fail := failureResponse[int](NewAuthenticationError("Authentication required"), ResponseMetadata{RequestID: "r1"})
	raw, err := json.Marshal(fail)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Nil(t, decoded["data"])
	assert.Equal(t, "Authentication required", decoded["error"])
	assert.Equal(t, "AUTH_ERROR", decoded["code"])
	assert.NotContains(t, decoded, "Err")
}

func TestHealthCheckResultHealthy(t *testing.T) {
	assert.True(t, HealthCheckResult{Status: StatusHealthy}.Healthy())
	assert.False(t, HealthCheckResult{Status: StatusDegraded}.Healthy())
}
