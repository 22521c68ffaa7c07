package agriintel

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CacheConfig controls response caching for GET requests.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	MaxSize int
}

// RateLimitConfig allows Requests per Window for each method:endpoint pair.
// Requests == 0 disables limiting.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// ServiceConfig is fixed for the life of a BaseService.
type ServiceConfig struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Cache      CacheConfig
	RateLimit  RateLimitConfig
}

// DefaultServiceConfig returns the settings used when a factory has no overrides.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		BaseURL:    "http://localhost:3000/api",
		Timeout:    10 * time.Second,
		Retries:    3,
		RetryDelay: time.Second,
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
			MaxSize: 100,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
	}
}

// Validate reports every invalid setting at once.
func (c ServiceConfig) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, errors.New("baseURL must be set"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("baseURL %q must be an absolute URL", c.BaseURL))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.Retries < 0 {
		errs = append(errs, errors.New("retries must be non-negative"))
	}
	if c.Retries > 100 {
		errs = append(errs, errors.New("retries > 100 may cause excessive resource usage"))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, errors.New("retryDelay must be non-negative"))
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			errs = append(errs, errors.New("cache ttl must be positive when cache is enabled"))
		}
		if c.Cache.MaxSize <= 0 {
			errs = append(errs, errors.New("cache maxSize must be positive when cache is enabled"))
		}
	}
	if c.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("rateLimit requests must be non-negative"))
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rateLimit window must be positive when limiting is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid service configuration: %w", errors.Join(errs...))
	}
	return nil
}

// RequestOptions describes one call through BaseService.
type RequestOptions struct {
	// Method defaults to GET.
	Method  string
	Params  url.Values
	Body    any
	Headers http.Header
	// CacheTTL overrides the service cache TTL for this GET.
	CacheTTL time.Duration
	// SkipCache bypasses both cache lookup and cache store.
	SkipCache bool
	// Route labels metrics and spans, e.g. /animals/{id}. Defaults to the
	// endpoint path.
	Route string
}

func (o RequestOptions) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return o.Method
}

// ResponseMetadata accompanies every ServiceResponse.
type ResponseMetadata struct {
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"requestId"`
	Duration  time.Duration `json:"duration,omitempty"`
	Cached    bool          `json:"cached,omitempty"`
	CacheAge  time.Duration `json:"cacheAge,omitempty"`
}

// ServiceResponse is the envelope every request resolves to. Success is true
// exactly when Error is empty, and Data is nil whenever Success is false.
type ServiceResponse[T any] struct {
	Success  bool             `json:"success"`
	Data     *T               `json:"data"`
	Error    string           `json:"error,omitempty"`
	Code     ErrorCode        `json:"code,omitempty"`
	Message  string           `json:"message,omitempty"`
	Metadata ResponseMetadata `json:"metadata"`
	// Err keeps the typed failure for errors.Is / errors.As.
	Err error `json:"-"`
}

func successResponse[T any](data *T, meta ResponseMetadata) ServiceResponse[T] {
	return ServiceResponse[T]{Success: true, Data: data, Metadata: meta}
}

func failureResponse[T any](err error, meta ResponseMetadata) ServiceResponse[T] {
	se := AsServiceError(err)
	msg := se.Message
	if msg == "" {
		msg = string(se.Code)
	}
	return ServiceResponse[T]{
		Success:  false,
		Error:    msg,
		Code:     se.Code,
		Metadata: meta,
		Err:      se,
	}
}

// HealthCheckResult is the outcome of probing a service's health endpoint.
type HealthCheckResult struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Latency  time.Duration     `json:"latency"`
	Error    string            `json:"error,omitempty"`
}

// Healthy reports whether the probe succeeded.
func (h HealthCheckResult) Healthy() bool {
	return h.Status == StatusHealthy
}

// OverallMetrics aggregates a service's request counters.
type OverallMetrics struct {
	Uptime              time.Duration `json:"uptime"`
	TotalRequests       int64         `json:"totalRequests"`
	FailedRequests      int64         `json:"failedRequests"`
	AverageResponseTime time.Duration `json:"averageResponseTime"`
}

// HealthMetrics is the read-only view returned by BaseService.HealthMetrics.
type HealthMetrics struct {
	Status  string         `json:"status"`
	Overall OverallMetrics `json:"overall"`
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)
