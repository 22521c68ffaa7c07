package agriintel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/MorokaPrince/AgriIntelV3-sub000"
	maxResponseBytes    = 10 * 1024 * 1024
	defaultHealthPath   = "/health"
)

// BaseService runs every request of one API family through the resilience
// pipeline: cache, rate limit, de-duplication, retry with timeout, and the
// response envelope. Its cache, limiter and in-flight registry belong to the
// instance alone. It is safe for concurrent use.
type BaseService struct {
	name           string
	config         ServiceConfig
	httpClient     *http.Client
	logger         Logger
	metrics        *MetricsCollector
	tracer         trace.Tracer
	requestID      func() string
	now            func() time.Time
	sleep          Sleeper
	retryConfig    RetryConfig
	retry          *RetryExecutor
	breakerConfig  *CircuitBreakerConfig
	breaker        *circuitBreaker
	healthEndpoint string
	healthTimeout  time.Duration
	defaultHeaders http.Header

	cache   *Cache[json.RawMessage]
	limiter *RateLimiter
	dedupe  *Deduplicator[json.RawMessage]

	startedAt         time.Time
	requestCount      atomic.Int64
	errorCount        atomic.Int64
	totalResponseTime atomic.Int64
}

// NewBaseService validates config and builds a service named name.
func NewBaseService(name string, config ServiceConfig, options ...Option) (*BaseService, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("service %s: %w", name, err)
	}

	s := &BaseService{
		name:           name,
		config:         config,
		httpClient:     &http.Client{},
		logger:         discardLogger(),
		tracer:         otel.Tracer(instrumentationName),
		requestID:      uuid.NewString,
		now:            time.Now,
		sleep:          ContextSleep,
		healthEndpoint: defaultHealthPath,
		healthTimeout:  5 * time.Second,
		defaultHeaders: make(http.Header),
		retryConfig: RetryConfig{
			MaxRetries:    config.Retries,
			BaseDelay:     config.RetryDelay,
			BackoffFactor: 2,
			MaxDelay:      10 * time.Second,
		},
	}

	for _, option := range options {
		option(s)
	}

	s.cache = NewCache[json.RawMessage](config.Cache.MaxSize)
	s.cache.now = s.now
	s.limiter = NewRateLimiter(config.RateLimit.Requests, config.RateLimit.Window)
	s.limiter.now = s.now
	s.dedupe = NewDeduplicator[json.RawMessage]()
	s.retry = NewRetryExecutor(s.retryConfig, s.sleep, s.observeRetry)
	if s.breakerConfig != nil {
		s.breaker = newCircuitBreaker(name, *s.breakerConfig, s.logger, s.metrics)
	}
	s.startedAt = s.now()

	return s, nil
}

// Name returns the service family name.
func (s *BaseService) Name() string { return s.name }

// Config returns the configuration the service was built with.
func (s *BaseService) Config() ServiceConfig { return s.config }

// Request sends a request through svc and decodes the JSON payload into T.
// It never panics or returns an error: failures are reported in the envelope.
func Request[T any](ctx context.Context, svc *BaseService, endpoint string, opts RequestOptions) ServiceResponse[T] {
	return run(ctx, svc, endpoint, opts, func(raw json.RawMessage) (*T, error) {
		var data T
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, &ServiceError{Message: "Invalid response payload", Code: CodeUnknown, Cause: err}
		}
		return &data, nil
	})
}

// Do is Request without decoding; Data holds the raw JSON payload.
func (s *BaseService) Do(ctx context.Context, endpoint string, opts RequestOptions) ServiceResponse[json.RawMessage] {
	return run(ctx, s, endpoint, opts, func(raw json.RawMessage) (*json.RawMessage, error) {
		c := json.RawMessage(bytes.Clone(raw))
		return &c, nil
	})
}

func run[T any](ctx context.Context, s *BaseService, endpoint string, opts RequestOptions, decode func(json.RawMessage) (*T, error)) (resp ServiceResponse[T]) {
	began := time.Now()
	method := strings.ToUpper(opts.method())
	path := endpointPath(endpoint)
	route := opts.Route
	if route == "" {
		route = path
	}
	meta := ResponseMetadata{Timestamp: s.now(), RequestID: s.requestID()}

	ctx, span := s.tracer.Start(ctx, "agriintel.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("agriintel.service", s.name),
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.String("http.route", route),
			attribute.String("agriintel.request_id", meta.RequestID),
		),
	)
	s.metrics.RecordRequestStart(s.name)
	s.logger.Debug("Starting request", "service", s.name, "requestID", meta.RequestID, "method", method, "endpoint", endpoint)

	defer func() {
		if r := recover(); r != nil {
			resp = failureResponse[T](fmt.Errorf("request panicked: %v", r), meta)
		}
		duration := time.Since(began)
		resp.Metadata.Duration = duration
		s.finish(span, method, route, resp.Success, resp.Metadata.Cached, resp.Err, duration)
	}()

	res, err := s.execute(ctx, method, endpoint, route, opts, meta.RequestID)
	var data *T
	if err == nil {
		data, err = decode(res.raw)
	}
	if err != nil {
		return failureResponse[T](err, meta)
	}

	if res.storeKey != "" {
		s.cache.Set(res.storeKey, res.raw, res.ttl)
		s.metrics.RecordCacheSize(s.name, s.cache.Size())
	}
	meta.Cached = res.cached
	meta.CacheAge = res.cacheAge
	return successResponse(data, meta)
}

func (s *BaseService) finish(span trace.Span, method, route string, success, cached bool, err error, duration time.Duration) {
	s.requestCount.Add(1)
	s.totalResponseTime.Add(int64(duration))
	s.metrics.RecordRequestEnd(s.name)
	s.metrics.RecordRequest(s.name, method, route, success, duration)

	span.SetAttributes(attribute.Bool("agriintel.cached", cached))
	if !success {
		s.errorCount.Add(1)
		se := AsServiceError(err)
		s.metrics.RecordError(s.name, se.Code)
		s.logger.Warn("Request failed", "service", s.name, "method", method, "endpoint", route, "code", se.Code, "error", se.Message)
		span.RecordError(se)
		span.SetStatus(codes.Error, se.Message)
	}
	span.End()
}

// pipelineResult is what execute hands back to run. storeKey is set only for the
// caller that performed a cacheable fetch; run stores the payload once it
// has decoded.
type pipelineResult struct {
	raw      json.RawMessage
	cached   bool
	cacheAge time.Duration
	storeKey string
	ttl      time.Duration
}

// execute walks the pipeline: cache, rate limit, de-duplication, then the
// retried network call.
func (s *BaseService) execute(ctx context.Context, method, endpoint, route string, opts RequestOptions, requestID string) (pipelineResult, error) {
	cacheable := method == http.MethodGet && s.config.Cache.Enabled && !opts.SkipCache
	path := endpointPath(endpoint)

	var cacheKey string
	if cacheable {
		cacheKey = CacheKey(method, endpoint, opts.Params)
		if entry, ok := s.cache.Entry(cacheKey); ok {
			s.metrics.RecordCacheHit(s.name)
			s.logger.Debug("Cache hit", "service", s.name, "requestID", requestID, "endpoint", path)
			return pipelineResult{raw: entry.Data, cached: true, cacheAge: s.now().Sub(entry.Timestamp)}, nil
		}
		s.metrics.RecordCacheMiss(s.name)
		s.logger.Debug("Cache miss", "service", s.name, "requestID", requestID, "endpoint", path)
	}

	rlKey := rateLimitKey(method, endpoint)
	if !s.limiter.Allow(rlKey) {
		s.metrics.RecordRateLimited(s.name, method, route)
		s.logger.Warn("Rate limit exceeded", "service", s.name, "requestID", requestID, "key", rlKey)
		return pipelineResult{}, NewRateLimitError("Rate limit exceeded. Please slow down and try again shortly.", 0)
	}

	body, err := encodeBody(method, opts.Body)
	if err != nil {
		return pipelineResult{}, &ServiceError{Message: "Invalid request body", Code: CodeBadRequest, Cause: err}
	}

	owner := false
	raw, err, _ := s.dedupe.Do(ctx, dedupeKey(method, endpoint, body, opts), func() (json.RawMessage, error) {
		owner = true
		return s.fetch(ctx, method, endpoint, body, opts, requestID)
	})
	if !owner {
		s.metrics.RecordDeduplicationHit(s.name)
		s.logger.Debug("Deduplication hit", "service", s.name, "requestID", requestID, "endpoint", path)
	}
	if err != nil {
		return pipelineResult{}, err
	}

	res := pipelineResult{raw: raw}
	if owner && cacheable {
		res.storeKey = cacheKey
		res.ttl = s.config.Cache.TTL
		if opts.CacheTTL > 0 {
			res.ttl = opts.CacheTTL
		}
	}
	return res, nil
}

func (s *BaseService) fetch(ctx context.Context, method, endpoint string, body []byte, opts RequestOptions, requestID string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := s.retry.Execute(ctx, func(ctx context.Context) error {
		return s.breaker.execute(func() error {
			var err error
			raw, err = s.attempt(ctx, method, endpoint, body, opts, requestID)
			return err
		})
	})
	return raw, err
}

// attempt performs one HTTP round trip bounded by the configured timeout.
func (s *BaseService) attempt(ctx context.Context, method, endpoint string, body []byte, opts RequestOptions, requestID string) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	req, err := s.newRequest(attemptCtx, method, endpoint, body, opts, requestID)
	if err != nil {
		return nil, &ServiceError{Message: "Invalid request", Code: CodeBadRequest, Cause: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, s.transportError(ctx, attemptCtx, "Network request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, s.transportError(ctx, attemptCtx, "Failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrorFromResponse(resp.StatusCode, resp.Header, payload)
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(payload) {
		return nil, &ServiceError{Message: "Invalid JSON response", Code: CodeUnknown, StatusCode: resp.StatusCode}
	}
	return json.RawMessage(payload), nil
}

// transportError tells a caller cancellation from the attempt timeout firing.
func (s *BaseService) transportError(parent, attemptCtx context.Context, message string, err error) error {
	if parent.Err() != nil {
		return AsServiceError(parent.Err())
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		te := NewTimeoutError(fmt.Sprintf("Request timed out after %v", s.config.Timeout))
		te.Cause = err
		return te
	}
	return NewNetworkError(message, err)
}

func (s *BaseService) newRequest(ctx context.Context, method, endpoint string, body []byte, opts RequestOptions, requestID string) (*http.Request, error) {
	path, query := splitEndpoint(endpoint, opts.Params)
	target := strings.TrimRight(s.config.BaseURL, "/") + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}

	for k, vs := range s.defaultHeaders {
		req.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range opts.Headers {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent())
	}
	return req, nil
}

func (s *BaseService) observeRetry(attempt int, delay time.Duration, err error) {
	se := AsServiceError(err)
	s.metrics.RecordRetry(s.name, se.Code)
	s.logger.Info("Scheduling retry", "service", s.name, "attempt", attempt, "maxRetries", s.retryConfig.MaxRetries, "backoff", delay, "code", se.Code)
}

func encodeBody(method string, body any) ([]byte, error) {
	if body == nil || method == http.MethodGet || method == http.MethodHead {
		return nil, nil
	}
	switch b := body.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return json.Marshal(body)
	}
}

func endpointPath(endpoint string) string {
	path, _, _ := strings.Cut(endpoint, "?")
	return path
}

// HealthCheck probes the service's health endpoint directly, bypassing the
// cache, rate limiter and retries.
func (s *BaseService) HealthCheck(ctx context.Context) HealthCheckResult {
	return s.probe(ctx, s.healthEndpoint, nil)
}

// probe GETs endpoint once with params. Transport errors are reported
// without the request URL, which may carry credentials.
func (s *BaseService) probe(ctx context.Context, endpoint string, params url.Values) HealthCheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.healthTimeout)
	defer cancel()

	began := time.Now()
	result := HealthCheckResult{Status: StatusUnhealthy, Services: map[string]string{s.name: "down"}}

	req, err := s.newRequest(ctx, http.MethodGet, endpoint, nil, RequestOptions{Params: params}, s.requestID())
	if err != nil {
		result.Error = "invalid health request"
		return result
	}

	resp, err := s.httpClient.Do(req)
	result.Latency = time.Since(began)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		result.Error = err.Error()
		return result
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		result.Error = fmt.Sprintf("health endpoint returned HTTP %d", resp.StatusCode)
		return result
	}

	var body struct {
		Services map[string]string `json:"services"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)); err == nil && json.Unmarshal(data, &body) == nil {
		for name, status := range body.Services {
			result.Services[name] = status
		}
	}

	result.Status = StatusHealthy
	result.Services[s.name] = "up"
	return result
}

// HealthMetrics reports request counters; the service is degraded once 10%
// or more of its requests have failed.
func (s *BaseService) HealthMetrics() HealthMetrics {
	total := s.requestCount.Load()
	failed := s.errorCount.Load()

	overall := OverallMetrics{
		Uptime:         s.now().Sub(s.startedAt),
		TotalRequests:  total,
		FailedRequests: failed,
	}
	status := StatusHealthy
	if total > 0 {
		overall.AverageResponseTime = time.Duration(s.totalResponseTime.Load() / total)
		if float64(failed)/float64(total) >= 0.1 {
			status = StatusDegraded
		}
	}
	return HealthMetrics{Status: status, Overall: overall}
}

// CacheStats returns the response cache counters.
func (s *BaseService) CacheStats() CacheStats {
	return s.cache.Stats()
}

// ClearCache drops every cached response.
func (s *BaseService) ClearCache() {
	s.cache.Clear()
	s.metrics.RecordCacheSize(s.name, 0)
}

// InvalidateCache drops cached GET responses whose path starts with pathPrefix.
func (s *BaseService) InvalidateCache(pathPrefix string) int {
	removed := s.cache.DeletePrefix(http.MethodGet + ":" + pathPrefix)
	s.metrics.RecordCacheSize(s.name, s.cache.Size())
	return removed
}

// Reset clears the cache and all rate limit windows.
func (s *BaseService) Reset() {
	s.ClearCache()
	s.limiter.Reset()
}
