package agriintel

import (
	"net/http"
	"time"

	"github.com/MorokaPrince/AgriIntelV3-sub000/internal/backoff"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a BaseService.
type Option func(*BaseService)

// WithLogger sets the logger for debug and failure output.
func WithLogger(logger Logger) Option {
	return func(s *BaseService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics through collector.
func WithMetrics(collector *MetricsCollector) Option {
	return func(s *BaseService) {
		s.metrics = collector
	}
}

// WithHTTPClient sets the HTTP client used for every attempt. Timeouts are
// applied per attempt through the request context, not the client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *BaseService) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithTracer sets the OpenTelemetry tracer used for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *BaseService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithRequestIDGenerator sets the function generating X-Request-ID values.
func WithRequestIDGenerator(gen func() string) Option {
	return func(s *BaseService) {
		if gen != nil {
			s.requestID = gen
		}
	}
}

// WithRetryConfig replaces the retry settings derived from ServiceConfig.
func WithRetryConfig(config RetryConfig) Option {
	return func(s *BaseService) {
		s.retryConfig = config
	}
}

// WithBackoff sets the backoff growth factor and the delay cap.
func WithBackoff(factor float64, maxDelay time.Duration) Option {
	return func(s *BaseService) {
		s.retryConfig.BackoffFactor = factor
		s.retryConfig.MaxDelay = maxDelay
	}
}

// WithJitter sets the jitter factor for backoff (0.0 to 1.0).
func WithJitter(f float64) Option {
	return func(s *BaseService) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		s.retryConfig.Jitter = f
	}
}

// WithDecorrelatedJitter switches backoff to the decorrelated jitter strategy.
func WithDecorrelatedJitter() Option {
	return func(s *BaseService) {
		s.retryConfig.Strategy = backoff.Decorrelated{}
	}
}

// WithCircuitBreaker guards network attempts with a circuit breaker.
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(s *BaseService) {
		s.breakerConfig = &config
	}
}

// WithSleeper replaces the wait used between retries.
func WithSleeper(sleep Sleeper) Option {
	return func(s *BaseService) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithClock replaces the time source used by the cache and rate limiter.
func WithClock(now func() time.Time) Option {
	return func(s *BaseService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHealthEndpoint sets the path probed by HealthCheck and its timeout.
func WithHealthEndpoint(path string, timeout time.Duration) Option {
	return func(s *BaseService) {
		if path != "" {
			s.healthEndpoint = path
		}
		if timeout > 0 {
			s.healthTimeout = timeout
		}
	}
}

// WithDefaultHeaders adds headers sent with every request.
func WithDefaultHeaders(headers http.Header) Option {
	return func(s *BaseService) {
		for k, vs := range headers {
			for _, v := range vs {
				s.defaultHeaders.Add(k, v)
			}
		}
	}
}
