package agriintel

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// MetricsCollector provides Prometheus metrics for the request pipeline. One
// collector may be shared by several services; every series carries a
// service label. All methods are no-ops on a nil collector.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal     *prometheus.CounterVec
	rateLimitedTotal *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	deduplicationHits *prometheus.CounterVec

	circuitBreakerState *prometheus.GaugeVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector registers the collector's metrics on registerer, or on
// the default registerer when nil.
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agriintel_requests_total",
				Help: "Total number of service requests by outcome",
			},
			[]string{"service", "method", "route", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agriintel_request_duration_seconds",
				Help:    "Duration of service requests in seconds, cache hits included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "route"},
		),
		requestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agriintel_requests_in_flight",
				Help: "Number of service requests currently in flight",
			},
			[]string{"service"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agriintel_retries_total",
				Help: "Total number of retry waits scheduled",
			},
			[]string{"service", "code"},
		),
		rateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agriintel_rate_limited_total",
				Help: "Total number of requests denied by the local rate limiter",
			},
			[]string{"service", "method", "route"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agriintel_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"service"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agriintel_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"service"},
		),
		cacheSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agriintel_cache_size",
				Help: "Current number of entries in cache",
			},
			[]string{"service"},
		),
		deduplicationHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agriintel_deduplication_hits_total",
				Help: "Total number of requests served by another caller's in-flight request",
			},
			[]string{"service"},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agriintel_circuit_breaker_state",
				Help: "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agriintel_errors_total",
				Help: "Total number of failed requests by error code",
			},
			[]string{"service", "code"},
		),
	}
}

// RecordRequest records the final outcome of one request.
func (mc *MetricsCollector) RecordRequest(service, method, route string, success bool, duration time.Duration) {
	if mc == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	mc.requestsTotal.WithLabelValues(service, method, route, outcome).Inc()
	mc.requestDuration.WithLabelValues(service, method, route).Observe(duration.Seconds())
}

// RecordRequestStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(service string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(service).Inc()
}

// RecordRequestEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(service string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(service).Dec()
}

// RecordRetry counts a scheduled retry.
func (mc *MetricsCollector) RecordRetry(service string, code ErrorCode) {
	if mc == nil {
		return
	}
	mc.retriesTotal.WithLabelValues(service, string(code)).Inc()
}

// RecordRateLimited counts a local rate limit denial.
func (mc *MetricsCollector) RecordRateLimited(service, method, route string) {
	if mc == nil {
		return
	}
	mc.rateLimitedTotal.WithLabelValues(service, method, route).Inc()
}

// RecordCacheHit increments the cache hit counter.
func (mc *MetricsCollector) RecordCacheHit(service string) {
	if mc == nil {
		return
	}
	mc.cacheHits.WithLabelValues(service).Inc()
}

// RecordCacheMiss increments the cache miss counter.
func (mc *MetricsCollector) RecordCacheMiss(service string) {
	if mc == nil {
		return
	}
	mc.cacheMisses.WithLabelValues(service).Inc()
}

// RecordCacheSize sets the cache size gauge.
func (mc *MetricsCollector) RecordCacheSize(service string, size int) {
	if mc == nil {
		return
	}
	mc.cacheSize.WithLabelValues(service).Set(float64(size))
}

// RecordDeduplicationHit increments the de-dup hit counter.
func (mc *MetricsCollector) RecordDeduplicationHit(service string) {
	if mc == nil {
		return
	}
	mc.deduplicationHits.WithLabelValues(service).Inc()
}

// RecordCircuitBreakerState sets the breaker gauge.
func (mc *MetricsCollector) RecordCircuitBreakerState(service string, state gobreaker.State) {
	if mc == nil {
		return
	}
	mc.circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordError counts a failed request by code.
func (mc *MetricsCollector) RecordError(service string, code ErrorCode) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(service, string(code)).Inc()
}
