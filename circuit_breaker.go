package agriintel

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig holds circuit breaker configuration.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive transient failures that opens the breaker.
	FailureThreshold uint32
	// RecoveryTimeout is how long the breaker stays open before probing.
	RecoveryTimeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
	// Interval clears the closed-state counts periodically; zero never clears.
	Interval time.Duration
}

// circuitBreaker guards network attempts of one service. Only retryable
// failures count against it, so 4xx answers never open the circuit.
type circuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func newCircuitBreaker(name string, config CircuitBreakerConfig, logger Logger, metrics *MetricsCollector) *circuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.HalfOpenRequests == 0 {
		config.HalfOpenRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: config.HalfOpenRequests,
		Interval:    config.Interval,
		Timeout:     config.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "service", name, "from", from.String(), "to", to.String())
			metrics.RecordCircuitBreakerState(name, to)
		},
	}

	return &circuitBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// execute runs fn through the breaker, translating rejections into CIRCUIT_OPEN.
func (b *circuitBreaker) execute(fn func() error) error {
	if b == nil {
		return fn()
	}
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &ServiceError{Message: "Service temporarily unavailable (circuit open)", Code: CodeCircuitOpen, Cause: err}
	}
	return err
}

func (b *circuitBreaker) state() gobreaker.State {
	if b == nil {
		return gobreaker.StateClosed
	}
	return b.cb.State()
}
