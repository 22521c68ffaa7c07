package agriintel

import (
	"context"
	"errors"
	"time"

	"github.com/MorokaPrince/AgriIntelV3-sub000/internal/backoff"
)

// RetryConfig controls the retry executor.
type RetryConfig struct {
	MaxRetries    int
	BaseDelay     time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
	// Jitter adds up to this fraction of each backoff delay at random. Zero keeps delays exact.
	Jitter   float64
	Strategy backoff.Strategy
}

// DefaultRetryConfig returns 3 retries starting at 1s, doubling, capped at 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		BaseDelay:     time.Second,
		BackoffFactor: 2,
		MaxDelay:      10 * time.Second,
	}
}

// Sleeper waits for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryObserver is told about every wait the executor schedules.
type RetryObserver func(attempt int, delay time.Duration, err error)

// RetryExecutor runs an attempt function up to MaxRetries+1 times.
//
// Rate limit errors and other retryable errors take different branches: a
// rate limit wait uses the server's RetryAfter (or BaseDelay) and leaves the
// backoff exponent untouched, while any other retryable failure sleeps the
// next step of the exponential sequence. Non-retryable errors end the loop at
// once.
type RetryExecutor struct {
	config     RetryConfig
	calculator *backoff.Calculator
	sleep      Sleeper
	observe    RetryObserver
}

// NewRetryExecutor builds an executor; a nil sleeper means ContextSleep.
func NewRetryExecutor(config RetryConfig, sleep Sleeper, observe RetryObserver) *RetryExecutor {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.BackoffFactor <= 0 {
		config.BackoffFactor = 2
	}
	if sleep == nil {
		sleep = ContextSleep
	}
	return &RetryExecutor{
		config:     config,
		calculator: backoff.NewCalculator(config.Strategy, config.BaseDelay, config.MaxDelay, config.BackoffFactor, config.Jitter),
		sleep:      sleep,
		observe:    observe,
	}
}

// Config returns the executor configuration.
func (r *RetryExecutor) Config() RetryConfig {
	return r.config
}

// Execute calls attempt until it succeeds, fails permanently, or attempts run
// out, returning the last error in the latter cases.
func (r *RetryExecutor) Execute(ctx context.Context, attempt func(ctx context.Context) error) error {
	var lastErr error
	failures := 0

	for i := 0; i <= r.config.MaxRetries; i++ {
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) {
			return err
		}
		if i == r.config.MaxRetries {
			break
		}

		var delay time.Duration
		var se *ServiceError
		if errors.As(err, &se) && se.Code == CodeRateLimit {
			delay = se.RetryAfter
			if delay <= 0 {
				delay = r.config.BaseDelay
			}
		} else {
			delay = r.calculator.Delay(failures)
			failures++
		}

		if r.observe != nil {
			r.observe(i+1, delay, err)
		}
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return lastErr
		}
	}

	return lastErr
}
