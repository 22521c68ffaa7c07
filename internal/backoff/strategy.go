package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the wait before a retry.
type Strategy interface {
	// Calculate returns the delay preceding retry number attempt (0-based).
	Calculate(attempt int, base, maxDelay time.Duration, factor, jitter float64) time.Duration
}

// Exponential grows the delay as base*factor^attempt, capped at maxDelay.
// A jitter fraction in (0, 1] adds up to that share of the delay at random,
// never exceeding maxDelay.
type Exponential struct{}

// Calculate implements Strategy.
func (Exponential) Calculate(attempt int, base, maxDelay time.Duration, factor, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// base*2^30 already overflows any sane cap
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(base) * Pow(factor, attempt))
	if delay < 0 || (maxDelay > 0 && delay > maxDelay) {
		delay = maxDelay
	}

	jitter = clampJitter(jitter)
	if jitter > 0 {
		delay += time.Duration(float64(delay) * jitter * rand.Float64())
		if maxDelay > 0 && delay > maxDelay {
			delay = maxDelay
		}
	}
	return delay
}

// Decorrelated picks a delay uniformly in [base, min(maxDelay, base*3^attempt)].
type Decorrelated struct{}

// Calculate implements Strategy.
func (Decorrelated) Calculate(attempt int, base, maxDelay time.Duration, _, _ float64) time.Duration {
	if attempt <= 0 {
		return base
	}
	if attempt > 10 {
		attempt = 10
	}

	lower := float64(base)
	upper := lower * Pow(3.0, attempt)
	if maxDelay > 0 && (upper > float64(maxDelay) || upper < 0) {
		upper = float64(maxDelay)
	}
	if upper < lower {
		upper = lower
	}

	return time.Duration(lower + rand.Float64()*(upper-lower))
}

func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

// Pow computes base^exponent for a non-negative integer exponent.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
