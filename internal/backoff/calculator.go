package backoff

import "time"

// Calculator binds a Strategy to a fixed set of parameters.
type Calculator struct {
	strategy Strategy
	base     time.Duration
	maxDelay time.Duration
	factor   float64
	jitter   float64
}

// NewCalculator returns a calculator; a nil strategy means Exponential.
func NewCalculator(strategy Strategy, base, maxDelay time.Duration, factor, jitter float64) *Calculator {
	if strategy == nil {
		strategy = Exponential{}
	}
	return &Calculator{
		strategy: strategy,
		base:     base,
		maxDelay: maxDelay,
		factor:   factor,
		jitter:   jitter,
	}
}

// Delay returns the wait before retry number attempt.
func (c *Calculator) Delay(attempt int) time.Duration {
	return c.strategy.Calculate(attempt, c.base, c.maxDelay, c.factor, c.jitter)
}

// Strategy returns the configured strategy.
func (c *Calculator) Strategy() Strategy {
	return c.strategy
}
