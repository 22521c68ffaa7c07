package agriintel

import (
	"sync"
	"time"
)

// RateLimitEntry is the fixed-window counter kept per rate limit key.
type RateLimitEntry struct {
	Requests    int
	WindowStart time.Time
	WindowSize  time.Duration
}

// RateLimiter counts requests per key in fixed windows. A window opens on the
// first request for a key and is replaced wholesale by the first request seen
// after it has elapsed.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*RateLimitEntry
	now     func() time.Time
}

// NewRateLimiter allows limit requests per window for each key. A limit of
// zero or less disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*RateLimitEntry),
		now:     time.Now,
	}
}

// Allow reports whether a request for key may proceed and, if so, counts it.
func (rl *RateLimiter) Allow(key string) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]
	if !exists {
		rl.entries[key] = &RateLimitEntry{Requests: 1, WindowStart: now, WindowSize: rl.window}
		return true
	}

	if now.Sub(entry.WindowStart) > entry.WindowSize {
		entry.Requests = 1
		entry.WindowStart = now
		return true
	}

	if entry.Requests < rl.limit {
		entry.Requests++
		return true
	}

	return false
}

// Entry returns a copy of the counter for key.
func (rl *RateLimiter) Entry(key string) (RateLimitEntry, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.entries[key]
	if !exists {
		return RateLimitEntry{}, false
	}
	return *entry, true
}

// Reset forgets every window.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.entries = make(map[string]*RateLimitEntry)
}
