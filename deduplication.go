package agriintel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/MorokaPrince/AgriIntelV3-sub000/internal/singleflight"
)

// Deduplicator collapses concurrent calls sharing a key onto one execution.
type Deduplicator[T any] struct {
	group *singleflight.Group[T]
}

// NewDeduplicator returns an empty in-flight registry.
func NewDeduplicator[T any]() *Deduplicator[T] {
	return &Deduplicator[T]{group: singleflight.New[T]()}
}

// Do runs fn unless a call with the same key is already running, in which case
// it waits for that call and returns its result. shared is true when the
// result was delivered to more than one caller.
func (d *Deduplicator[T]) Do(ctx context.Context, key string, fn func() (T, error)) (T, error, bool) {
	return d.group.Do(ctx, key, fn)
}

// Pending reports whether a call for key is in flight.
func (d *Deduplicator[T]) Pending(key string) bool {
	_, ok := d.group.Waiters(key)
	return ok
}

// InFlight returns the number of distinct keys currently executing.
func (d *Deduplicator[T]) InFlight() int {
	return d.group.Len()
}

// dedupeKey identifies the same logical request: the cache key plus, for
// requests with a body, a digest of that body.
func dedupeKey(method, endpoint string, body []byte, opts RequestOptions) string {
	key := CacheKey(method, endpoint, opts.Params)
	if method != http.MethodGet && len(body) > 0 {
		sum := sha256.Sum256(body)
		key += "#" + hex.EncodeToString(sum[:8])
	}
	return key
}
