// Package ratelimit provides token-bucket limiters keyed by an arbitrary
// string such as a client IP or an email address.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Keyed holds one token bucket per key. Idle buckets are evicted by Sweep.
type Keyed struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

// NewKeyed creates a limiter allowing burst events immediately and then
// limit events per second per key.
func NewKeyed(limit rate.Limit, burst int, ttl time.Duration) *Keyed {
	return &Keyed{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
	}
}

// PerMinute converts an events-per-minute figure to a rate.Limit.
func PerMinute(n float64) rate.Limit {
	return rate.Limit(n / 60)
}

// PerSecond converts an events-per-second figure to a rate.Limit.
func PerSecond(n float64) rate.Limit {
	return rate.Limit(n)
}

// Allow reports whether an event for key may happen now.
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than the TTL.
func (k *Keyed) Sweep() {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	for key, b := range k.buckets {
		if now.Sub(b.seen) > k.ttl {
			delete(k.buckets, key)
		}
	}
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// Run sweeps on every interval until stop is closed.
func (k *Keyed) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			k.Sweep()
		case <-stop:
			return
		}
	}
}
