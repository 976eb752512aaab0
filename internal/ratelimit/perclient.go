package ratelimit

import (
	"sync"
	"time"
)

// PerClient keeps one token bucket per client key (typically the remote IP),
// created lazily on first use.
type PerClient struct {
	rate  float64
	burst int

	mu      sync.Mutex
	buckets map[string]*TokenBucket
}

// NewPerClient limits each key to requestsPerMinute with the given burst.
// A burst <= 0 defaults to requestsPerMinute, approximating a "N per minute"
// window.
func NewPerClient(requestsPerMinute, burst int) *PerClient {
	if burst <= 0 {
		burst = requestsPerMinute
	}
	return &PerClient{
		rate:    float64(requestsPerMinute) / 60.0,
		burst:   burst,
		buckets: make(map[string]*TokenBucket),
	}
}

// Allow reports whether the request for key may proceed at now.
func (p *PerClient) Allow(key string, now time.Time) bool {
	p.mu.Lock()
	tb, ok := p.buckets[key]
	if !ok {
		tb = NewTokenBucket(p.rate, p.burst)
		p.buckets[key] = tb
	}
	p.mu.Unlock()
	return tb.Allow(now)
}
