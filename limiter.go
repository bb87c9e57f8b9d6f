package folio

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter rate-limits admin login attempts per IP address using a
// sliding window.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewLoginLimiter creates a LoginLimiter that allows max attempts per window.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		stop:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *LoginLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip, hits := range l.attempts {
			if kept := prune(hits, cutoff); len(kept) == 0 {
				delete(l.attempts, ip)
			} else {
				l.attempts[ip] = kept
			}
		}
		l.mu.Unlock()
	}
}

// Close stops the background cleanup.
func (l *LoginLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

// Allow checks if the IP has not exceeded the limit and records the attempt.
func (l *LoginLimiter) Allow(ip string) bool {
	if !l.Check(ip) {
		return false
	}
	l.Record(ip)
	return true
}

// Check reports whether the IP is below the limit without recording anything.
func (l *LoginLimiter) Check(ip string) bool {
	cutoff := time.Now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.attempts[ip], cutoff)
	l.attempts[ip] = kept
	return len(kept) < l.max
}

// Record registers a failed login attempt for the given IP.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	l.attempts[ip] = append(l.attempts[ip], time.Now())
	l.mu.Unlock()
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// DefaultBucketIdle is how long a contact bucket may go unused before it is
// dropped. A dropped bucket comes back full, so it must be at least the time
// a bucket needs to refill.
const DefaultBucketIdle = 10 * time.Minute

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimiter hands out one token bucket per IP. It throttles contact form
// submissions. Buckets idle for longer than idle are swept in the background
// until Close.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter allows perMinute events per IP with the given burst. A
// non-positive idle uses DefaultBucketIdle.
func NewRateLimiter(perMinute float64, burst int, idle time.Duration) *RateLimiter {
	if idle <= 0 {
		idle = DefaultBucketIdle
	}
	r := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		idle:    idle,
		stop:    make(chan struct{}),
	}
	go r.cleanup()
	return r
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(r.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-r.idle)
		r.mu.Lock()
		for ip, b := range r.buckets {
			if b.seen.Before(cutoff) {
				delete(r.buckets, ip)
			}
		}
		r.mu.Unlock()
	}
}

// Close stops the background sweep.
func (r *RateLimiter) Close() {
	r.once.Do(func() { close(r.stop) })
}

// Allow consumes a token for ip and reports whether one was available.
func (r *RateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.buckets[ip] = b
	}
	b.seen = time.Now()
	return b.limiter.Allow()
}

func (r *RateLimiter) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}
