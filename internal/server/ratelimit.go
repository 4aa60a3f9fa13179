package server

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/54b3r/leetrag/internal/logging"
)

// Load-endpoint defaults. Every load calls the problem source and the
// embedding provider, so the per-IP budget is small.
const (
	defaultRateLimit = 1
	defaultRateBurst = 5
)

// Idle buckets are dropped after staleAfter; the sweep runs every
// sweepInterval.
const (
	staleAfter    = 5 * time.Minute
	sweepInterval = time.Minute
)

// bucket is one client's token bucket plus its last use.
type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// rateLimiter throttles a handler per client IP.
type rateLimiter struct {
	rps   rate.Limit
	burst int
	log   *slog.Logger

	mu      sync.Mutex
	buckets map[string]*bucket
}

// newRateLimiter returns a limiter and a stop function for its sweeper
// goroutine.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		log:     log,
		buckets: make(map[string]*bucket),
	}

	done := make(chan struct{})
	var once sync.Once
	go func() {
		t := time.NewTicker(sweepInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-t.C:
				rl.sweep(now)
			}
		}
	}()
	return rl, func() { once.Do(func() { close(done) }) }
}

// allow takes a token from ip's bucket, creating the bucket on first use.
func (rl *rateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[ip] = b
	}
	b.seen = now
	rl.mu.Unlock()

	return b.lim.AllowN(now, 1)
}

// sweep drops buckets idle since before now-staleAfter.
func (rl *rateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-staleAfter)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// middleware answers 429 with Retry-After once a client's bucket is empty.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if rl.allow(ip, time.Now()) {
			next.ServeHTTP(w, r)
			return
		}

		logging.FromContext(r.Context()).Warn("load rate limited",
			slog.String("ip", ip),
			slog.Float64("rps", float64(rl.rps)),
			slog.Int("burst", rl.burst),
		)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter(rl.rps)))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
	})
}

// clientIP is the request's remote host. X-Forwarded-For is ignored.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfter is the whole number of seconds until a token refills.
func retryAfter(rps rate.Limit) int {
	if rps <= 0 {
		return 60
	}
	return max(1, int(math.Ceil(1/float64(rps))))
}
