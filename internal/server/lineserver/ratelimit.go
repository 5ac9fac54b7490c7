package lineserver

import (
	"net"
	"sync"

	"golang.org/x/time/rate"
)

// limiterRegistry hands out one token bucket per client IP, so a noisy
// client cannot starve the pool for everyone on other addresses.
type limiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// newLimiterRegistry creates a registry allowing perSecond commands
// per IP with an equal burst. Returns nil when perSecond <= 0, which
// disables rate limiting.
func newLimiterRegistry(perSecond int) *limiterRegistry {
	if perSecond <= 0 {
		return nil
	}
	return &limiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    perSecond,
	}
}

// get returns the limiter for an address, creating it on first use.
func (r *limiterRegistry) get(addr net.Addr) *rate.Limiter {
	if r == nil {
		return nil
	}

	ip := addr.String()
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[ip]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters[ip] = l
	}
	return l
}
