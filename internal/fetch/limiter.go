package fetch

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter throttles fetches per-host using golang.org/x/time/rate's token
// bucket implementation. Keyed by host rather
// than by company since two companies sharing a vendor domain should still
// share one budget against that vendor's server.
type Limiter struct {
	mu        sync.Mutex
	perSecond rate.Limit
	burst     int
	perHost   map[string]*rate.Limiter
}

func NewLimiter(perSecond float64) *Limiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Limiter{
		perSecond: rate.Limit(perSecond),
		burst:     1,
		perHost:   make(map[string]*rate.Limiter),
	}
}

func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}

	l.mu.Lock()
	lim, ok := l.perHost[host]
	if !ok {
		lim = rate.NewLimiter(l.perSecond, l.burst)
		l.perHost[host] = lim
	}
	l.mu.Unlock()

	return lim.Wait(ctx)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
