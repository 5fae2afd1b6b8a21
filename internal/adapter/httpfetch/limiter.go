package httpfetch

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiters hands out one token bucket per host.
type hostLimiters struct {
	mu       sync.Mutex
	perHost  rate.Limit
	limiters map[string]*rate.Limiter
}

func newHostLimiters(perSecond float64) *hostLimiters {
	if perSecond <= 0 {
		return nil
	}
	return &hostLimiters{
		perHost:  rate.Limit(perSecond),
		limiters: make(map[string]*rate.Limiter),
	}
}

// wait blocks until a request to host is allowed. A nil receiver never blocks.
func (h *hostLimiters) wait(ctx context.Context, host string) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.perHost, 1)
		h.limiters[host] = l
	}
	h.mu.Unlock()
	return l.Wait(ctx)
}
