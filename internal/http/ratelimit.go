package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter enforces a per-client request budget over a sliding window
// using one token bucket per client address.
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
}

// NewClientLimiter allows max requests per window for each client.
func NewClientLimiter(max int, window time.Duration) *ClientLimiter {
	return &ClientLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(window / time.Duration(max)),
		burst:   max,
	}
}

// Allow reports whether the client may proceed, consuming one token.
func (l *ClientLimiter) Allow(addr string) bool {
	l.mu.Lock()
	cl, ok := l.clients[addr]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[addr] = cl
	}
	cl.lastSeen = time.Now()
	l.mu.Unlock()

	return cl.limiter.Allow()
}

// Prune drops state for clients idle longer than maxIdle and returns how
// many were removed. Run it periodically so the map cannot grow without
// bound.
func (l *ClientLimiter) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for addr, cl := range l.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(l.clients, addr)
			n++
		}
	}
	return n
}
