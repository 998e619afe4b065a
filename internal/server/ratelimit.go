// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	agenterr "github.com/Ritika-Bitcot/agent-poc/pkg/errors"
)

const (
	defaultMaxVisitors  = 10000
	staleVisitorAfter   = 10 * time.Minute
	visitorSweepEvery   = 5 * time.Minute
	rateLimitedResponse = "rate limit exceeded, please retry shortly"
)

// RateLimitConfig configures per-client limits on the chat endpoints.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client IP. Zero disables limiting.
	RequestsPerSecond float64
	// Burst is the maximum burst size per client IP.
	Burst int
	// MaxVisitors caps how many client IPs are tracked. Zero means 10000.
	MaxVisitors int
}

// Validate checks the RateLimitConfig and applies defaults.
func (c *RateLimitConfig) Validate() error {
	if c.RequestsPerSecond < 0 {
		return agenterr.Errorf(agenterr.CodeServerConfigInvalid,
			"rate limit requests per second must not be negative (got %g)", c.RequestsPerSecond)
	}
	if c.RequestsPerSecond > 0 && c.Burst <= 0 {
		return agenterr.Errorf(agenterr.CodeServerConfigInvalid,
			"rate limit burst must be positive when rate is set (got burst=%d, rate=%g)",
			c.Burst, c.RequestsPerSecond)
	}
	if c.MaxVisitors < 0 {
		return agenterr.Errorf(agenterr.CodeServerConfigInvalid,
			"rate limit max visitors must not be negative (got %d)", c.MaxVisitors)
	}
	if c.MaxVisitors == 0 {
		c.MaxVisitors = defaultMaxVisitors
	}
	return nil
}

type visitorEntry struct {
	tokens     float64
	lastSeen   time.Time
	lastRefill time.Time
}

// rateLimiter is a token bucket per client key.
type rateLimiter struct {
	cfg    RateLimitConfig
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitorEntry
}

func newRateLimiter(cfg RateLimitConfig, logger *slog.Logger) *rateLimiter {
	return &rateLimiter{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		visitors: make(map[string]*visitorEntry),
	}
}

func (l *rateLimiter) enabled() bool {
	return l.cfg.RequestsPerSecond > 0
}

// allow spends one token for key and reports whether the request may proceed.
func (l *rateLimiter) allow(key string) bool {
	if !l.enabled() {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitorEntry{tokens: float64(l.cfg.Burst), lastRefill: now}
		l.visitors[key] = v
	}
	v.lastSeen = now

	v.tokens += now.Sub(v.lastRefill).Seconds() * l.cfg.RequestsPerSecond
	if burst := float64(l.cfg.Burst); v.tokens > burst {
		v.tokens = burst
	}
	v.lastRefill = now

	if v.tokens < 1 {
		l.logger.Warn("rate limit exceeded", "client", key)
		return false
	}
	v.tokens--
	return true
}

// sweep drops stale visitors and enforces MaxVisitors, oldest first.
func (l *rateLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	type entry struct {
		key      string
		lastSeen time.Time
	}
	now := l.now()
	entries := make([]entry, 0, len(l.visitors))
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > staleVisitorAfter {
			delete(l.visitors, key)
			continue
		}
		entries = append(entries, entry{key: key, lastSeen: v.lastSeen})
	}

	if l.cfg.MaxVisitors <= 0 || len(entries) <= l.cfg.MaxVisitors {
		return
	}
	slices.SortFunc(entries, func(a, b entry) int { return a.lastSeen.Compare(b.lastSeen) })
	evict := len(entries) - l.cfg.MaxVisitors
	for _, e := range entries[:evict] {
		delete(l.visitors, e.key)
	}
	l.logger.Warn("rate limiter visitor cap enforced",
		"evicted", evict, "max_visitors", l.cfg.MaxVisitors, "remaining", len(l.visitors))
}

// run sweeps periodically until done is closed.
func (l *rateLimiter) run(done <-chan struct{}) {
	if !l.enabled() {
		return
	}
	ticker := time.NewTicker(visitorSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-done:
			return
		}
	}
}

type clientIPContextKey struct{}

// clientIPContextMiddleware exposes the client IP to huma handlers, which
// only see the request context. It runs after RealIP.
func clientIPContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPContextKey{}, clientIPFromRemoteAddr(r.RemoteAddr))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIPFromRemoteAddr strips the port so clients are limited per IP
// rather than per connection.
func clientIPFromRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
