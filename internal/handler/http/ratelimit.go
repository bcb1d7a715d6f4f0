package http

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP for the public endpoints.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	trusted []*net.IPNet
	now     func() time.Time
	log     *zap.Logger
}

// NewRateLimiter creates a limiter allowing perMinute requests per client with the
// given burst. Clients idle longer than idleTTL are forgotten by Cleanup.
func NewRateLimiter(perMinute, burst int, idleTTL time.Duration, log *zap.Logger) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60.0)
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   limit,
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
		log:     log,
	}
}

// SetTrustedProxies sets the peers (CIDRs or single IPs) whose forwarding headers
// are believed. Without trusted proxies clients are keyed by the connection address.
func (rl *RateLimiter) SetTrustedProxies(proxies []string) error {
	nets := make([]*net.IPNet, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return fmt.Errorf("invalid trusted proxy %q", p)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		nets = append(nets, n)
	}
	rl.trusted = nets
	return nil
}

func (rl *RateLimiter) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range rl.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// clientKey returns the address a request is limited by. Forwarding headers are
// only read when the peer is a trusted proxy; X-Forwarded-For is walked from the
// right and the first hop not added by a trusted proxy wins.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !rl.isTrusted(peer) {
		return peer
	}

	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !rl.isTrusted(hop) {
				return hop
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return peer
}

// Allow consumes a token for ip. When the bucket is empty it returns false and the
// number of seconds until the next token.
func (rl *RateLimiter) Allow(ip string) (bool, int) {
	now := rl.now()

	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	if c.limiter.AllowN(now, 1) {
		return true, 0
	}

	if rl.limit <= 0 {
		return false, 1
	}
	wait := (1 - c.limiter.TokensAt(now)) / float64(rl.limit)
	sec := int(math.Ceil(wait))
	if sec < 1 {
		sec = 1
	}
	return false, sec
}

// Cleanup drops clients idle for longer than the idle TTL.
func (rl *RateLimiter) Cleanup() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.idleTTL {
			delete(rl.clients, ip)
		}
	}
}

// CleanupLoop runs Cleanup periodically until stop is closed.
func (rl *RateLimiter) CleanupLoop(stop <-chan struct{}) {
	interval := rl.idleTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			rl.Cleanup()
		case <-stop:
			return
		}
	}
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Limit wraps a handler with the per-client limit.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := rl.clientKey(r)
		allowed, retryAfter := rl.Allow(ip)
		if !allowed {
			rl.log.Debug("rate limit exceeded", zap.String("ip", ip))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	}
}
