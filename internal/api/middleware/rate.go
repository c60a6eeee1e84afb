package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// Entries idle longer than clientTTL are dropped so the per-IP map cannot
// grow without bound. The sweep runs lazily from the request path.
const (
	clientTTL     = 3 * time.Minute
	sweepInterval = time.Minute
)

type limiterPool struct {
	mu        sync.Mutex
	clients   map[string]*poolEntry
	cfg       RateLimitConfig
	lastSweep time.Time
}

type poolEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	return &limiterPool{
		clients:   make(map[string]*poolEntry),
		cfg:       cfg,
		lastSweep: time.Now(),
	}
}

// get returns the limiter for an IP, creating it on first sight and
// sweeping idle entries when the interval has passed.
func (p *limiterPool) get(ip string, now time.Time) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if now.Sub(p.lastSweep) >= sweepInterval {
		p.sweep(now)
	}

	entry, ok := p.clients[ip]
	if !ok {
		entry = &poolEntry{
			limiter: rate.NewLimiter(rate.Limit(p.cfg.RequestsPerSecond), p.cfg.Burst),
		}
		p.clients[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops entries idle past the TTL. Caller holds mu.
func (p *limiterPool) sweep(now time.Time) {
	for ip, entry := range p.clients {
		if now.Sub(entry.lastSeen) > clientTTL {
			delete(p.clients, ip)
		}
	}
	p.lastSweep = now
}

func (p *limiterPool) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// RateLimit creates a per-IP rate limiting middleware. The compositor event
// feed is chatty, so limits default well above interactive rates.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	pool := newLimiterPool(cfg)

	return func(c *gin.Context) {
		limiter := pool.get(c.ClientIP(), time.Now())

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
