package ratelimit

import (
	"strconv"
	"sync"
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	HeaderLimit = "X-RateLimit-Limit"

	// visitors idle longer than this are forgotten
	idleTTL = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerIP is a token bucket per client IP refilled at perMinute/60 per second
// with a burst of perMinute.
type PerIP struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perMinute int
	now       func() time.Time
	lastSweep time.Time
}

// NewPerIP returns nil when perMinute is zero, which disables limiting.
func NewPerIP(perMinute int) *PerIP {
	if perMinute <= 0 {
		return nil
	}
	return &PerIP{visitors: make(map[string]*visitor), perMinute: perMinute, now: time.Now}
}

// Allow consumes one token for ip.
func (l *PerIP) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > idleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60), l.perMinute)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Middleware resolves the client IP, stores it on the request context and
// rejects callers over their budget with 429. A nil limiter only records the IP.
func Middleware(l *PerIP) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		c.Request = c.Request.WithContext(WithClientIP(c.Request.Context(), ip))
		if l == nil {
			c.Next()
			return
		}

		c.Header(HeaderLimit, strconv.Itoa(l.perMinute))
		if !l.Allow(ip) {
			logger.FromGin(c).Warn("rate limit exceeded", "client_ip", ip)
			c.Header("Retry-After", "60")
			err := apperr.RateLimited("rate limit exceeded")
			c.AbortWithStatusJSON(apperr.StatusOf(err), apperr.BodyOf(err))
			return
		}
		c.Next()
	}
}
