package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const visitorIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket kept in process memory. Idle
// visitors are swept on access, so no background goroutine is needed.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	var (
		visitors  = make(map[string]*visitor)
		mu        sync.Mutex
		lastSweep = time.Now()
	)

	getVisitor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastSweep) > visitorIdleTTL {
			for k, v := range visitors {
				if now.Sub(v.lastSeen) > visitorIdleTTL {
					delete(visitors, k)
				}
			}
			lastSweep = now
		}

		v, exists := visitors[ip]
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(r, b)}
			visitors[ip] = v
		}
		v.lastSeen = now
		return v.limiter
	}

	return func(c *gin.Context) {
		if !getVisitor(c.ClientIP()).Allow() {
			rejectRateLimited(c, 0)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, retryAfter time.Duration) {
	body := gin.H{"error": "rate_limited", "message": "rate limit exceeded"}
	if retryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		body["retry_after"] = retryAfter.Seconds()
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
}

// DistributedRateLimiter is a sliding-window limiter shared by every API
// instance through redis sorted sets.
type DistributedRateLimiter struct {
	redis  *redis.Client
	log    *zap.Logger
	mu     sync.Mutex
	limits map[string]*RateLimit
}

type RateLimit struct {
	Rate    int
	Window  time.Duration
	KeyFunc func(*gin.Context) string
	OnLimit func(*gin.Context)
}

func NewDistributedRateLimiter(redisClient *redis.Client, log *zap.Logger) *DistributedRateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &DistributedRateLimiter{
		redis:  redisClient,
		log:    log,
		limits: make(map[string]*RateLimit),
	}
}

func (rl *DistributedRateLimiter) CreateMiddleware(name string, limit *RateLimit) gin.HandlerFunc {
	rl.mu.Lock()
	rl.limits[name] = limit
	rl.mu.Unlock()

	keyFunc := limit.KeyFunc
	if keyFunc == nil {
		keyFunc = IPKeyFunc
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", name, keyFunc(c))

		allowed, err := rl.checkLimit(c.Request.Context(), key, limit)
		if err != nil {
			// fail open
			rl.log.Warn("Rate limit check failed", zap.String("limit", name), zap.Error(err))
			c.Header("X-RateLimit-Error", "true")
			c.Next()
			return
		}

		if !allowed {
			if limit.OnLimit != nil {
				limit.OnLimit(c)
				c.Abort()
				return
			}
			c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
			c.Header("X-RateLimit-Window", limit.Window.String())
			rejectRateLimited(c, limit.Window)
			return
		}

		c.Next()
	}
}

// slidingWindow trims the window, then records the request only when it
// fits, so rejected retries do not keep a client locked out.
var slidingWindow = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '0', ARGV[2])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

func (rl *DistributedRateLimiter) checkLimit(ctx context.Context, key string, limit *RateLimit) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - limit.Window.Nanoseconds()

	member, err := uuid.NewV4()
	if err != nil {
		return false, fmt.Errorf("failed to generate window member: %w", err)
	}

	allowed, err := slidingWindow.Run(ctx, rl.redis, []string{key},
		now, windowStart, limit.Rate, member.String(), limit.Window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	return allowed == 1, nil
}

func IPKeyFunc(c *gin.Context) string {
	return c.ClientIP()
}

// RouteKeyFunc limits each client per route pattern rather than globally.
func RouteKeyFunc(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return fmt.Sprintf("%s:%s %s", c.ClientIP(), c.Request.Method, route)
}

// WritesOnly applies h to mutating requests and lets safe methods through.
func WritesOnly(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
		default:
			h(c)
		}
	}
}
