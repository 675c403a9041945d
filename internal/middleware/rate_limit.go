package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures the rate limiter
type RateLimitConfig struct {
	RequestsPerMinute int
	KeyPrefix         string
	Message           string
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 120,
		KeyPrefix:         "chat:ratelimit:",
		Message:           "Too many requests, please retry later.",
	}
}

// rateLimitScript is an atomic Lua script for sliding window rate limiting
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local window_start = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('EXPIRE', key, math.ceil(window / 1000) + 1)
    return {1, limit - count - 1, 0}
else
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local reset_at = 0
    if #oldest >= 2 then
        reset_at = tonumber(oldest[2]) + window
    end
    return {0, 0, reset_at}
end
`)

// localLimiters is the per-process token bucket used when Redis is not configured
type localLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpm      int
}

func newLocalLimiters(rpm int) *localLimiters {
	return &localLimiters{limiters: make(map[string]*rate.Limiter), rpm: rpm}
}

func (l *localLimiters) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.rpm)), l.rpm)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// RateLimit limits requests per authenticated user, falling back to client IP.
// With a nil Redis client an in-process limiter is used, so limits are per instance.
func RateLimit(redisClient *redis.Client, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	local := newLocalLimiters(cfg.RequestsPerMinute)

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID := GetUserID(c); userID != 0 {
			key = "user:" + strconv.FormatUint(userID, 10)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))

		if redisClient == nil {
			if !local.allow(key) {
				tooManyRequests(c, cfg, 1)
				return
			}
			c.Next()
			return
		}

		now := time.Now().UnixMilli()
		windowMs := int64(60 * 1000) // 1 minute

		ctx, cancel := context.WithTimeout(c.Request.Context(), 200*time.Millisecond)
		result, err := rateLimitScript.Run(ctx, redisClient, []string{cfg.KeyPrefix + key},
			cfg.RequestsPerMinute, windowMs, now,
		).Int64Slice()
		cancel()

		if err != nil || len(result) != 3 {
			// Fail open on Redis errors
			c.Next()
			return
		}

		allowed := result[0] == 1
		remaining := result[1]
		resetAt := result[2]

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			retryAfter := (resetAt - now) / 1000
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt/1000))
			tooManyRequests(c, cfg, retryAfter)
			return
		}

		c.Next()
	}
}

func tooManyRequests(c *gin.Context, cfg RateLimitConfig, retryAfter int64) {
	c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"success": false,
		"error":   gin.H{"code": "RATE_LIMITED", "message": cfg.Message},
	})
}
