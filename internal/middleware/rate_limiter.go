package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/porchlight-app/server/internal/models"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig holds per-IP rate limiting configuration. When RedisClient
// is set the token buckets live in Redis so limits hold across instances;
// otherwise they are process-local.
type RateLimitConfig struct {
	RequestsPerSecond int
	BurstSize         int
	RedisClient       *redis.Client
	KeyPrefix         string
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
		KeyPrefix:         "ratelimit:",
	}
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

type localLimiter struct {
	config  RateLimitConfig
	buckets sync.Map
}

func (rl *localLimiter) allow(key string) (bool, float64) {
	now := time.Now()
	entry, _ := rl.buckets.LoadOrStore(key, &bucket{
		tokens:     float64(rl.config.BurstSize),
		lastUpdate: now,
	})
	b := entry.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	refill := now.Sub(b.lastUpdate).Seconds() * float64(rl.config.RequestsPerSecond)
	b.tokens = min(float64(rl.config.BurstSize), b.tokens+refill)
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true, b.tokens
	}
	return false, b.tokens
}

func (rl *localLimiter) cleanup(ttl time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-ttl)
		rl.buckets.Range(func(key, value any) bool {
			b := value.(*bucket)
			b.mu.Lock()
			stale := b.lastUpdate.Before(cutoff)
			b.mu.Unlock()
			if stale {
				rl.buckets.Delete(key)
			}
			return true
		})
	}
}

// Atomic token bucket: refill from elapsed time, take one token if available.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + (now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end
redis.call("HMSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return {allowed, tostring(tokens)}
`)

// RateLimiter limits each client IP with a token bucket. Redis failures fail
// open: a broken limiter must not take the API down with it.
func RateLimiter(config RateLimitConfig) gin.HandlerFunc {
	var local *localLimiter
	if config.RedisClient == nil {
		local = &localLimiter{config: config}
		go local.cleanup(time.Minute)
	}

	return func(c *gin.Context) {
		if config.RequestsPerSecond <= 0 {
			c.Next()
			return
		}

		key := c.ClientIP()
		var allowed bool
		var remaining float64

		if local != nil {
			allowed, remaining = local.allow(key)
		} else {
			now := float64(time.Now().UnixNano()) / 1e9
			res, err := rateLimitScript.Run(c.Request.Context(), config.RedisClient,
				[]string{config.KeyPrefix + key},
				config.RequestsPerSecond, config.BurstSize, now,
			).Slice()
			if err != nil || len(res) < 2 {
				allowed = true
				remaining = float64(config.BurstSize)
			} else {
				n, _ := res[0].(int64)
				allowed = n == 1
				if s, ok := res[1].(string); ok {
					remaining, _ = strconv.ParseFloat(s, 64)
				}
			}
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerSecond))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(max(remaining, 0))))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

		if !allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse("rate limit exceeded, retry shortly"))
			return
		}
		c.Next()
	}
}
