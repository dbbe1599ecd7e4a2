package router

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/quirkcart/quirkcart/internal/http/response"
)

// RateLimitKeyFunc derives the throttle key from a request.
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule is a fixed-window throttle.
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	Message       string
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware throttles with a Redis fixed window. Without a
// Redis client it degrades to a pass-through; service-level counters
// still apply.
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}

		result, err := rateLimitScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds).Result()
		if err != nil {
			// a broken limiter store must not take checkout down
			c.Next()
			return
		}

		current, ttl := parseRateLimitResult(result)
		if current > int64(rule.MaxRequests) {
			message := rule.Message
			if message == "" {
				message = "too many requests"
			}
			retryAfter := int(ttl)
			if retryAfter <= 0 {
				retryAfter = rule.WindowSeconds
			}
			response.TooManyRequests(c, message, retryAfter)
			return
		}
		c.Next()
	}
}

func parseRateLimitResult(result interface{}) (current int64, ttl int64) {
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return 0, 0
	}
	if v, ok := values[0].(int64); ok {
		current = v
	}
	if v, ok := values[1].(int64); ok {
		ttl = v
	}
	return current, ttl
}
