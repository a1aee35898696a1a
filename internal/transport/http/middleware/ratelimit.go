package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"
)

// windowCounter counts hits for a key and guarantees the key expires after
// the window.
type windowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct {
	client *redisv9.Client
}

func (r redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// Re-arm the TTL whenever the key has none, not just on the first hit; a
	// lost EXPIRE must not leave an IP limited forever.
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// RateLimit is a fixed-window per-IP limiter backed by Redis. When Redis is
// unreachable the limiter fails open; chat availability must not depend on it.
func RateLimit(client *redisv9.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	return rateLimitWith(redisCounter{client: client}, maxRequests, window)
}

func rateLimitWith(counter windowCounter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:chat:%s", c.ClientIP())

		count, err := counter.Incr(c.Request.Context(), key, window)
		if err != nil {
			log.Printf("rate limiter redis error: %v", err)
			c.Next()
			return
		}
		if count > int64(maxRequests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests from this IP, please try again after 15 minutes",
			})
			return
		}
		c.Next()
	}
}
