package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"couture-commerce/internal/redisclient"
	"couture-commerce/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Result is the rate-limit decision contract: whether the call is allowed,
// how many calls remain in the window, and when the window resets.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter is a fixed-window rate limiter backed by shared Redis counters,
// so the limit holds across concurrently running instances. On Redis
// failure it fails open: availability over strictness for storefront
// traffic.
type Limiter struct {
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewLimiter creates a rate limiter on top of the shared Redis client
func NewLimiter(redis *redisclient.Client) *Limiter {
	return &Limiter{
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// Key builds the counter key for an operation and caller identity
func Key(op, caller string) string {
	return fmt.Sprintf("ratelimit:%s:%s", op, caller)
}

func remaining(limit int, count int64) int {
	left := limit - int(count)
	if left < 0 {
		return 0
	}
	return left
}

// Allow records one call for (op, caller) and reports the decision
func (l *Limiter) Allow(ctx context.Context, op, caller string, limit int, window time.Duration) Result {
	count, ttl, err := l.redis.IncrWindow(ctx, Key(op, caller), window)
	if err != nil {
		l.logger.Warn("Rate limiter unavailable, allowing request",
			zap.String("op", op), zap.Error(err))
		return Result{Allowed: true, Remaining: limit, Reset: time.Now().Add(window)}
	}

	return Result{
		Allowed:   count <= int64(limit),
		Remaining: remaining(limit, count),
		Reset:     time.Now().Add(ttl),
	}
}

// Middleware limits an operation per authenticated user, falling back to
// the client IP for unauthenticated callers
func (l *Limiter) Middleware(op string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.ClientIP()
		if userID, ok := c.Get("user_id"); ok {
			caller = fmt.Sprintf("u%d", userID.(int64))
		}

		res := l.Allow(c.Request.Context(), op, caller, limit, window)

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", res.Reset.Unix()))

		if !res.Allowed {
			util.RateLimitedTotal.WithLabelValues(op).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, slow down",
			})
			return
		}

		c.Next()
	}
}
