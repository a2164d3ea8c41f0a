package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"acadef/backend/pkg/response"
)

// RateLimiter sliding-window counter
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit allows limit requests per client IP and route within window.
// A nil limiter or a limiter error lets the request through.
func RateLimit(limiter RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s:%s", c.ClientIP(), c.Request.Method, c.FullPath())
		allowed, err := limiter.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, 10004, "Trop de requêtes, veuillez réessayer plus tard")
			c.Abort()
			return
		}

		c.Next()
	}
}
