package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aquaticmetropolis/betagate/internal/monitoring"
	"github.com/aquaticmetropolis/betagate/internal/types"
)

// IPRateLimitMiddleware enforces per-IP limits on all API traffic
func IPRateLimitMiddleware(limiter *RateLimiter, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := limiter.AllowIP(c.Request.Context(), ip)
		if err != nil {
			// Never block traffic because the limiter itself failed
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			if metrics != nil {
				metrics.IncrementRateLimitRedisError()
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetAt.Unix()))

		if !result.Allowed {
			if metrics != nil {
				metrics.IncrementRateLimitIPBlock()
			}
			slog.Warn("IP rate limit exceeded",
				"ip", ip,
				"path", c.Request.URL.Path,
				"retry_after", result.RetryAfter,
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(result.RetryAfter.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     "Too many requests from this IP address",
				"retry_after": result.RetryAfter.Seconds(),
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// SessionRateLimitMiddleware enforces per-session limits on sample ingestion.
// A batch is limited by its first sample's session; mixed-session batches are
// rare and still covered by the IP limit.
func SessionRateLimitMiddleware(limiter *RateLimiter, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.IngestRequest
		if err := c.ShouldBindBodyWithJSON(&req); err != nil || len(req.Samples) == 0 {
			// Let the handler produce the validation error
			c.Next()
			return
		}

		sessionID := req.Samples[0].SessionID
		if sessionID == "" {
			c.Next()
			return
		}

		result, err := limiter.AllowSession(c.Request.Context(), sessionID)
		if err != nil {
			slog.Error("Session rate limit check failed", "session_id", sessionID, "error", err)
			if metrics != nil {
				metrics.IncrementRateLimitRedisError()
			}
			c.Next()
			return
		}

		if !result.Allowed {
			if metrics != nil {
				metrics.IncrementRateLimitSessionBlock()
			}
			slog.Warn("Session rate limit exceeded",
				"session_id", sessionID,
				"retry_after", result.RetryAfter,
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(result.RetryAfter.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     "Too many samples submitted for this session",
				"retry_after": result.RetryAfter.Seconds(),
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
