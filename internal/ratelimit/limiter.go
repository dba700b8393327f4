package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration for sample ingestion
type Config struct {
	// Per-IP ingest requests per minute
	IPRequestsPerMinute int
	// Per-session ingest requests per hour
	SessionRequestsPerHour int
	// Burst multiplier applied on top of the base rate
	BurstMultiplier int
}

// DefaultConfig returns sensible rate limits for beta-scale traffic
func DefaultConfig() *Config {
	return &Config{
		IPRequestsPerMinute:    120,
		SessionRequestsPerHour: 600,
		BurstMultiplier:        2,
	}
}

// Result represents the outcome of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter provides distributed rate limiting via Redis with an
// in-memory token bucket fallback when Redis is unavailable
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       *Config

	// Fallback limiters keyed by client identifier
	fallbackMu       sync.RWMutex
	fallbackLimiters map[string]*rate.Limiter

	stopCleanup chan struct{}
}

// NewRateLimiter creates a rate limiter backed by Redis when available
func NewRateLimiter(redisClient *RedisClient, config *Config) *RateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		fallbackLimiters: make(map[string]*rate.Limiter),
		stopCleanup:      make(chan struct{}),
	}

	if redisClient != nil && redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("Rate limiter initialized with Redis backend")
	} else {
		slog.Warn("Rate limiter initialized with in-memory fallback only")
	}

	go rl.cleanupFallbackLimiters()

	return rl
}

// AllowIP checks whether a request from the given IP is within limits
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	key := fmt.Sprintf("ratelimit:ip:%s", ip)
	return rl.allow(ctx, key, rl.config.IPRequestsPerMinute, time.Minute)
}

// AllowSession checks whether a request for the given play session is within limits
func (rl *RateLimiter) AllowSession(ctx context.Context, sessionID string) (*Result, error) {
	key := fmt.Sprintf("ratelimit:session:%s", sessionID)
	return rl.allow(ctx, key, rl.config.SessionRequestsPerHour, time.Hour)
}

func (rl *RateLimiter) allow(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	if rl.redisLimiter != nil {
		result, err := rl.allowRedis(ctx, key, limit, period)
		if err == nil {
			return result, nil
		}
		slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
	}
	return rl.allowFallback(key, limit, period), nil
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit,
		Burst:  limit * rl.config.BurstMultiplier,
		Period: period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      limit,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

func (rl *RateLimiter) allowFallback(key string, limit int, period time.Duration) *Result {
	rl.fallbackMu.Lock()
	limiter, exists := rl.fallbackLimiters[key]
	if !exists {
		perSecond := rate.Limit(float64(limit) / period.Seconds())
		limiter = rate.NewLimiter(perSecond, limit*rl.config.BurstMultiplier)
		rl.fallbackLimiters[key] = limiter
	}
	rl.fallbackMu.Unlock()

	allowed := limiter.Allow()

	remaining := int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(period),
	}
	if !allowed {
		reservation := limiter.Reserve()
		result.RetryAfter = reservation.Delay()
		reservation.Cancel()
	}
	return result
}

// cleanupFallbackLimiters periodically clears the fallback map to bound memory
func (rl *RateLimiter) cleanupFallbackLimiters() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.fallbackMu.Lock()
			if len(rl.fallbackLimiters) > 1000 {
				slog.Info("Clearing fallback rate limiters", "count", len(rl.fallbackLimiters))
				rl.fallbackLimiters = make(map[string]*rate.Limiter)
			}
			rl.fallbackMu.Unlock()
		case <-rl.stopCleanup:
			return
		}
	}
}

// UsingRedis reports whether the limiter is backed by Redis
func (rl *RateLimiter) UsingRedis() bool {
	return rl.redisLimiter != nil
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMu.RLock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMu.RUnlock()

	return map[string]interface{}{
		"redis_enabled":             rl.UsingRedis(),
		"fallback_limiters":         fallbackCount,
		"ip_requests_per_minute":    rl.config.IPRequestsPerMinute,
		"session_requests_per_hour": rl.config.SessionRequestsPerHour,
		"burst_multiplier":          rl.config.BurstMultiplier,
	}
}

// Close stops the background cleanup goroutine
func (rl *RateLimiter) Close() {
	close(rl.stopCleanup)
}
