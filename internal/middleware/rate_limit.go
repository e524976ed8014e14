// Package middleware's rate limiter throttles inbound HTTP traffic by IP
// or user, a distinct concern from internal/infrastructure/ratelimit's
// outbound per-platform throttling of adapter calls.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/techappsUT/social-publisher/internal/logging"
)

// RateLimitConfig is one sliding-window budget.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
	KeyPrefix         string
}

// DefaultRateLimitConfigs are the budgets applied to this API's routes.
var DefaultRateLimitConfigs = map[string]RateLimitConfig{
	"user": {RequestsPerWindow: 100, WindowDuration: time.Minute, KeyPrefix: "ratelimit:user"},
	"ip":   {RequestsPerWindow: 1000, WindowDuration: time.Minute, KeyPrefix: "ratelimit:ip"},
}

// RateLimiter implements sliding-window rate limiting over a Redis
// sorted set.
type RateLimiter struct {
	redis  *redis.Client
	logger logging.Logger
}

func NewRateLimiter(redis *redis.Client, logger logging.Logger) *RateLimiter {
	return &RateLimiter{redis: redis, logger: logger}
}

// RateLimitByIP limits requests per source IP.
func (rl *RateLimiter) RateLimitByIP(config RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("%s:%s", config.KeyPrefix, extractIP(r))
			rl.enforce(w, r, next, key, config)
		})
	}
}

// RateLimitByUser limits requests per authenticated user. Unauthenticated
// requests pass through untouched — RequireAuth runs first on any route
// this guards.
func (rl *RateLimiter) RateLimitByUser(config RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			key := fmt.Sprintf("%s:%s", config.KeyPrefix, userID)
			rl.enforce(w, r, next, key, config)
		})
	}
}

func (rl *RateLimiter) enforce(w http.ResponseWriter, r *http.Request, next http.Handler, key string, config RateLimitConfig) {
	allowed, remaining, resetAt, err := rl.checkRateLimit(r.Context(), key, config)
	if err != nil {
		rl.logger.Error("rate limit check failed", "error", err.Error())
		next.ServeHTTP(w, r)
		return
	}

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

	if !allowed {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetAt).Seconds()), 10))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"detail": "rate limit exceeded"})
		return
	}

	next.ServeHTTP(w, r)
}

// checkRateLimit implements sliding-window rate limiting using a Redis
// sorted set: score = request timestamp, member = unique per request.
func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string, config RateLimitConfig) (allowed bool, remaining int, resetAt time.Time, err error) {
	now := time.Now()
	windowStart := now.Add(-config.WindowDuration)

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: fmt.Sprintf("%d", now.UnixNano())})
	pipe.Expire(ctx, key, config.WindowDuration+time.Minute)

	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit: redis pipeline: %w", err)
	}

	count := int(countCmd.Val())
	resetAt = now.Add(config.WindowDuration)
	if count >= config.RequestsPerWindow {
		return false, 0, resetAt, nil
	}
	return true, config.RequestsPerWindow - count - 1, resetAt, nil
}

// extractIP returns the caller's address, preferring the proxy-supplied
// headers chi's RealIP middleware also understands, falling back to the
// raw connection address.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ips := strings.Split(xff, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
