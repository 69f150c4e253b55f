package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type RateLimitConfig struct {
	RequestsPerMinute int
	KeyPrefix         string
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 600, KeyPrefix: "anc:ratelimit:"}
}

// RateLimit counts requests per client IP in one-minute windows kept in
// Redis, so every replica shares the same budget. If Redis is unreachable
// requests are let through.
func RateLimit(client *redis.Client, cfg RateLimitConfig, logger zerolog.Logger) echo.MiddlewareFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRateLimitConfig().RequestsPerMinute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultRateLimitConfig().KeyPrefix
	}
	limit := strconv.Itoa(cfg.RequestsPerMinute)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			window := now.Unix() / 60
			key := fmt.Sprintf("%s%s:%d", cfg.KeyPrefix, c.RealIP(), window)
			ctx := c.Request().Context()

			pipe := client.TxPipeline()
			incr := pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, time.Minute)
			if _, err := pipe.Exec(ctx); err != nil {
				logger.Warn().Err(err).Msg("rate limiter unavailable")
				return next(c)
			}

			count := int(incr.Val())
			remaining := cfg.RequestsPerMinute - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if count > cfg.RequestsPerMinute {
				reset := 60 - now.Unix()%60
				h.Set("Retry-After", strconv.FormatInt(reset, 10))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
