package db

import (
	"context"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// DependencyStatus is the health of one backing store.
type DependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func checkDependency(ctx context.Context, ping func(context.Context) error) DependencyStatus {
	if err := ping(ctx); err != nil {
		return DependencyStatus{Status: "unhealthy", Error: err.Error()}
	}
	return DependencyStatus{Status: "healthy"}
}

// RedisPing adapts a go-redis client for the health check.
func RedisPing(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// HealthHandler pings PostgreSQL and the draft store. Either one failing
// makes the endpoint report 503. A nil pool or redisPing is not checked.
func HealthHandler(pool *pgxpool.Pool, redisPing func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		healthy := true
		body := map[string]interface{}{}

		if pool != nil {
			pg := checkDependency(ctx, pool.Ping)
			stats := GetPoolStats(pool)
			if pg.Status != "healthy" {
				stats.Healthy = false
				healthy = false
			}
			body["postgres"] = pg
			body["pool"] = stats
		}
		if redisPing != nil {
			rd := checkDependency(ctx, redisPing)
			if rd.Status != "healthy" {
				healthy = false
			}
			body["redis"] = rd
		}

		if !healthy {
			body["status"] = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		body["status"] = "healthy"
		return c.JSON(http.StatusOK, body)
	}
}
