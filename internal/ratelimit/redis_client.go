package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis connection with graceful degradation: if Redis
// is unconfigured or unreachable the limiter falls back to in-memory buckets.
type RedisClient struct {
	client  *redis.Client
	enabled bool
	addr    string
}

// NewRedisClient connects to Redis, or returns a disabled client when no
// address is configured or the ping fails.
func NewRedisClient(addr string) *RedisClient {
	if addr == "" {
		slog.Warn("Redis not configured, rate limiting will use in-memory fallback")
		return &RedisClient{enabled: false}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Redis ping failed, falling back to in-memory rate limiting",
			"addr", addr, "error", err)
		return &RedisClient{enabled: false, addr: addr}
	}

	slog.Info("Redis client connected", "addr", addr)
	return &RedisClient{client: client, enabled: true, addr: addr}
}

// Client returns the underlying Redis client, nil when disabled.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// IsEnabled reports whether Redis is connected.
func (r *RedisClient) IsEnabled() bool {
	return r.enabled
}

// HealthCheck pings Redis.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if !r.enabled {
		return fmt.Errorf("redis is disabled")
	}
	return r.client.Ping(ctx).Err()
}

// Close closes the connection.
func (r *RedisClient) Close() error {
	if r.enabled && r.client != nil {
		return r.client.Close()
	}
	return nil
}

// PoolStats returns connection pool statistics for the metrics endpoint.
func (r *RedisClient) PoolStats() map[string]interface{} {
	if !r.enabled || r.client == nil {
		return map[string]interface{}{"enabled": false}
	}

	stats := r.client.PoolStats()
	return map[string]interface{}{
		"enabled":     true,
		"addr":        r.addr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
	}
}
