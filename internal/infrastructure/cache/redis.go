// Package cache wraps the Redis client used for response caching, rate
// limiting and dashboard event pub/sub.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/domain/events"
	"github.com/ewellner/daybridge/pkg/config"
	"github.com/ewellner/daybridge/pkg/logger"
)

var log = logger.NewLogger()

var (
	ErrCacheNotFound   = errors.New("cache: key not found")
	ErrCacheConnection = errors.New("cache: connection error")
	ErrInvalidConfig   = errors.New("cache: invalid configuration")
)

// DashboardEventChannel is the Redis channel dashboard change events fan
// out on.
const DashboardEventChannel = "dashboard:events"

const keyPrefix = "daybridge:"

// Config holds the Redis client settings.
type Config struct {
	Addr             string
	Password         string
	DB               int
	PoolSize         int
	MinIdleConns     int
	MaxRetries       int
	ConnTimeout      time.Duration
	OperationTimeout time.Duration
	DefaultTTL       time.Duration
}

// NewConfigFromEnv builds the Redis config from project configuration.
func NewConfigFromEnv(cfg *config.Config) *Config {
	opTimeout := cfg.Server.Timeout
	if opTimeout == 0 {
		opTimeout = 2 * time.Second
	}
	return &Config{
		Addr:             fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:         cfg.Redis.Password,
		DB:               cfg.Redis.DB,
		PoolSize:         50,
		MinIdleConns:     5,
		MaxRetries:       3,
		ConnTimeout:      5 * time.Second,
		OperationTimeout: opTimeout,
		DefaultTTL:       10 * time.Minute,
	}
}

// cacheMetrics tracks hit/miss counts with atomics.
type cacheMetrics struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// RedisClient wraps the Redis connection with health tracking, cache
// metrics and dashboard pub/sub helpers.
type RedisClient struct {
	client    *redis.Client
	config    *Config
	metrics   cacheMetrics
	closeOnce sync.Once
	health    int32 // 0 = healthy, 1 = unhealthy
}

func NewRedisClient(cfg *Config) (*RedisClient, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidConfig)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnTimeout)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r := &RedisClient{client: client, config: cfg}
	go r.healthCheckLoop()
	return r, nil
}

func (r *RedisClient) healthCheckLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), r.config.OperationTimeout)
		if err := r.HealthCheck(ctx); err != nil {
			atomic.StoreInt32(&r.health, 1)
			log.Error("Redis health check failed", zap.Error(err))
		} else {
			atomic.StoreInt32(&r.health, 0)
		}
		cancel()
	}
}

// IsHealthy reports the last health probe's outcome.
func (r *RedisClient) IsHealthy() bool {
	return atomic.LoadInt32(&r.health) == 0
}

// HealthCheck pings Redis.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) withContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); !ok {
		return context.WithTimeout(ctx, r.config.OperationTimeout)
	}
	return ctx, func() {}
}

// Get retrieves a cached value.
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	if !r.IsHealthy() {
		return "", ErrCacheConnection
	}
	ctx, cancel := r.withContext(ctx)
	defer cancel()

	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("%w: %s", ErrCacheNotFound, key)
		}
		return "", fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return val, nil
}

// Set stores a value with a TTL; a zero TTL uses the configured default.
func (r *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !r.IsHealthy() {
		return ErrCacheConnection
	}
	ctx, cancel := r.withContext(ctx)
	defer cancel()

	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}
	return r.client.Set(ctx, keyPrefix+key, value, ttl).Err()
}

// Delete removes keys from the cache.
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if !r.IsHealthy() {
		return ErrCacheConnection
	}
	ctx, cancel := r.withContext(ctx)
	defer cancel()

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = keyPrefix + key
	}
	return r.client.Del(ctx, prefixed...).Err()
}

// ClearByPattern removes every cache entry matching the pattern.
func (r *RedisClient) ClearByPattern(ctx context.Context, pattern string) error {
	if !r.IsHealthy() {
		return ErrCacheConnection
	}
	ctx, cancel := r.withContext(ctx)
	defer cancel()

	iter := r.client.Scan(ctx, 0, keyPrefix+pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

// InvalidateUser clears every cached response for a user.
func (r *RedisClient) InvalidateUser(ctx context.Context, uid string) error {
	return r.ClearByPattern(ctx, fmt.Sprintf("*:%s*", uid))
}

// CacheResponse returns the cached JSON for key, or runs fn, caches its
// result and returns it. Cache failures fall through to fn.
func (r *RedisClient) CacheResponse(ctx context.Context, key string, ttl time.Duration, fn func() (interface{}, error)) (interface{}, error) {
	cached, err := r.Get(ctx, key)
	if err == nil && cached != "" {
		r.metrics.hits.Add(1)
		var result interface{}
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return result, nil
		}
		log.Warn("Discarding undecodable cache entry", zap.String("key", key))
	}
	r.metrics.misses.Add(1)

	result, err := fn()
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	if data, err := json.Marshal(result); err == nil {
		if err := r.Set(ctx, key, string(data), ttl); err != nil {
			log.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

// ExportMetrics exposes cache and pool counters for the metrics endpoint.
func (r *RedisClient) ExportMetrics() map[string]float64 {
	stats := r.client.PoolStats()
	hits := r.metrics.hits.Load()
	misses := r.metrics.misses.Load()
	rate := 0.0
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses)
	}
	return map[string]float64{
		"cache_hits":       float64(hits),
		"cache_misses":     float64(misses),
		"cache_hit_rate":   rate,
		"pool_total_conns": float64(stats.TotalConns),
		"pool_idle_conns":  float64(stats.IdleConns),
		"pool_stale_conns": float64(stats.StaleConns),
	}
}

// GetClient exposes the underlying Redis client (rate limiter, pub/sub).
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

func (r *RedisClient) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.client.Close()
	})
	return err
}

// PublishDashboardEvent fans a dashboard change out to websocket gateways.
func (r *RedisClient) PublishDashboardEvent(ctx context.Context, event *events.DashboardEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, DashboardEventChannel, data).Err()
}

// SubscribeToDashboardEvents blocks, delivering dashboard events to the
// callback until the context is cancelled.
func (r *RedisClient) SubscribeToDashboardEvents(ctx context.Context, callback func(*events.DashboardEvent) error) error {
	pubsub := r.client.Subscribe(ctx, DashboardEventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			var event events.DashboardEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn("Dropping malformed dashboard event", zap.Error(err))
				continue
			}
			if err := callback(&event); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
