// Package redis caches computed API responses in Redis behind a circuit
// breaker. A cache failure is never fatal: reads degrade to misses and
// writes are dropped while the breaker is open.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultTTL       = 10 * time.Minute
	defaultPrefix    = "analytics:"
	defaultFailures  = 3
	defaultResetWait = 10 * time.Second
)

// CacheConfig configures the Redis cache.
type CacheConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// Cache is a read-through byte cache keyed by request digests.
type Cache struct {
	client *goredis.Client
	cb     *CircuitBreaker
	ttl    time.Duration
	prefix string
	log    *slog.Logger

	// OnResult is called after each Get with whether it hit (for metrics).
	OnResult func(hit bool)

	watchers []func(from, to State)
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// Breaker exposes the circuit breaker state for health reporting.
func (c *Cache) Breaker() *CircuitBreaker { return c.cb }

// NewCache creates a new Redis cache and pings the server.
func NewCache(ctx context.Context, cfg CacheConfig) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	c := newCache(client, cfg)
	c.log.Info("connected", slog.String("addr", cfg.Addr))
	return c, nil
}

func newCache(client *goredis.Client, cfg CacheConfig) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	c := &Cache{
		client: client,
		cb:     NewCircuitBreaker(defaultFailures, defaultResetWait),
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
		log:    slog.Default().With(slog.String("component", "redis-cache")),
	}
	c.cb.OnStateChange = func(from, to State) {
		c.log.Warn("circuit breaker transition", slog.String("from", from.String()), slog.String("to", to.String()))
		for _, fn := range c.watchers {
			fn(from, to)
		}
	}
	return c
}

// WatchBreaker registers fn to run after every breaker transition. Call it
// before the cache is shared.
func (c *Cache) WatchBreaker(fn func(from, to State)) {
	c.watchers = append(c.watchers, fn)
}

// Key derives a cache key from a namespace (usually the route) and the raw
// request body.
func Key(namespace string, body []byte) string {
	sum := sha256.Sum256(body)
	return namespace + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached value and true on a hit. Errors and an open
// breaker count as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := c.cb.Execute(ctx, func(ctx context.Context) error {
		v, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		val = v
		return err
	})
	if err != nil && !errors.Is(err, ErrCircuitOpen) {
		c.log.Debug("get failed", slog.String("key", key), slog.Any("err", err))
	}
	hit := err == nil && val != nil
	if c.OnResult != nil {
		c.OnResult(hit)
	}
	return val, hit
}

// Set stores val under key with the configured TTL. Failures are logged
// and dropped.
func (c *Cache) Set(ctx context.Context, key string, val []byte) {
	err := c.cb.Execute(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, c.prefix+key, val, c.ttl).Err()
	})
	if err != nil && !errors.Is(err, ErrCircuitOpen) {
		c.log.Debug("set failed", slog.String("key", key), slog.Any("err", err))
	}
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
