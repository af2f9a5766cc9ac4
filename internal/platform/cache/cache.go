// Package cache connects to the Redis instance that can back the catalog
// record store.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/ubook/internal/platform/config"
	"github.com/p-n-ai/ubook/internal/storage"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second
)

// Cache is a connected Redis client plus the key namespace this service
// writes under.
type Cache struct {
	Client *redis.Client
	Prefix string
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// Namespace turns a configured prefix into a key namespace ending in ":".
// An empty prefix stays empty so keys are written unqualified.
func Namespace(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || strings.HasSuffix(prefix, ":") {
		return prefix
	}
	return prefix + ":"
}

// New connects to cc.URL and checks the connection before returning.
func New(ctx context.Context, cc config.CacheConfig) (*Cache, error) {
	opts, err := ParseURL(cc.URL)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache at %s: %w", opts.Addr, err)
	}
	return &Cache{Client: client, Prefix: Namespace(cc.KeyPrefix)}, nil
}

// Records returns the catalog record store over this connection, scoped to
// the cache's namespace.
func (c *Cache) Records() (*storage.RedisKV, error) {
	return storage.NewRedisKV(c.Client, c.Prefix)
}

func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck pings the server.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
