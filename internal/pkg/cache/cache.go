package cache

import (
	"context"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/symphonyguild/guildsite/internal/pkg/env"
)

const pingTimeout = 3 * time.Second

var client *redis.Client

// Enabled reports whether a cache server is configured.
func Enabled() bool {
	return env.GetEnv("CACHE_HOST", "") != ""
}

// SetupCache connects to the cache server at CACHE_HOST:CACHE_PORT. Billing
// tokens use database 0, sessions database 1.
func SetupCache() error {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	c := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	pong, err := c.Ping(ctx).Result()
	if err != nil {
		_ = c.Close()
		return fmt.Errorf("could not connect to cache at %s:%s: %w", host, port, err)
	}

	fiberlog.Infof("[Cache] Successfully connected to cache: %s", pong)
	client = c
	return nil
}

// GetClient returns the client created by SetupCache, or nil.
func GetClient() *redis.Client {
	return client
}

// Close releases the connection pool.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}
