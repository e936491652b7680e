package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"

	"github.com/symphonyguild/guildsite/internal/pkg/env"
)

const (
	cookieName = "session_id"
	expiration = 2 * time.Hour
)

// NewSessionStore creates a session store on the cache server, next to the
// cache client. Sessions use database 1, the cache uses database 0.
func NewSessionStore(cacheClient *goredis.Client) *session.Store {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		// Prefer password from the underlying client if present
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})

	return newStore(storage)
}

// NewMemorySessionStore keeps sessions in process memory, for single
// instance setups without a cache server and for tests.
func NewMemorySessionStore() *session.Store {
	return newStore(nil)
}

func newStore(storage fiber.Storage) *session.Store {
	cfg := session.Config{
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev() && env.GetEnv("COOKIE_SECURE", "true") == "true",
		Expiration:     expiration,
		KeyLookup:      "cookie:" + cookieName,
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return session.New(cfg)
}

// SetSessionValue stores a key-value pair in the user's individual session
func SetSessionValue(store *session.Store, c *fiber.Ctx, key string, value string) error {
	if store == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue retrieves a value by key from the user's individual session
func GetSessionValue(store *session.Store, c *fiber.Ctx, key string) string {
	if store == nil {
		return ""
	}

	sess, err := store.Get(c)
	if err != nil {
		return ""
	}

	value, _ := sess.Get(key).(string)
	return value
}

// DeleteSessionValue removes a key from the user's session.
func DeleteSessionValue(store *session.Store, c *fiber.Ctx, key string) error {
	if store == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	sess.Delete(key)
	if len(sess.Keys()) == 0 {
		return sess.Destroy()
	}
	return sess.Save()
}
