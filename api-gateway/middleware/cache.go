package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tair/stock-reconciler/pkg/logger"
)

// CacheConfig holds cache configuration
type CacheConfig struct {
	DefaultTTL       time.Duration
	CacheableMethods []string
	CacheableStatus  []int
}

// DefaultCacheConfig returns default cache configuration. The TTL is short
// because alert and validation responses go stale with every stock mutation.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DefaultTTL:       30 * time.Second,
		CacheableMethods: []string{"GET", "HEAD"},
		CacheableStatus:  []int{200, 203, 404},
	}
}

// CacheMiddleware implements response caching with Redis
func CacheMiddleware(redisClient *redis.Client, config CacheConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if redisClient == nil {
			return c.Next()
		}
		if !contains(config.CacheableMethods, c.Method()) {
			return c.Next()
		}

		cacheKey := generateCacheKey(c)

		ctx := context.Background()
		cachedResponse, err := redisClient.Get(ctx, cacheKey).Bytes()
		if err == nil && len(cachedResponse) > 0 {
			logger.Logger.Debug().
				Str("path", c.Path()).
				Str("cache_key", cacheKey).
				Msg("Cache hit")

			c.Set("X-Cache", "HIT")
			c.Set("Content-Type", "application/json")
			return c.Send(cachedResponse)
		}

		err = c.Next()

		statusCode := c.Response().StatusCode()
		if containsInt(config.CacheableStatus, statusCode) {
			responseBody := c.Response().Body()

			if err := redisClient.Set(ctx, cacheKey, responseBody, config.DefaultTTL).Err(); err != nil {
				logger.Logger.Warn().
					Err(err).
					Str("cache_key", cacheKey).
					Msg("Failed to cache response")
			}

			c.Set("X-Cache", "MISS")
		}

		return err
	}
}

// InvalidateCache removes every cached response matching the pattern
func InvalidateCache(redisClient *redis.Client, pattern string) error {
	ctx := context.Background()

	iter := redisClient.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		if err := redisClient.Del(ctx, keys...).Err(); err != nil {
			return err
		}

		logger.Logger.Info().
			Int("count", len(keys)).
			Str("pattern", pattern).
			Msg("Cache invalidated")
	}

	return nil
}

// generateCacheKey builds a key from method, path, query and auth header so
// responses are never shared across users.
func generateCacheKey(c *fiber.Ctx) string {
	keyComponents := fmt.Sprintf("%s:%s:%s:%s",
		c.Method(),
		c.Path(),
		string(c.Request().URI().QueryString()),
		c.Get("Authorization"),
	)

	hash := sha256.Sum256([]byte(keyComponents))
	return fmt.Sprintf("cache:%s", hex.EncodeToString(hash[:]))
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func containsInt(values []int, value int) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
