// internal/recommendation/cache.go
package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bike-recommender/internal/common/config"
	apperrors "bike-recommender/internal/common/errors"
	"bike-recommender/internal/common/logger"
	"bike-recommender/internal/common/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const (
	cacheKeyPrefixSimilar = "recommendations:similar:"
	cacheKeyPrefixBudget  = "recommendations:budget:"
)

// SimilarCacheKey is the cache key of a similar-bikes result list.
func SimilarCacheKey(slug string) string {
	return cacheKeyPrefixSimilar + slug
}

// BudgetCacheKey is the cache key of a near-budget result list. The budget is
// formatted with the shortest representation so 150000 and 150000.0 share a key.
func BudgetCacheKey(budget float64) string {
	return cacheKeyPrefixBudget + strconv.FormatFloat(budget, 'f', -1, 64)
}

// Cache is a byte-oriented look-aside store. Get reports a miss as
// (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Mode() string
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopCache) Mode() string { return "noop" }

// RedisCache stores results in redis behind a circuit breaker, so a dead
// redis costs one fast rejection per lookup once the breaker opens.
type RedisCache struct {
	client  redis.Cmdable
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     logger.Logger
}

// NewRedisCache wraps client. Zero breaker settings fall back to five
// consecutive failures, a 30s open period and one half-open probe.
func NewRedisCache(client redis.Cmdable, cfg config.BreakerConfig, log logger.Logger) *RedisCache {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := time.Duration(cfg.OpenTimeout) * time.Millisecond
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 1
	}

	c := &RedisCache{client: client, log: log}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: maxRequests,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CacheBreakerState.WithLabelValues(name).Set(float64(to))
			log.Warn("Cache circuit breaker state change", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return c
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.breaker.Execute(func() ([]byte, error) {
		b, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		return nil, false, apperrors.NewCacheUnavailableError("get", err)
	}
	if val == nil {
		return nil, false, nil
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return apperrors.NewCacheUnavailableError("set", err)
	}
	return nil
}

func (c *RedisCache) Mode() string { return "redis" }

// State exposes the breaker state for readiness reporting.
func (c *RedisCache) State() gobreaker.State {
	return c.breaker.State()
}

// GetOrCompute serves key from cache, or runs compute and stores its result
// for ttl. Cache failures of any kind are logged and counted, then the
// result is computed as if there were no cache. Errors from compute are
// returned unchanged and never cached.
func GetOrCompute[T any](
	ctx context.Context,
	cache Cache,
	log logger.Logger,
	kind, key string,
	ttl time.Duration,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	if cache == nil {
		cache = NoopCache{}
	}

	raw, hit, err := cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
		cacheFailure(log, "get", key, err)
	case hit:
		var cached T
		derr := json.Unmarshal(raw, &cached)
		if derr == nil {
			metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
			return cached, nil
		}
		metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
		cacheFailure(log, "decode", key, derr)
	default:
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
	}

	result, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		cacheFailure(log, "encode", key, err)
		return result, nil
	}
	if err := cache.Set(ctx, key, payload, ttl); err != nil {
		cacheFailure(log, "set", key, err)
	}
	return result, nil
}

func cacheFailure(log logger.Logger, op, key string, err error) {
	metrics.CacheErrors.WithLabelValues(op).Inc()
	log.Warn("Recommendation cache unavailable, computing uncached", map[string]interface{}{
		"operation": op,
		"key":       key,
		"error":     fmt.Sprint(err),
	})
}
