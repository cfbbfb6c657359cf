package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bike-recommender/internal/common/config"
	apperrors "bike-recommender/internal/common/errors"
	"bike-recommender/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// brokenCache fails every operation.
type brokenCache struct {
	gets, sets int
}

func (c *brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	c.gets++
	return nil, false, errors.New("connection refused")
}

func (c *brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	c.sets++
	return errors.New("connection refused")
}

func (c *brokenCache) Mode() string { return "broken" }

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "recommendations:similar:yamaha-r15-v4", SimilarCacheKey("yamaha-r15-v4"))
	assert.Equal(t, "recommendations:budget:150000", BudgetCacheKey(150000))
	assert.Equal(t, "recommendations:budget:99999.5", BudgetCacheKey(99999.5))
}

func TestRedisCache_GetSet(t *testing.T) {
	mr, client := setupMiniredis(t)
	cache := NewRedisCache(client, config.BreakerConfig{}, logger.NewTestLogger(t))
	ctx := context.Background()

	_, hit, err := cache.Get(ctx, "recommendations:similar:absent")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "recommendations:similar:x", []byte(`[]`), time.Hour))
	val, hit, err := cache.Get(ctx, "recommendations:similar:x")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, `[]`, string(val))
	assert.Equal(t, time.Hour, mr.TTL("recommendations:similar:x"))

	mr.FastForward(time.Hour + time.Second)
	_, hit, err = cache.Get(ctx, "recommendations:similar:x")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "redis", cache.Mode())
}

func TestRedisCache_BreakerOpensAfterFailures(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, config.BreakerConfig{FailureThreshold: 2, OpenTimeout: 60000}, logger.NewTestLogger(t))
	ctx := context.Background()

	mock.ExpectGet("k").SetErr(errors.New("i/o timeout"))
	mock.ExpectGet("k").SetErr(errors.New("i/o timeout"))

	for i := 0; i < 2; i++ {
		_, _, err := cache.Get(ctx, "k")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCacheUnavailable))
	}
	assert.Equal(t, gobreaker.StateOpen, cache.State())

	_, _, err := cache.Get(ctx, "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_MissDoesNotTripBreaker(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, config.BreakerConfig{FailureThreshold: 1}, logger.NewTestLogger(t))

	mock.ExpectGet("k").RedisNil()
	mock.ExpectGet("k").RedisNil()

	for i := 0; i < 2; i++ {
		_, hit, err := cache.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, gobreaker.StateClosed, cache.State())
}

func TestGetOrCompute_MissThenHit(t *testing.T) {
	_, client := setupMiniredis(t)
	cache := NewRedisCache(client, config.BreakerConfig{}, logger.NewTestLogger(t))
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) ([]SimilarResult, error) {
		calls++
		return []SimilarResult{{ID: 2, Name: "CB Hornet", Slug: "honda-cb-hornet", Price: 520000, Reasons: []string{ReasonTrustedBrand}}}, nil
	}

	first, err := GetOrCompute(ctx, cache, logger.NewTestLogger(t), "similar", "recommendations:similar:t", time.Hour, compute)
	require.NoError(t, err)
	second, err := GetOrCompute(ctx, cache, logger.NewTestLogger(t), "similar", "recommendations:similar:t", time.Hour, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestGetOrCompute_CacheFailureFallsThrough(t *testing.T) {
	cache := &brokenCache{}
	want := []BudgetResult{{ID: 9, Title: "Pulsar 150 2021", Price: 98000}}

	got, err := GetOrCompute(context.Background(), cache, logger.NewTestLogger(t), "budget", "recommendations:budget:100000", time.Minute,
		func(context.Context) ([]BudgetResult, error) { return want, nil })

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, cache.gets)
	assert.Equal(t, 1, cache.sets)
}

func TestGetOrCompute_RedisErrorsWithMock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedisCache(db, config.BreakerConfig{}, logger.NewTestLogger(t))

	want := []SimilarResult{{ID: 4, Name: "Gixxer", Reasons: []string{ReasonTrustedAlternative}}}
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet("recommendations:similar:gixxer").SetErr(errors.New("connection reset by peer"))
	mock.ExpectSet("recommendations:similar:gixxer", payload, time.Hour).SetErr(errors.New("connection reset by peer"))

	got, err := GetOrCompute(context.Background(), cache, logger.NewTestLogger(t), "similar", "recommendations:similar:gixxer", time.Hour,
		func(context.Context) ([]SimilarResult, error) { return want, nil })

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCompute_CorruptEntryIsRecomputed(t *testing.T) {
	mr, client := setupMiniredis(t)
	cache := NewRedisCache(client, config.BreakerConfig{}, logger.NewTestLogger(t))
	require.NoError(t, mr.Set("recommendations:budget:5000", "{not json"))

	got, err := GetOrCompute(context.Background(), cache, logger.NewTestLogger(t), "budget", "recommendations:budget:5000", time.Minute,
		func(context.Context) ([]BudgetResult, error) { return []BudgetResult{{ID: 1}}, nil })
	require.NoError(t, err)
	assert.Len(t, got, 1)

	stored, err := mr.Get("recommendations:budget:5000")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"","price":0,"image":"","location":"","year":0,"mileage":0,"bike_name":""}]`, stored)
}

func TestGetOrCompute_ComputeErrorIsNotCached(t *testing.T) {
	mr, client := setupMiniredis(t)
	cache := NewRedisCache(client, config.BreakerConfig{}, logger.NewTestLogger(t))
	boom := errors.New("store down")

	_, err := GetOrCompute(context.Background(), cache, logger.NewTestLogger(t), "similar", "recommendations:similar:x", time.Hour,
		func(context.Context) ([]SimilarResult, error) { return nil, boom })

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("recommendations:similar:x"))
}

func TestGetOrCompute_NilCache(t *testing.T) {
	got, err := GetOrCompute(context.Background(), nil, logger.NewNoOpLogger(), "similar", "k", time.Hour,
		func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}
