// internal/recommendation/engine.go
package recommendation

import (
	"context"
	"errors"
	"math"
	"time"

	"bike-recommender/internal/common/config"
	apperrors "bike-recommender/internal/common/errors"
	"bike-recommender/internal/common/logger"
	"bike-recommender/internal/common/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	kindSimilar = "similar"
	kindBudget  = "budget"

	fallbackDefaultLimit = 4
)

// EngineConfig holds the query-level settings of the engine. A zero MaxLimit
// leaves the caller's limit uncapped.
type EngineConfig struct {
	SameCategoryOnly bool
	DefaultLimit     int
	MaxLimit         int
	SimilarTTL       time.Duration
	BudgetTTL        time.Duration
	// QueryTimeout bounds one store round trip (target plus pool). Zero
	// leaves the caller's deadline in charge.
	QueryTimeout time.Duration
}

// EngineConfigFrom maps the recommendation config section.
func EngineConfigFrom(cfg config.RecommendationConfig) EngineConfig {
	return EngineConfig{
		SameCategoryOnly: cfg.SameCategoryOnly,
		DefaultLimit:     cfg.DefaultLimit,
		MaxLimit:         cfg.MaxLimit,
		SimilarTTL:       time.Duration(cfg.SimilarCacheTTL) * time.Second,
		BudgetTTL:        time.Duration(cfg.BudgetCacheTTL) * time.Second,
		QueryTimeout:     config.GetDuration(cfg.Timeout),
	}
}

// Engine answers similar-bike and near-budget queries. It is safe for
// concurrent use; the only shared state is the cache.
type Engine struct {
	store   CandidateStore
	cache   Cache
	profile Profile
	cfg     EngineConfig
	log     logger.Logger
	tracer  trace.Tracer
}

func NewEngine(store CandidateStore, cache Cache, profile Profile, cfg EngineConfig, log logger.Logger) *Engine {
	if cache == nil {
		cache = NoopCache{}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if cfg.MaxLimit < 0 {
		cfg.MaxLimit = 0
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = fallbackDefaultLimit
	}
	if cfg.MaxLimit > 0 && cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	return &Engine{
		store:   store,
		cache:   cache,
		profile: profile,
		cfg:     cfg,
		log:     log.WithFields(map[string]interface{}{"component": "recommendation-engine", "profile": profile.Name}),
		tracer:  otel.Tracer("bike-recommender/recommendation"),
	}
}

// DefaultLimit is the result count used when the caller gives none.
func (e *Engine) DefaultLimit() int { return e.cfg.DefaultLimit }

// CacheMode reports which cache implementation is in use.
func (e *Engine) CacheMode() string { return e.cache.Mode() }

// Ping checks the candidate store.
func (e *Engine) Ping(ctx context.Context) error { return e.store.Ping(ctx) }

// SimilarTo returns up to limit catalogue bikes similar to the bike with the
// given slug. An unknown slug yields an empty list.
func (e *Engine) SimilarTo(ctx context.Context, slug string, limit int) ([]SimilarResult, error) {
	ctx, span := e.tracer.Start(ctx, "recommendation.SimilarTo", trace.WithAttributes(
		attribute.String("bike.slug", slug),
		attribute.Int("limit", limit),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues(kindSimilar).Observe(time.Since(start).Seconds())
	}()

	results, err := GetOrCompute(ctx, e.cache, e.log, kindSimilar, SimilarCacheKey(slug), e.cfg.SimilarTTL,
		func(ctx context.Context) ([]SimilarResult, error) {
			ctx, cancel := e.queryContext(ctx)
			defer cancel()
			return e.computeSimilar(ctx, slug)
		})
	if errors.Is(err, ErrNotFound) {
		metrics.RecommendationRequests.WithLabelValues(kindSimilar, "not_found").Inc()
		e.log.Debug("Similar bikes requested for unknown slug", map[string]interface{}{"slug": slug})
		return []SimilarResult{}, nil
	}
	if err != nil {
		return nil, e.fail(span, kindSimilar, err)
	}

	results = truncate(results, e.clampLimit(limit))
	metrics.RecommendationRequests.WithLabelValues(kindSimilar, outcome(len(results))).Inc()
	span.SetAttributes(attribute.Int("result.count", len(results)))
	return results, nil
}

// NearBudget returns up to limit active used listings priced near budget.
// A non-positive budget yields an empty list.
func (e *Engine) NearBudget(ctx context.Context, budget float64, limit int) ([]BudgetResult, error) {
	ctx, span := e.tracer.Start(ctx, "recommendation.NearBudget", trace.WithAttributes(
		attribute.Float64("budget", budget),
		attribute.Int("limit", limit),
	))
	defer span.End()

	if budget <= 0 || math.IsNaN(budget) || math.IsInf(budget, 0) {
		metrics.RecommendationRequests.WithLabelValues(kindBudget, "empty").Inc()
		return []BudgetResult{}, nil
	}

	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues(kindBudget).Observe(time.Since(start).Seconds())
	}()

	results, err := GetOrCompute(ctx, e.cache, e.log, kindBudget, BudgetCacheKey(budget), e.cfg.BudgetTTL,
		func(ctx context.Context) ([]BudgetResult, error) {
			ctx, cancel := e.queryContext(ctx)
			defer cancel()
			return e.computeNearBudget(ctx, budget)
		})
	if err != nil {
		return nil, e.fail(span, kindBudget, err)
	}

	results = truncate(results, e.clampLimit(limit))
	metrics.RecommendationRequests.WithLabelValues(kindBudget, outcome(len(results))).Inc()
	span.SetAttributes(attribute.Int("result.count", len(results)))
	return results, nil
}

// computeSimilar ranks the whole eligible pool. Callers truncate, so one
// cache entry per slug serves every requested limit.
func (e *Engine) computeSimilar(ctx context.Context, slug string) ([]SimilarResult, error) {
	target, err := e.store.FindTargetByKey(ctx, slug)
	if err != nil {
		return nil, err
	}

	filter := PoolFilter{Kind: PoolKindBikes, ExcludeID: target.ID}
	if e.cfg.SameCategoryOnly {
		filter.Category = target.Category
	}
	pool, err := e.store.FindCandidatePool(ctx, filter)
	if err != nil {
		return nil, err
	}

	eligible := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		if c.ID == target.ID {
			continue
		}
		if e.cfg.SameCategoryOnly && c.Category != target.Category {
			continue
		}
		eligible = append(eligible, c)
	}
	metrics.CandidatePoolSize.WithLabelValues(kindSimilar).Observe(float64(len(eligible)))

	weights := e.profile.Similar
	ranked := Rank(eligible, func(c Candidate) (float64, []string) {
		return ScoreSimilar(*target, c, weights)
	}, len(eligible))

	out := make([]SimilarResult, 0, len(ranked))
	for _, sc := range ranked {
		out = append(out, toSimilarResult(sc))
	}
	return out, nil
}

func (e *Engine) computeNearBudget(ctx context.Context, budget float64) ([]BudgetResult, error) {
	weights := e.profile.Budget
	lo, hi := BudgetRange(budget, weights)

	pool, err := e.store.FindCandidatePool(ctx, PoolFilter{Kind: PoolKindListings, MinPrice: lo, MaxPrice: hi})
	if err != nil {
		return nil, err
	}

	eligible := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		if InBudgetRange(budget, c, weights) {
			eligible = append(eligible, c)
		}
	}
	metrics.CandidatePoolSize.WithLabelValues(kindBudget).Observe(float64(len(eligible)))

	ranked := Rank(eligible, func(c Candidate) (float64, []string) {
		return ScoreNearBudget(budget, c, weights), nil
	}, len(eligible))

	out := make([]BudgetResult, 0, len(ranked))
	for _, sc := range ranked {
		out = append(out, toBudgetResult(sc))
	}
	return out, nil
}

func (e *Engine) fail(span trace.Span, kind string, err error) error {
	var stdErr *apperrors.StandardError
	if !errors.As(err, &stdErr) {
		err = apperrors.NewRecommendationFailedError(err)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.RecommendationRequests.WithLabelValues(kind, "error").Inc()
	e.log.Error("Recommendation query failed", map[string]interface{}{
		"kind":  kind,
		"error": err.Error(),
	})
	return err
}

func (e *Engine) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.QueryTimeout)
}

func (e *Engine) clampLimit(limit int) int {
	if e.cfg.MaxLimit > 0 && limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

func truncate[T any](items []T, limit int) []T {
	if limit < 0 {
		limit = 0
	}
	if items == nil {
		return []T{}
	}
	if limit < len(items) {
		return items[:limit]
	}
	return items
}

func outcome(n int) string {
	if n == 0 {
		return "empty"
	}
	return "ok"
}
