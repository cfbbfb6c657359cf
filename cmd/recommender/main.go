// cmd/recommender/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bike-recommender/internal/api"
	"bike-recommender/internal/common/camunda"
	"bike-recommender/internal/common/config"
	"bike-recommender/internal/common/database"
	"bike-recommender/internal/common/logger"
	"bike-recommender/internal/common/observability"
	"bike-recommender/internal/recommendation"
	esstore "bike-recommender/internal/store/elasticsearch"
	pgstore "bike-recommender/internal/store/postgres"

	sb "bike-recommender/internal/workers/recommendation/similar-bikes"
	ub "bike-recommender/internal/workers/recommendation/used-bikes-near-budget"
)

// retryWithBackoff attempts an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.NewStructured("info", "console")
		boot.Error("config load failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("Starting bike recommender", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"profile":     cfg.Recommendation.Profile,
		"poolSource":  cfg.Recommendation.PoolSource,
	})

	obs, err := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	cache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	profile, err := recommendation.ProfileByName(cfg.Recommendation.Profile)
	if err != nil {
		zapLog.Fatal("unknown recommendation profile", zap.Error(err))
	}
	profile, err = profile.WithOverrides(
		cfg.Recommendation.SimilarWeights,
		cfg.Recommendation.BudgetWeights,
		cfg.Recommendation.BrandTrust,
	)
	if err != nil {
		zapLog.Fatal("invalid weight overrides", zap.Error(err))
	}

	engine := recommendation.NewEngine(store, cache, profile, recommendation.EngineConfigFrom(cfg.Recommendation), log)

	// --- Zeebe workers ---
	var workers []*camunda.Worker
	if cfg.Camunda.Enabled {
		zeebe, err := camunda.NewClient(ctx, camunda.ConfigFrom(cfg.Camunda), log)
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		defer zeebe.Close()

		similar := sb.NewHandler(sb.ConfigFrom(cfg), engine, obs, log)
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), sb.TaskType, config.GetWorkerConfig(cfg, sb.TaskType), similar, log))

		budget := ub.NewHandler(ub.ConfigFrom(cfg), engine, obs, log)
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), ub.TaskType, config.GetWorkerConfig(cfg, ub.TaskType), budget, log))
	}

	// --- HTTP ---
	server := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewRouter(api.NewHandler(engine, log), config.GetDuration(cfg.HTTP.RequestTimeout), log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"address": cfg.HTTP.Address})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}

	log.Info("Shutdown complete", nil)
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (recommendation.CandidateStore, func()) {
	if cfg.Recommendation.PoolSource == config.PoolSourceElasticsearch {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = retryWithBackoff(func() error { return es.Ping(ctx) }, 15, 2*time.Second, log, "Elasticsearch connection")
		}
		if err != nil {
			log.Error("elasticsearch unavailable", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		log.Info("Elasticsearch connected successfully", nil)
		return esstore.NewStore(es.Client, es.BikeIndex, es.ListingIndex, log), func() {}
	}

	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		log.Error("postgres unavailable", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("PostgreSQL connected successfully", nil)
	return pgstore.NewStore(pg.DB, log), func() { _ = pg.Close() }
}

// openCache falls back to the no-op cache when redis is disabled or down at
// startup; recommendations are then computed on every request.
func openCache(ctx context.Context, cfg *config.Config, log logger.Logger) (recommendation.Cache, func()) {
	if !cfg.Database.Redis.Enabled {
		log.Info("Redis disabled, caching off", nil)
		return recommendation.NoopCache{}, func() {}
	}

	rc, err := database.NewRedis(cfg.Database.Redis)
	if err == nil {
		err = rc.Ping(ctx)
	}
	if err != nil {
		log.Warn("Redis unavailable, caching off", map[string]interface{}{"error": err.Error()})
		_ = rc.Close()
		return recommendation.NoopCache{}, func() {}
	}

	log.Info("Redis connected successfully", nil)
	return recommendation.NewRedisCache(rc.Client, cfg.Recommendation.CircuitBreaker, log), func() { _ = rc.Close() }
}
