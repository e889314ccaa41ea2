// cmd/engine-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"internmatch-workers/internal/common/config"
	"internmatch-workers/internal/common/database"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/common/observability"
	"internmatch-workers/internal/engine"
	"internmatch-workers/internal/features"
	"internmatch-workers/internal/ml"
	"internmatch-workers/internal/models"
	"internmatch-workers/internal/modelstore"
	"internmatch-workers/internal/recommend"
	"internmatch-workers/internal/risk"
	"internmatch-workers/internal/scoring"
	"internmatch-workers/internal/skills"
	"internmatch-workers/internal/store"

	gr "internmatch-workers/internal/workers/matching/get-recommendations"
	pd "internmatch-workers/internal/workers/matching/predict-dropout"
	so "internmatch-workers/internal/workers/matching/score-opportunity"
	tm "internmatch-workers/internal/workers/ml/train-models"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting engine manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("engine-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Assemble the matching engine ---
	taxonomy := skills.New()
	policy := scoring.Policy{
		SkillsWeight:      cfg.Matching.Weights.Skills,
		LocationWeight:    cfg.Matching.Weights.Location,
		EducationWeight:   cfg.Matching.Weights.Education,
		PreferencesWeight: cfg.Matching.Weights.Preferences,
		ProviderWeight:    cfg.Matching.Weights.Provider,
	}

	scorer := scoring.NewEngine(taxonomy, policy)
	estimator := risk.NewEstimator(taxonomy)
	extractor := features.NewExtractor(taxonomy)

	repo := store.NewPostgres(pg, log)
	events := store.NewEventSink(pg, log)
	cache := store.NewCandidateCache(repo, redisClient, 10*time.Minute, log)

	registry := ml.NewRegistry()
	modelStore := modelstore.New(cfg.ML.ModelsDir, log)
	loadPersistedModels(registry, modelStore, log)

	trainer := ml.NewTrainer(repo, extractor, registry, modelStore, log)

	freshnessTTL := time.Duration(cfg.Matching.FreshnessTTLHours) * time.Hour
	freshness := recommend.NewFreshness(redisClient, freshnessTTL, log)
	orchestrator := recommend.NewOrchestrator(repo, scorer, estimator, extractor, registry, events, freshness, log)
	similar := recommend.NewSimilarSearch(esClient, repo, scorer, estimator, log)

	eng := engine.New(
		&engineLookups{repo: repo, cache: cache},
		scorer, estimator, extractor, registry,
		trainer, orchestrator, similar, events, log,
	)

	// --- Register Workers ---
	if cfg.Workers[so.TaskType].Enabled {
		handler := so.NewHandler(
			&so.Config{
				Timeout: time.Duration(cfg.Workers[so.TaskType].Timeout) * time.Millisecond,
			},
			eng, log,
		)
		startWorker(zeebeClient, so.TaskType, cfg.Workers[so.TaskType], instrumented(obs, so.TaskType, handler.Handle), zapLog)
	}

	if cfg.Workers[gr.TaskType].Enabled {
		handler := gr.NewHandler(
			&gr.Config{
				Timeout:      time.Duration(cfg.Workers[gr.TaskType].Timeout) * time.Millisecond,
				DefaultLimit: cfg.Matching.TopKMax / 2,
			},
			eng, log,
		)
		startWorker(zeebeClient, gr.TaskType, cfg.Workers[gr.TaskType], instrumented(obs, gr.TaskType, handler.Handle), zapLog)
	}

	if cfg.Workers[pd.TaskType].Enabled {
		handler := pd.NewHandler(
			&pd.Config{
				Timeout: time.Duration(cfg.Workers[pd.TaskType].Timeout) * time.Millisecond,
			},
			eng, log,
		)
		startWorker(zeebeClient, pd.TaskType, cfg.Workers[pd.TaskType], instrumented(obs, pd.TaskType, handler.Handle), zapLog)
	}

	if cfg.Workers[tm.TaskType].Enabled {
		handler := tm.NewHandler(
			&tm.Config{
				Timeout: time.Duration(cfg.Workers[tm.TaskType].Timeout) * time.Millisecond,
			},
			eng, log,
		)
		startWorker(zeebeClient, tm.TaskType, cfg.Workers[tm.TaskType], instrumented(obs, tm.TaskType, handler.Handle), zapLog)
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"models": fmt.Sprintf("%d", len(registry.Names())),
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Engine manager stopped gracefully")
}

// engineLookups routes profile reads through the Redis cache and everything
// else straight to Postgres.
type engineLookups struct {
	repo  *store.Postgres
	cache *store.CandidateCache
}

func (l *engineLookups) CandidateByID(ctx context.Context, id string) (*models.CandidateProfile, error) {
	return l.cache.CandidateByID(ctx, id)
}

func (l *engineLookups) OpportunityByID(ctx context.Context, id string) (*models.Opportunity, error) {
	return l.repo.OpportunityByID(ctx, id)
}

func (l *engineLookups) ApplicationByID(ctx context.Context, id string) (*models.Application, error) {
	return l.repo.ApplicationByID(ctx, id)
}

// loadPersistedModels fills the registry with whatever artifacts survived
// the last run. A cold start with no models is fine.
func loadPersistedModels(registry *ml.Registry, modelStore *modelstore.Store, log logger.Logger) {
	saved, err := modelStore.List()
	if err != nil {
		log.Warn("Could not list persisted models", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	for _, meta := range saved {
		n, err := modelStore.Load(meta.Name)
		if err != nil {
			log.Warn("Could not load persisted model", map[string]interface{}{
				"model": meta.Name,
				"error": err.Error(),
			})
			continue
		}
		registry.Put(n)
		log.Info("Model loaded", map[string]interface{}{
			"model":   meta.Name,
			"version": meta.Version,
		})
	}
}

// instrumented wraps a handler so every job records an otel count and
// duration for its task type.
func instrumented(obs *observability.Observability, taskType string, handlerFunc func(worker.JobClient, entities.Job)) func(worker.JobClient, entities.Job) {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		handlerFunc(client, job)
		obs.RecordTask(context.Background(), taskType, time.Since(start))
	}
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
