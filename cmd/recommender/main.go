package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/assesshub/recommender/internal/config"
	dbRedis "github.com/assesshub/recommender/internal/db/redis"
	"github.com/assesshub/recommender/internal/domain"
	logpkg "github.com/assesshub/recommender/internal/logger"
	"github.com/assesshub/recommender/internal/metrics"
	catalogrepo "github.com/assesshub/recommender/internal/repository/catalog"
	"github.com/assesshub/recommender/internal/repository/embcache"
	chiTransport "github.com/assesshub/recommender/internal/transport/chi"
	openaiTransport "github.com/assesshub/recommender/internal/transport/openai"
	healthuc "github.com/assesshub/recommender/internal/usecase/health"
	indexeruc "github.com/assesshub/recommender/internal/usecase/indexer"
	recommenduc "github.com/assesshub/recommender/internal/usecase/recommend"
	rerankuc "github.com/assesshub/recommender/internal/usecase/rerank"
	retrievaluc "github.com/assesshub/recommender/internal/usecase/retrieval"
	"github.com/assesshub/recommender/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting assessment recommender API",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_model", cfg.LLM.EmbeddingModel),
		zap.String("rerank_model", cfg.LLM.RerankModel),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Base provider with transport metrics built in. It also serves the backfill
	// worker, which needs native batch embedding and no query instruction.
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.EmbeddingModel,
		Dimensions: cfg.LLM.Dimensions,
		Logger:     logger,
	})
	queryEmbedder := buildQueryEmbedder(baseEmbedder, store, &cfg, logger)
	logger.Info("Embedder chain created",
		zap.String("model", cfg.LLM.EmbeddingModel),
		zap.Int("dimensions", cfg.LLM.Dimensions),
		zap.Bool("cache", !cfg.LLM.DisableEmbedCache),
	)

	catalogRepo := catalogrepo.New(store, catalogrepo.Config{
		KeyPrefix:       cfg.Storage.KeyPrefix,
		Dimensions:      cfg.LLM.Dimensions,
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := catalogRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure catalog index", zap.Error(err))
	}

	retrievalSvc := retrievaluc.New(queryEmbedder, catalogRepo, retrievaluc.Config{
		Multiplier:   cfg.Pipeline.RetrievalMultiplier,
		MinExtra:     cfg.Pipeline.MinExtraCandidates,
		EmbedTimeout: time.Duration(cfg.LLM.EmbedTimeoutSec) * time.Second,
	}, logger)

	var rerankClient rerankuc.ChatClient
	if cfg.LLM.RerankModel != "" {
		rerankClient = openaiTransport.NewReranker(&openaiTransport.RerankerConfig{
			APIKey:    cfg.LLM.APIKey,
			BaseURL:   cfg.LLM.BaseURL,
			Model:     cfg.LLM.RerankModel,
			Temp:      cfg.LLM.RerankTemperature,
			MaxTokens: cfg.LLM.RerankMaxOutputTok,
		})
	}
	rerankSvc := rerankuc.New(rerankClient, rerankuc.Config{
		Timeout: time.Duration(cfg.LLM.RerankTimeoutSec) * time.Second,
	}, logger)

	recommendSvc := recommenduc.New(retrievalSvc, rerankSvc, catalogRepo, recommenduc.Config{
		MaxTopK:              cfg.Pipeline.MaxTopK,
		DefaultTopK:          cfg.Pipeline.DefaultTopK,
		DefaultMinSimilarity: cfg.Pipeline.MinSimilarity,
	}, logger)

	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(recommendSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	// Embedding backfill worker
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.Indexer.Enabled {
		worker := indexeruc.New(catalogRepo, baseEmbedder, indexeruc.Config{
			Interval:  time.Duration(cfg.Indexer.IntervalSec) * time.Second,
			BatchSize: cfg.Indexer.BatchSize,
		}, logger.Named("indexer"))
		go worker.Run(workerCtx)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildQueryEmbedder assembles the decorator chain used on the request path:
// OpenAI -> Cached -> Retry -> Instruction.
func buildQueryEmbedder(
	base domain.Embedder,
	store *dbRedis.Store,
	cfg *config.Config,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base

	if !cfg.LLM.DisableEmbedCache {
		embedder = embcache.New(base, store, embcache.Config{
			Model:     cfg.LLM.EmbeddingModel,
			KeyPrefix: cfg.Storage.KeyPrefix,
			TTL:       time.Duration(cfg.LLM.EmbedCacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = domain.NewRetryEmbedder(
		embedder,
		cfg.LLM.EmbedMaxAttempts,
		time.Duration(cfg.LLM.EmbedRetryDelayMS)*time.Millisecond,
		logger,
	)

	// Instruction prefix outermost, so the cache key includes the instruction.
	if cfg.LLM.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.LLM.QueryInstruction)
	}

	return embedder
}
