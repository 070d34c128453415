package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grocerai/backend/config"
	httpDelivery "github.com/grocerai/backend/internal/delivery/http"
	"github.com/grocerai/backend/internal/domain"
	"github.com/grocerai/backend/internal/infrastructure/cache"
	"github.com/grocerai/backend/internal/infrastructure/catalog"
	"github.com/grocerai/backend/internal/infrastructure/llm"
	"github.com/grocerai/backend/internal/infrastructure/vectorindex"
	"github.com/grocerai/backend/internal/usecase"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config.load_failed", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.Environment, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server.exit", "error", err)
		os.Exit(1)
	}
}

// newLogger returns a JSON logger in production and a text logger elsewhere
func newLogger(environment string, w io.Writer) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("server.starting",
		"version", version,
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"llm_provider", cfg.LLM.Provider,
		"catalog_driver", cfg.Catalog.Driver,
		"index", cfg.Index.Type,
		"cache", cfg.Cache.Type,
	)

	// Catalog
	store, err := catalog.Open(ctx, cfg.Catalog.Driver, cfg.Catalog.DSN, cfg.Catalog.MaxOpenConns, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	lookupCache, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()
	products := catalog.NewCachedRepository(store, lookupCache, cfg.Cache.TTL, logger)

	// Language model
	provider, err := llm.New(ctx, cfg.LLM.Provider, llm.Options{
		APIKey:             cfg.LLM.APIKey,
		BaseURL:            cfg.LLM.BaseURL,
		Model:              cfg.LLM.Model,
		VisionModel:        cfg.LLM.VisionModel,
		TranscriptionModel: cfg.LLM.TranscriptionModel,
		EmbeddingModel:     cfg.LLM.EmbeddingModel,
		Temperature:        cfg.LLM.Temperature,
		Timeout:            cfg.LLM.Timeout,
		RequestsPerSecond:  cfg.LLM.RequestsPerSecond,
		Burst:              cfg.LLM.Burst,
		MaxRetries:         cfg.LLM.MaxRetries,
	}, logger)
	if err != nil {
		return err
	}
	defer provider.Close()

	// Similarity index
	index, err := newIndex(ctx, cfg.Index, products, provider, logger)
	if err != nil {
		return err
	}

	// Usecase layer
	extractor, err := usecase.NewExtractor(index, provider, cfg.Index.TopK, logger)
	if err != nil {
		return err
	}
	orders := usecase.NewOrderService(
		usecase.NewNormalizer(provider, logger),
		usecase.NewSegmenter(cfg.Pipeline.StripLeadIns),
		extractor,
		usecase.NewReconciler(products, usecase.NewScorer(cfg.Pipeline.Scorer), logger),
		usecase.OrderServiceConfig{MaxParallelItems: cfg.Pipeline.MaxParallelItems},
		logger,
	)
	media := usecase.NewMediaService(provider, provider, logger)

	// HTTP
	handler := httpDelivery.NewHandler(orders, products, media, httpDelivery.HandlerConfig{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Readiness:      store,
	}, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, func(), error) {
	switch cfg.Type {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, "grocerai:")
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	default:
		mc := cache.NewMemoryCache(5 * time.Minute)
		return mc, func() { _ = mc.Close() }, nil
	}
}

func newIndex(ctx context.Context, cfg config.IndexConfig, products domain.CatalogRepository, embedder domain.Embedder, logger *slog.Logger) (domain.SimilarityIndex, error) {
	switch cfg.Type {
	case "qdrant":
		return vectorindex.NewQdrant(vectorindex.QdrantConfig{
			URL:        cfg.URL,
			APIKey:     cfg.APIKey,
			Collection: cfg.Collection,
			Timeout:    cfg.Timeout,
		}, embedder, logger), nil
	default:
		index, err := vectorindex.LoadLexical(ctx, products)
		if err != nil {
			return nil, err
		}
		logger.Info("index.lexical.loaded", "products", index.Len())
		return index, nil
	}
}
