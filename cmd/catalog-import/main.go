// Command catalog-import loads a products CSV or XLSX file into the catalog
// table and, optionally, the Qdrant collection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/grocerai/backend/config"
	"github.com/grocerai/backend/internal/infrastructure/catalog"
	"github.com/grocerai/backend/internal/infrastructure/llm"
	"github.com/grocerai/backend/internal/infrastructure/vectorindex"
)

func main() {
	file := flag.String("file", "products.csv", "products .csv or .xlsx file")
	sheet := flag.String("sheet", "", "xlsx sheet name (default: first sheet)")
	index := flag.Bool("index", false, "also embed products into the configured Qdrant collection")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *file, *sheet, *index, logger); err != nil {
		logger.Error("import.failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, file, sheet string, pushIndex bool, logger *slog.Logger) error {
	cfg, err := config.Read()
	if err != nil {
		return err
	}

	products, err := catalog.LoadFile(file, sheet)
	if err != nil {
		return fmt.Errorf("load %s: %w", file, err)
	}
	logger.Info("import.read", "file", file, "products", len(products))

	store, err := catalog.Open(ctx, cfg.Catalog.Driver, cfg.Catalog.DSN, 1, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := store.ReplaceAll(ctx, products); err != nil {
		return err
	}

	if !pushIndex {
		return nil
	}
	if cfg.Index.URL == "" || cfg.LLM.APIKey == "" {
		return fmt.Errorf("-index needs GROCERAI_INDEX_URL and GROCERAI_LLM_API_KEY")
	}

	provider, err := llm.New(ctx, cfg.LLM.Provider, llm.Options{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		EmbeddingModel:    cfg.LLM.EmbeddingModel,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Burst:             cfg.LLM.Burst,
		MaxRetries:        cfg.LLM.MaxRetries,
	}, logger)
	if err != nil {
		return err
	}
	defer provider.Close()

	qdrant := vectorindex.NewQdrant(vectorindex.QdrantConfig{
		URL:        cfg.Index.URL,
		APIKey:     cfg.Index.APIKey,
		Collection: cfg.Index.Collection,
		Timeout:    cfg.Index.Timeout,
	}, provider, logger)
	return qdrant.UpsertProducts(ctx, products)
}
