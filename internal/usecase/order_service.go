package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grocerai/backend/internal/domain"
)

// TextNormalizer corrects and translates raw order text.
type TextNormalizer interface {
	Normalize(ctx context.Context, text string) (string, error)
}

// ItemExtractor turns one phrase into structured items.
type ItemExtractor interface {
	Extract(ctx context.Context, req domain.OrderItemRequest) ([]domain.ExtractedItem, error)
}

// ItemReconciler resolves an extracted item against the catalog.
type ItemReconciler interface {
	Reconcile(ctx context.Context, item domain.ExtractedItem) domain.ResolvedItem
}

// OrderServiceConfig holds configuration for the order service
type OrderServiceConfig struct {
	MaxParallelItems int
}

// OrderService runs the order resolution pipeline:
// normalize -> segment -> per phrase (extract -> reconcile) -> assemble.
type OrderService struct {
	normalizer  TextNormalizer
	segmenter   *Segmenter
	extractor   ItemExtractor
	reconciler  ItemReconciler
	maxParallel int
	logger      *slog.Logger
}

// NewOrderService creates a new order service with dependencies
func NewOrderService(
	normalizer TextNormalizer,
	segmenter *Segmenter,
	extractor ItemExtractor,
	reconciler ItemReconciler,
	config OrderServiceConfig,
	logger *slog.Logger,
) *OrderService {
	maxParallel := config.MaxParallelItems
	if maxParallel <= 0 {
		maxParallel = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		normalizer:  normalizer,
		segmenter:   segmenter,
		extractor:   extractor,
		reconciler:  reconciler,
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// phraseOutcome is what one phrase contributed to the order.
type phraseOutcome struct {
	items   []domain.ResolvedItem
	skipped bool
}

// ProcessOrder resolves a free-text order into catalog items.
// Phrases that yield nothing are reported in Unmatched. An order that
// resolves to no items at all fails with domain.ErrNoMatchingProducts.
func (s *OrderService) ProcessOrder(ctx context.Context, query string) (*domain.OrderResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}
	start := time.Now()

	normalized, err := s.normalizer.Normalize(ctx, query)
	if err != nil {
		return nil, err
	}

	phrases := s.segmenter.Split(normalized)
	s.logger.Info("order.segmented", "phrases", len(phrases), "normalized", normalized)
	if len(phrases) == 0 {
		return nil, domain.ErrNoMatchingProducts
	}

	outcomes := make([]phraseOutcome, len(phrases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i, phrase := range phrases {
		g.Go(func() error {
			out, err := s.processPhrase(gctx, phrase)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &domain.OrderResult{
		Result:    []domain.ResolvedItem{},
		Unmatched: []string{},
	}
	for i, out := range outcomes {
		if out.skipped {
			result.Unmatched = append(result.Unmatched, phrases[i].RawPhrase)
			continue
		}
		result.Result = append(result.Result, out.items...)
	}

	if len(result.Result) == 0 {
		s.logger.Info("order.no_matches", "phrases", len(phrases), "duration", time.Since(start))
		return nil, domain.ErrNoMatchingProducts
	}

	result.Total = orderTotal(result.Result)
	s.logger.Info("order.resolved",
		"items", len(result.Result),
		"unmatched", len(result.Unmatched),
		"duration", time.Since(start),
	)
	return result, nil
}

// processPhrase extracts and reconciles one phrase. Per-phrase misses are
// reported as skipped; only upstream failures are returned as errors.
func (s *OrderService) processPhrase(ctx context.Context, phrase domain.OrderItemRequest) (phraseOutcome, error) {
	extracted, err := s.extractor.Extract(ctx, phrase)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoCandidates),
		errors.Is(err, domain.ErrMalformedExtraction),
		errors.Is(err, domain.ErrInvalidRequest):
		s.logger.Info("order.phrase.skipped", "phrase", phrase.RawPhrase, "reason", err.Error())
		return phraseOutcome{skipped: true}, nil
	default:
		return phraseOutcome{}, fmt.Errorf("phrase %q: %w", phrase.RawPhrase, err)
	}

	if len(extracted) == 0 {
		s.logger.Info("order.phrase.skipped", "phrase", phrase.RawPhrase, "reason", "no items extracted")
		return phraseOutcome{skipped: true}, nil
	}

	items := make([]domain.ResolvedItem, 0, len(extracted))
	for _, item := range extracted {
		items = append(items, s.reconciler.Reconcile(ctx, item))
	}
	return phraseOutcome{items: items}, nil
}

// orderTotal sums price x quantity, rounded to cents.
func orderTotal(items []domain.ResolvedItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * it.Quantity
	}
	return math.Round(total*100) / 100
}
