package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/grocerai/backend/internal/domain"
)

// Reconciler maps extracted product names onto authoritative catalog rows.
type Reconciler struct {
	catalog domain.CatalogRepository
	scorer  Scorer
	logger  *slog.Logger
}

// NewReconciler creates a reconciler. A nil scorer means token overlap.
func NewReconciler(catalog domain.CatalogRepository, scorer Scorer, logger *slog.Logger) *Reconciler {
	if scorer == nil {
		scorer = TokenOverlapScorer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{catalog: catalog, scorer: scorer, logger: logger}
}

// Reconcile resolves one extracted item. It never fails: catalog errors are
// logged and the item passes through with whatever the extractor produced.
func (r *Reconciler) Reconcile(ctx context.Context, item domain.ExtractedItem) domain.ResolvedItem {
	if !item.Metadata.IsZero() {
		return r.attachImage(ctx, item)
	}

	tokens := tokenize(item.ProductName)
	if len(tokens) == 0 {
		return passThrough(item)
	}
	base := tokens[0]

	candidates, err := r.catalog.FindByNameContains(ctx, base)
	if err != nil {
		r.logger.Warn("reconcile.catalog_lookup_failed", "product", item.ProductName, "base", base, "error", err)
		return passThrough(item)
	}

	best, score := r.bestMatch(ctx, item.ProductName, candidates)
	if best == nil {
		r.logger.Debug("reconcile.no_match", "product", item.ProductName, "candidates", len(candidates))
		return passThrough(item)
	}

	r.logger.Debug("reconcile.matched", "product", item.ProductName, "catalog", best.Name, "score", score)

	return domain.ResolvedItem{
		ProductName: best.Name,
		Quantity:    item.Quantity,
		Price:       best.Price,
		ImageURL:    best.ImageURL,
		Category:    best.Category,
		Subcategory: best.Subcategory,
		PackSize:    best.PackSize,
		Matched:     true,
	}
}

// bestMatch returns the highest-scoring candidate. Ties keep the first row
// seen and a zero score never matches.
func (r *Reconciler) bestMatch(ctx context.Context, name string, candidates []domain.Product) (*domain.Product, float64) {
	var best *domain.Product
	highestScore := 0.0

	for i := range candidates {
		if ctx.Err() != nil {
			return nil, 0
		}
		score := r.scorer.Score(candidates[i].Name, name)
		if score > highestScore {
			highestScore = score
			best = &candidates[i]
		}
	}
	return best, highestScore
}

// attachImage trusts the extractor's metadata and only looks up the image.
func (r *Reconciler) attachImage(ctx context.Context, item domain.ExtractedItem) domain.ResolvedItem {
	resolved := passThrough(item)

	product, err := r.catalog.FindByName(ctx, item.ProductName)
	switch {
	case err == nil:
		resolved.ImageURL = product.ImageURL
		resolved.Matched = true
	case errors.Is(err, domain.ErrProductNotFound):
		r.logger.Debug("reconcile.image_not_found", "product", item.ProductName)
	default:
		r.logger.Warn("reconcile.image_lookup_failed", "product", item.ProductName, "error", err)
	}
	return resolved
}

func passThrough(item domain.ExtractedItem) domain.ResolvedItem {
	resolved := domain.ResolvedItem{
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
	}
	if m := item.Metadata; m != nil {
		resolved.Price = m.Price
		resolved.PackSize = m.PackSize
		resolved.Category = m.Category
		resolved.Subcategory = m.Subcategory
	}
	return resolved
}
