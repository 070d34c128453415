package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/grocerai/backend/internal/domain"
	"github.com/grocerai/backend/internal/infrastructure/cache"
)

// CachedRepository decorates a CatalogRepository with a lookup cache.
// The catalog is immutable between imports, so entries only expire by TTL.
type CachedRepository struct {
	next   domain.CatalogRepository
	cache  domain.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository creates a caching decorator. ttl <= 0 means one hour.
func NewCachedRepository(next domain.CatalogRepository, c domain.CacheRepository, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{next: next, cache: c, ttl: ttl, logger: logger}
}

// ListProducts implements domain.CatalogRepository.
func (r *CachedRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return cachedList(ctx, r, "catalog:all", func() ([]domain.Product, error) {
		return r.next.ListProducts(ctx)
	})
}

// FindByNameContains implements domain.CatalogRepository.
func (r *CachedRepository) FindByNameContains(ctx context.Context, fragment string) ([]domain.Product, error) {
	key := "catalog:contains:" + normalizeKey(fragment)
	return cachedList(ctx, r, key, func() ([]domain.Product, error) {
		return r.next.FindByNameContains(ctx, fragment)
	})
}

// FindByName implements domain.CatalogRepository. Misses are not cached.
func (r *CachedRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	key := "catalog:name:" + normalizeKey(name)
	if p, ok := r.lookup(ctx, key); ok {
		var product domain.Product
		if err := cache.Decode(p, &product); err == nil {
			return &product, nil
		}
	}

	product, err := r.next.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, product)
	return product, nil
}

func cachedList(ctx context.Context, r *CachedRepository, key string, load func() ([]domain.Product, error)) ([]domain.Product, error) {
	if v, ok := r.lookup(ctx, key); ok {
		var products []domain.Product
		if err := cache.Decode(v, &products); err == nil {
			return products, nil
		}
		r.logger.Warn("catalog.cache_decode_failed", "key", key)
	}

	products, err := load()
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, products)
	return products, nil
}

func (r *CachedRepository) lookup(ctx context.Context, key string) (interface{}, bool) {
	v, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			r.logger.Warn("catalog.cache_get_failed", "key", key, "error", err)
		}
		return nil, false
	}
	return v, true
}

func (r *CachedRepository) store(ctx context.Context, key string, value interface{}) {
	if err := r.cache.Set(ctx, key, value, r.ttl); err != nil {
		// Log but don't fail if caching fails
		r.logger.Warn("catalog.cache_set_failed", "key", key, "error", err)
	}
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
