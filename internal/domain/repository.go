package domain

import (
	"context"
	"io"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CatalogRepository is the read-only view of the product table.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	// FindByNameContains returns every row whose name contains fragment,
	// case-insensitively, in table order.
	FindByNameContains(ctx context.Context, fragment string) ([]Product, error)
	// FindByName returns the row whose name equals name, case-insensitively.
	FindByName(ctx context.Context, name string) (*Product, error)
}

// SimilarityIndex is the nearest-neighbour search over product names.
type SimilarityIndex interface {
	Search(ctx context.Context, query string, k int) ([]SearchHit, error)
}

// ChatModel sends one system + user prompt pair to a language model and
// returns the raw text of the first answer.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Embedder turns text into a query vector for the similarity index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Transcriber converts recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// ImageReader reads the order text written or printed in an image.
type ImageReader interface {
	ReadImage(ctx context.Context, mimeType string, image []byte) (string, error)
}
