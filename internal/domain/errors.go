package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNoMatchingProducts is returned when an order resolves to zero items
	ErrNoMatchingProducts = errors.New("no matching products found")

	// ErrNoCandidates is returned when the similarity index has nothing for a phrase
	ErrNoCandidates = errors.New("no catalog candidates for phrase")

	// ErrMalformedExtraction is returned when the extractor output cannot be parsed
	ErrMalformedExtraction = errors.New("malformed extraction output")

	// ErrProductNotFound is returned when a catalog lookup finds no row
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrLLMFailure is returned when a language model request fails
	ErrLLMFailure = errors.New("language model request failed")

	// ErrCatalogFailure is returned when the catalog store cannot be queried
	ErrCatalogFailure = errors.New("catalog query failed")

	// ErrIndexFailure is returned when the similarity index cannot be queried
	ErrIndexFailure = errors.New("similarity search failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnsupportedMedia is returned for uploads the collaborators cannot read
	ErrUnsupportedMedia = errors.New("unsupported media type")
)
