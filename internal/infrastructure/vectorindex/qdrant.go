package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grocerai/backend/internal/domain"
)

// QdrantConfig configures the Qdrant REST client
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Qdrant is a similarity index backed by a Qdrant collection. Queries are
// embedded with the configured Embedder and searched by cosine distance.
type Qdrant struct {
	url        string
	apiKey     string
	collection string
	embedder   domain.Embedder
	client     *http.Client
	logger     *slog.Logger
}

// NewQdrant creates a Qdrant index client
func NewQdrant(cfg QdrantConfig, embedder domain.Embedder, logger *slog.Logger) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Qdrant{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embedder:   embedder,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Search implements domain.SimilarityIndex.
func (q *Qdrant) Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		k = 5
	}
	vector, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp searchResponse
	if err := q.do(ctx, http.MethodPost, q.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit, ok := hitFromPayload(r.Payload)
		if !ok {
			q.logger.Warn("index.qdrant.point_without_name", "collection", q.collection)
			continue
		}
		hit.Score = r.Score
		hits = append(hits, hit)
	}
	return hits, nil
}

// Init creates the collection if it does not exist. An existing collection
// is left as is.
func (q *Qdrant) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}

	err := q.do(ctx, http.MethodGet, q.collectionURL(""), nil, nil)
	if err == nil {
		q.logger.Debug("index.qdrant.collection_exists", "collection", q.collection)
		return nil
	}
	if !hasStatus(err, http.StatusNotFound) {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	err = q.do(ctx, http.MethodPut, q.collectionURL(""), body, nil)
	if hasStatus(err, http.StatusConflict) {
		// created concurrently
		return nil
	}
	if err == nil {
		q.logger.Info("index.qdrant.collection_created", "collection", q.collection, "dimension", dimension)
	}
	return err
}

// UpsertProducts embeds each product name and writes it with its pack
// metadata. Point IDs derive from the name, so re-importing overwrites.
func (q *Qdrant) UpsertProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	points := make([]map[string]any, 0, len(products))
	for i, p := range products {
		vector, err := q.embedder.Embed(ctx, p.Name)
		if err != nil {
			return fmt.Errorf("embed %q: %w", p.Name, err)
		}
		if i == 0 {
			if err := q.Init(ctx, len(vector)); err != nil {
				return err
			}
		}
		points = append(points, map[string]any{
			"id":     pointID(p.Name),
			"vector": vector,
			"payload": map[string]any{
				"productname": p.Name,
				"packSize":    p.PackSize,
				"price":       p.Price,
				"category":    p.Category,
				"subcategory": p.Subcategory,
			},
		})
	}

	body := map[string]any{"points": points}
	if err := q.do(ctx, http.MethodPut, q.collectionURL("/points?wait=true"), body, nil); err != nil {
		return err
	}
	q.logger.Info("index.qdrant.upserted", "collection", q.collection, "points", len(points))
	return nil
}

func pointID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("product:"+strings.ToLower(name))).String()
}

func (q *Qdrant) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", q.url, q.collection, suffix)
}

// StatusError is a non-2xx answer from Qdrant.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %d %s: %s", e.Method, e.URL, e.Status, http.StatusText(e.Status), e.Body)
}

func hasStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

func (q *Qdrant) do(ctx context.Context, method, url string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode qdrant request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, URL: url, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// hitFromPayload reads the product name and optional pack metadata.
func hitFromPayload(payload map[string]any) (domain.SearchHit, bool) {
	var hit domain.SearchHit
	for _, key := range []string{"productname", "name", "document"} {
		if v, ok := payload[key].(string); ok && v != "" {
			hit.Name = v
			break
		}
	}
	if hit.Name == "" {
		return hit, false
	}

	meta := &domain.ItemMetadata{
		PackSize:    stringField(payload, "packSize"),
		Category:    stringField(payload, "category"),
		Subcategory: stringField(payload, "subcategory"),
	}
	switch v := payload["price"].(type) {
	case float64:
		meta.Price = v
	case string:
		_, _ = fmt.Sscanf(v, "%g", &meta.Price)
	}
	if !meta.IsZero() {
		hit.Metadata = meta
	}
	return hit, true
}

func stringField(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return ""
	}
}
