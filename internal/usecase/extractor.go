package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/grocerai/backend/internal/domain"
)

// defaultTopK is the number of index candidates offered to the model.
const defaultTopK = 5

// Extractor turns one order phrase into structured items using catalog
// candidates from the similarity index and a chat model.
type Extractor struct {
	index  domain.SimilarityIndex
	model  domain.ChatModel
	topK   int
	schema *jsonschema.Schema
	logger *slog.Logger
}

// NewExtractor creates an extractor. topK <= 0 means 5.
func NewExtractor(index domain.SimilarityIndex, model domain.ChatModel, topK int, logger *slog.Logger) (*Extractor, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := compileExtractionSchema()
	if err != nil {
		return nil, fmt.Errorf("extraction schema: %w", err)
	}
	return &Extractor{
		index:  index,
		model:  model,
		topK:   topK,
		schema: schema,
		logger: logger,
	}, nil
}

// Extract returns the items the model picked for req.
//
// It returns domain.ErrNoCandidates when the index has nothing for the phrase
// and domain.ErrMalformedExtraction when the model output cannot be parsed.
// Both are per-phrase outcomes. Index and model failures wrap
// domain.ErrIndexFailure and domain.ErrLLMFailure.
func (e *Extractor) Extract(ctx context.Context, req domain.OrderItemRequest) ([]domain.ExtractedItem, error) {
	phrase := strings.TrimSpace(req.RawPhrase)
	if phrase == "" {
		return nil, domain.ErrInvalidRequest
	}

	hits, err := e.index.Search(ctx, phrase, e.topK)
	if err != nil {
		if errors.Is(err, domain.ErrIndexFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexFailure, err)
	}
	if len(hits) == 0 {
		return nil, domain.ErrNoCandidates
	}

	prompt := buildExtractionInput(hits, phrase)
	raw, err := e.model.Complete(ctx, extractionPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: extract: %v", domain.ErrLLMFailure, err)
	}

	items, err := parseExtraction(e.schema, raw)
	if err != nil {
		e.logger.Warn("extract.parse_failed", "phrase", phrase, "error", err, "raw", truncate(raw, 500))
		return nil, err
	}

	e.logger.Debug("extract.done", "phrase", phrase, "candidates", len(hits), "items", len(items))
	return items, nil
}

// buildExtractionInput renders the candidate context block and the query.
func buildExtractionInput(hits []domain.SearchHit, phrase string) string {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	for _, h := range hits {
		b.WriteString(formatCandidate(h))
		b.WriteByte('\n')
	}
	b.WriteString("\nCUSTOMER QUERY:\n")
	b.WriteString(phrase)
	return b.String()
}

func formatCandidate(h domain.SearchHit) string {
	if h.Metadata.IsZero() {
		return "- " + h.Name
	}
	m := h.Metadata
	parts := []string{"- " + h.Name}
	if m.PackSize != "" {
		parts = append(parts, "packSize: "+m.PackSize)
	}
	if m.Price != 0 {
		parts = append(parts, "price: "+strconv.FormatFloat(m.Price, 'f', -1, 64))
	}
	if m.Category != "" {
		parts = append(parts, "category: "+m.Category)
	}
	if m.Subcategory != "" {
		parts = append(parts, "subcategory: "+m.Subcategory)
	}
	return strings.Join(parts, " | ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
