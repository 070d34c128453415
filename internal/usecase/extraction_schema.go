package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/grocerai/backend/internal/domain"
)

// buildExtractionSchema returns the JSON schema the extractor output must satisfy.
// Models sometimes quote numbers, so quantity and price accept numeric strings.
func buildExtractionSchema() map[string]any {
	numberish := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "number"},
			map[string]any{"type": "string", "pattern": `^\s*-?\d+(\.\d+)?\s*$`},
			map[string]any{"type": "null"},
		},
	}
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"productname": map[string]any{"type": "string", "minLength": 1},
			"quantity":    numberish,
			"packSize":    map[string]any{"type": []any{"string", "null"}},
			"price":       numberish,
			"category":    map[string]any{"type": []any{"string", "null"}},
			"subcategory": map[string]any{"type": []any{"string", "null"}},
		},
		"required": []any{"productname"},
	}
	return map[string]any{
		"type":  "array",
		"items": item,
	}
}

func compileExtractionSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(buildExtractionSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("extraction.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// extractedItemJSON is the wire shape of one extractor entry.
type extractedItemJSON struct {
	ProductName string     `json:"productname"`
	Quantity    flexNumber `json:"quantity"`
	PackSize    *string    `json:"packSize"`
	Price       flexNumber `json:"price"`
	Category    *string    `json:"category"`
	Subcategory *string    `json:"subcategory"`
}

// flexNumber decodes a JSON number, a numeric string or null.
type flexNumber struct {
	Value float64
	Set   bool
}

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	f.Value = v
	f.Set = true
	return nil
}

// parseExtraction strips code fences, validates raw against schema and
// converts it to domain items. Quantity defaults to 1 when missing or not
// positive. Errors wrap domain.ErrMalformedExtraction.
func parseExtraction(schema *jsonschema.Schema, raw string) ([]domain.ExtractedItem, error) {
	body := strings.TrimSpace(stripCodeFence(raw))
	if strings.HasPrefix(body, "{") {
		body = "[" + body + "]"
	}

	var generic any
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedExtraction, err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: json does not match schema: %v", domain.ErrMalformedExtraction, err)
	}

	var entries []extractedItemJSON
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedExtraction, err)
	}

	items := make([]domain.ExtractedItem, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.ProductName)
		if name == "" {
			continue
		}
		qty := e.Quantity.Value
		if !e.Quantity.Set || qty <= 0 {
			qty = 1
		}

		meta := &domain.ItemMetadata{
			PackSize:    strings.TrimSpace(deref(e.PackSize)),
			Price:       e.Price.Value,
			Category:    strings.TrimSpace(deref(e.Category)),
			Subcategory: strings.TrimSpace(deref(e.Subcategory)),
		}
		if meta.IsZero() {
			meta = nil
		}

		items = append(items, domain.ExtractedItem{
			ProductName: name,
			Quantity:    qty,
			Metadata:    meta,
		})
	}
	return items, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
