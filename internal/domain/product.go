package domain

// Product is a row of the authoritative catalog. Rows are loaded in bulk by the
// import tool and never mutated by the order pipeline.
type Product struct {
	Name        string  `json:"productname"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	PackSize    string  `json:"packSize"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
}

// SearchHit is one candidate returned by the similarity index.
// Metadata is nil when the index stores only product names.
type SearchHit struct {
	Name     string        `json:"productname"`
	Score    float64       `json:"score"`
	Metadata *ItemMetadata `json:"metadata,omitempty"`
}

// ItemMetadata carries pack information attached to an index entry or emitted
// by the extractor alongside a product name.
type ItemMetadata struct {
	PackSize    string  `json:"packSize,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Category    string  `json:"category,omitempty"`
	Subcategory string  `json:"subcategory,omitempty"`
}

// IsZero reports whether no metadata field is set.
func (m *ItemMetadata) IsZero() bool {
	return m == nil || (m.PackSize == "" && m.Price == 0 && m.Category == "" && m.Subcategory == "")
}

// OrderItemRequest is a single phrase produced by the segmenter.
type OrderItemRequest struct {
	RawPhrase string
}

// ExtractedItem is the structured output of the language model for one phrase.
type ExtractedItem struct {
	ProductName string
	Quantity    float64
	Metadata    *ItemMetadata
}

// ResolvedItem is an extracted item after reconciliation with the catalog.
type ResolvedItem struct {
	ProductName string  `json:"productname"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	PackSize    string  `json:"packSize"`
	Matched     bool    `json:"matched"`
}

// OrderRequest is the body of a process-order call.
type OrderRequest struct {
	Query string `json:"query" binding:"required"`
}

// OrderResult is the assembled order. Result is never empty on success.
type OrderResult struct {
	Result    []ResolvedItem `json:"result"`
	Unmatched []string       `json:"unmatched"`
	Total     float64        `json:"total"`
}
