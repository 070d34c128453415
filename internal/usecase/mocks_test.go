package usecase

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/grocerai/backend/internal/domain"
)

// MockChatModel returns canned responses keyed by a substring of the user prompt.
type MockChatModel struct {
	mu        sync.Mutex
	responses map[string]string
	fallback  string
	err       error
	calls     []string
}

func NewMockChatModel() *MockChatModel {
	return &MockChatModel{responses: make(map[string]string)}
}

func (m *MockChatModel) On(contains, response string) *MockChatModel {
	m.responses[contains] = response
	return m
}

func (m *MockChatModel) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, user)
	if m.err != nil {
		return "", m.err
	}
	for key, resp := range m.responses {
		if strings.Contains(user, key) {
			return resp, nil
		}
	}
	return m.fallback, nil
}

// EchoNormalizer returns its input unchanged.
type EchoNormalizer struct {
	err error
}

func (n *EchoNormalizer) Normalize(ctx context.Context, text string) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	return text, nil
}

// MockIndex returns hits keyed by exact phrase.
type MockIndex struct {
	hits map[string][]domain.SearchHit
	err  error
}

func NewMockIndex() *MockIndex {
	return &MockIndex{hits: make(map[string][]domain.SearchHit)}
}

func (m *MockIndex) Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error) {
	if m.err != nil {
		return nil, m.err
	}
	hits := m.hits[query]
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// MockCatalog is an in-memory domain.CatalogRepository.
type MockCatalog struct {
	products []domain.Product
	err      error
}

func (m *MockCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *MockCatalog) FindByNameContains(ctx context.Context, fragment string) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(fragment)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockCatalog) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

// MockTranscriber records the filename it was given.
type MockTranscriber struct {
	text     string
	err      error
	filename string
	body     string
}

func (m *MockTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	m.filename = filename
	b, _ := io.ReadAll(audio)
	m.body = string(b)
	return m.text, m.err
}

// MockImageReader records the MIME type it was given.
type MockImageReader struct {
	text     string
	err      error
	mimeType string
}

func (m *MockImageReader) ReadImage(ctx context.Context, mimeType string, image []byte) (string, error) {
	m.mimeType = mimeType
	return m.text, m.err
}

func testCatalog() *MockCatalog {
	return &MockCatalog{products: []domain.Product{
		{Name: "Avocado Hass", Price: 1.5, ImageURL: "https://img/avocado.jpg", PackSize: "1 pc", Category: "Produce", Subcategory: "Fruits"},
		{Name: "Whole Grain Bread", Price: 3.25, ImageURL: "https://img/wgbread.jpg", PackSize: "400 g", Category: "Bakery", Subcategory: "Bread"},
		{Name: "White Bread", Price: 2.0, ImageURL: "https://img/wbread.jpg", PackSize: "400 g", Category: "Bakery", Subcategory: "Bread"},
		{Name: "Eggs Large", Price: 0.3, ImageURL: "https://img/eggs.jpg", PackSize: "1 pc", Category: "Dairy & Alternatives", Subcategory: "Eggs"},
		{Name: "Onion Red", Price: 1.1, ImageURL: "https://img/onion.jpg", PackSize: "1 kg", Category: "Produce", Subcategory: "Vegetables"},
		{Name: "Basmati Rice", Price: 12.0, ImageURL: "https://img/rice5.jpg", PackSize: "5 kg", Category: "Staples", Subcategory: "Rice"},
		{Name: "Basmati Rice Small", Price: 5.5, ImageURL: "https://img/rice2.jpg", PackSize: "2 kg", Category: "Staples", Subcategory: "Rice"},
	}}
}
