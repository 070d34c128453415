package vectorindex

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/grocerai/backend/internal/domain"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

type entry struct {
	product domain.Product
	tokens  map[string]struct{}
}

// Lexical ranks catalog products against a query by Ochiai token overlap,
// |A∩B| / sqrt(|A||B|). It needs no embedding service and serves local
// development and tests.
type Lexical struct {
	mu      sync.RWMutex
	entries []entry
}

// NewLexical indexes products in the given order
func NewLexical(products []domain.Product) *Lexical {
	l := &Lexical{}
	l.Replace(products)
	return l
}

// LoadLexical builds the index from the catalog.
func LoadLexical(ctx context.Context, catalog domain.CatalogRepository) (*Lexical, error) {
	products, err := catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog for index: %w", err)
	}
	return NewLexical(products), nil
}

// Replace swaps the indexed products.
func (l *Lexical) Replace(products []domain.Product) {
	entries := make([]entry, 0, len(products))
	for _, p := range products {
		entries = append(entries, entry{product: p, tokens: tokenSet(p.Name)})
	}
	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
}

// Len returns the number of indexed products
func (l *Lexical) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Search implements domain.SimilarityIndex. Products sharing no token with
// the query are not returned; ties keep catalog order.
func (l *Lexical) Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		k = 5
	}
	qset := tokenSet(query)
	if len(qset) == 0 {
		return []domain.SearchHit{}, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, 0, len(l.entries))
	for i, e := range l.entries {
		if s := ochiai(qset, e.tokens); s > 0 {
			scores = append(scores, scored{i, s})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if k > len(scores) {
		k = len(scores)
	}

	hits := make([]domain.SearchHit, 0, k)
	for _, s := range scores[:k] {
		p := l.entries[s.idx].product
		hit := domain.SearchHit{Name: p.Name, Score: s.score}
		meta := &domain.ItemMetadata{
			PackSize:    p.PackSize,
			Price:       p.Price,
			Category:    p.Category,
			Subcategory: p.Subcategory,
		}
		if !meta.IsZero() {
			hit.Metadata = meta
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}

func tokenSet(s string) map[string]struct{} {
	words := wordRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[singular(w)] = struct{}{}
	}
	return set
}

// singular drops a plural "s" so "avocados" meets "Avocado".
func singular(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}
