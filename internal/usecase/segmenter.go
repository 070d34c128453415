package usecase

import (
	"regexp"
	"strings"

	"github.com/grocerai/backend/internal/domain"
)

// phraseDelimiter replaces every separator before the final split.
const phraseDelimiter = "|"

// separators are replaced in this order. " and " and " aur " need their
// surrounding spaces so words like "candy" or "gaur" stay whole.
var separators = []string{",", " and ", " aur ", "&", "\n"}

// Matches filler words and a polite lead-in at the start of a phrase,
// e.g. "also", "I need", "please add", "can you add some"
var leadInPattern = regexp.MustCompile(`(?i)^(?:(?:and|aur|also|please|then)\b[\s,]*)*` +
	`(?:(?:i\s+(?:need|want|would\s+like)|i'd\s+like|i'll\s+take|(?:can|could)\s+you\s+(?:please\s+)?(?:add|get|give\s+me|send)|give\s+me|get\s+me|add|send)\b\s*)?` +
	`(?:some\b\s*)?`)

// Segmenter splits a normalized order into independent item phrases.
type Segmenter struct {
	stripLeadIns bool
}

// NewSegmenter creates a segmenter. With stripLeadIns set, polite request
// phrases are removed from the start of each segment.
func NewSegmenter(stripLeadIns bool) *Segmenter {
	return &Segmenter{stripLeadIns: stripLeadIns}
}

// Split returns the non-empty phrases of text in their original order.
func (s *Segmenter) Split(text string) []domain.OrderItemRequest {
	for _, sep := range separators {
		text = strings.ReplaceAll(text, sep, phraseDelimiter)
	}
	parts := strings.Split(text, phraseDelimiter)

	phrases := make([]domain.OrderItemRequest, 0, len(parts))
	for _, part := range parts {
		phrase := strings.TrimSpace(part)
		if s.stripLeadIns {
			phrase = stripLeadIn(phrase)
		}
		if phrase == "" {
			continue
		}
		phrases = append(phrases, domain.OrderItemRequest{RawPhrase: phrase})
	}
	return phrases
}

// stripLeadIn removes a leading request phrase and trailing sentence
// punctuation. A phrase made only of filler becomes empty.
func stripLeadIn(phrase string) string {
	cleaned := leadInPattern.ReplaceAllString(phrase, "")
	return strings.TrimSpace(strings.TrimRight(cleaned, ".?! "))
}
