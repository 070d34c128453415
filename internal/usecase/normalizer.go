package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grocerai/backend/internal/domain"
)

// Normalizer corrects spelling and translates raw order text to English.
type Normalizer struct {
	model  domain.ChatModel
	logger *slog.Logger
}

// NewNormalizer creates a normalizer backed by model.
func NewNormalizer(model domain.ChatModel, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{model: model, logger: logger}
}

// Normalize returns the corrected English form of text. Any model failure is
// returned wrapped in domain.ErrLLMFailure.
func (n *Normalizer) Normalize(ctx context.Context, text string) (string, error) {
	out, err := n.model.Complete(ctx, correctionPrompt, "Messy input:\n"+text)
	if err != nil {
		return "", fmt.Errorf("%w: normalize: %v", domain.ErrLLMFailure, err)
	}

	corrected := strings.TrimSpace(stripCodeFence(out))
	if corrected == "" {
		n.logger.Warn("normalize.empty_output", "input_len", len(text))
		return "", fmt.Errorf("%w: normalize: empty response", domain.ErrLLMFailure)
	}

	n.logger.Debug("normalize.done", "input", text, "output", corrected)
	return corrected, nil
}
