package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// New builds the provider named by name ("openai" or "gemini").
func New(ctx context.Context, name string, opts Options, logger *slog.Logger) (Provider, error) {
	switch name {
	case "openai":
		return NewOpenAIClient(opts, logger), nil
	case "gemini":
		client, err := NewGeminiClient(ctx, opts, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
}
