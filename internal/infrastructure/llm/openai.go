package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to the OpenAI API (or any compatible endpoint set via BaseURL).
type OpenAIClient struct {
	client *openai.Client
	opts   Options
	retry  *retrier
	logger *slog.Logger
}

// NewOpenAIClient creates a client for chat, vision, transcription and embeddings
func NewOpenAIClient(opts Options, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	if opts.TranscriptionModel == "" {
		opts.TranscriptionModel = openai.Whisper1
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = string(openai.AdaEmbeddingV2)
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		retry:  newRetrier(opts, isRetryableOpenAIError, logger),
		logger: logger,
	}
}

// Complete implements domain.ChatModel.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	return c.chat(ctx, "openai.chat", c.opts.Model, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: user},
	})
}

// ReadImage implements domain.ImageReader using the vision model.
func (c *OpenAIClient) ReadImage(ctx context.Context, mimeType string, image []byte) (string, error) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	return c.chat(ctx, "openai.vision", c.opts.VisionModel, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: imageSystemPrompt},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: imageUserPrompt},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailAuto,
					},
				},
			},
		},
	})
}

func (c *OpenAIClient) chat(ctx context.Context, op, model string, messages []openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature(),
	}

	var content string
	err := c.retry.do(ctx, op, func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errNoChoices
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Debug("llm.chat.completed", "op", op, "model", model, "chars", len(content))
	return content, nil
}

// temperature maps 0 to the smallest positive value; the API drops a zero
// temperature from the request and falls back to its own default.
func (c *OpenAIClient) temperature() float32 {
	if c.opts.Temperature <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return c.opts.Temperature
}

// Transcribe implements domain.Transcriber.
func (c *OpenAIClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	var text string
	err = c.retry.do(ctx, "openai.transcribe", func(ctx context.Context) error {
		resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    c.opts.TranscriptionModel,
			FilePath: filename,
			Reader:   bytes.NewReader(data),
		})
		if err != nil {
			return err
		}
		text = resp.Text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("openai.transcribe: %w", err)
	}
	return text, nil
}

// Embed implements domain.Embedder.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := c.retry.do(ctx, "openai.embed", func(ctx context.Context) error {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.opts.EmbeddingModel),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return errNoEmbedding
		}
		vector = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai.embed: %w", err)
	}
	return vector, nil
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (c *OpenAIClient) Close() error {
	return nil
}

var (
	errNoChoices   = errors.New("response has no choices")
	errNoEmbedding = errors.New("response has no embedding")
)

// isRetryableOpenAIError retries rate limits, server errors and transport
// failures. Other 4xx responses are final.
func isRetryableOpenAIError(err error) bool {
	if isContextError(err) {
		return false
	}
	if errors.Is(err, errNoChoices) || errors.Is(err, errNoEmbedding) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
