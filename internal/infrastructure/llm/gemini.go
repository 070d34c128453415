package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient serves the model ports with Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	opts   Options
	retry  *retrier
	logger *slog.Logger
}

// NewGeminiClient creates a Gemini client. Close it when done.
func NewGeminiClient(ctx context.Context, opts Options, logger *slog.Logger) (*GeminiClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini API key is empty")
	}
	opts = opts.withDefaults()
	if opts.Model == "" {
		opts.Model = "gemini-1.5-flash"
		opts.VisionModel = opts.Model
	}
	if opts.TranscriptionModel == "" {
		opts.TranscriptionModel = opts.Model
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = "text-embedding-004"
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.BaseURL))
	}
	cl, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{
		client: cl,
		opts:   opts,
		retry:  newRetrier(opts, isRetryableGeminiError, logger),
		logger: logger,
	}, nil
}

func (c *GeminiClient) model(name, system string) *genai.GenerativeModel {
	m := c.client.GenerativeModel(name)
	m.SetTemperature(c.opts.Temperature)
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	return m
}

// Complete implements domain.ChatModel.
func (c *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	return c.generate(ctx, "gemini.chat", c.model(c.opts.Model, system), genai.Text(user))
}

// ReadImage implements domain.ImageReader.
func (c *GeminiClient) ReadImage(ctx context.Context, mimeType string, image []byte) (string, error) {
	m := c.model(c.opts.VisionModel, imageSystemPrompt)
	return c.generate(ctx, "gemini.vision", m,
		genai.Text(imageUserPrompt),
		genai.Blob{MIMEType: mimeType, Data: image},
	)
}

// Transcribe implements domain.Transcriber by sending the recording inline.
func (c *GeminiClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	m := c.model(c.opts.TranscriptionModel, "")
	return c.generate(ctx, "gemini.transcribe", m,
		genai.Text(audioUserPrompt),
		genai.Blob{MIMEType: audioMIMEType(filename), Data: data},
	)
}

func (c *GeminiClient) generate(ctx context.Context, op string, m *genai.GenerativeModel, parts ...genai.Part) (string, error) {
	var text string
	err := c.retry.do(ctx, op, func(ctx context.Context) error {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			return err
		}
		text = firstText(resp)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return text, nil
}

// Embed implements domain.Embedder.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.opts.EmbeddingModel)

	var vector []float32
	err := c.retry.do(ctx, "gemini.embed", func(ctx context.Context) error {
		resp, err := em.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return errNoEmbedding
		}
		vector = resp.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gemini.embed: %w", err)
	}
	return vector, nil
}

// Close releases the underlying connection
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// firstText joins the text parts of the first candidate that has any.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}

var audioTypes = map[string]string{
	".webm": "audio/webm",
	".wav":  "audio/wav",
	".mp3":  "audio/mp3",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

// audioMIMEType guesses the recording type from its file name. Browsers
// record webm, so that is the default.
func audioMIMEType(filename string) string {
	if t, ok := audioTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return "audio/webm"
}

func isRetryableGeminiError(err error) bool {
	return !isContextError(err)
}
