package llm

import (
	"io"
	"time"

	"github.com/grocerai/backend/internal/domain"
)

// Options configures a provider client
type Options struct {
	APIKey             string
	BaseURL            string
	Model              string
	VisionModel        string
	TranscriptionModel string
	EmbeddingModel     string
	Temperature        float32
	Timeout            time.Duration
	RequestsPerSecond  float64
	Burst              int
	MaxRetries         int
}

// Provider is a language model backend serving every model port of the pipeline.
type Provider interface {
	domain.ChatModel
	domain.Embedder
	domain.Transcriber
	domain.ImageReader
	io.Closer
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 3
	}
	if o.Burst <= 0 {
		o.Burst = 5
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.VisionModel == "" {
		o.VisionModel = o.Model
	}
	return o
}
