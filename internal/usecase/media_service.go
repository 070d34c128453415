package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/grocerai/backend/internal/domain"
)

// MediaService turns uploaded audio and images into order text.
type MediaService struct {
	transcriber domain.Transcriber
	imageReader domain.ImageReader
	logger      *slog.Logger
}

// NewMediaService creates a media service.
func NewMediaService(transcriber domain.Transcriber, imageReader domain.ImageReader, logger *slog.Logger) *MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{transcriber: transcriber, imageReader: imageReader, logger: logger}
}

// Transcribe returns the spoken text of an audio upload.
func (s *MediaService) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if filename == "" {
		filename = "order.webm"
	}
	text, err := s.transcriber.Transcribe(ctx, filename, audio)
	if err != nil {
		return "", fmt.Errorf("%w: transcribe: %v", domain.ErrLLMFailure, err)
	}
	text = strings.TrimSpace(text)
	s.logger.Info("media.transcribed", "file", filename, "chars", len(text))
	return text, nil
}

// ReadImage returns the order text visible in an image upload. The content
// type is sniffed from the bytes when the declared one is not an image.
func (s *MediaService) ReadImage(ctx context.Context, declaredType string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrInvalidRequest)
	}
	mimeType := imageMIMEType(declaredType, image)
	if mimeType == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, declaredType)
	}

	text, err := s.imageReader.ReadImage(ctx, mimeType, image)
	if err != nil {
		return "", fmt.Errorf("%w: read image: %v", domain.ErrLLMFailure, err)
	}
	text = strings.TrimSpace(text)
	s.logger.Info("media.image_read", "mime", mimeType, "bytes", len(image), "chars", len(text))
	return text, nil
}

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

func imageMIMEType(declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if supportedImageTypes[declared] {
		return declared
	}
	sniffed := strings.Split(http.DetectContentType(data), ";")[0]
	if supportedImageTypes[sniffed] {
		return sniffed
	}
	return ""
}
