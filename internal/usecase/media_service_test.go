package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerai/backend/internal/domain"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestMediaServiceTranscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("returns trimmed transcript", func(t *testing.T) {
		tr := &MockTranscriber{text: " two kilo rice \n"}
		svc := NewMediaService(tr, &MockImageReader{}, nil)

		got, err := svc.Transcribe(ctx, "order.webm", strings.NewReader("audio-bytes"))
		require.NoError(t, err)
		assert.Equal(t, "two kilo rice", got)
		assert.Equal(t, "order.webm", tr.filename)
		assert.Equal(t, "audio-bytes", tr.body)
	})

	t.Run("defaults filename", func(t *testing.T) {
		tr := &MockTranscriber{text: "rice"}
		svc := NewMediaService(tr, &MockImageReader{}, nil)
		_, err := svc.Transcribe(ctx, "", strings.NewReader("x"))
		require.NoError(t, err)
		assert.Equal(t, "order.webm", tr.filename)
	})

	t.Run("wraps collaborator failure", func(t *testing.T) {
		tr := &MockTranscriber{err: errors.New("bad audio")}
		svc := NewMediaService(tr, &MockImageReader{}, nil)
		_, err := svc.Transcribe(ctx, "a.webm", strings.NewReader("x"))
		assert.ErrorIs(t, err, domain.ErrLLMFailure)
	})
}

func TestMediaServiceReadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("uses declared image type", func(t *testing.T) {
		ir := &MockImageReader{text: "milk, bread"}
		svc := NewMediaService(&MockTranscriber{}, ir, nil)

		got, err := svc.ReadImage(ctx, "image/jpeg", []byte{0xff, 0xd8, 0xff})
		require.NoError(t, err)
		assert.Equal(t, "milk, bread", got)
		assert.Equal(t, "image/jpeg", ir.mimeType)
	})

	t.Run("sniffs type when declared as octet stream", func(t *testing.T) {
		ir := &MockImageReader{text: "eggs"}
		svc := NewMediaService(&MockTranscriber{}, ir, nil)

		_, err := svc.ReadImage(ctx, "application/octet-stream", pngHeader)
		require.NoError(t, err)
		assert.Equal(t, "image/png", ir.mimeType)
	})

	t.Run("rejects non images", func(t *testing.T) {
		svc := NewMediaService(&MockTranscriber{}, &MockImageReader{}, nil)
		_, err := svc.ReadImage(ctx, "text/plain", []byte("hello world"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedMedia)
	})

	t.Run("rejects empty upload", func(t *testing.T) {
		svc := NewMediaService(&MockTranscriber{}, &MockImageReader{}, nil)
		_, err := svc.ReadImage(ctx, "image/png", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("wraps collaborator failure", func(t *testing.T) {
		ir := &MockImageReader{err: errors.New("vision down")}
		svc := NewMediaService(&MockTranscriber{}, ir, nil)
		_, err := svc.ReadImage(ctx, "image/png", pngHeader)
		assert.ErrorIs(t, err, domain.ErrLLMFailure)
	})
}
