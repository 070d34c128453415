package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grocerai/backend/internal/domain"
)

// OrderProcessor turns free-form order text into catalog items
type OrderProcessor interface {
	ProcessOrder(ctx context.Context, query string) (*domain.OrderResult, error)
}

// ProductLister lists the catalog
type ProductLister interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// MediaReader turns uploads into order text
type MediaReader interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
	ReadImage(ctx context.Context, declaredType string, image []byte) (string, error)
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlerConfig tunes request handling
type HandlerConfig struct {
	MaxUploadBytes int64
	Readiness      Pinger
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	orders   OrderProcessor
	products ProductLister
	media    MediaReader
	cfg      HandlerConfig
	logger   *slog.Logger
}

const noMatchesDetail = "No matching products found."

// NewHandler creates a new HTTP handler
func NewHandler(orders OrderProcessor, products ProductLister, media MediaReader, cfg HandlerConfig, logger *slog.Logger) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{orders: orders, products: products, media: media, cfg: cfg, logger: logger}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": "grocerai-backend",
		"version": "1.0.0",
	}
	if h.cfg.Readiness != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.cfg.Readiness.Ping(ctx); err != nil {
			h.logger.Warn("http.health.catalog_unreachable", "error", err)
			body["status"] = "degraded"
			body["catalog"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["catalog"] = "ok"
	}
	c.JSON(http.StatusOK, body)
}

// ProcessOrder handles POST /process-order/
func (h *Handler) ProcessOrder(c *gin.Context) {
	if h.orders == nil {
		respondError(c, http.StatusServiceUnavailable, "order processing not configured")
		return
	}

	var req domain.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "Invalid request body: query is required")
		return
	}

	result, err := h.orders.ProcessOrder(c.Request.Context(), req.Query)
	if err != nil {
		h.orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) orderError(c *gin.Context, err error) {
	switch status := errorStatus(err); status {
	case http.StatusNotFound:
		respondError(c, status, noMatchesDetail)
	case http.StatusUnprocessableEntity:
		respondError(c, status, "query must not be empty")
	default:
		h.logError(c, "http.process_order.failed", status, err)
		respondError(c, status, err.Error())
	}
}

// ListProducts handles GET /products
func (h *Handler) ListProducts(c *gin.Context) {
	if h.products == nil {
		respondError(c, http.StatusServiceUnavailable, "catalog not configured")
		return
	}

	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		h.logger.Error("http.list_products.failed", "error", err, "request_id", requestID(c))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// UploadAudio handles POST /upload-audio/ with the recording in the "audio" field
func (h *Handler) UploadAudio(c *gin.Context) {
	if h.media == nil {
		respondError(c, http.StatusServiceUnavailable, "transcription not configured")
		return
	}

	header, err := c.FormFile("audio")
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "audio file is required")
		return
	}
	if header.Size > h.cfg.MaxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("audio exceeds %d bytes", h.cfg.MaxUploadBytes))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read audio upload")
		return
	}
	defer file.Close()

	text, err := h.media.Transcribe(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.mediaError(c, "http.upload_audio.failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcribedText": text})
}

// UploadImage handles POST /upload-image/ with the picture in the "image" field
func (h *Handler) UploadImage(c *gin.Context) {
	if h.media == nil {
		respondError(c, http.StatusServiceUnavailable, "image reading not configured")
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "image file is required")
		return
	}
	if header.Size > h.cfg.MaxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds %d bytes", h.cfg.MaxUploadBytes))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read image upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read image upload")
		return
	}

	text, err := h.media.ReadImage(c.Request.Context(), header.Header.Get("Content-Type"), data)
	if err != nil {
		h.mediaError(c, "http.upload_image.failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"extractedText": text})
}

func (h *Handler) mediaError(c *gin.Context, event string, err error) {
	status := errorStatus(err)
	h.logError(c, event, status, err)
	respondError(c, status, err.Error())
}

func (h *Handler) logError(c *gin.Context, event string, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error(event, "error", err, "request_id", requestID(c))
	}
}

// errorStatus maps domain sentinel errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoMatchingProducts):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as a {"detail": ...} body with its mapped status
func abortWithError(c *gin.Context, err error) {
	respondError(c, errorStatus(err), err.Error())
}

// respondError writes the {"detail": ...} error body
func respondError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": strings.TrimSpace(detail)})
}
