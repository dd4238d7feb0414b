package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/sampah-api/internal/advice"
	"github.com/Brownie44l1/sampah-api/internal/config"
	"github.com/Brownie44l1/sampah-api/internal/imageproc"
	"github.com/Brownie44l1/sampah-api/internal/logger"
	"github.com/Brownie44l1/sampah-api/internal/model"
	"github.com/Brownie44l1/sampah-api/internal/pipeline"
	"github.com/Brownie44l1/sampah-api/internal/storage"
)

const (
	maxUploadSize = 10 << 20

	// GenericError is the only failure detail clients ever see.
	GenericError = "Terjadi kesalahan saat memproses gambar."
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	service *pipeline.Service
	models  *model.Provider
	uploads *storage.Uploads
	logger  *logger.Logger
}

func NewHandler(service *pipeline.Service, models *model.Provider, uploads *storage.Uploads, logger *logger.Logger) *Handler {
	return &Handler{
		service: service,
		models:  models,
		uploads: uploads,
		logger:  logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"model_loaded": h.models.Loaded(),
	})
}

// Predict classifies a raw tensor posted as {"image": [...]}.
func (h *Handler) Predict(c *gin.Context) {
	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
		return
	}

	classifier, err := h.models.Get(c.Request.Context())
	if err != nil {
		h.logFailure(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Prediction failed"})
		return
	}

	expectedSize := classifier.Metadata().InputSize()
	if len(req.Image) != expectedSize {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("Expected %d values, got %d", expectedSize, len(req.Image))})
		return
	}

	result, err := classifier.Classify(req.Image)
	if err != nil {
		h.logFailure(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Prediction failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Classify accepts a multipart "image" upload and returns the enriched classification.
func (h *Handler) Classify(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Image too large (max 10MB)"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No image file provided. Use 'image' as the form field name"})
		return
	}

	h.logger.Info("Received file: %s, size: %d bytes", file.Filename, file.Size)

	path, err := h.uploads.Save(file)
	if err != nil {
		h.logger.Error("Failed to store upload: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: GenericError})
		return
	}
	defer func() {
		if err := h.uploads.Remove(path); err != nil {
			h.logger.Warning("Failed to remove upload %s: %v", path, err)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		h.logger.Error("Failed to read upload %s: %v", path, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: GenericError})
		return
	}

	resp, err := h.service.Process(c.Request.Context(), data)
	if err != nil {
		h.logFailure(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: GenericError})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) logFailure(err error) {
	var (
		decodeErr   *imageproc.DecodeError
		loadErr     *model.LoadError
		inferErr    *model.InferenceError
		missingErr  *config.MissingKeyError
		upstreamErr *advice.UpstreamError
	)

	switch {
	case errors.As(err, &decodeErr):
		h.logger.Warning("Image decode error: %v", err)
	case errors.As(err, &loadErr):
		h.logger.Error("Model load error: %v", err)
	case errors.As(err, &inferErr):
		h.logger.Error("Inference error: %v", err)
	case errors.As(err, &missingErr):
		h.logger.Error("Configuration error: %v", err)
	case errors.As(err, &upstreamErr):
		h.logger.Error("Upstream advice error: %v", err)
	default:
		h.logger.Error("Request failed: %v", err)
	}
}
