package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/slide-inspector-go/internal/config"
	apperrors "github.com/anime-shed/slide-inspector-go/internal/errors"
	"github.com/anime-shed/slide-inspector-go/internal/imageio"
	"github.com/anime-shed/slide-inspector-go/internal/logger"
	"github.com/anime-shed/slide-inspector-go/internal/report"
	"github.com/anime-shed/slide-inspector-go/internal/service"
	"github.com/anime-shed/slide-inspector-go/pkg/models"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// uploadField is the multipart form field carrying the slide
const uploadField = "image"

type handler struct {
	svc service.SlideAnalysisService
	cfg *config.Config
}

// NewHandler builds the HTTP API
func NewHandler(svc service.SlideAnalysisService, cfg *config.Config) http.Handler {
	h := &handler{svc: svc, cfg: cfg}
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", h.metrics)
	r.POST("/analyze", h.analyzeUpload)
	r.POST("/analyze/url", h.analyzeURL)
	r.POST("/analyze/overlay", h.overlay)
	r.POST("/analyze/mask", h.mask)
	r.POST("/analyze/report", h.report)

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "available",
		Version:   Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Metrics())
}

// analyzeUpload serves the JSON result for a multipart upload
func (h *handler) analyzeUpload(c *gin.Context) {
	includeImages, err := boolQuery(c, "images", true)
	if err != nil {
		respondError(c, "invalid query parameter", err)
		return
	}

	analysis, ok := h.runUpload(c)
	if !ok {
		return
	}
	h.respondAnalysis(c, analysis, includeImages)
}

// analyzeURL serves the JSON result for a remote slide
func (h *handler) analyzeURL(c *gin.Context) {
	var req models.AnalysisURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "invalid request format", apperrors.NewValidationError("Request body must be JSON with a url field", err))
		return
	}

	includeImages, err := boolQuery(c, "images", true)
	if err != nil {
		respondError(c, "invalid query parameter", err)
		return
	}
	if req.IncludeImages != nil {
		includeImages = *req.IncludeImages
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	logger.WithFields(logrus.Fields{
		"url": req.URL,
		"ip":  c.ClientIP(),
	}).Debug("Fetching slide")

	analysis, err := h.svc.AnalyzeURL(ctx, req.URL)
	if err != nil {
		respondError(c, "slide analysis failed", err)
		return
	}
	h.respondAnalysis(c, analysis, includeImages)
}

// overlay serves the tinted overlay as a PNG
func (h *handler) overlay(c *gin.Context) {
	analysis, ok := h.runUpload(c)
	if !ok {
		return
	}
	respondPNG(c, analysis, analysis.Result.Overlay)
}

// mask serves the black/white mask preview as a PNG
func (h *handler) mask(c *gin.Context) {
	analysis, ok := h.runUpload(c)
	if !ok {
		return
	}
	respondPNG(c, analysis, analysis.Result.Mask.Preview())
}

// report serves the draft report as a text attachment
func (h *handler) report(c *gin.Context) {
	analysis, ok := h.runUpload(c)
	if !ok {
		return
	}
	setAnalysisHeaders(c, analysis)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, report.ContentType, []byte(analysis.Report))
}

// runUpload reads the multipart slide and analyzes it. On failure the error
// response has already been written.
func (h *handler) runUpload(c *gin.Context) (*service.Analysis, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	logger.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
	}).Info("Processing slide analysis request")

	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		respondError(c, "invalid upload", uploadError(err))
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, "invalid upload", apperrors.NewValidationError("Could not read uploaded file", err))
		return nil, false
	}
	defer file.Close()

	analysis, err := h.svc.AnalyzeUpload(ctx, fileHeader.Filename, file)
	if err != nil {
		respondError(c, "slide analysis failed", err)
		return nil, false
	}
	return analysis, true
}

func (h *handler) respondAnalysis(c *gin.Context, analysis *service.Analysis, includeImages bool) {
	response, err := service.BuildResponse(analysis, includeImages, h.cfg.Analysis.PreviewMaxSize)
	if err != nil {
		respondError(c, "failed to build response", err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func respondPNG(c *gin.Context, analysis *service.Analysis, img image.Image) {
	var buf bytes.Buffer
	if err := imageio.EncodePNG(&buf, img); err != nil {
		respondError(c, "failed to encode image", apperrors.NewInternalError("Failed to encode result image", err))
		return
	}
	setAnalysisHeaders(c, analysis)
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func setAnalysisHeaders(c *gin.Context, analysis *service.Analysis) {
	c.Header("X-Analysis-Id", analysis.ID)
	c.Header("X-Suspicious-Pct", strconv.FormatFloat(analysis.Result.SuspiciousPct, 'f', 2, 64))
}

func boolQuery(c *gin.Context, key string, defaultValue bool) (bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidationError(fmt.Sprintf("%s must be true or false", key), err)
	}
	return v, nil
}

func uploadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return apperrors.NewTooLargeError("Upload exceeds the maximum request size", err)
	case errors.Is(err, http.ErrMissingFile):
		return apperrors.NewValidationError(fmt.Sprintf("Multipart field %q is required", uploadField), err)
	default:
		return apperrors.NewValidationError("Request must be multipart/form-data", err)
	}
}
