package transport

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anime-shed/slide-inspector-go/internal/analyzer"
	"github.com/anime-shed/slide-inspector-go/internal/config"
	"github.com/anime-shed/slide-inspector-go/internal/factory"
	"github.com/anime-shed/slide-inspector-go/internal/observer"
	"github.com/anime-shed/slide-inspector-go/internal/repository"
	"github.com/anime-shed/slide-inspector-go/internal/service"
	"github.com/anime-shed/slide-inspector-go/pkg/models"
	"github.com/anime-shed/slide-inspector-go/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Default()
	storage, err := factory.NewStorageFactory(cfg)
	if err != nil {
		t.Fatalf("NewStorageFactory failed: %v", err)
	}
	thresholdAnalyzer, err := factory.NewAnalyzerFactory().CreateAnalyzer(cfg.Analysis)
	if err != nil {
		t.Fatalf("CreateAnalyzer failed: %v", err)
	}

	pool := analyzer.NewWorkerPool(2)
	pool.Start()
	t.Cleanup(pool.Close)

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(metrics)

	svc := service.NewSlideAnalysisService(
		repository.NewSlideImageRepository(storage, validation.NewURLValidator(), cfg.Analysis.MaxPixels),
		thresholdAnalyzer,
		pool,
		validation.NewDimensionValidator(),
		publisher,
		metrics,
		service.Options{AnalysisTimeout: 5 * time.Second, SyncEvents: true},
	)
	return NewHandler(svc, cfg)
}

// stripedPNG is 64x64 with the left quarter white and the rest black
func stripedPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if x < 16 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, target, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, "slide.png")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != "available" || resp.Version != Version {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func TestAnalyzeUpload(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		expectImages bool
	}{
		{"with images", "/analyze", true},
		{"without images", "/analyze?images=false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestHandler(t).ServeHTTP(rec, multipartRequest(t, tt.target, "image", stripedPNG(t)))

			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d, body: %s", rec.Code, rec.Body.String())
			}

			var resp models.AnalysisResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.SuspiciousPct != 25 {
				t.Errorf("SuspiciousPct: got %v, want 25", resp.SuspiciousPct)
			}
			if resp.Image.Width != 64 || resp.Image.Source != "slide.png" {
				t.Errorf("unexpected image metadata: %+v", resp.Image)
			}
			if !strings.Contains(resp.Report, "approximately 25.00% of the slide area") {
				t.Errorf("unexpected report:\n%s", resp.Report)
			}
			if hasImages := resp.Overlay != nil && resp.Mask != nil; hasImages != tt.expectImages {
				t.Errorf("images present: got %v, want %v", hasImages, tt.expectImages)
			}
		})
	}
}

func TestAnalyzeUpload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		statusCode int
	}{
		{
			name:       "wrong field",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "/analyze", "file", stripedPNG(t)) },
			statusCode: http.StatusBadRequest,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{}"))
			},
			statusCode: http.StatusBadRequest,
		},
		{
			name:       "not an image",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "/analyze", "image", []byte("hello")) },
			statusCode: http.StatusUnprocessableEntity,
		},
		{
			name:       "bad images flag",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "/analyze?images=maybe", "image", stripedPNG(t)) },
			statusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestHandler(t).ServeHTTP(rec, tt.req(t))

			if rec.Code != tt.statusCode {
				t.Fatalf("status: got %d, want %d, body: %s", rec.Code, tt.statusCode, rec.Body.String())
			}
			var resp models.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Error != http.StatusText(tt.statusCode) || resp.Message == "" {
				t.Errorf("unexpected error body: %+v", resp)
			}
		})
	}
}

func TestAnalyzeBinaryEndpoints(t *testing.T) {
	tests := []struct {
		target      string
		contentType string
	}{
		{"/analyze/overlay", "image/png"},
		{"/analyze/mask", "image/png"},
		{"/analyze/report", "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestHandler(t).ServeHTTP(rec, multipartRequest(t, tt.target, "image", stripedPNG(t)))

			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d, body: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type: got %s, want %s", got, tt.contentType)
			}
			if rec.Header().Get("X-Analysis-Id") == "" {
				t.Error("missing X-Analysis-Id header")
			}
			if got := rec.Header().Get("X-Suspicious-Pct"); got != "25.00" {
				t.Errorf("X-Suspicious-Pct: got %s", got)
			}

			if tt.contentType == "image/png" {
				img, err := png.Decode(rec.Body)
				if err != nil {
					t.Fatalf("body is not a png: %v", err)
				}
				if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 64 {
					t.Errorf("dimensions: got %v", img.Bounds())
				}
			}
		})
	}
}

func TestAnalyzeReport_Attachment(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rec, multipartRequest(t, "/analyze/report", "image", stripedPNG(t)))

	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="draft_report.txt"` {
		t.Errorf("Content-Disposition: got %s", got)
	}
	if !strings.HasPrefix(rec.Body.String(), "Draft Report (automatically generated):\n") {
		t.Errorf("unexpected report body:\n%s", rec.Body.String())
	}
}

func TestAnalyzeURL(t *testing.T) {
	data := stripedPNG(t)
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/slide.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer remote.Close()

	tests := []struct {
		name       string
		body       string
		statusCode int
	}{
		{"ok", `{"url": "` + remote.URL + `/slide.png", "include_images": false}`, http.StatusOK},
		{"missing remote", `{"url": "` + remote.URL + `/gone.png"}`, http.StatusNotFound},
		{"bad scheme", `{"url": "ftp://example.com/slide.png"}`, http.StatusBadRequest},
		{"missing url", `{}`, http.StatusBadRequest},
		{"not json", `url=x`, http.StatusBadRequest},
	}

	handler := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/analyze/url", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.statusCode {
				t.Fatalf("status: got %d, want %d, body: %s", rec.Code, tt.statusCode, rec.Body.String())
			}
			if tt.statusCode != http.StatusOK {
				return
			}

			var resp models.AnalysisResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.SuspiciousPct != 25 || resp.Overlay != nil {
				t.Errorf("unexpected response: pct=%v overlay=%v", resp.SuspiciousPct, resp.Overlay != nil)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	handler.ServeHTTP(httptest.NewRecorder(), multipartRequest(t, "/analyze?images=false", "image", stripedPNG(t)))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	var metrics map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &metrics); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if metrics["successful_analyses"] != 1.0 {
		t.Errorf("successful_analyses: got %v", metrics["successful_analyses"])
	}
	if metrics["avg_suspicious_pct"] != 25.0 {
		t.Errorf("avg_suspicious_pct: got %v", metrics["avg_suspicious_pct"])
	}
	if _, ok := metrics["worker_pool"].(map[string]interface{}); !ok {
		t.Errorf("worker_pool stats missing: %v", metrics)
	}
}
