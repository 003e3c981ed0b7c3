package factory

import (
	"image"
	"image/color"
	"testing"

	"github.com/anime-shed/slide-inspector-go/internal/config"
	"github.com/anime-shed/slide-inspector-go/internal/storage"
)

func TestAnalyzerFactory_CreateAnalyzer(t *testing.T) {
	cfg := config.Default().Analysis
	cfg.TintColor = "#00FF00"
	cfg.TintAlpha = 255

	a, err := NewAnalyzerFactory().CreateAnalyzer(cfg)
	if err != nil {
		t.Fatalf("CreateAnalyzer failed: %v", err)
	}

	// Half white, half black: the white half is flagged and painted solid green
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{255})

	result, err := a.Analyze(img)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if got := result.Overlay.RGBAAt(0, 0); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("flagged pixel: got %v, want solid green", got)
	}
}

func TestAnalyzerFactory_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AnalysisConfig)
	}{
		{"bad colour", func(c *config.AnalysisConfig) { c.TintColor = "crimson" }},
		{"alpha too large", func(c *config.AnalysisConfig) { c.TintAlpha = 256 }},
		{"negative std factor", func(c *config.AnalysisConfig) { c.StdFactor = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Analysis
			tt.mutate(&cfg)
			if _, err := NewAnalyzerFactory().CreateAnalyzer(cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStorageFactory_ForURL(t *testing.T) {
	cfg := config.Default()
	cfg.Azure = config.AzureConfig{AccountName: "slides", AccountKey: "c2VjcmV0"}

	f, err := NewStorageFactory(cfg)
	if err != nil {
		t.Fatalf("NewStorageFactory failed: %v", err)
	}

	tests := []struct {
		url       string
		wantAzure bool
	}{
		{"https://slides.blob.core.windows.net/scans/a.png", true},
		{"https://example.com/a.png", false},
		{"http://localhost:9000/a.png", false},
	}

	for _, tt := range tests {
		fetcher, err := f.ForURL(tt.url)
		if err != nil {
			t.Fatalf("ForURL(%s) failed: %v", tt.url, err)
		}
		_, isAzure := fetcher.(*storage.AzureBlobFetcher)
		if isAzure != tt.wantAzure {
			t.Errorf("ForURL(%s): azure=%v, want %v", tt.url, isAzure, tt.wantAzure)
		}
	}
}

func TestStorageFactory_WithoutAzure(t *testing.T) {
	f, err := NewStorageFactory(config.Default())
	if err != nil {
		t.Fatalf("NewStorageFactory failed: %v", err)
	}

	fetcher, err := f.ForURL("https://slides.blob.core.windows.net/public/a.png")
	if err != nil {
		t.Fatalf("ForURL failed: %v", err)
	}
	if _, ok := fetcher.(*storage.HTTPImageFetcher); !ok {
		t.Errorf("public blobs should fall back to HTTP, got %T", fetcher)
	}

	if _, err := f.CreateStorage(AzureStorage); err == nil {
		t.Error("expected error for unconfigured azure storage")
	}
	if _, err := f.CreateStorage("local"); err == nil {
		t.Error("expected error for unknown storage type")
	}
}
