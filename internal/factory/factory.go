package factory

import (
	"fmt"
	"net/url"

	"github.com/anime-shed/slide-inspector-go/internal/analyzer"
	"github.com/anime-shed/slide-inspector-go/internal/config"
	"github.com/anime-shed/slide-inspector-go/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// AnalyzerFactory creates intensity threshold analyzers
type AnalyzerFactory interface {
	CreateAnalyzer(cfg config.AnalysisConfig) (analyzer.IntensityThresholdAnalyzer, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)

	// ForURL picks the fetcher that should serve imageURL
	ForURL(imageURL string) (storage.ImageFetcher, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct{}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory() AnalyzerFactory {
	return &analyzerFactory{}
}

// CreateAnalyzer maps configuration onto AnalysisOptions
func (f *analyzerFactory) CreateAnalyzer(cfg config.AnalysisConfig) (analyzer.IntensityThresholdAnalyzer, error) {
	if cfg.TintAlpha < 0 || cfg.TintAlpha > 255 {
		return nil, fmt.Errorf("tint alpha out of range: %d", cfg.TintAlpha)
	}

	opts, err := analyzer.DefaultOptions().
		WithStdFactor(cfg.StdFactor).
		WithTintAlpha(uint8(cfg.TintAlpha)).
		WithTintHex(cfg.TintColor)
	if err != nil {
		return nil, err
	}
	return analyzer.NewIntensityThresholdAnalyzer(opts)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	http  storage.ImageFetcher
	azure storage.ImageFetcher
}

// NewStorageFactory creates fetchers from configuration. The Azure fetcher is only
// available when credentials are configured.
func NewStorageFactory(cfg *config.Config) (StorageFactory, error) {
	f := &storageFactory{
		http: storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, cfg.MaxRequestBodySize),
	}

	if cfg.Azure.Enabled() {
		azure, err := storage.NewAzureBlobFetcher(cfg.Azure.AccountName, cfg.Azure.AccountKey, cfg.MaxRequestBodySize)
		if err != nil {
			return nil, err
		}
		f.azure = azure
	}
	return f, nil
}

// CreateStorage returns the fetcher for storageType
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return f.http, nil
	case AzureStorage:
		if f.azure == nil {
			return nil, fmt.Errorf("azure storage is not configured")
		}
		return f.azure, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ForURL routes blob endpoints to Azure when credentials exist and everything else
// (including public blobs without credentials) to plain HTTP.
func (f *storageFactory) ForURL(imageURL string) (storage.ImageFetcher, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if f.azure != nil && storage.IsBlobHost(u.Hostname()) {
		return f.CreateStorage(AzureStorage)
	}
	return f.CreateStorage(HTTPStorage)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) (*ComponentFactory, error) {
	sf, err := NewStorageFactory(cfg)
	if err != nil {
		return nil, err
	}
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(),
		StorageFactory:  sf,
	}, nil
}
