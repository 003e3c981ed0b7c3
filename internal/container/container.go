package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/slide-inspector-go/internal/analyzer"
	"github.com/anime-shed/slide-inspector-go/internal/config"
	"github.com/anime-shed/slide-inspector-go/internal/factory"
	"github.com/anime-shed/slide-inspector-go/internal/logger"
	"github.com/anime-shed/slide-inspector-go/internal/observer"
	"github.com/anime-shed/slide-inspector-go/internal/repository"
	"github.com/anime-shed/slide-inspector-go/internal/service"
	"github.com/anime-shed/slide-inspector-go/internal/transport"
	"github.com/anime-shed/slide-inspector-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config               *config.Config
	pool                 *analyzer.WorkerPool
	imageRepository      repository.ImageRepository
	slideAnalysisService service.SlideAnalysisService
	handler              http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	components, err := factory.NewComponentFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create components: %w", err)
	}

	thresholdAnalyzer, err := components.AnalyzerFactory.CreateAnalyzer(cfg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	pool := analyzer.NewWorkerPool(cfg.MaxConcurrentAnalyses)
	pool.Start()

	imageRepository := repository.NewSlideImageRepository(
		components.StorageFactory,
		validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedHosts),
		cfg.Analysis.MaxPixels,
	)

	dimensions := validation.DefaultDimensionThresholds()
	dimensions.MaxPixels = cfg.Analysis.MaxPixels

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	slideAnalysisService := service.NewSlideAnalysisService(
		imageRepository,
		thresholdAnalyzer,
		pool,
		validation.NewDimensionValidatorWithThresholds(dimensions),
		publisher,
		metrics,
		service.Options{AnalysisTimeout: cfg.AnalysisTimeout},
	)

	return &Container{
		config:               cfg,
		pool:                 pool,
		imageRepository:      imageRepository,
		slideAnalysisService: slideAnalysisService,
		handler:              transport.NewHandler(slideAnalysisService, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the slide analysis service
func (c *Container) Service() service.SlideAnalysisService {
	return c.slideAnalysisService
}

// Close stops background workers. In-flight analyses finish first.
func (c *Container) Close() {
	c.pool.Close()
}
