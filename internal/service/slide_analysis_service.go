package service

import (
	"context"
	"errors"
	"image"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/anime-shed/slide-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/slide-inspector-go/internal/errors"
	"github.com/anime-shed/slide-inspector-go/internal/observer"
	"github.com/anime-shed/slide-inspector-go/internal/report"
	"github.com/anime-shed/slide-inspector-go/internal/repository"
	"github.com/anime-shed/slide-inspector-go/pkg/models"
	"github.com/anime-shed/slide-inspector-go/pkg/validation"
)

// Analysis is the full outcome of one slide analysis
type Analysis struct {
	ID             string
	Timestamp      time.Time
	Metadata       *models.ImageMetadata
	Result         *analyzer.Result
	Report         string
	ProcessingTime time.Duration
	Warnings       []string
}

// SlideAnalysisService runs the intensity threshold heuristic on uploaded or remote slides
type SlideAnalysisService interface {
	AnalyzeUpload(ctx context.Context, filename string, r io.Reader) (*Analysis, error)
	AnalyzeURL(ctx context.Context, imageURL string) (*Analysis, error)
	Metrics() map[string]interface{}
}

// Options tunes the service
type Options struct {
	// AnalysisTimeout bounds decode, queueing and analysis of a single slide
	AnalysisTimeout time.Duration

	// SyncEvents delivers observer events inline instead of in goroutines
	SyncEvents bool
}

// slideAnalysisService implements SlideAnalysisService
type slideAnalysisService struct {
	imageRepo  repository.ImageRepository
	analyzer   analyzer.IntensityThresholdAnalyzer
	pool       *analyzer.WorkerPool
	dimensions *validation.DimensionValidator
	publisher  *observer.EventPublisher
	metrics    *observer.MetricsObserver
	options    Options
}

// NewSlideAnalysisService creates a new slide analysis service. The pool must
// already be started; the service never closes it.
func NewSlideAnalysisService(
	imageRepository repository.ImageRepository,
	thresholdAnalyzer analyzer.IntensityThresholdAnalyzer,
	pool *analyzer.WorkerPool,
	dimensions *validation.DimensionValidator,
	publisher *observer.EventPublisher,
	metrics *observer.MetricsObserver,
	options Options,
) SlideAnalysisService {
	return &slideAnalysisService{
		imageRepo:  imageRepository,
		analyzer:   thresholdAnalyzer,
		pool:       pool,
		dimensions: dimensions,
		publisher:  publisher,
		metrics:    metrics,
		options:    options,
	}
}

// AnalyzeUpload decodes and analyzes an uploaded slide
func (s *slideAnalysisService) AnalyzeUpload(ctx context.Context, filename string, r io.Reader) (*Analysis, error) {
	id, start := uuid.NewString(), time.Now()
	s.publish(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, AnalysisID: id, Source: filename})

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	img, meta, err := s.imageRepo.DecodeUpload(r, filename)
	if err != nil {
		return nil, s.fail(ctx, id, filename, start, err)
	}

	return s.analyze(ctx, id, start, img, meta)
}

// AnalyzeURL fetches, decodes and analyzes a remote slide
func (s *slideAnalysisService) AnalyzeURL(ctx context.Context, imageURL string) (*Analysis, error) {
	id, start := uuid.NewString(), time.Now()
	s.publish(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, AnalysisID: id, Source: imageURL})

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	img, meta, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.ImageFetchFailed,
			AnalysisID:     id,
			Source:         imageURL,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, s.fail(ctx, id, imageURL, start, err)
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		AnalysisID:     id,
		Source:         imageURL,
		Width:          meta.Width,
		Height:         meta.Height,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"format":         meta.Format,
			"content_length": meta.ContentLength,
		},
	})

	return s.analyze(ctx, id, start, img, meta)
}

// Metrics returns observer counters together with worker pool statistics
func (s *slideAnalysisService) Metrics() map[string]interface{} {
	metrics := s.metrics.GetMetrics()
	metrics["worker_pool"] = s.pool.GetStats()
	return metrics
}

func (s *slideAnalysisService) analyze(ctx context.Context, id string, start time.Time, img image.Image, meta *models.ImageMetadata) (*Analysis, error) {
	issues := s.dimensions.Validate(meta.Width, meta.Height)
	if s.dimensions.HasCriticalIssues(issues) {
		err := apperrors.NewValidationError("Image dimensions are not acceptable", nil).
			WithDetails(issues[0].Message)
		return nil, s.fail(ctx, id, meta.Source, start, err)
	}

	var result *analyzer.Result
	err := s.pool.Run(ctx, func() error {
		var err error
		result, err = s.analyzer.Analyze(img)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, id, meta.Source, start, analysisError(err))
	}

	analysis := &Analysis{
		ID:             id,
		Timestamp:      start.UTC(),
		Metadata:       meta,
		Result:         result,
		Report:         report.FormatReport(result.Mean(), result.Std(), result.SuspiciousPct),
		ProcessingTime: time.Since(start),
		Warnings:       s.dimensions.ConvertIssuesToMessages(issues),
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		AnalysisID:     id,
		Source:         meta.Source,
		Width:          result.Width,
		Height:         result.Height,
		Mean:           result.Mean(),
		Std:            result.Std(),
		SuspiciousPct:  result.SuspiciousPct,
		ProcessingTime: analysis.ProcessingTime,
		Success:        true,
	})

	return analysis, nil
}

// analysisError maps pool and analyzer failures onto application errors
func analysisError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("Analysis timed out", err)
	case errors.Is(err, analyzer.ErrPoolClosed), errors.Is(err, context.Canceled):
		return apperrors.NewUnavailableError("Analysis could not be scheduled", err)
	case errors.Is(err, analyzer.ErrEmptyImage):
		return apperrors.NewDecodeError("Image has no pixels", err)
	default:
		return apperrors.NewProcessingError("Analysis failed", err)
	}
}

func (s *slideAnalysisService) fail(ctx context.Context, id, source string, start time.Time, err error) error {
	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		AnalysisID:     id,
		Source:         source,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
	return err
}

func (s *slideAnalysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	// Observers outlive the request
	ctx = context.WithoutCancel(ctx)
	if s.options.SyncEvents {
		s.publisher.NotifySync(ctx, event)
		return
	}
	s.publisher.NotifyObservers(ctx, event)
}

func (s *slideAnalysisService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.options.AnalysisTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.options.AnalysisTimeout)
}
