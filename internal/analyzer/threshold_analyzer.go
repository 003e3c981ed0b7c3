package analyzer

import (
	"fmt"
	"image"
)

// thresholdAnalyzer implements IntensityThresholdAnalyzer
type thresholdAnalyzer struct {
	options AnalysisOptions
}

// NewIntensityThresholdAnalyzer creates an analyzer with the given options
func NewIntensityThresholdAnalyzer(options AnalysisOptions) (IntensityThresholdAnalyzer, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &thresholdAnalyzer{options: options}, nil
}

// Analyze runs the full pipeline: luminance, statistics, threshold, mask, overlay.
// The input image is never modified.
func (ta *thresholdAnalyzer) Analyze(img image.Image) (*Result, error) {
	grid, err := NewIntensityGrid(img)
	if err != nil {
		return nil, fmt.Errorf("failed to build intensity grid: %w", err)
	}

	stats := grid.Stats()
	threshold := stats.Threshold(ta.options.StdFactor)
	mask := NewMask(grid, threshold)

	return &Result{
		Width:         grid.Width,
		Height:        grid.Height,
		Stats:         stats,
		StdFactor:     ta.options.StdFactor,
		Threshold:     threshold,
		Mask:          mask,
		Overlay:       ComposeOverlay(grid, mask, ta.options.Tint, ta.options.TintAlpha),
		SuspiciousPct: SuspiciousPercentage(mask),
	}, nil
}
