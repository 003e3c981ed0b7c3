package analyzer

import "image"

// IntensityThresholdAnalyzer flags pixels brighter than mean + k*std and renders
// the result as a tinted overlay. Implementations are stateless between calls.
type IntensityThresholdAnalyzer interface {
	Analyze(img image.Image) (*Result, error)
}
