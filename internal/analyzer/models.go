package analyzer

import (
	"errors"
	"image"
)

// ErrEmptyImage is returned for nil or zero-dimension inputs
var ErrEmptyImage = errors.New("image has zero width or height")

// Result is the outcome of a single analysis. Every raster shares the input's
// width and height.
type Result struct {
	Width         int
	Height        int
	Stats         Statistics
	StdFactor     float64
	Threshold     float64
	Mask          Mask
	Overlay       *image.RGBA
	SuspiciousPct float64
}

// Mean returns the mean luminance
func (r *Result) Mean() float64 {
	return r.Stats.Mean
}

// Std returns the population standard deviation of luminance
func (r *Result) Std() float64 {
	return r.Stats.Std
}
