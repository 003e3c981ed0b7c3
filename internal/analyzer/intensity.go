package analyzer

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

// IntensityGrid holds one luminance sample per pixel, row-major, in the 0-255 range
type IntensityGrid struct {
	Width   int
	Height  int
	Samples []float64
}

// Statistics is the global (mean, population std) pair of an IntensityGrid
type Statistics struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Threshold returns mean + k*std
func (s Statistics) Threshold(k float64) float64 {
	return s.Mean + k*s.Std
}

// NewIntensityGrid converts img to grayscale luminance samples.
// The source image is copied before reading and is never modified.
func NewIntensityGrid(img image.Image) (*IntensityGrid, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyImage
	}

	// Clone normalises every color model to straight (non-premultiplied) NRGBA
	// anchored at (0,0), so alpha never darkens the samples.
	src := imaging.Clone(img)

	grid := &IntensityGrid{
		Width:   width,
		Height:  height,
		Samples: make([]float64, width*height),
	}

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+width*4]
			out := grid.Samples[y*width : (y+1)*width]
			for x := 0; x < width; x++ {
				i := x * 4
				out[x] = luminance(row[i], row[i+1], row[i+2])
			}
		}
	})

	return grid, nil
}

// At returns the sample at (x, y)
func (g *IntensityGrid) At(x, y int) float64 {
	return g.Samples[y*g.Width+x]
}

// Stats computes the arithmetic mean and population standard deviation of all samples
func (g *IntensityGrid) Stats() Statistics {
	if len(g.Samples) == 0 {
		return Statistics{}
	}
	mean, std := stat.PopMeanStdDev(g.Samples, nil)
	return Statistics{Mean: mean, Std: std}
}

// luminance applies ITU-R 601 weights in 16-bit fixed point:
//
//	L = (19595*R + 38470*G + 7471*B + 0x8000) >> 16
//
// The weights sum to 65536, so gray inputs map to themselves and every sample
// is an exact integer in 0-255.
func luminance(r, g, b uint8) float64 {
	l := (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
	return float64(l)
}
