package analyzer

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
)

// Mask flags suspicious pixels: Bits[y*Width+x] is 1 when the sample at (x, y)
// is strictly greater than the threshold, 0 otherwise.
type Mask struct {
	Width  int
	Height int
	Bits   []uint8
}

// NewMask thresholds grid. Equality never selects a pixel, so a zero-variance
// grid always produces an empty mask.
func NewMask(grid *IntensityGrid, threshold float64) Mask {
	m := Mask{
		Width:  grid.Width,
		Height: grid.Height,
		Bits:   make([]uint8, len(grid.Samples)),
	}

	parallel.Line(grid.Height, func(start, end int) {
		for i := start * grid.Width; i < end*grid.Width; i++ {
			if grid.Samples[i] > threshold {
				m.Bits[i] = 1
			}
		}
	})

	return m
}

// At returns the mask value at (x, y)
func (m Mask) At(x, y int) uint8 {
	return m.Bits[y*m.Width+x]
}

// Count returns the number of flagged pixels
func (m Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		n += int(b)
	}
	return n
}

// Preview renders the mask as an opaque RGB image: 0 is black, 1 is white.
func (m Mask) Preview() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, b := range m.Bits {
		v := b * 255
		o := i * 4
		img.Pix[o] = v
		img.Pix[o+1] = v
		img.Pix[o+2] = v
		img.Pix[o+3] = 255
	}
	return img
}

// SuspiciousPercentage returns 100 * flagged / (Width*Height).
// An empty mask has no area and yields 0.
func SuspiciousPercentage(m Mask) float64 {
	total := m.Width * m.Height
	if total <= 0 || len(m.Bits) == 0 {
		return 0
	}
	return 100 * float64(m.Count()) / float64(total)
}
