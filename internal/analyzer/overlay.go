package analyzer

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// ComposeOverlay renders grid as an opaque grayscale RGB image and blends tint over
// every flagged pixel with standard alpha compositing:
//
//	out = tint*a + base*(1-a),  a = alpha/255
//
// The tint's own alpha is ignored and the result is always fully opaque.
func ComposeOverlay(grid *IntensityGrid, mask Mask, tint color.RGBA, alpha uint8) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, grid.Width, grid.Height))

	a := float64(alpha) / 255
	tr := float64(tint.R) * a
	tg := float64(tint.G) * a
	tb := float64(tint.B) * a

	parallel.Line(grid.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < grid.Width; x++ {
				i := y*grid.Width + x
				base := toByte(grid.Samples[i])
				r, g, b := base, base, base

				if mask.Bits[i] == 1 {
					rest := float64(base) * (1 - a)
					r = toByte(tr + rest)
					g = toByte(tg + rest)
					b = toByte(tb + rest)
				}

				o := out.PixOffset(x, y)
				out.Pix[o] = r
				out.Pix[o+1] = g
				out.Pix[o+2] = b
				out.Pix[o+3] = 255
			}
		}
	})

	return out
}

// toByte rounds v to the nearest integer and clamps it to 0-255
func toByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
