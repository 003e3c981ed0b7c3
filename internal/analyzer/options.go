package analyzer

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// AnalysisOptions configures the threshold heuristic and the overlay rendering
type AnalysisOptions struct {
	// StdFactor is k in threshold = mean + k*std
	StdFactor float64

	// Tint is the highlight colour blended over flagged pixels
	Tint color.RGBA

	// TintAlpha is the highlight opacity (0 = invisible, 255 = solid)
	TintAlpha uint8
}

// DefaultOptions returns the stock heuristic: mean + 0.5*std, pure red at 180/255
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		StdFactor: 0.5,
		Tint:      color.RGBA{R: 255, G: 0, B: 0, A: 255},
		TintAlpha: 180,
	}
}

// WithStdFactor overrides k in the threshold formula
func (opts AnalysisOptions) WithStdFactor(k float64) AnalysisOptions {
	opts.StdFactor = k
	return opts
}

// WithTintAlpha overrides the highlight opacity
func (opts AnalysisOptions) WithTintAlpha(alpha uint8) AnalysisOptions {
	opts.TintAlpha = alpha
	return opts
}

// WithTint overrides the highlight colour
func (opts AnalysisOptions) WithTint(c color.RGBA) AnalysisOptions {
	c.A = 255
	opts.Tint = c
	return opts
}

// WithTintHex parses a "#RRGGBB" (or "#RGB") colour and uses it as the highlight
func (opts AnalysisOptions) WithTintHex(hex string) (AnalysisOptions, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return opts, fmt.Errorf("invalid tint color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return opts.WithTint(color.RGBA{R: r, G: g, B: b, A: 255}), nil
}

// Validate rejects options that cannot produce a meaningful threshold
func (opts AnalysisOptions) Validate() error {
	if opts.StdFactor < 0 {
		return fmt.Errorf("std factor must be >= 0 (got %g)", opts.StdFactor)
	}
	return nil
}
