// Command slidecheck runs the intensity threshold analysis on a local slide image and
// writes the overlay, the mask preview and the draft report next to each other.
package main

import (
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/slide-inspector-go/internal/config"
	"github.com/anime-shed/slide-inspector-go/internal/factory"
	"github.com/anime-shed/slide-inspector-go/internal/imageio"
	"github.com/anime-shed/slide-inspector-go/internal/logger"
	"github.com/anime-shed/slide-inspector-go/internal/report"
)

const (
	overlayFile = "overlay.png"
	maskFile    = "mask.png"
)

func main() {
	// Keep stdout for the report
	logger.Logger.SetOutput(os.Stderr)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		logger.WithError(err).Error("slidecheck failed")
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	defaults := config.Default().Analysis

	fs := flag.NewFlagSet("slidecheck", flag.ContinueOnError)
	in := fs.String("in", "", "(REQ) Slide image path (PNG or JPEG)")
	out := fs.String("out", ".", "Output directory")
	stdFactor := fs.Float64("k", defaults.StdFactor, "Threshold factor: pixels above mean + k*std are flagged")
	tint := fs.String("tint", defaults.TintColor, "Highlight colour as #RRGGBB")
	alpha := fs.Int("alpha", defaults.TintAlpha, "Highlight opacity (0-255)")
	maxPixels := fs.Int("max-pixels", defaults.MaxPixels, "Refuse images larger than this many pixels")
	quiet := fs.Bool("q", false, "Do not print the report")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*in) == "" {
		fs.Usage()
		return fmt.Errorf("missing required option: -in")
	}

	cfg := defaults
	cfg.StdFactor = *stdFactor
	cfg.TintColor = *tint
	cfg.TintAlpha = *alpha
	cfg.MaxPixels = *maxPixels

	thresholdAnalyzer, err := factory.NewAnalyzerFactory().CreateAnalyzer(cfg)
	if err != nil {
		return err
	}

	start := time.Now()

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	img, meta, err := imageio.Decode(f, cfg.MaxPixels)
	if err != nil {
		return err
	}

	result, err := thresholdAnalyzer.Analyze(img)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writePNG(filepath.Join(*out, overlayFile), result.Overlay); err != nil {
		return err
	}
	if err := writePNG(filepath.Join(*out, maskFile), result.Mask.Preview()); err != nil {
		return err
	}

	text := report.FormatReport(result.Mean(), result.Std(), result.SuspiciousPct)
	if err := os.WriteFile(filepath.Join(*out, report.Filename), []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"input":              *in,
		"format":             meta.Format,
		"width":              meta.Width,
		"height":             meta.Height,
		"suspicious_pct":     result.SuspiciousPct,
		"processing_time_ms": time.Since(start).Milliseconds(),
		"output":             *out,
	}).Info("Slide analysis completed")

	if !*quiet {
		fmt.Fprint(stdout, text)
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := imageio.EncodePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
