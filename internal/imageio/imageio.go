// Package imageio is the decode/encode boundary between raw bytes and image.Image.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

var (
	// ErrDecode wraps every failure to turn input bytes into an image
	ErrDecode = errors.New("failed to decode image")

	// ErrUnsupportedFormat is returned for well-formed images that are not PNG or JPEG
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrTooLarge is returned when width*height exceeds the configured pixel budget
	ErrTooLarge = errors.New("image exceeds pixel limit")
)

// supportedFormats are the names registered by image/png and image/jpeg
var supportedFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
}

// Metadata describes a decoded image
type Metadata struct {
	Format    string
	Width     int
	Height    int
	SizeBytes int64
}

// Decode reads a PNG or JPEG image from r. The header is inspected before any pixel
// data is decoded so oversized inputs are rejected cheaply. EXIF orientation is applied.
// maxPixels <= 0 disables the size check.
func Decode(r io.Reader, maxPixels int) (image.Image, Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: read failed: %v", ErrDecode, err)
	}
	return DecodeBytes(data, maxPixels)
}

// DecodeBytes is Decode for an in-memory payload
func DecodeBytes(data []byte, maxPixels int) (image.Image, Metadata, error) {
	if len(data) == 0 {
		return nil, Metadata{}, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !supportedFormats[format] {
		return nil, Metadata{}, fmt.Errorf("%w: %w: %s", ErrDecode, ErrUnsupportedFormat, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, Metadata{}, fmt.Errorf("%w: zero dimension %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return nil, Metadata{}, fmt.Errorf("%w: %w: %dx%d > %d", ErrDecode, ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// Orientation may have swapped the axes
	bounds := img.Bounds()
	return img, Metadata{
		Format:    format,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		SizeBytes: int64(len(data)),
	}, nil
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// PNGBytes encodes img as PNG in memory
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Preview downscales img so neither side exceeds maxSize, keeping the aspect ratio.
// Images that already fit, and maxSize <= 0, are returned unchanged.
func Preview(img image.Image, maxSize int) image.Image {
	if maxSize <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxSize && b.Dy() <= maxSize {
		return img
	}
	return imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
}
