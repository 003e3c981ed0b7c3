package repository

import (
	"context"
	"image"
	"io"

	"github.com/anime-shed/slide-inspector-go/pkg/models"
)

// ImageRepository defines the interface for slide image access
type ImageRepository interface {
	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error

	// FetchImage downloads and decodes a remote slide
	FetchImage(ctx context.Context, imageURL string) (image.Image, *models.ImageMetadata, error)

	// DecodeUpload decodes an uploaded slide; name is only used for metadata
	DecodeUpload(r io.Reader, name string) (image.Image, *models.ImageMetadata, error)
}
