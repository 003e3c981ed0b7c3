package repository

import (
	"bytes"
	"context"
	"image"
	"io"

	"github.com/anime-shed/slide-inspector-go/internal/factory"
	"github.com/anime-shed/slide-inspector-go/internal/imageio"
	"github.com/anime-shed/slide-inspector-go/pkg/models"
	"github.com/anime-shed/slide-inspector-go/pkg/validation"
)

// SlideImageRepository implements ImageRepository on top of the storage factory
type SlideImageRepository struct {
	storage   factory.StorageFactory
	validator *validation.URLValidator
	maxPixels int
}

// NewSlideImageRepository creates a new slide image repository
func NewSlideImageRepository(storage factory.StorageFactory, validator *validation.URLValidator, maxPixels int) *SlideImageRepository {
	return &SlideImageRepository{
		storage:   storage,
		validator: validator,
		maxPixels: maxPixels,
	}
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *SlideImageRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}

// FetchImage retrieves and decodes an image from a URL
func (r *SlideImageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, *models.ImageMetadata, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, nil, err
	}

	fetcher, err := r.storage.ForURL(imageURL)
	if err != nil {
		return nil, nil, fetchError(err)
	}

	data, err := fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, nil, fetchError(err)
	}

	return r.decode(bytes.NewReader(data), imageURL)
}

// DecodeUpload decodes an uploaded image
func (r *SlideImageRepository) DecodeUpload(reader io.Reader, name string) (image.Image, *models.ImageMetadata, error) {
	return r.decode(reader, name)
}

func (r *SlideImageRepository) decode(reader io.Reader, source string) (image.Image, *models.ImageMetadata, error) {
	img, meta, err := imageio.Decode(reader, r.maxPixels)
	if err != nil {
		return nil, nil, decodeError(err)
	}

	return img, &models.ImageMetadata{
		Source:        source,
		ContentType:   "image/" + meta.Format,
		ContentLength: meta.SizeBytes,
		Width:         meta.Width,
		Height:        meta.Height,
		Format:        meta.Format,
	}, nil
}
