package repository

import (
	"context"
	"errors"

	apperrors "github.com/anime-shed/slide-inspector-go/internal/errors"
	"github.com/anime-shed/slide-inspector-go/internal/imageio"
	"github.com/anime-shed/slide-inspector-go/internal/storage"
)

// fetchError maps storage failures onto application errors
func fetchError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFoundError("Image not found", err)
	case errors.Is(err, storage.ErrBodyTooLarge):
		return apperrors.NewTooLargeError("Image exceeds the maximum download size", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("Timed out fetching image", err)
	default:
		return apperrors.NewNetworkError("Failed to fetch image", err)
	}
}

// decodeError maps decoding failures onto application errors
func decodeError(err error) error {
	switch {
	case errors.Is(err, imageio.ErrTooLarge):
		return apperrors.NewTooLargeError("Image exceeds the pixel limit", err)
	case errors.Is(err, imageio.ErrUnsupportedFormat):
		return apperrors.NewDecodeError("Unsupported image format; use PNG or JPEG", err)
	default:
		return apperrors.NewDecodeError("Could not decode image", err)
	}
}
