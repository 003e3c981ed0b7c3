package service

import (
	"encoding/base64"
	"image"

	apperrors "github.com/anime-shed/slide-inspector-go/internal/errors"
	"github.com/anime-shed/slide-inspector-go/internal/imageio"
	"github.com/anime-shed/slide-inspector-go/pkg/models"
)

// BuildResponse converts an Analysis into its JSON representation. When includeImages
// is set the overlay and the mask preview are embedded as base64 PNGs, downscaled to
// previewMaxSize when it is positive.
func BuildResponse(a *Analysis, includeImages bool, previewMaxSize int) (*models.AnalysisResponse, error) {
	result := a.Result

	response := &models.AnalysisResponse{
		ID:                a.ID,
		Timestamp:         a.Timestamp,
		ProcessingTimeSec: a.ProcessingTime.Seconds(),
		Image:             *a.Metadata,
		Statistics: models.Statistics{
			Mean:      result.Mean(),
			Std:       result.Std(),
			StdFactor: result.StdFactor,
			Threshold: result.Threshold,
		},
		SuspiciousPct: result.SuspiciousPct,
		FlaggedPixels: result.Mask.Count(),
		Report:        a.Report,
		Warnings:      a.Warnings,
	}

	if !includeImages {
		return response, nil
	}

	var err error
	if response.Overlay, err = encodeArtifact(result.Overlay, previewMaxSize); err != nil {
		return nil, err
	}
	if response.Mask, err = encodeArtifact(result.Mask.Preview(), previewMaxSize); err != nil {
		return nil, err
	}
	return response, nil
}

func encodeArtifact(img image.Image, previewMaxSize int) (*models.ImageArtifact, error) {
	img = imageio.Preview(img, previewMaxSize)

	data, err := imageio.PNGBytes(img)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to encode result image", err)
	}

	return &models.ImageArtifact{
		MimeType: "image/png",
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Base64:   base64.StdEncoding.EncodeToString(data),
	}, nil
}
