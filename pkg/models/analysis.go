package models

import "time"

// Statistics are the global intensity figures behind the threshold
type Statistics struct {
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	StdFactor float64 `json:"std_factor"`
	Threshold float64 `json:"threshold"`
}

// ImageArtifact is a rendered raster returned inline
type ImageArtifact struct {
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Base64   string `json:"base64"`
}

// ImageMetadata contains metadata about a decoded slide image
type ImageMetadata struct {
	Source        string `json:"source"` // file name or URL
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
}

// AnalysisResponse represents the complete result of a slide analysis
type AnalysisResponse struct {
	ID                string        `json:"id"`
	Timestamp         time.Time     `json:"timestamp"`
	ProcessingTimeSec float64       `json:"processing_time_sec"`
	Image             ImageMetadata `json:"image"`
	Statistics        Statistics    `json:"statistics"`

	// SuspiciousPct is the flagged share of the slide area, 0-100
	SuspiciousPct float64 `json:"suspicious_pct"`
	FlaggedPixels int     `json:"flagged_pixels"`
	Report        string  `json:"report"`

	// Rendered artifacts, omitted when the caller opts out
	Overlay *ImageArtifact `json:"overlay,omitempty"`
	Mask    *ImageArtifact `json:"mask,omitempty"`

	// Non-fatal dimension issues
	Warnings []string `json:"warnings,omitempty"`
}
