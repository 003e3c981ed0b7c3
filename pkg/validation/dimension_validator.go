package validation

import "fmt"

// DimensionThresholds bounds the slide sizes the analyzer will accept
type DimensionThresholds struct {
	// Below these, global statistics are dominated by a handful of pixels
	MinWidth  int
	MinHeight int

	// MaxPixels is the decode budget (width*height)
	MaxPixels int

	// MaxAspectRatio flags strips that are unlikely to be whole-slide captures
	MaxAspectRatio float64
}

// DefaultDimensionThresholds returns the default thresholds
func DefaultDimensionThresholds() DimensionThresholds {
	return DimensionThresholds{
		MinWidth:       64,
		MinHeight:      64,
		MaxPixels:      40_000_000,
		MaxAspectRatio: 20,
	}
}

// Severity levels for a QualityIssue
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// QualityIssue represents a dimension validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// DimensionValidator checks decoded image sizes before analysis
type DimensionValidator struct {
	thresholds DimensionThresholds
}

// NewDimensionValidator creates a validator with default thresholds
func NewDimensionValidator() *DimensionValidator {
	return &DimensionValidator{thresholds: DefaultDimensionThresholds()}
}

// NewDimensionValidatorWithThresholds creates a validator with custom thresholds
func NewDimensionValidatorWithThresholds(thresholds DimensionThresholds) *DimensionValidator {
	return &DimensionValidator{thresholds: thresholds}
}

// Validate returns every issue found for a width x height image.
// Zero dimensions and pixel budget overruns are errors; the rest are warnings.
func (dv *DimensionValidator) Validate(width, height int) []QualityIssue {
	var issues []QualityIssue

	if width <= 0 || height <= 0 {
		return append(issues, QualityIssue{
			Type:     "empty_image",
			Message:  fmt.Sprintf("Image has no pixels (%dx%d).", width, height),
			Severity: SeverityError,
		})
	}

	total := width * height
	if dv.thresholds.MaxPixels > 0 && total > dv.thresholds.MaxPixels {
		issues = append(issues, QualityIssue{
			Type:        "too_large",
			Message:     "Image exceeds the pixel limit. Downscale the slide capture and try again.",
			Severity:    SeverityError,
			ActualValue: float64(total),
			Threshold:   float64(dv.thresholds.MaxPixels),
		})
	}

	if width < dv.thresholds.MinWidth || height < dv.thresholds.MinHeight {
		issues = append(issues, QualityIssue{
			Type:        "low_resolution",
			Message:     fmt.Sprintf("Image is only %dx%d; statistics may not be representative.", width, height),
			Severity:    SeverityWarning,
			ActualValue: float64(total),
			Threshold:   float64(dv.thresholds.MinWidth * dv.thresholds.MinHeight),
		})
	}

	if dv.thresholds.MaxAspectRatio > 0 {
		long, short := width, height
		if short > long {
			long, short = short, long
		}
		if ratio := float64(long) / float64(short); ratio > dv.thresholds.MaxAspectRatio {
			issues = append(issues, QualityIssue{
				Type:        "extreme_aspect_ratio",
				Message:     "Image is a narrow strip; it may not be a whole slide.",
				Severity:    SeverityWarning,
				ActualValue: ratio,
				Threshold:   dv.thresholds.MaxAspectRatio,
			})
		}
	}

	return issues
}

// ConvertIssuesToMessages flattens issues into their messages
func (dv *DimensionValidator) ConvertIssuesToMessages(issues []QualityIssue) []string {
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues reports whether any issue is an error
func (dv *DimensionValidator) HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
