package models

// AnalysisURLRequest asks the service to fetch and analyze a remote slide
type AnalysisURLRequest struct {
	URL           string `json:"url" binding:"required"`
	IncludeImages *bool  `json:"include_images,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}
