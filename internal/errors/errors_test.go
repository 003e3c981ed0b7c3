package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	cause := stderrors.New("root cause")

	tests := []struct {
		name       string
		err        *AppError
		errorType  ErrorType
		statusCode int
	}{
		{"validation", NewValidationError("bad", cause), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("down", cause), ErrorTypeNetwork, http.StatusBadGateway},
		{"processing", NewProcessingError("failed", cause), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"decode", NewDecodeError("garbled", cause), ErrorTypeDecode, http.StatusUnprocessableEntity},
		{"timeout", NewTimeoutError("slow", cause), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"not found", NewNotFoundError("gone", cause), ErrorTypeNotFound, http.StatusNotFound},
		{"too large", NewTooLargeError("huge", cause), ErrorTypeTooLarge, http.StatusRequestEntityTooLarge},
		{"unavailable", NewUnavailableError("busy", cause), ErrorTypeUnavailable, http.StatusServiceUnavailable},
		{"internal", NewInternalError("oops", cause), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.errorType {
				t.Errorf("Type: got %s, want %s", tt.err.Type, tt.errorType)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode: got %d, want %d", tt.err.StatusCode, tt.statusCode)
			}
			if !stderrors.Is(tt.err, cause) {
				t.Error("cause should be reachable with errors.Is")
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	if got := NewValidationError("bad input", nil).Error(); got != "validation: bad input" {
		t.Errorf("got %q", got)
	}
	got := NewNetworkError("fetch failed", stderrors.New("dial tcp")).Error()
	if got != "network: fetch failed (caused by: dial tcp)" {
		t.Errorf("got %q", got)
	}
}

func TestWithDetails(t *testing.T) {
	base := NewValidationError("bad", nil)
	detailed := base.WithDetails("width is 0")

	if detailed.Details != "width is 0" {
		t.Errorf("Details: got %q", detailed.Details)
	}
	if base.Details != "" {
		t.Error("WithDetails must not modify the receiver")
	}
}

func TestGetStatusCodeAndIsType(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewNotFoundError("gone", nil))

	if got := GetStatusCode(wrapped); got != http.StatusNotFound {
		t.Errorf("GetStatusCode: got %d", got)
	}
	if !IsType(wrapped, ErrorTypeNotFound) {
		t.Error("IsType should see through wrapping")
	}
	if IsType(wrapped, ErrorTypeTimeout) {
		t.Error("IsType matched the wrong type")
	}
	if got := GetStatusCode(stderrors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("plain errors should map to 500, got %d", got)
	}
}
