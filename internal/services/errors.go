package services

import (
	"errors"
	"fmt"
)

// ErrMissingCredential means no API key is configured for the selected provider.
var ErrMissingCredential = errors.New("missing provider credential")

// ValidationError is returned for input the assistant refuses to forward.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// UpstreamError is a non-success answer from the external provider.
// Body carries the provider's error payload for server-side logs only.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error, status code: %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s error", e.Provider)
}
