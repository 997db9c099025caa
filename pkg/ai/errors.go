package ai

import (
	"context"
	"errors"
	"fmt"
	"net"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
)

var (
	// ErrTranscriptFailed is returned when AssemblyAI finishes a transcript with status error
	ErrTranscriptFailed = errors.New("transcript failed")
	// ErrTranslationMismatch is returned when a translator answers with the wrong number of strings
	ErrTranslationMismatch = errors.New("translation count mismatch")
	// ErrEmptyResponse is returned when a provider answers without content
	ErrEmptyResponse = errors.New("empty response")
)

// StatusError is a non-2xx answer from an HTTP provider
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when repeated
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsTemporary classifies provider errors: rate limits, 5xx, timeouts and network failures
// are temporary, other API answers are not.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTranslationMismatch) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	var apiErr aai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == 429 || apiErr.Status >= 500
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsPermanent reports errors a retry can never fix
func IsPermanent(err error) bool {
	if err == nil || IsTemporary(err) {
		return false
	}
	if errors.Is(err, ErrTranscriptFailed) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	var apiErr aai.APIError
	return errors.As(err, &apiErr)
}
