package entities

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Lookup errors
	ErrJobNotFound     = errors.New("translation job not found")
	ErrVideoNotFound   = errors.New("video not found")
	ErrSpeakerNotFound = errors.New("speaker not found")

	// State machine errors
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStaleJobState     = errors.New("job state changed concurrently")
	ErrCancelled         = errors.New("job cancelled")
	ErrJobNotEditable    = errors.New("job is not editable")

	// Validation errors
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateSpeakerLabel = errors.New("duplicate speaker label")
	ErrUnsupportedLanguage   = errors.New("unsupported language")

	// Generic errors
	ErrUnauthorized = errors.New("unauthorized")
)

// InvalidTransitionError describes a rejected state machine edge
type InvalidTransitionError struct {
	From   JobStatus
	To     JobStatus
	Reason string // set when the edge exists but the job does not meet its precondition
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid status transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// Unwrap makes the error match ErrInvalidTransition
func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
