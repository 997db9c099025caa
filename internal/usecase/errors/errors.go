package errors

import "errors"

// ErrInvalidInput marks a request the usecase cannot act on
var ErrInvalidInput = errors.New("invalid input")

// Run supervision errors
var (
	ErrAlreadyRunning = errors.New("job is already running")
	ErrNotRunning     = errors.New("job is not running")
	ErrShuttingDown   = errors.New("supervisor is shutting down")
)
