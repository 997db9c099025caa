package pipeline

import (
	"errors"
	"fmt"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/pkg/jobcontext"
)

var (
	// ErrInterrupted is returned when a run stops for process shutdown. The job stays resumable.
	ErrInterrupted = errors.New("run interrupted")
	// ErrStageTimeout marks an attempt that exceeded the stage timeout
	ErrStageTimeout = errors.New("stage timed out")
)

// ErrorKind tells the retry policy whether a stage failure may be retried
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindPermanent
)

func (k ErrorKind) String() string {
	if k == KindPermanent {
		return "permanent"
	}
	return "transient"
}

// StageError is a tagged stage failure
type StageError struct {
	Stage entities.JobStatus
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	if e.Stage == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Transient tags err as retryable
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Kind: KindTransient, Err: err}
}

// Permanent tags err as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Kind: KindPermanent, Err: err}
}

// IsTransient reports whether err may succeed on retry. Untagged errors are
// classified by message.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind == KindTransient
	}
	return jobcontext.IsRetryableError(err)
}

// IsPermanent reports whether err must not be retried
func IsPermanent(err error) bool {
	return err != nil && !IsTransient(err)
}

// withStage returns err as a *StageError attributed to stage
func withStage(stage entities.JobStatus, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		if se.Stage == "" {
			return &StageError{Stage: stage, Kind: se.Kind, Err: se.Err}
		}
		return se
	}
	kind := KindPermanent
	if IsTransient(err) {
		kind = KindTransient
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
