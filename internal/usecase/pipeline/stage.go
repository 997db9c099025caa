package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
)

// ProgressFunc reports how much of the running stage is done, as a fraction in [0, 1]
type ProgressFunc func(fraction float64)

// StageInput is the persisted state a stage executor works from
type StageInput struct {
	Job      *entities.TranslationJob
	Video    *entities.Video
	Speakers []entities.Speaker
	Segments []entities.TranscriptSegment // Ordered by segment_order
	Report   ProgressFunc
}

// StageResult carries the fields a stage is allowed to produce
type StageResult struct {
	SourceLanguage string                        // LanguageDetection
	Speakers       []entities.Speaker            // Transcription
	Segments       []entities.TranscriptSegment  // Transcription
	Translations   []entities.SegmentTranslation // Translation
	AudioPath      string                        // Dubbing
	ExternalID     string                        // Provider reference kept in job metadata
}

// Executor runs one pipeline stage. Executors never write to the job store.
type Executor interface {
	Execute(ctx context.Context, in StageInput) (*StageResult, error)
}

// ExecutorFunc adapts a function to Executor
type ExecutorFunc func(ctx context.Context, in StageInput) (*StageResult, error)

// Execute calls f
func (f ExecutorFunc) Execute(ctx context.Context, in StageInput) (*StageResult, error) {
	return f(ctx, in)
}

// Executors is the fixed set of stages, one per non-terminal working status
type Executors struct {
	LanguageDetection Executor
	Transcription     Executor
	Translation       Executor
	Dubbing           Executor
}

// forStatus returns the executor that runs while a job is in status
func (e Executors) forStatus(status entities.JobStatus) (Executor, bool) {
	var exec Executor
	switch status {
	case entities.JobStatusLanguageDetection:
		exec = e.LanguageDetection
	case entities.JobStatusTranscribing:
		exec = e.Transcription
	case entities.JobStatusTranslating:
		exec = e.Translation
	case entities.JobStatusDubbing:
		exec = e.Dubbing
	}
	return exec, exec != nil
}

func (e Executors) validate() error {
	for _, status := range []entities.JobStatus{
		entities.JobStatusLanguageDetection,
		entities.JobStatusTranscribing,
		entities.JobStatusTranslating,
		entities.JobStatusDubbing,
	} {
		if _, ok := e.forStatus(status); !ok {
			return fmt.Errorf("no executor configured for stage %s", status)
		}
	}
	return nil
}

// VideoFinder loads the source video of a job
type VideoFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Video, error)
}
