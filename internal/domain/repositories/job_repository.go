package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
)

// JobStore is the persistence contract the pipeline runs against.
// Every write to a job row is keyed on the status the writer last observed.
type JobStore interface {
	// LoadJob retrieves a job snapshot, ErrJobNotFound if absent
	LoadJob(ctx context.Context, id uuid.UUID) (*entities.TranslationJob, error)

	// LoadTranscript retrieves the job's speakers and its segments ordered by segment_order
	LoadTranscript(ctx context.Context, jobID uuid.UUID) ([]entities.Speaker, []entities.TranscriptSegment, error)

	// ConditionalUpdateJob applies update atomically if the stored status equals expected.
	// Returns ErrStaleJobState on mismatch, ErrJobNotFound if absent and
	// *InvalidTransitionError if expected -> update.Status is not an allowed edge.
	ConditionalUpdateJob(ctx context.Context, id uuid.UUID, expected entities.JobStatus, update entities.JobUpdate) error

	// UpdateProgress raises progress while the job stays in status.
	// Returns false when the status changed or the stored progress is already higher.
	UpdateProgress(ctx context.Context, id uuid.UUID, status entities.JobStatus, progress int) (bool, error)

	// AppendSpeakers validates and inserts speakers for a job
	AppendSpeakers(ctx context.Context, jobID uuid.UUID, speakers []entities.Speaker) error

	// AppendSegments validates and inserts segments continuing the job's segment order
	AppendSegments(ctx context.Context, jobID uuid.UUID, segments []entities.TranscriptSegment) error

	// UpdateSegmentTranslations sets translated_text on segments of a job
	UpdateSegmentTranslations(ctx context.Context, jobID uuid.UUID, translations []entities.SegmentTranslation) error
}

// JobRepository defines the interface for translation job data access
type JobRepository interface {
	JobStore

	// Create creates a new job in pending status
	Create(ctx context.Context, job *entities.TranslationJob) error

	// FindWithDetails retrieves a job with its video and child record counts
	FindWithDetails(ctx context.Context, id uuid.UUID) (*JobDetails, error)

	// ListByUser retrieves jobs of videos owned by a user, newest first
	ListByUser(ctx context.Context, filters JobFilters) ([]*entities.TranslationJob, int64, error)

	// ListByVideo retrieves all jobs of a video
	ListByVideo(ctx context.Context, videoID uuid.UUID) ([]*entities.TranslationJob, error)

	// ListInterrupted retrieves jobs that stopped inside a pipeline stage
	ListInterrupted(ctx context.Context) ([]*entities.TranslationJob, error)

	// FindSpeaker retrieves a speaker of a job, ErrSpeakerNotFound if absent
	FindSpeaker(ctx context.Context, jobID, speakerID uuid.UUID) (*entities.Speaker, error)

	// UpdateSpeakerName sets the display name of a speaker
	UpdateSpeakerName(ctx context.Context, jobID, speakerID uuid.UUID, name string) error
}

// JobDetails is a job joined with its video and counts of speakers and segments
type JobDetails struct {
	Job          *entities.TranslationJob
	Video        *entities.Video
	SpeakerCount int64
	SegmentCount int64
}

// JobFilters represents filter options for listing jobs
type JobFilters struct {
	UserID string
	Status *entities.JobStatus
	Limit  int
	Offset int
}
