package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/dubbing-service/internal/usecase/errors"
)

// RunController starts and cancels pipeline runs
type RunController interface {
	Start(ctx context.Context, jobID uuid.UUID) error
	Cancel(jobID uuid.UUID) error
	IsRunning(jobID uuid.UUID) bool
}

// Service handles translation job queries and commands
type Service struct {
	jobs   repositories.JobRepository
	videos repositories.VideoRepository
	runs   RunController
	logger *zap.Logger
}

// NewService creates a new job service
func NewService(
	jobs repositories.JobRepository,
	videos repositories.VideoRepository,
	runs RunController,
	logger *zap.Logger,
) *Service {
	return &Service{
		jobs:   jobs,
		videos: videos,
		runs:   runs,
		logger: logger,
	}
}

// CreateJobInput represents input for creating a job
type CreateJobInput struct {
	VideoID        uuid.UUID
	UserID         string
	TargetLanguage string
}

// CreateJob creates a pending job for a video the caller owns
func (s *Service) CreateJob(ctx context.Context, input CreateJobInput) (*entities.TranslationJob, error) {
	target := entities.NormalizeLanguageCode(input.TargetLanguage)
	if !entities.IsSupportedLanguage(target) {
		return nil, fmt.Errorf("%w: %q", entities.ErrUnsupportedLanguage, input.TargetLanguage)
	}

	video, err := s.videos.FindByID(ctx, input.VideoID)
	if err != nil {
		return nil, err
	}
	if !video.IsOwnedBy(input.UserID) {
		return nil, entities.ErrUnauthorized
	}

	job := entities.NewTranslationJob(video.ID, target)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("🆕 Translation job created",
			zap.String("job_id", job.ID.String()),
			zap.String("video_id", video.ID.String()),
			zap.String("target_language", target),
		)
	}
	return job, nil
}

// StartJob begins or resumes the pipeline run of a job
func (s *Service) StartJob(ctx context.Context, jobID uuid.UUID, userID string) error {
	job, err := s.authorize(ctx, jobID, userID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return entities.ValidateTransition(job.Status, entities.JobStatusLanguageDetection)
	}
	// the run outlives the request
	return s.runs.Start(context.WithoutCancel(ctx), jobID)
}

// CancelJob stops an active run. The job ends failed at its next stage boundary.
func (s *Service) CancelJob(ctx context.Context, jobID uuid.UUID, userID string) error {
	if _, err := s.authorize(ctx, jobID, userID); err != nil {
		return err
	}
	if err := s.runs.Cancel(jobID); err != nil {
		if errors.Is(err, usecaseErrors.ErrNotRunning) {
			return fmt.Errorf("%w: job has no active run", usecaseErrors.ErrInvalidInput)
		}
		return err
	}
	if s.logger != nil {
		s.logger.Info("🛑 Job cancellation requested", zap.String("job_id", jobID.String()))
	}
	return nil
}

// UpdateStatusInput represents an externally reported status change
type UpdateStatusInput struct {
	Status           entities.JobStatus
	Progress         *int
	ErrorMessage     *string
	OriginalLanguage *string
	AudioPath        *string
}

// UpdateJobStatus applies an external status change through the same transition
// rules and entry preconditions the pipeline uses. It is refused while a run owns the job.
func (s *Service) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, userID string, input UpdateStatusInput) (*entities.TranslationJob, error) {
	job, err := s.authorize(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if s.runs.IsRunning(jobID) {
		return nil, usecaseErrors.ErrAlreadyRunning
	}
	if err := entities.ValidateTransition(job.Status, input.Status); err != nil {
		return nil, err
	}

	update := entities.JobUpdate{Status: input.Status}

	sourceLanguage := job.SourceLanguage()
	if input.OriginalLanguage != nil {
		lang := entities.NormalizeLanguageCode(*input.OriginalLanguage)
		if !entities.IsSupportedLanguage(lang) {
			return nil, fmt.Errorf("%w: %q", entities.ErrUnsupportedLanguage, *input.OriginalLanguage)
		}
		update.OriginalLanguage = &lang
		sourceLanguage = lang
	}
	var segments []entities.TranscriptSegment
	if input.Status == entities.JobStatusDubbing {
		if _, segments, err = s.jobs.LoadTranscript(ctx, jobID); err != nil {
			return nil, fmt.Errorf("failed to load transcript: %w", err)
		}
	}
	if err := entities.ValidateAdvance(job.Status, input.Status, sourceLanguage, segments); err != nil {
		return nil, err
	}

	progress := input.Status.ProgressFloor()
	if input.Status == entities.JobStatusFailed {
		progress = job.ProgressPercentage
	}
	if input.Progress != nil {
		progress = *input.Progress
	}
	if err := validateProgress(job, input.Status, progress); err != nil {
		return nil, err
	}
	update.Progress = &progress

	if input.ErrorMessage != nil {
		msg := strings.TrimSpace(*input.ErrorMessage)
		update.ErrorMessage = &msg
	}
	if input.AudioPath != nil {
		update.TranslatedAudioPath = input.AudioPath
	}
	if input.Status == entities.JobStatusCompleted && input.AudioPath == nil && job.TranslatedAudioPath == nil {
		return nil, fmt.Errorf("%w: completed job requires translated audio", entities.ErrValidation)
	}
	if input.Status.IsTerminal() {
		now := time.Now()
		update.CompletedAt = &now
	}

	if err := s.jobs.ConditionalUpdateJob(ctx, jobID, job.Status, update); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("🔀 Job status updated externally",
			zap.String("job_id", jobID.String()),
			zap.String("from", string(job.Status)),
			zap.String("to", string(input.Status)),
			zap.Int("progress", progress),
		)
	}
	return s.jobs.LoadJob(ctx, jobID)
}

// validateProgress keeps progress inside the band of the target status and never below the stored value
func validateProgress(job *entities.TranslationJob, to entities.JobStatus, progress int) error {
	if progress < 0 || progress > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100", entities.ErrValidation)
	}
	if progress < job.ProgressPercentage {
		return fmt.Errorf("%w: progress cannot decrease from %d to %d", entities.ErrValidation, job.ProgressPercentage, progress)
	}
	if to == entities.JobStatusFailed {
		return nil
	}
	if progress < to.ProgressFloor() || (to != entities.JobStatusCompleted && progress >= to.ProgressCeiling()) {
		return fmt.Errorf("%w: progress %d outside the %s range", entities.ErrValidation, progress, to)
	}
	return nil
}

// GetJob retrieves a job with its video and child record counts
func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID, userID string) (*repositories.JobDetails, error) {
	details, err := s.jobs.FindWithDetails(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !details.Video.IsOwnedBy(userID) {
		return nil, entities.ErrUnauthorized
	}
	return details, nil
}

// ListJobs retrieves the caller's jobs, newest first
func (s *Service) ListJobs(ctx context.Context, filters repositories.JobFilters) ([]*entities.TranslationJob, int64, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", entities.ErrValidation, *filters.Status)
	}
	jobs, total, err := s.jobs.ListByUser(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, total, nil
}

// Transcript is a job's speakers with its segments in order
type Transcript struct {
	Job      *entities.TranslationJob
	Speakers []entities.Speaker
	Segments []entities.TranscriptSegment
}

// GetTranscript retrieves the speakers and ordered segments of a job
func (s *Service) GetTranscript(ctx context.Context, jobID uuid.UUID, userID string) (*Transcript, error) {
	job, err := s.authorize(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	speakers, segments, err := s.jobs.LoadTranscript(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	return &Transcript{Job: job, Speakers: speakers, Segments: segments}, nil
}

// CreateSpeakerInput represents input for adding a speaker manually
type CreateSpeakerInput struct {
	Label             string
	Name              *string
	Gender            entities.SpeakerGender
	TotalSpeakingTime float64
}

// CreateSpeaker adds a speaker to a job that is still editable
func (s *Service) CreateSpeaker(ctx context.Context, jobID uuid.UUID, userID string, input CreateSpeakerInput) (*entities.Speaker, error) {
	if _, err := s.editable(ctx, jobID, userID); err != nil {
		return nil, err
	}

	gender := input.Gender
	if gender == "" {
		gender = entities.SpeakerGenderUnknown
	}
	speaker := entities.NewSpeaker(jobID, strings.TrimSpace(input.Label), gender, input.TotalSpeakingTime)
	speaker.Name = input.Name
	if err := speaker.Validate(); err != nil {
		return nil, err
	}

	if err := s.jobs.AppendSpeakers(ctx, jobID, []entities.Speaker{speaker}); err != nil {
		return nil, err
	}
	return &speaker, nil
}

// CreateSegmentInput represents input for adding a transcript segment manually
type CreateSegmentInput struct {
	SpeakerID      *uuid.UUID
	StartTime      float64
	EndTime        float64
	OriginalText   string
	TranslatedText *string
	Confidence     float64
	SegmentOrder   int
}

// CreateSegment appends a segment to a job that is still editable
func (s *Service) CreateSegment(ctx context.Context, jobID uuid.UUID, userID string, input CreateSegmentInput) (*entities.TranscriptSegment, error) {
	if _, err := s.editable(ctx, jobID, userID); err != nil {
		return nil, err
	}
	if input.SpeakerID != nil {
		if _, err := s.jobs.FindSpeaker(ctx, jobID, *input.SpeakerID); err != nil {
			return nil, err
		}
	}

	segment := entities.TranscriptSegment{
		ID:             uuid.New(),
		JobID:          jobID,
		SpeakerID:      input.SpeakerID,
		StartTime:      input.StartTime,
		EndTime:        input.EndTime,
		OriginalText:   input.OriginalText,
		TranslatedText: input.TranslatedText,
		Confidence:     input.Confidence,
		SegmentOrder:   input.SegmentOrder,
	}
	if err := segment.Validate(); err != nil {
		return nil, err
	}

	// order and start time continuity are checked against stored segments in the same transaction
	if err := s.jobs.AppendSegments(ctx, jobID, []entities.TranscriptSegment{segment}); err != nil {
		return nil, err
	}
	return &segment, nil
}

// RenameSpeaker sets the display name of a speaker
func (s *Service) RenameSpeaker(ctx context.Context, jobID, speakerID uuid.UUID, userID, name string) (*entities.Speaker, error) {
	if _, err := s.authorize(ctx, jobID, userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: speaker name is required", entities.ErrValidation)
	}
	if err := s.jobs.UpdateSpeakerName(ctx, jobID, speakerID, name); err != nil {
		return nil, err
	}
	return s.jobs.FindSpeaker(ctx, jobID, speakerID)
}

// authorize loads a job and checks the caller owns its video
func (s *Service) authorize(ctx context.Context, jobID uuid.UUID, userID string) (*entities.TranslationJob, error) {
	job, err := s.jobs.LoadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	video, err := s.videos.FindByID(ctx, job.VideoID)
	if err != nil {
		return nil, err
	}
	if !video.IsOwnedBy(userID) {
		return nil, entities.ErrUnauthorized
	}
	return job, nil
}

func (s *Service) editable(ctx context.Context, jobID uuid.UUID, userID string) (*entities.TranslationJob, error) {
	job, err := s.authorize(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if !job.IsEditable() || s.runs.IsRunning(jobID) {
		return nil, fmt.Errorf("%w: status %s", entities.ErrJobNotEditable, job.Status)
	}
	return job, nil
}
