package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/domain/repositories"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// JobRepository handles translation job data operations
type JobRepository struct {
	db *gorm.DB
}

var _ repositories.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new translation job repository
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new job
func (r *JobRepository) Create(ctx context.Context, job *entities.TranslationJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// LoadJob retrieves a job by ID
func (r *JobRepository) LoadJob(ctx context.Context, id uuid.UUID) (*entities.TranslationJob, error) {
	var job entities.TranslationJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// LoadTranscript retrieves speakers and ordered segments of a job
func (r *JobRepository) LoadTranscript(ctx context.Context, jobID uuid.UUID) ([]entities.Speaker, []entities.TranscriptSegment, error) {
	var speakers []entities.Speaker
	if err := r.db.WithContext(ctx).
		Where("translation_job_id = ?", jobID).
		Order("speaker_label ASC").
		Find(&speakers).Error; err != nil {
		return nil, nil, err
	}

	var segments []entities.TranscriptSegment
	if err := r.db.WithContext(ctx).
		Where("translation_job_id = ?", jobID).
		Order("segment_order ASC").
		Find(&segments).Error; err != nil {
		return nil, nil, err
	}
	return speakers, segments, nil
}

// ConditionalUpdateJob applies a status change and its derived records in one transaction
func (r *JobRepository) ConditionalUpdateJob(ctx context.Context, id uuid.UUID, expected entities.JobStatus, update entities.JobUpdate) error {
	if err := entities.ValidateTransition(expected, update.Status); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"status":     update.Status,
			"updated_at": time.Now(),
		}
		if update.Progress != nil {
			fields["progress_percentage"] = *update.Progress
		}
		if update.OriginalLanguage != nil {
			fields["original_language"] = *update.OriginalLanguage
		}
		if update.ErrorMessage != nil {
			fields["error_message"] = *update.ErrorMessage
		}
		if update.TranslatedAudioPath != nil {
			fields["translated_audio_path"] = *update.TranslatedAudioPath
		}
		if update.CompletedAt != nil {
			fields["completed_at"] = *update.CompletedAt
		}
		if update.Metadata != nil {
			fields["metadata"] = datatypes.NewJSONType(*update.Metadata)
		}

		res := tx.Model(&entities.TranslationJob{}).
			Where("id = ? AND status = ?", id, expected).
			Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("failed to update job: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return missingOrStale(tx, id)
		}

		if len(update.Speakers) > 0 {
			if err := insertSpeakers(tx, id, update.Speakers); err != nil {
				return err
			}
		}
		if len(update.Segments) > 0 {
			if err := insertSegments(tx, id, update.Segments); err != nil {
				return err
			}
		}
		if len(update.Translations) > 0 {
			if err := applyTranslations(tx, id, update.Translations); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateProgress raises progress without changing status
func (r *JobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, status entities.JobStatus, progress int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.TranslationJob{}).
		Where("id = ? AND status = ? AND progress_percentage < ?", id, status, progress).
		Updates(map[string]interface{}{
			"progress_percentage": progress,
			"updated_at":          time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update progress: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AppendSpeakers inserts speakers for a job
func (r *JobRepository) AppendSpeakers(ctx context.Context, jobID uuid.UUID, speakers []entities.Speaker) error {
	if len(speakers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireJob(tx, jobID); err != nil {
			return err
		}
		return insertSpeakers(tx, jobID, speakers)
	})
}

// AppendSegments inserts segments continuing the job's segment order
func (r *JobRepository) AppendSegments(ctx context.Context, jobID uuid.UUID, segments []entities.TranscriptSegment) error {
	if len(segments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireJob(tx, jobID); err != nil {
			return err
		}
		return insertSegments(tx, jobID, segments)
	})
}

// UpdateSegmentTranslations stores translated text on segments of a job
func (r *JobRepository) UpdateSegmentTranslations(ctx context.Context, jobID uuid.UUID, translations []entities.SegmentTranslation) error {
	if len(translations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireJob(tx, jobID); err != nil {
			return err
		}
		return applyTranslations(tx, jobID, translations)
	})
}

// FindWithDetails retrieves a job with its video and child counts
func (r *JobRepository) FindWithDetails(ctx context.Context, id uuid.UUID) (*repositories.JobDetails, error) {
	job, err := r.LoadJob(ctx, id)
	if err != nil {
		return nil, err
	}

	var video entities.Video
	if err := r.db.WithContext(ctx).Where("id = ?", job.VideoID).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrVideoNotFound
		}
		return nil, err
	}

	details := &repositories.JobDetails{Job: job, Video: &video}
	if err := r.db.WithContext(ctx).
		Model(&entities.Speaker{}).
		Where("translation_job_id = ?", id).
		Count(&details.SpeakerCount).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.TranscriptSegment{}).
		Where("translation_job_id = ?", id).
		Count(&details.SegmentCount).Error; err != nil {
		return nil, err
	}
	return details, nil
}

// ListByUser retrieves jobs of a user's videos with filters and pagination
func (r *JobRepository) ListByUser(ctx context.Context, filters repositories.JobFilters) ([]*entities.TranslationJob, int64, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&entities.TranslationJob{}).
			Joins("JOIN videos ON videos.id = translation_jobs.video_id").
			Where("videos.user_id = ?", filters.UserID)
		if filters.Status != nil {
			q = q.Where("translation_jobs.status = ?", *filters.Status)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []*entities.TranslationJob
	if err := base().
		Select("translation_jobs.*").
		Order("translation_jobs.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ListByVideo retrieves all jobs of a video
func (r *JobRepository) ListByVideo(ctx context.Context, videoID uuid.UUID) ([]*entities.TranslationJob, error) {
	var jobs []*entities.TranslationJob
	if err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListInterrupted retrieves jobs persisted inside a pipeline stage
func (r *JobRepository) ListInterrupted(ctx context.Context) ([]*entities.TranslationJob, error) {
	var jobs []*entities.TranslationJob
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []entities.JobStatus{
			entities.JobStatusLanguageDetection,
			entities.JobStatusTranscribing,
			entities.JobStatusTranslating,
			entities.JobStatusDubbing,
		}).
		Order("created_at ASC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// FindSpeaker retrieves a speaker of a job
func (r *JobRepository) FindSpeaker(ctx context.Context, jobID, speakerID uuid.UUID) (*entities.Speaker, error) {
	var speaker entities.Speaker
	if err := r.db.WithContext(ctx).
		Where("id = ? AND translation_job_id = ?", speakerID, jobID).
		First(&speaker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrSpeakerNotFound
		}
		return nil, err
	}
	return &speaker, nil
}

// UpdateSpeakerName sets the display name of a speaker
func (r *JobRepository) UpdateSpeakerName(ctx context.Context, jobID, speakerID uuid.UUID, name string) error {
	res := r.db.WithContext(ctx).
		Model(&entities.Speaker{}).
		Where("id = ? AND translation_job_id = ?", speakerID, jobID).
		Update("speaker_name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return entities.ErrSpeakerNotFound
	}
	return nil
}

// missingOrStale tells a missing job apart from a status mismatch after a zero-row update
func missingOrStale(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&entities.TranslationJob{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return entities.ErrJobNotFound
	}
	return entities.ErrStaleJobState
}

func requireJob(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&entities.TranslationJob{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return entities.ErrJobNotFound
	}
	return nil
}

func insertSpeakers(tx *gorm.DB, jobID uuid.UUID, speakers []entities.Speaker) error {
	var existing []entities.Speaker
	if err := tx.Where("translation_job_id = ?", jobID).Find(&existing).Error; err != nil {
		return err
	}

	rows := make([]entities.Speaker, len(speakers))
	copy(rows, speakers)
	for i := range rows {
		rows[i].JobID = jobID
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
		if rows[i].Gender == "" {
			rows[i].Gender = entities.SpeakerGenderUnknown
		}
	}
	if err := entities.ValidateSpeakers(existing, rows); err != nil {
		return err
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert speakers: %w", err)
	}
	return nil
}

func insertSegments(tx *gorm.DB, jobID uuid.UUID, segments []entities.TranscriptSegment) error {
	var speakers []entities.Speaker
	if err := tx.Where("translation_job_id = ?", jobID).Find(&speakers).Error; err != nil {
		return err
	}
	byLabel := make(map[string]uuid.UUID, len(speakers))
	byID := make(map[uuid.UUID]struct{}, len(speakers))
	for _, s := range speakers {
		byLabel[s.Label] = s.ID
		byID[s.ID] = struct{}{}
	}

	var last *entities.TranscriptSegment
	var tail entities.TranscriptSegment
	err := tx.Where("translation_job_id = ?", jobID).Order("segment_order DESC").First(&tail).Error
	switch {
	case err == nil:
		last = &tail
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	rows := make([]entities.TranscriptSegment, len(segments))
	copy(rows, segments)
	for i := range rows {
		rows[i].JobID = jobID
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
		if rows[i].SpeakerID == nil && rows[i].SpeakerLabel != "" {
			id, ok := byLabel[rows[i].SpeakerLabel]
			if !ok {
				return fmt.Errorf("%w: unknown speaker label %q", entities.ErrValidation, rows[i].SpeakerLabel)
			}
			rows[i].SpeakerID = &id
		}
		if rows[i].SpeakerID != nil {
			if _, ok := byID[*rows[i].SpeakerID]; !ok {
				return fmt.Errorf("%w: speaker %s does not belong to job", entities.ErrSpeakerNotFound, rows[i].SpeakerID)
			}
		}
	}
	if err := entities.ValidateSegments(last, rows); err != nil {
		return err
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert segments: %w", err)
	}
	return nil
}

func applyTranslations(tx *gorm.DB, jobID uuid.UUID, translations []entities.SegmentTranslation) error {
	for _, t := range translations {
		res := tx.Model(&entities.TranscriptSegment{}).
			Where("id = ? AND translation_job_id = ?", t.SegmentID, jobID).
			Update("translated_text", t.TranslatedText)
		if res.Error != nil {
			return fmt.Errorf("failed to store translation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: segment %s does not belong to job", entities.ErrValidation, t.SegmentID)
		}
	}
	return nil
}
