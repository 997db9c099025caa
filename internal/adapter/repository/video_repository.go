package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/domain/repositories"
)

// VideoRepository handles video data operations
type VideoRepository struct {
	db *gorm.DB
}

var _ repositories.VideoRepository = (*VideoRepository)(nil)

// NewVideoRepository creates a new video repository
func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create creates a new video
func (r *VideoRepository) Create(ctx context.Context, video *entities.Video) error {
	if video == nil {
		return errors.New("video cannot be nil")
	}
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(video).Error
}

// FindByID retrieves a video by ID
func (r *VideoRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Video, error) {
	var video entities.Video
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrVideoNotFound
		}
		return nil, err
	}
	return &video, nil
}

// Delete removes a video and everything owned by its jobs.
// Children are deleted before parents so it works without ON DELETE CASCADE.
func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var jobIDs []uuid.UUID
		if err := tx.Model(&entities.TranslationJob{}).
			Where("video_id = ?", id).
			Pluck("id", &jobIDs).Error; err != nil {
			return err
		}

		if len(jobIDs) > 0 {
			if err := tx.Where("translation_job_id IN ?", jobIDs).
				Delete(&entities.TranscriptSegment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("translation_job_id IN ?", jobIDs).
				Delete(&entities.Speaker{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", jobIDs).
				Delete(&entities.TranslationJob{}).Error; err != nil {
				return err
			}
		}

		res := tx.Where("id = ?", id).Delete(&entities.Video{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return entities.ErrVideoNotFound
		}
		return nil
	})
}
