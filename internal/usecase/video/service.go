package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/domain/repositories"
	"github.com/johnquangdev/dubbing-service/internal/infrastructure/storage"
	usecaseErrors "github.com/johnquangdev/dubbing-service/internal/usecase/errors"
)

// ObjectStore stores uploaded and generated media
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	DeleteFile(ctx context.Context, objectName string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// RunCanceller stops active pipeline runs
type RunCanceller interface {
	Cancel(jobID uuid.UUID) error
}

// Service handles video uploads and removal
type Service struct {
	videos  repositories.VideoRepository
	jobs    repositories.JobRepository
	objects ObjectStore
	runs    RunCanceller
	logger  *zap.Logger
}

// NewService creates a new video service
func NewService(
	videos repositories.VideoRepository,
	jobs repositories.JobRepository,
	objects ObjectStore,
	runs RunCanceller,
	logger *zap.Logger,
) *Service {
	return &Service{
		videos:  videos,
		jobs:    jobs,
		objects: objects,
		runs:    runs,
		logger:  logger,
	}
}

// UploadInput represents an uploaded video file
type UploadInput struct {
	UserID           string
	OriginalFilename string
	MimeType         string
	Size             int64
	Duration         float64
	Content          io.Reader
}

// UploadVideo stores the file and records the video
func (s *Service) UploadVideo(ctx context.Context, input UploadInput) (*entities.Video, error) {
	if err := validateUpload(input); err != nil {
		return nil, err
	}

	video := entities.NewVideo(input.UserID, path.Base(input.OriginalFilename), "", input.MimeType, input.Size, input.Duration)
	video.Filename = video.ID.String() + strings.ToLower(path.Ext(video.OriginalFilename))
	video.StoragePath = storage.VideoObjectName(input.UserID, video.ID, video.Filename)

	if err := s.objects.UploadFile(ctx, video.StoragePath, input.Content, input.Size, input.MimeType); err != nil {
		return nil, fmt.Errorf("failed to store video: %w", err)
	}

	if err := s.videos.Create(ctx, video); err != nil {
		if delErr := s.objects.DeleteFile(context.WithoutCancel(ctx), video.StoragePath); delErr != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to remove orphaned upload",
				zap.String("path", video.StoragePath),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("📼 Video uploaded",
			zap.String("video_id", video.ID.String()),
			zap.String("user_id", input.UserID),
			zap.Int64("size", input.Size),
			zap.Float64("duration", input.Duration),
		)
	}
	return video, nil
}

func validateUpload(input UploadInput) error {
	switch {
	case input.UserID == "":
		return entities.ErrUnauthorized
	case strings.TrimSpace(input.OriginalFilename) == "":
		return fmt.Errorf("%w: filename is required", entities.ErrValidation)
	case !strings.HasPrefix(input.MimeType, "video/"):
		return fmt.Errorf("%w: unsupported content type %q", entities.ErrValidation, input.MimeType)
	case input.Size <= 0:
		return fmt.Errorf("%w: file is empty", entities.ErrValidation)
	case input.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", entities.ErrValidation)
	case input.Content == nil:
		return fmt.Errorf("%w: file content is required", entities.ErrValidation)
	}
	return nil
}

// GetVideo retrieves a video the caller owns
func (s *Service) GetVideo(ctx context.Context, videoID uuid.UUID, userID string) (*entities.Video, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsOwnedBy(userID) {
		return nil, entities.ErrUnauthorized
	}
	return video, nil
}

// DeleteVideo cancels the video's active runs, removes its media and deletes the
// video together with its jobs, speakers and segments
func (s *Service) DeleteVideo(ctx context.Context, videoID uuid.UUID, userID string) error {
	video, err := s.GetVideo(ctx, videoID, userID)
	if err != nil {
		return err
	}

	jobs, err := s.jobs.ListByVideo(ctx, videoID)
	if err != nil {
		return fmt.Errorf("failed to list video jobs: %w", err)
	}
	for _, job := range jobs {
		if err := s.runs.Cancel(job.ID); err != nil && !errors.Is(err, usecaseErrors.ErrNotRunning) {
			return fmt.Errorf("failed to cancel job %s: %w", job.ID, err)
		}
	}

	if err := s.videos.Delete(ctx, videoID); err != nil {
		return err
	}

	// rows are gone, leftover objects are only logged
	if err := s.objects.DeleteFile(ctx, video.StoragePath); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to delete video object", zap.String("path", video.StoragePath), zap.Error(err))
	}
	for _, job := range jobs {
		prefix := storage.JobPrefix(job.ID)
		if err := s.objects.DeletePrefix(ctx, prefix); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to delete job media", zap.String("prefix", prefix), zap.Error(err))
		}
	}

	if s.logger != nil {
		s.logger.Info("🗑️ Video deleted",
			zap.String("video_id", videoID.String()),
			zap.Int("jobs", len(jobs)),
		)
	}
	return nil
}
