package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
)

// VideoRepository defines the interface for video data access
type VideoRepository interface {
	// Create creates a new video record
	Create(ctx context.Context, video *entities.Video) error

	// FindByID retrieves a video by its ID, ErrVideoNotFound if absent
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Video, error)

	// Delete removes a video with its jobs, speakers and segments
	Delete(ctx context.Context, id uuid.UUID) error
}
