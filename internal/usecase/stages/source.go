package stages

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/pkg/jobcontext"
)

const maxConcurrentUploads = 2

// MediaStore gives stage executors access to job media
type MediaStore interface {
	// SourceAudioURL returns a URL the AI provider can fetch, or "" when the store is not publicly reachable
	SourceAudioURL(ctx context.Context, video *entities.Video) (string, error)
	// FetchSourceAudio streams the uploaded video
	FetchSourceAudio(ctx context.Context, video *entities.Video) (io.ReadCloser, error)
	// StoreDubbedAudio saves the dubbed track of a job and returns its storage path
	StoreDubbedAudio(ctx context.Context, jobID uuid.UUID, wav []byte) (string, error)
}

// MediaUploader hands media to the transcription provider directly
type MediaUploader interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
}

// AudioSource resolves the audio URL the transcription provider reads from
type AudioSource struct {
	media       MediaStore
	uploader    MediaUploader
	alwaysPush  bool
	uploadSlots chan struct{}
	logger      *zap.Logger
}

// NewAudioSource creates an AudioSource. With alwaysUpload set, media is streamed to the
// provider even when the store could hand out a URL.
func NewAudioSource(media MediaStore, uploader MediaUploader, alwaysUpload bool, logger *zap.Logger) *AudioSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudioSource{
		media:       media,
		uploader:    uploader,
		alwaysPush:  alwaysUpload,
		uploadSlots: make(chan struct{}, maxConcurrentUploads),
		logger:      logger,
	}
}

// URL returns the audio URL for video
func (s *AudioSource) URL(ctx context.Context, video *entities.Video) (string, error) {
	if video == nil {
		return "", permanent(fmt.Errorf("%w: job has no video", entities.ErrVideoNotFound))
	}
	if !s.alwaysPush {
		url, err := s.media.SourceAudioURL(ctx, video)
		if err != nil {
			return "", transient(fmt.Errorf("failed to get media URL: %w", err))
		}
		if url != "" {
			return url, nil
		}
	}
	if s.uploader == nil {
		return "", permanent(fmt.Errorf("media for video %s is not reachable and no uploader is configured", video.ID))
	}

	// limit concurrent uploads
	select {
	case s.uploadSlots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-s.uploadSlots }()

	body, err := s.media.FetchSourceAudio(ctx, video)
	if err != nil {
		return "", transient(fmt.Errorf("failed to read source media: %w", err))
	}
	defer body.Close()

	s.logger.Info("📤 Uploading source media to transcription provider",
		append(jobcontext.Fields(ctx),
			zap.String("video_id", video.ID.String()),
			zap.Int64("size", video.FileSize),
		)...,
	)
	url, err := s.uploader.Upload(ctx, body)
	if err != nil {
		return "", classify(err)
	}
	return url, nil
}
