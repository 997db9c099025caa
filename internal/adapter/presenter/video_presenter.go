package presenter

import (
	videodto "github.com/johnquangdev/dubbing-service/internal/adapter/dto/video"
	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
)

// ToVideoResponse converts a Video entity to VideoResponse DTO
func ToVideoResponse(v *entities.Video) *videodto.VideoResponse {
	if v == nil {
		return nil
	}
	return &videodto.VideoResponse{
		ID:               v.ID.String(),
		Filename:         v.Filename,
		OriginalFilename: v.OriginalFilename,
		FilePath:         v.StoragePath,
		FileSize:         v.FileSize,
		Duration:         v.Duration,
		MimeType:         v.MimeType,
		UploadedAt:       v.UploadedAt,
	}
}
