package entities

import (
	"time"

	"github.com/google/uuid"
)

// Video represents an uploaded source video. It is immutable once stored.
type Video struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID           string    `json:"user_id" gorm:"type:varchar(255);not null;index"`
	Filename         string    `json:"filename" gorm:"type:text;not null"`          // Generated object name
	OriginalFilename string    `json:"original_filename" gorm:"type:text;not null"` // Name supplied by the uploader
	StoragePath      string    `json:"file_path" gorm:"column:file_path;type:text;not null"`
	FileSize         int64     `json:"file_size" gorm:"not null"`
	Duration         float64   `json:"duration" gorm:"not null"` // Seconds
	MimeType         string    `json:"mime_type" gorm:"type:varchar(100);not null"`
	UploadedAt       time.Time `json:"uploaded_at" gorm:"not null"`
}

// NewVideo creates a new video record owned by userID
func NewVideo(userID, originalFilename, storagePath, mimeType string, size int64, duration float64) *Video {
	return &Video{
		ID:               uuid.New(),
		UserID:           userID,
		OriginalFilename: originalFilename,
		StoragePath:      storagePath,
		FileSize:         size,
		Duration:         duration,
		MimeType:         mimeType,
		UploadedAt:       time.Now(),
	}
}

// IsOwnedBy checks whether the video belongs to userID
func (v *Video) IsOwnedBy(userID string) bool {
	return v.UserID == userID
}

// TableName specifies the table name for GORM
func (Video) TableName() string {
	return "videos"
}
