package repository

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
)

// newTestDB opens an in-memory SQLite database with the service schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// each connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&entities.Video{},
		&entities.TranslationJob{},
		&entities.Speaker{},
		&entities.TranscriptSegment{},
	); err != nil {
		t.Fatalf("auto-migrate failed: %v", err)
	}
	return db
}

func seedJob(t *testing.T, db *gorm.DB, userID string) (*entities.Video, *entities.TranslationJob) {
	t.Helper()
	ctx := context.Background()

	video := entities.NewVideo(userID, "talk.mp4", "videos/u/talk.mp4", "video/mp4", 1024, 12.5)
	video.Filename = "talk-generated.mp4"
	if err := NewVideoRepository(db).Create(ctx, video); err != nil {
		t.Fatalf("failed to create video: %v", err)
	}
	job := entities.NewTranslationJob(video.ID, "es")
	if err := NewJobRepository(db).Create(ctx, job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	return video, job
}
