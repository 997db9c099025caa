package video

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/dubbing-service/internal/adapter/repository"
	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/dubbing-service/internal/usecase/errors"
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: make(map[string][]byte)}
}

func (m *memoryObjects) UploadFile(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if m.failPut {
		return errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = data
	return nil
}

func (m *memoryObjects) DeleteFile(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, name)
	return nil
}

func (m *memoryObjects) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			delete(m.objects, name)
		}
	}
	return nil
}

type cancelRecorder struct {
	active    map[uuid.UUID]bool
	cancelled []uuid.UUID
}

func (c *cancelRecorder) Cancel(id uuid.UUID) error {
	if !c.active[id] {
		return usecaseErrors.ErrNotRunning
	}
	c.cancelled = append(c.cancelled, id)
	return nil
}

type fixture struct {
	svc     *Service
	db      *gorm.DB
	jobs    *repository.JobRepository
	objects *memoryObjects
	runs    *cancelRecorder
}

func newFixture(t *testing.T) *fixture {
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
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(&entities.Video{}, &entities.TranslationJob{}, &entities.Speaker{}, &entities.TranscriptSegment{}); err != nil {
		t.Fatalf("auto-migrate failed: %v", err)
	}

	f := &fixture{
		db:      db,
		jobs:    repository.NewJobRepository(db),
		objects: newMemoryObjects(),
		runs:    &cancelRecorder{active: make(map[uuid.UUID]bool)},
	}
	f.svc = NewService(repository.NewVideoRepository(db), f.jobs, f.objects, f.runs, nil)
	return f
}

func upload(content string) UploadInput {
	return UploadInput{
		UserID:           "user-1",
		OriginalFilename: "../clips/Talk.MP4",
		MimeType:         "video/mp4",
		Size:             int64(len(content)),
		Duration:         42.5,
		Content:          strings.NewReader(content),
	}
}

func TestUploadVideo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	video, err := f.svc.UploadVideo(ctx, upload("frames"))
	if err != nil {
		t.Fatalf("UploadVideo() error = %v", err)
	}
	if video.OriginalFilename != "Talk.MP4" {
		t.Errorf("original filename = %q", video.OriginalFilename)
	}
	if video.Filename != video.ID.String()+".mp4" {
		t.Errorf("filename = %q", video.Filename)
	}
	want := "videos/user-1/" + video.ID.String() + "/" + video.Filename
	if video.StoragePath != want {
		t.Errorf("storage path = %q, want %q", video.StoragePath, want)
	}
	if !bytes.Equal(f.objects.objects[want], []byte("frames")) {
		t.Error("object content not stored")
	}

	got, err := f.svc.GetVideo(ctx, video.ID, "user-1")
	if err != nil || got.Duration != 42.5 {
		t.Fatalf("GetVideo() = %+v, %v", got, err)
	}
	if _, err := f.svc.GetVideo(ctx, video.ID, "user-2"); !errors.Is(err, entities.ErrUnauthorized) {
		t.Fatalf("GetVideo() by non-owner error = %v", err)
	}
	if _, err := f.svc.GetVideo(ctx, uuid.New(), "user-1"); !errors.Is(err, entities.ErrVideoNotFound) {
		t.Fatalf("GetVideo() missing error = %v", err)
	}
}

func TestUploadVideoValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*UploadInput)
	}{
		{"not a video", func(in *UploadInput) { in.MimeType = "audio/wav" }},
		{"empty file", func(in *UploadInput) { in.Size = 0 }},
		{"no duration", func(in *UploadInput) { in.Duration = 0 }},
		{"no filename", func(in *UploadInput) { in.OriginalFilename = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := upload("x")
			tt.mutate(&in)
			if _, err := f.svc.UploadVideo(context.Background(), in); !errors.Is(err, entities.ErrValidation) {
				t.Fatalf("UploadVideo() error = %v, want ErrValidation", err)
			}
		})
	}
	if len(f.objects.objects) != 0 {
		t.Errorf("objects stored for rejected uploads: %d", len(f.objects.objects))
	}

	f.objects.failPut = true
	if _, err := f.svc.UploadVideo(context.Background(), upload("x")); err == nil {
		t.Fatal("expected storage failure")
	}
}

func TestDeleteVideoCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	video, err := f.svc.UploadVideo(ctx, upload("frames"))
	if err != nil {
		t.Fatalf("UploadVideo() error = %v", err)
	}

	running := entities.NewTranslationJob(video.ID, "es")
	idle := entities.NewTranslationJob(video.ID, "fr")
	for _, job := range []*entities.TranslationJob{running, idle} {
		if err := f.jobs.Create(ctx, job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}
	}
	if err := f.jobs.AppendSpeakers(ctx, running.ID, []entities.Speaker{
		entities.NewSpeaker(running.ID, "Speaker_A", entities.SpeakerGenderUnknown, 1),
	}); err != nil {
		t.Fatalf("failed to add speaker: %v", err)
	}
	if err := f.jobs.AppendSegments(ctx, running.ID, []entities.TranscriptSegment{{
		StartTime: 0, EndTime: 1, OriginalText: "hi", Confidence: 1, SpeakerLabel: "Speaker_A",
	}}); err != nil {
		t.Fatalf("failed to add segment: %v", err)
	}
	dubbed := "jobs/" + running.ID.String() + "/dubbed.wav"
	f.objects.objects[dubbed] = []byte("wav")
	f.runs.active[running.ID] = true

	if err := f.svc.DeleteVideo(ctx, video.ID, "user-2"); !errors.Is(err, entities.ErrUnauthorized) {
		t.Fatalf("DeleteVideo() by non-owner error = %v", err)
	}

	if err := f.svc.DeleteVideo(ctx, video.ID, "user-1"); err != nil {
		t.Fatalf("DeleteVideo() error = %v", err)
	}
	if len(f.runs.cancelled) != 1 || f.runs.cancelled[0] != running.ID {
		t.Errorf("cancelled = %v, want the running job only", f.runs.cancelled)
	}
	if len(f.objects.objects) != 0 {
		t.Errorf("objects left: %v", f.objects.objects)
	}

	for _, model := range []interface{}{&entities.Video{}, &entities.TranslationJob{}, &entities.Speaker{}, &entities.TranscriptSegment{}} {
		var count int64
		if err := f.db.Model(model).Count(&count).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 0 {
			t.Errorf("%T rows left: %d", model, count)
		}
	}
}
