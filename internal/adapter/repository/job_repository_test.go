package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/domain/repositories"
)

func intPtr(v int) *int              { return &v }
func strPtr(v string) *string        { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func TestConditionalUpdateJob(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	_, job := seedJob(t, db, "user-1")
	ctx := context.Background()

	err := repo.ConditionalUpdateJob(ctx, job.ID, entities.JobStatusPending, entities.JobUpdate{
		Status:   entities.JobStatusLanguageDetection,
		Progress: intPtr(0),
	})
	if err != nil {
		t.Fatalf("expected transition to succeed, got %v", err)
	}

	// expected status no longer matches
	err = repo.ConditionalUpdateJob(ctx, job.ID, entities.JobStatusPending, entities.JobUpdate{
		Status: entities.JobStatusLanguageDetection,
	})
	if !errors.Is(err, entities.ErrStaleJobState) {
		t.Fatalf("expected ErrStaleJobState, got %v", err)
	}

	err = repo.ConditionalUpdateJob(ctx, uuid.New(), entities.JobStatusLanguageDetection, entities.JobUpdate{
		Status: entities.JobStatusTranscribing,
	})
	if !errors.Is(err, entities.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}

	err = repo.ConditionalUpdateJob(ctx, job.ID, entities.JobStatusLanguageDetection, entities.JobUpdate{
		Status: entities.JobStatusDubbing,
	})
	if !errors.Is(err, entities.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	loaded, err := repo.LoadJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if loaded.Status != entities.JobStatusLanguageDetection {
		t.Fatalf("status = %s, want language_detection", loaded.Status)
	}
}

func TestConditionalUpdateJobWritesTranscriptAtomically(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	_, job := seedJob(t, db, "user-1")
	ctx := context.Background()

	advance(t, repo, job.ID, entities.JobStatusPending, entities.JobStatusLanguageDetection)
	err := repo.ConditionalUpdateJob(ctx, job.ID, entities.JobStatusLanguageDetection, entities.JobUpdate{
		Status:           entities.JobStatusTranscribing,
		Progress:         intPtr(25),
		OriginalLanguage: strPtr("en"),
		Metadata: &entities.JobMetadata{
			Stages: []entities.StageRun{{Stage: entities.JobStatusLanguageDetection, Attempts: 1}},
		},
	})
	if err != nil {
		t.Fatalf("detection transition: %v", err)
	}

	update := entities.JobUpdate{
		Status:   entities.JobStatusTranslating,
		Progress: intPtr(50),
		Speakers: []entities.Speaker{
			entities.NewSpeaker(job.ID, "Speaker_A", entities.SpeakerGenderUnknown, 2),
			entities.NewSpeaker(job.ID, "Speaker_B", entities.SpeakerGenderUnknown, 3),
		},
		Segments: []entities.TranscriptSegment{
			{StartTime: 0, EndTime: 2, OriginalText: "Hello", Confidence: 0.9, SegmentOrder: 0, SpeakerLabel: "Speaker_A"},
			{StartTime: 2, EndTime: 5, OriginalText: "Hi there", Confidence: 0.8, SegmentOrder: 1, SpeakerLabel: "Speaker_B"},
		},
	}
	if err := repo.ConditionalUpdateJob(ctx, job.ID, entities.JobStatusTranscribing, update); err != nil {
		t.Fatalf("transcription transition: %v", err)
	}

	speakers, segments, err := repo.LoadTranscript(ctx, job.ID)
	if err != nil {
		t.Fatalf("LoadTranscript: %v", err)
	}
	if len(speakers) != 2 || len(segments) != 2 {
		t.Fatalf("got %d speakers and %d segments, want 2 and 2", len(speakers), len(segments))
	}
	for i, seg := range segments {
		if seg.SegmentOrder != i {
			t.Fatalf("segment %d has order %d", i, seg.SegmentOrder)
		}
		if seg.SpeakerID == nil {
			t.Fatalf("segment %d was not linked to its speaker", i)
		}
	}

	loaded, err := repo.LoadJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if loaded.SourceLanguage() != "en" || loaded.ProgressPercentage != 50 {
		t.Fatalf("unexpected job state: lang=%q progress=%d", loaded.SourceLanguage(), loaded.ProgressPercentage)
	}
	if stages := loaded.Metadata.Data().Stages; len(stages) != 1 || stages[0].Stage != entities.JobStatusLanguageDetection {
		t.Fatalf("metadata not persisted: %+v", stages)
	}
}

func TestConditionalUpdateJobRollsBackOnInvalidSegments(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	_, job := seedJob(t, db, "user-1")
	ctx := context.Background()

	advance(t, repo, job.ID, entities.JobStatusPending, entities.JobStatusLanguageDetection)
	advance(t, repo, job.ID, entities.JobStatusLanguageDetection, entities.JobStatusTranscribing)

	err := repo.ConditionalUpdateJob(ctx, job.ID, entities.JobStatusTranscribing, entities.JobUpdate{
		Status: entities.JobStatusTranslating,
		Segments: []entities.TranscriptSegment{
			{StartTime: 3, EndTime: 1, OriginalText: "bad", Confidence: 0.5, SegmentOrder: 0},
		},
	})
	if !errors.Is(err, entities.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	loaded, _ := repo.LoadJob(ctx, job.ID)
	if loaded.Status != entities.JobStatusTranscribing {
		t.Fatalf("status changed despite rollback: %s", loaded.Status)
	}
	_, segments, _ := repo.LoadTranscript(ctx, job.ID)
	if len(segments) != 0 {
		t.Fatalf("expected no segments after rollback, got %d", len(segments))
	}
}

func TestUpdateProgressIsMonotonic(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	_, job := seedJob(t, db, "user-1")
	ctx := context.Background()

	advance(t, repo, job.ID, entities.JobStatusPending, entities.JobStatusLanguageDetection)

	ok, err := repo.UpdateProgress(ctx, job.ID, entities.JobStatusLanguageDetection, 10)
	if err != nil || !ok {
		t.Fatalf("expected progress update, ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateProgress(ctx, job.ID, entities.JobStatusLanguageDetection, 5)
	if err != nil || ok {
		t.Fatalf("expected lower progress to be ignored, ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateProgress(ctx, job.ID, entities.JobStatusTranscribing, 30)
	if err != nil || ok {
		t.Fatalf("expected update under a different status to be ignored, ok=%v err=%v", ok, err)
	}

	loaded, _ := repo.LoadJob(ctx, job.ID)
	if loaded.ProgressPercentage != 10 {
		t.Fatalf("progress = %d, want 10", loaded.ProgressPercentage)
	}
}

func TestAppendSpeakersAndSegments(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	_, job := seedJob(t, db, "user-1")
	ctx := context.Background()

	speaker := entities.NewSpeaker(job.ID, "Speaker_A", entities.SpeakerGenderFemale, 4)
	if err := repo.AppendSpeakers(ctx, job.ID, []entities.Speaker{speaker}); err != nil {
		t.Fatalf("AppendSpeakers: %v", err)
	}
	dup := entities.NewSpeaker(job.ID, "Speaker_A", entities.SpeakerGenderMale, 1)
	if err := repo.AppendSpeakers(ctx, job.ID, []entities.Speaker{dup}); !errors.Is(err, entities.ErrDuplicateSpeakerLabel) {
		t.Fatalf("expected ErrDuplicateSpeakerLabel, got %v", err)
	}

	first := entities.TranscriptSegment{SpeakerID: &speaker.ID, StartTime: 0, EndTime: 1, OriginalText: "one", Confidence: 1, SegmentOrder: 0}
	if err := repo.AppendSegments(ctx, job.ID, []entities.TranscriptSegment{first}); err != nil {
		t.Fatalf("AppendSegments: %v", err)
	}
	gap := entities.TranscriptSegment{StartTime: 1, EndTime: 2, OriginalText: "three", Confidence: 1, SegmentOrder: 2}
	if err := repo.AppendSegments(ctx, job.ID, []entities.TranscriptSegment{gap}); !errors.Is(err, entities.ErrValidation) {
		t.Fatalf("expected ErrValidation for order gap, got %v", err)
	}
	foreign := uuid.New()
	stranger := entities.TranscriptSegment{SpeakerID: &foreign, StartTime: 1, EndTime: 2, OriginalText: "two", Confidence: 1, SegmentOrder: 1}
	if err := repo.AppendSegments(ctx, job.ID, []entities.TranscriptSegment{stranger}); !errors.Is(err, entities.ErrSpeakerNotFound) {
		t.Fatalf("expected ErrSpeakerNotFound, got %v", err)
	}

	_, segments, _ := repo.LoadTranscript(ctx, job.ID)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}

	err := repo.UpdateSegmentTranslations(ctx, job.ID, []entities.SegmentTranslation{{SegmentID: segments[0].ID, TranslatedText: "uno"}})
	if err != nil {
		t.Fatalf("UpdateSegmentTranslations: %v", err)
	}
	_, segments, _ = repo.LoadTranscript(ctx, job.ID)
	if !segments[0].IsTranslated() || *segments[0].TranslatedText != "uno" {
		t.Fatalf("translation not stored: %+v", segments[0])
	}

	if err := repo.UpdateSpeakerName(ctx, job.ID, speaker.ID, "Alice"); err != nil {
		t.Fatalf("UpdateSpeakerName: %v", err)
	}
	found, err := repo.FindSpeaker(ctx, job.ID, speaker.ID)
	if err != nil || found.Name == nil || *found.Name != "Alice" {
		t.Fatalf("speaker not renamed: %+v err=%v", found, err)
	}
}

func TestListByUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	video, first := seedJob(t, db, "user-1")
	second := entities.NewTranslationJob(video.ID, "fr")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create: %v", err)
	}
	seedJob(t, db, "user-2")

	jobs, total, err := repo.ListByUser(ctx, repositories.JobFilters{UserID: "user-1"})
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if total != 2 || len(jobs) != 2 {
		t.Fatalf("got total=%d len=%d, want 2", total, len(jobs))
	}
	if jobs[0].ID != second.ID {
		t.Fatalf("expected newest job first")
	}

	failed := entities.JobStatusFailed
	jobs, total, err = repo.ListByUser(ctx, repositories.JobFilters{UserID: "user-1", Status: &failed})
	if err != nil || total != 0 || len(jobs) != 0 {
		t.Fatalf("expected no failed jobs, got total=%d err=%v", total, err)
	}

	jobs, _, err = repo.ListByUser(ctx, repositories.JobFilters{UserID: "user-1", Limit: 1, Offset: 1})
	if err != nil || len(jobs) != 1 || jobs[0].ID != first.ID {
		t.Fatalf("unexpected page: %v err=%v", jobs, err)
	}
}

func TestFindWithDetailsAndVideoCascade(t *testing.T) {
	db := newTestDB(t)
	jobs := NewJobRepository(db)
	videos := NewVideoRepository(db)
	ctx := context.Background()

	video, job := seedJob(t, db, "user-1")
	if err := jobs.AppendSpeakers(ctx, job.ID, []entities.Speaker{
		entities.NewSpeaker(job.ID, "Speaker_A", entities.SpeakerGenderUnknown, 1),
	}); err != nil {
		t.Fatalf("AppendSpeakers: %v", err)
	}
	if err := jobs.AppendSegments(ctx, job.ID, []entities.TranscriptSegment{
		{StartTime: 0, EndTime: 1, OriginalText: "x", Confidence: 0.5, SegmentOrder: 0, SpeakerLabel: "Speaker_A"},
	}); err != nil {
		t.Fatalf("AppendSegments: %v", err)
	}

	details, err := jobs.FindWithDetails(ctx, job.ID)
	if err != nil {
		t.Fatalf("FindWithDetails: %v", err)
	}
	if details.Video.ID != video.ID || details.SpeakerCount != 1 || details.SegmentCount != 1 {
		t.Fatalf("unexpected details: %+v", details)
	}

	if err := videos.Delete(ctx, video.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := jobs.LoadJob(ctx, job.ID); !errors.Is(err, entities.ErrJobNotFound) {
		t.Fatalf("expected job to be deleted, got %v", err)
	}
	var remaining int64
	db.Model(&entities.TranscriptSegment{}).Count(&remaining)
	if remaining != 0 {
		t.Fatalf("expected segments to be deleted, %d left", remaining)
	}
	if err := videos.Delete(ctx, video.ID); !errors.Is(err, entities.ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestListInterrupted(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	_, pending := seedJob(t, db, "user-1")
	_, running := seedJob(t, db, "user-1")
	advance(t, repo, running.ID, entities.JobStatusPending, entities.JobStatusLanguageDetection)
	_, done := seedJob(t, db, "user-1")
	if err := repo.ConditionalUpdateJob(ctx, done.ID, entities.JobStatusPending, entities.JobUpdate{
		Status:       entities.JobStatusFailed,
		ErrorMessage: strPtr("boom"),
		CompletedAt:  timePtr(time.Now()),
	}); err != nil {
		t.Fatalf("fail transition: %v", err)
	}

	jobs, err := repo.ListInterrupted(ctx)
	if err != nil {
		t.Fatalf("ListInterrupted: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != running.ID {
		t.Fatalf("expected only the running job, got %d jobs (pending=%s)", len(jobs), pending.ID)
	}
}

func advance(t *testing.T, repo *JobRepository, id uuid.UUID, from, to entities.JobStatus) {
	t.Helper()
	if err := repo.ConditionalUpdateJob(context.Background(), id, from, entities.JobUpdate{
		Status:   to,
		Progress: intPtr(to.ProgressFloor()),
	}); err != nil {
		t.Fatalf("advance %s -> %s: %v", from, to, err)
	}
}
