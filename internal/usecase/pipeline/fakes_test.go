package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
)

// fakeStore is an in-memory JobStore that enforces the same transition and
// conditional-write rules as the database repository
type fakeStore struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*entities.TranslationJob
	speakers map[uuid.UUID][]entities.Speaker
	segments map[uuid.UUID][]entities.TranscriptSegment
	statuses map[uuid.UUID][]entities.JobStatus
	progress map[uuid.UUID][]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:     make(map[uuid.UUID]*entities.TranslationJob),
		speakers: make(map[uuid.UUID][]entities.Speaker),
		segments: make(map[uuid.UUID][]entities.TranscriptSegment),
		statuses: make(map[uuid.UUID][]entities.JobStatus),
		progress: make(map[uuid.UUID][]int),
	}
}

func (s *fakeStore) add(job *entities.TranslationJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	s.statuses[job.ID] = []entities.JobStatus{job.Status}
	s.progress[job.ID] = []int{job.ProgressPercentage}
}

// force overwrites the stored status, simulating another writer
func (s *fakeStore) force(id uuid.UUID, status entities.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id].Status = status
}

// set mutates the stored job directly
func (s *fakeStore) set(id uuid.UUID, fn func(job *entities.TranslationJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.jobs[id])
}

func (s *fakeStore) job(id uuid.UUID) entities.TranslationJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.jobs[id]
}

func (s *fakeStore) history(id uuid.UUID) []entities.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.JobStatus(nil), s.statuses[id]...)
}

func (s *fakeStore) progressHistory(id uuid.UUID) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.progress[id]...)
}

func (s *fakeStore) LoadJob(_ context.Context, id uuid.UUID) (*entities.TranslationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, entities.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *fakeStore) LoadTranscript(_ context.Context, jobID uuid.UUID) ([]entities.Speaker, []entities.TranscriptSegment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Speaker(nil), s.speakers[jobID]...),
		append([]entities.TranscriptSegment(nil), s.segments[jobID]...),
		nil
}

func (s *fakeStore) ConditionalUpdateJob(_ context.Context, id uuid.UUID, expected entities.JobStatus, update entities.JobUpdate) error {
	if err := entities.ValidateTransition(expected, update.Status); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return entities.ErrJobNotFound
	}
	if job.Status != expected {
		return entities.ErrStaleJobState
	}

	speakers := append([]entities.Speaker(nil), s.speakers[id]...)
	segments := append([]entities.TranscriptSegment(nil), s.segments[id]...)
	if err := entities.ValidateSpeakers(speakers, update.Speakers); err != nil {
		return err
	}
	for _, sp := range update.Speakers {
		sp.ID = uuid.New()
		sp.JobID = id
		speakers = append(speakers, sp)
	}
	var last *entities.TranscriptSegment
	if len(segments) > 0 {
		last = &segments[len(segments)-1]
	}
	if err := entities.ValidateSegments(last, update.Segments); err != nil {
		return err
	}
	for _, seg := range update.Segments {
		seg.ID = uuid.New()
		seg.JobID = id
		if seg.SpeakerLabel != "" {
			for _, sp := range speakers {
				if sp.Label == seg.SpeakerLabel {
					spID := sp.ID
					seg.SpeakerID = &spID
				}
			}
			if seg.SpeakerID == nil {
				return fmt.Errorf("%w: %s", entities.ErrSpeakerNotFound, seg.SpeakerLabel)
			}
		}
		segments = append(segments, seg)
	}
	for _, tr := range update.Translations {
		found := false
		for i := range segments {
			if segments[i].ID == tr.SegmentID {
				text := tr.TranslatedText
				segments[i].TranslatedText = &text
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%w: unknown segment %s", entities.ErrValidation, tr.SegmentID)
		}
	}

	s.speakers[id] = speakers
	s.segments[id] = segments
	job.Status = update.Status
	if update.Progress != nil {
		job.ProgressPercentage = *update.Progress
		s.progress[id] = append(s.progress[id], *update.Progress)
	}
	if update.OriginalLanguage != nil {
		job.OriginalLanguage = update.OriginalLanguage
	}
	if update.ErrorMessage != nil {
		job.ErrorMessage = update.ErrorMessage
	}
	if update.TranslatedAudioPath != nil {
		job.TranslatedAudioPath = update.TranslatedAudioPath
	}
	if update.CompletedAt != nil {
		job.CompletedAt = update.CompletedAt
	}
	if update.Metadata != nil {
		job.Metadata = datatypes.NewJSONType(*update.Metadata)
	}
	s.statuses[id] = append(s.statuses[id], update.Status)
	return nil
}

func (s *fakeStore) UpdateProgress(_ context.Context, id uuid.UUID, status entities.JobStatus, progress int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != status || job.ProgressPercentage >= progress {
		return false, nil
	}
	job.ProgressPercentage = progress
	s.progress[id] = append(s.progress[id], progress)
	return true, nil
}

func (s *fakeStore) AppendSpeakers(context.Context, uuid.UUID, []entities.Speaker) error {
	return nil
}

func (s *fakeStore) AppendSegments(context.Context, uuid.UUID, []entities.TranscriptSegment) error {
	return nil
}

func (s *fakeStore) UpdateSegmentTranslations(context.Context, uuid.UUID, []entities.SegmentTranslation) error {
	return nil
}

// seedTranscript stores a transcript directly, as if an earlier run had written it
func (s *fakeStore) seedTranscript(jobID uuid.UUID, translated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	speaker := entities.NewSpeaker(jobID, "Speaker_A", entities.SpeakerGenderUnknown, 3)
	speaker.ID = uuid.New()
	s.speakers[jobID] = []entities.Speaker{speaker}
	for i := 0; i < 2; i++ {
		seg := entities.TranscriptSegment{
			ID:           uuid.New(),
			JobID:        jobID,
			SpeakerID:    &speaker.ID,
			StartTime:    float64(i) * 2,
			EndTime:      float64(i)*2 + 1.5,
			OriginalText: fmt.Sprintf("line %d", i),
			Confidence:   0.9,
			SegmentOrder: i,
		}
		if translated {
			text := fmt.Sprintf("línea %d", i)
			seg.TranslatedText = &text
		}
		s.segments[jobID] = append(s.segments[jobID], seg)
	}
}

type fakeVideos struct {
	video *entities.Video
}

func (f fakeVideos) FindByID(_ context.Context, id uuid.UUID) (*entities.Video, error) {
	if f.video == nil || f.video.ID != id {
		return nil, entities.ErrVideoNotFound
	}
	return f.video, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []JobEvent
}

func (p *recordingPublisher) PublishJobEvent(_ context.Context, event JobEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) all() []JobEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]JobEvent(nil), p.events...)
}

// countingExecutor wraps fn and counts its calls
type countingExecutor struct {
	calls atomic.Int32
	fn    func(ctx context.Context, in StageInput, call int) (*StageResult, error)
}

func (e *countingExecutor) Execute(ctx context.Context, in StageInput) (*StageResult, error) {
	call := int(e.calls.Add(1))
	return e.fn(ctx, in, call)
}

func (e *countingExecutor) count() int {
	return int(e.calls.Load())
}

type stageSet struct {
	detect, transcribe, translate, dub *countingExecutor
}

func (s *stageSet) executors() Executors {
	return Executors{
		LanguageDetection: s.detect,
		Transcription:     s.transcribe,
		Translation:       s.translate,
		Dubbing:           s.dub,
	}
}

func happyStages() *stageSet {
	return &stageSet{
		detect: &countingExecutor{fn: func(_ context.Context, _ StageInput, _ int) (*StageResult, error) {
			return &StageResult{SourceLanguage: "en_us", ExternalID: "detect-1"}, nil
		}},
		transcribe: &countingExecutor{fn: func(_ context.Context, in StageInput, _ int) (*StageResult, error) {
			speakers := []entities.Speaker{
				entities.NewSpeaker(in.Job.ID, "Speaker_A", entities.SpeakerGenderUnknown, 2.5),
				entities.NewSpeaker(in.Job.ID, "Speaker_B", entities.SpeakerGenderUnknown, 1.0),
			}
			segments := []entities.TranscriptSegment{
				{StartTime: 0, EndTime: 1.5, OriginalText: "Hello there", Confidence: 0.95, SegmentOrder: 0, SpeakerLabel: "Speaker_A"},
				{StartTime: 1.6, EndTime: 2.6, OriginalText: "Hi", Confidence: 0.9, SegmentOrder: 1, SpeakerLabel: "Speaker_B"},
				{StartTime: 3, EndTime: 4, OriginalText: "How are you", Confidence: 0.88, SegmentOrder: 2, SpeakerLabel: "Speaker_A"},
			}
			return &StageResult{Speakers: speakers, Segments: segments, ExternalID: "transcript-1"}, nil
		}},
		translate: &countingExecutor{fn: func(_ context.Context, in StageInput, _ int) (*StageResult, error) {
			translations := make([]entities.SegmentTranslation, 0, len(in.Segments))
			for i, seg := range in.Segments {
				translations = append(translations, entities.SegmentTranslation{
					SegmentID:      seg.ID,
					TranslatedText: "es: " + seg.OriginalText,
				})
				in.Report(float64(i+1) / float64(len(in.Segments)))
			}
			return &StageResult{Translations: translations}, nil
		}},
		dub: &countingExecutor{fn: func(_ context.Context, in StageInput, _ int) (*StageResult, error) {
			in.Report(0.5)
			return &StageResult{AudioPath: "jobs/" + in.Job.ID.String() + "/dubbed.wav"}, nil
		}},
	}
}

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:         3,
		InitialInterval:     time.Millisecond,
		MaxInterval:         2 * time.Millisecond,
		Multiplier:          2,
		RandomizationFactor: 0.1,
		StageTimeout:        time.Second,
	}
}

type fixture struct {
	store  *fakeStore
	events *recordingPublisher
	video  *entities.Video
	job    *entities.TranslationJob
	orch   *Orchestrator
}

func newFixture(t *testing.T, stages *stageSet, policy RetryPolicy) *fixture {
	t.Helper()

	store := newFakeStore()
	video := entities.NewVideo("user-1", "talk.mp4", "videos/user-1/talk.mp4", "video/mp4", 1024, 12)
	job := entities.NewTranslationJob(video.ID, "es")
	store.add(job)

	events := &recordingPublisher{}
	orch, err := NewOrchestrator(store, fakeVideos{video: video}, stages.executors(), policy, events, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	return &fixture{store: store, events: events, video: video, job: job, orch: orch}
}

// fakeLeases is an in-memory LeaseStore shared between supervisors
type fakeLeases struct {
	mu      sync.Mutex
	holders map[string]string
	lost    atomic.Bool
}

func newFakeLeases() *fakeLeases {
	return &fakeLeases{holders: make(map[string]string)}
}

func (l *fakeLeases) Acquire(_ context.Context, key, owner string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if holder, ok := l.holders[key]; ok && holder != owner {
		return false, nil
	}
	l.holders[key] = owner
	return true, nil
}

func (l *fakeLeases) Refresh(_ context.Context, key, owner string, _ time.Duration) (bool, error) {
	if l.lost.Load() {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holders[key] == owner, nil
}

func (l *fakeLeases) Release(_ context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holders[key] == owner {
		delete(l.holders, key)
	}
	return nil
}

func (l *fakeLeases) held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.holders[key]
	return ok
}
