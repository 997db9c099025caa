package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobStatus represents the pipeline stage a translation job is in
type JobStatus string

const (
	JobStatusPending           JobStatus = "pending"            // Created, no run has started yet
	JobStatusLanguageDetection JobStatus = "language_detection" // Detecting the spoken language
	JobStatusTranscribing      JobStatus = "transcribing"       // Speech to text with diarization
	JobStatusTranslating       JobStatus = "translating"        // Segment text translation
	JobStatusDubbing           JobStatus = "dubbing"            // Voice synthesis and mixing
	JobStatusCompleted         JobStatus = "completed"          // Dubbed audio available
	JobStatusFailed            JobStatus = "failed"             // Stopped with an error
)

// jobTransitions lists the forward edge of every non-terminal status.
// failed is reachable from any non-terminal status and is handled separately.
var jobTransitions = map[JobStatus]JobStatus{
	JobStatusPending:           JobStatusLanguageDetection,
	JobStatusLanguageDetection: JobStatusTranscribing,
	JobStatusTranscribing:      JobStatusTranslating,
	JobStatusTranslating:       JobStatusDubbing,
	JobStatusDubbing:           JobStatusCompleted,
}

// progressFloor is the progress persisted when a job enters a status
var progressFloor = map[JobStatus]int{
	JobStatusPending:           0,
	JobStatusLanguageDetection: 0,
	JobStatusTranscribing:      25,
	JobStatusTranslating:       50,
	JobStatusDubbing:           75,
	JobStatusCompleted:         100,
}

// AllJobStatuses returns every known status in pipeline order
func AllJobStatuses() []JobStatus {
	return []JobStatus{
		JobStatusPending,
		JobStatusLanguageDetection,
		JobStatusTranscribing,
		JobStatusTranslating,
		JobStatusDubbing,
		JobStatusCompleted,
		JobStatusFailed,
	}
}

// IsValid checks the status is one of the known values
func (s JobStatus) IsValid() bool {
	if s == JobStatusFailed {
		return true
	}
	_, ok := progressFloor[s]
	return ok
}

// IsTerminal reports whether no further transition is possible
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IsStage reports whether a stage executor runs while the job is in this status
func (s JobStatus) IsStage() bool {
	switch s {
	case JobStatusLanguageDetection, JobStatusTranscribing, JobStatusTranslating, JobStatusDubbing:
		return true
	}
	return false
}

// Next returns the status that follows s on success
func (s JobStatus) Next() (JobStatus, bool) {
	next, ok := jobTransitions[s]
	return next, ok
}

// ProgressFloor is the progress value a job has when it enters s
func (s JobStatus) ProgressFloor() int {
	return progressFloor[s]
}

// ProgressCeiling is the progress value reached when the stage for s finishes
func (s JobStatus) ProgressCeiling() int {
	next, ok := jobTransitions[s]
	if !ok {
		return progressFloor[s]
	}
	return progressFloor[next]
}

// CanTransition checks whether from -> to is an edge of the job state machine
func CanTransition(from, to JobStatus) bool {
	if from.IsTerminal() || !from.IsValid() {
		return false
	}
	if to == JobStatusFailed {
		return true
	}
	next, ok := jobTransitions[from]
	return ok && next == to
}

// ValidateTransition returns an *InvalidTransitionError when from -> to is not allowed
func ValidateTransition(from, to JobStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// ValidateAdvance checks the edge from -> to and the data a job must carry to enter to.
// transcribing needs a detected source language and dubbing needs every segment translated.
func ValidateAdvance(from, to JobStatus, originalLanguage string, segments []TranscriptSegment) error {
	if err := ValidateTransition(from, to); err != nil {
		return err
	}
	switch to {
	case JobStatusTranscribing:
		if originalLanguage == "" {
			return &InvalidTransitionError{From: from, To: to, Reason: "no source language detected"}
		}
	case JobStatusDubbing:
		for i := range segments {
			if !segments[i].IsTranslated() {
				return &InvalidTransitionError{
					From:   from,
					To:     to,
					Reason: fmt.Sprintf("segment %d has no translation", segments[i].SegmentOrder),
				}
			}
		}
	}
	return nil
}

// TranslationJob represents one dubbing request for a video
type TranslationJob struct {
	ID                  uuid.UUID                       `json:"id" gorm:"type:uuid;primary_key"`
	VideoID             uuid.UUID                       `json:"video_id" gorm:"type:uuid;not null;index"`
	OriginalLanguage    *string                         `json:"original_language,omitempty" gorm:"type:varchar(10)"` // Nullable until detected
	TargetLanguage      string                          `json:"target_language" gorm:"type:varchar(10);not null"`
	Status              JobStatus                       `json:"status" gorm:"type:varchar(50);not null;index;default:'pending'"`
	ProgressPercentage  int                             `json:"progress_percentage" gorm:"not null;default:0"`
	ErrorMessage        *string                         `json:"error_message,omitempty" gorm:"type:text"`
	TranslatedAudioPath *string                         `json:"translated_audio_path,omitempty" gorm:"type:text"`
	Metadata            datatypes.JSONType[JobMetadata] `json:"metadata"`
	CreatedAt           time.Time                       `json:"created_at" gorm:"not null;index"`
	UpdatedAt           time.Time                       `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt         *time.Time                      `json:"completed_at,omitempty"`
}

// JobMetadata keeps the stage history of a job
type JobMetadata struct {
	Stages      []StageRun        `json:"stages,omitempty"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"` // e.g. AssemblyAI transcript ids per stage
	Cancelled   bool              `json:"cancelled,omitempty"`
}

// StageRun records the outcome of one stage of a run
type StageRun struct {
	Stage      JobStatus `json:"stage"`
	RunID      string    `json:"run_id,omitempty"`
	Attempts   int       `json:"attempts"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// NewTranslationJob creates a pending job for a video
func NewTranslationJob(videoID uuid.UUID, targetLanguage string) *TranslationJob {
	now := time.Now()
	return &TranslationJob{
		ID:                 uuid.New(),
		VideoID:            videoID,
		TargetLanguage:     targetLanguage,
		Status:             JobStatusPending,
		ProgressPercentage: 0,
		Metadata:           datatypes.NewJSONType(JobMetadata{}),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// IsEditable reports whether speakers and segments may still be added manually
func (j *TranslationJob) IsEditable() bool {
	switch j.Status {
	case JobStatusPending, JobStatusLanguageDetection, JobStatusTranscribing:
		return true
	}
	return false
}

// SourceLanguage returns the detected language or an empty string
func (j *TranslationJob) SourceLanguage() string {
	if j.OriginalLanguage == nil {
		return ""
	}
	return *j.OriginalLanguage
}

// TableName specifies the table name for GORM
func (TranslationJob) TableName() string {
	return "translation_jobs"
}
