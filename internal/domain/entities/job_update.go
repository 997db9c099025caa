package entities

import (
	"time"

	"github.com/google/uuid"
)

// SegmentTranslation is the translated text produced for one segment
type SegmentTranslation struct {
	SegmentID      uuid.UUID `json:"segment_id"`
	TranslatedText string    `json:"translated_text"`
}

// JobUpdate is the set of fields written by a single conditional status change.
// Nil pointers and empty slices leave the stored values untouched.
type JobUpdate struct {
	Status              JobStatus
	Progress            *int
	OriginalLanguage    *string
	ErrorMessage        *string
	TranslatedAudioPath *string
	CompletedAt         *time.Time
	Metadata            *JobMetadata

	Speakers     []Speaker
	Segments     []TranscriptSegment
	Translations []SegmentTranslation
}
