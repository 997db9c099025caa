package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TranscriptSegment is one timed utterance of a job transcript
type TranscriptSegment struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	JobID          uuid.UUID  `json:"translation_job_id" gorm:"column:translation_job_id;type:uuid;not null;uniqueIndex:idx_segments_job_order"`
	SpeakerID      *uuid.UUID `json:"speaker_id,omitempty" gorm:"type:uuid;index"` // Nil for unattributed speech
	StartTime      float64    `json:"start_time" gorm:"not null"`                  // Seconds
	EndTime        float64    `json:"end_time" gorm:"not null"`                    // Seconds
	OriginalText   string     `json:"original_text" gorm:"type:text;not null"`
	TranslatedText *string    `json:"translated_text,omitempty" gorm:"type:text"`
	Confidence     float64    `json:"confidence_score" gorm:"column:confidence_score;not null"`
	SegmentOrder   int        `json:"segment_order" gorm:"not null;uniqueIndex:idx_segments_job_order"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`

	// SpeakerLabel links a segment to a speaker created in the same update
	SpeakerLabel string `json:"-" gorm:"-"`
}

// Validate checks timing, confidence and text before persistence
func (s *TranscriptSegment) Validate() error {
	if s.StartTime < 0 {
		return fmt.Errorf("%w: start_time must not be negative", ErrValidation)
	}
	if s.EndTime <= s.StartTime {
		return fmt.Errorf("%w: end_time must be greater than start_time", ErrValidation)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("%w: confidence_score must be between 0 and 1", ErrValidation)
	}
	if strings.TrimSpace(s.OriginalText) == "" {
		return fmt.Errorf("%w: original_text is required", ErrValidation)
	}
	if s.SegmentOrder < 0 {
		return fmt.Errorf("%w: segment_order must not be negative", ErrValidation)
	}
	return nil
}

// IsTranslated reports whether the segment carries translated text
func (s *TranscriptSegment) IsTranslated() bool {
	return s.TranslatedText != nil
}

// ValidateSegments validates segments appended after last (nil when the job has none).
// segment_order must continue densely from last and start_time must not go backwards,
// so ordering by segment_order matches ordering by start_time.
func ValidateSegments(last *TranscriptSegment, segments []TranscriptSegment) error {
	expectedOrder := 0
	prevStart := 0.0
	if last != nil {
		expectedOrder = last.SegmentOrder + 1
		prevStart = last.StartTime
	}
	for i := range segments {
		seg := &segments[i]
		if err := seg.Validate(); err != nil {
			return err
		}
		if seg.SegmentOrder != expectedOrder {
			return fmt.Errorf("%w: segment_order %d, expected %d", ErrValidation, seg.SegmentOrder, expectedOrder)
		}
		if seg.StartTime < prevStart {
			return fmt.Errorf("%w: segment %d starts before the previous segment", ErrValidation, seg.SegmentOrder)
		}
		expectedOrder++
		prevStart = seg.StartTime
	}
	return nil
}

// TableName specifies the table name for GORM
func (TranscriptSegment) TableName() string {
	return "transcript_segments"
}
