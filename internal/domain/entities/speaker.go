package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SpeakerGender is the voice classification used to pick a synthesis voice
type SpeakerGender string

const (
	SpeakerGenderMale    SpeakerGender = "male"
	SpeakerGenderFemale  SpeakerGender = "female"
	SpeakerGenderUnknown SpeakerGender = "unknown"
)

// IsValid checks the gender is one of the known values
func (g SpeakerGender) IsValid() bool {
	switch g {
	case SpeakerGenderMale, SpeakerGenderFemale, SpeakerGenderUnknown:
		return true
	}
	return false
}

// Speaker is a diarized voice within one translation job
type Speaker struct {
	ID                uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	JobID             uuid.UUID     `json:"translation_job_id" gorm:"column:translation_job_id;type:uuid;not null;uniqueIndex:idx_speakers_job_label"`
	Label             string        `json:"speaker_label" gorm:"column:speaker_label;type:varchar(100);not null;uniqueIndex:idx_speakers_job_label"` // e.g. "Speaker_A"
	Name              *string       `json:"speaker_name,omitempty" gorm:"column:speaker_name;type:text"`
	Gender            SpeakerGender `json:"gender" gorm:"type:varchar(20);not null;default:'unknown'"`
	TotalSpeakingTime float64       `json:"total_speaking_time" gorm:"not null"` // Seconds
	CreatedAt         time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

// NewSpeaker creates a speaker for jobID
func NewSpeaker(jobID uuid.UUID, label string, gender SpeakerGender, speakingTime float64) Speaker {
	return Speaker{
		ID:                uuid.New(),
		JobID:             jobID,
		Label:             label,
		Gender:            gender,
		TotalSpeakingTime: speakingTime,
	}
}

// Validate checks the speaker fields before persistence
func (s *Speaker) Validate() error {
	if strings.TrimSpace(s.Label) == "" {
		return fmt.Errorf("%w: speaker label is required", ErrValidation)
	}
	if !s.Gender.IsValid() {
		return fmt.Errorf("%w: invalid speaker gender %q", ErrValidation, s.Gender)
	}
	if s.TotalSpeakingTime < 0 {
		return fmt.Errorf("%w: total speaking time must not be negative", ErrValidation)
	}
	return nil
}

// ValidateSpeakers validates speakers as a batch appended after existing.
// Labels must be unique within the job.
func ValidateSpeakers(existing []Speaker, speakers []Speaker) error {
	labels := make(map[string]struct{}, len(existing)+len(speakers))
	for _, s := range existing {
		labels[s.Label] = struct{}{}
	}
	for i := range speakers {
		if err := speakers[i].Validate(); err != nil {
			return err
		}
		if _, taken := labels[speakers[i].Label]; taken {
			return fmt.Errorf("%w: %s", ErrDuplicateSpeakerLabel, speakers[i].Label)
		}
		labels[speakers[i].Label] = struct{}{}
	}
	return nil
}

// TableName specifies the table name for GORM
func (Speaker) TableName() string {
	return "speakers"
}
