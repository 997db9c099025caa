package entities

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func segment(order int, start, end float64) TranscriptSegment {
	return TranscriptSegment{
		ID:           uuid.New(),
		StartTime:    start,
		EndTime:      end,
		OriginalText: "hello",
		Confidence:   0.9,
		SegmentOrder: order,
	}
}

func TestTranscriptSegmentValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *TranscriptSegment)
		wantErr bool
	}{
		{"valid", func(s *TranscriptSegment) {}, false},
		{"negative start", func(s *TranscriptSegment) { s.StartTime = -1 }, true},
		{"end before start", func(s *TranscriptSegment) { s.EndTime = s.StartTime }, true},
		{"confidence above one", func(s *TranscriptSegment) { s.Confidence = 1.01 }, true},
		{"confidence below zero", func(s *TranscriptSegment) { s.Confidence = -0.1 }, true},
		{"empty text", func(s *TranscriptSegment) { s.OriginalText = "  " }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := segment(0, 1, 2)
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestValidateSegmentsOrdering(t *testing.T) {
	if err := ValidateSegments(nil, []TranscriptSegment{segment(0, 0, 1), segment(1, 1, 2)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ValidateSegments(nil, []TranscriptSegment{segment(1, 0, 1)}); err == nil {
		t.Fatal("expected gap at order 0 to be rejected")
	}

	if err := ValidateSegments(nil, []TranscriptSegment{segment(0, 0, 1), segment(0, 1, 2)}); err == nil {
		t.Fatal("expected duplicate order to be rejected")
	}

	if err := ValidateSegments(nil, []TranscriptSegment{segment(0, 5, 6), segment(1, 1, 2)}); err == nil {
		t.Fatal("expected out-of-time-order segment to be rejected")
	}

	last := segment(3, 10, 12)
	if err := ValidateSegments(&last, []TranscriptSegment{segment(4, 12, 13)}); err != nil {
		t.Fatalf("unexpected error continuing sequence: %v", err)
	}
}

func TestValidateSpeakers(t *testing.T) {
	jobID := uuid.New()
	existing := []Speaker{NewSpeaker(jobID, "Speaker_A", SpeakerGenderUnknown, 3)}

	err := ValidateSpeakers(existing, []Speaker{NewSpeaker(jobID, "Speaker_A", SpeakerGenderMale, 1)})
	if !errors.Is(err, ErrDuplicateSpeakerLabel) {
		t.Fatalf("expected ErrDuplicateSpeakerLabel, got %v", err)
	}

	err = ValidateSpeakers(nil, []Speaker{NewSpeaker(jobID, "Speaker_B", "robot", 1)})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad gender, got %v", err)
	}

	err = ValidateSpeakers(nil, []Speaker{NewSpeaker(jobID, "Speaker_B", SpeakerGenderFemale, -1)})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative speaking time, got %v", err)
	}
}
