package job

import (
	"time"

	"github.com/johnquangdev/dubbing-service/internal/adapter/dto/video"
)

// JobResponse represents a translation job
type JobResponse struct {
	ID                  string             `json:"id"`
	VideoID             string             `json:"video_id"`
	OriginalLanguage    *string            `json:"original_language,omitempty"`
	TargetLanguage      string             `json:"target_language"`
	Status              string             `json:"status"`
	ProgressPercentage  int                `json:"progress_percentage"`
	ErrorMessage        *string            `json:"error_message,omitempty"`
	TranslatedAudioPath *string            `json:"translated_audio_path,omitempty"`
	Stages              []StageRunResponse `json:"stages,omitempty"`
	Cancelled           bool               `json:"cancelled,omitempty"`
	Running             bool               `json:"running"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	CompletedAt         *time.Time         `json:"completed_at,omitempty"`
}

// StageRunResponse represents one executed stage
type StageRunResponse struct {
	Stage      string    `json:"stage"`
	Attempts   int       `json:"attempts"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// JobDetailsResponse is a job with its video and record counts
type JobDetailsResponse struct {
	JobResponse
	Video        *video.VideoResponse `json:"video"`
	SpeakerCount int64                `json:"speaker_count"`
	SegmentCount int64                `json:"segment_count"`
}

// SpeakerResponse represents a speaker
type SpeakerResponse struct {
	ID                string  `json:"id"`
	SpeakerLabel      string  `json:"speaker_label"`
	SpeakerName       *string `json:"speaker_name,omitempty"`
	Gender            string  `json:"gender"`
	TotalSpeakingTime float64 `json:"total_speaking_time"`
}

// SegmentResponse represents a transcript segment
type SegmentResponse struct {
	ID              string  `json:"id"`
	SpeakerID       *string `json:"speaker_id,omitempty"`
	StartTime       float64 `json:"start_time"`
	EndTime         float64 `json:"end_time"`
	OriginalText    string  `json:"original_text"`
	TranslatedText  *string `json:"translated_text,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
	SegmentOrder    int     `json:"segment_order"`
}

// TranscriptResponse represents the transcript of a job
type TranscriptResponse struct {
	JobID    string            `json:"job_id"`
	Status   string            `json:"status"`
	Speakers []SpeakerResponse `json:"speakers"`
	Segments []SegmentResponse `json:"segments"`
}
