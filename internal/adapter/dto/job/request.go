package job

// CreateJobRequest represents the request to create a translation job
type CreateJobRequest struct {
	VideoID        string `json:"video_id" validate:"required,uuid"`
	TargetLanguage string `json:"target_language" validate:"required,language"`
}

// ListJobsRequest represents query parameters for listing jobs
type ListJobsRequest struct {
	Status *string `query:"status" validate:"omitempty,job_status"`
	Limit  int     `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int     `query:"offset" validate:"omitempty,min=0"`
}

// UpdateStatusRequest represents an external status report
type UpdateStatusRequest struct {
	Status              string  `json:"status" validate:"required,job_status"`
	ProgressPercentage  *int    `json:"progress_percentage,omitempty" validate:"omitempty,min=0,max=100"`
	ErrorMessage        *string `json:"error_message,omitempty" validate:"omitempty,max=2000"`
	OriginalLanguage    *string `json:"original_language,omitempty" validate:"omitempty,language"`
	TranslatedAudioPath *string `json:"translated_audio_path,omitempty" validate:"omitempty,max=1024"`
}

// CreateSpeakerRequest represents the request to add a speaker
type CreateSpeakerRequest struct {
	SpeakerLabel      string  `json:"speaker_label" validate:"required,max=100"`
	SpeakerName       *string `json:"speaker_name,omitempty" validate:"omitempty,max=255"`
	Gender            string  `json:"gender" validate:"omitempty,gender"`
	TotalSpeakingTime float64 `json:"total_speaking_time" validate:"gte=0"`
}

// RenameSpeakerRequest represents the request to name a speaker
type RenameSpeakerRequest struct {
	SpeakerName string `json:"speaker_name" validate:"required,max=255"`
}

// CreateSegmentRequest represents the request to add a transcript segment
type CreateSegmentRequest struct {
	SpeakerID       *string `json:"speaker_id,omitempty" validate:"omitempty,uuid"`
	StartTime       float64 `json:"start_time" validate:"gte=0"`
	EndTime         float64 `json:"end_time" validate:"gtfield=StartTime"`
	OriginalText    string  `json:"original_text" validate:"required"`
	TranslatedText  *string `json:"translated_text,omitempty"`
	ConfidenceScore float64 `json:"confidence_score" validate:"gte=0,lte=1"`
	SegmentOrder    int     `json:"segment_order" validate:"gte=0"`
}
