package presenter

import (
	jobdto "github.com/johnquangdev/dubbing-service/internal/adapter/dto/job"
	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/domain/repositories"
)

// ToJobResponse converts a TranslationJob entity to JobResponse DTO
func ToJobResponse(j *entities.TranslationJob, running bool) *jobdto.JobResponse {
	if j == nil {
		return nil
	}

	meta := j.Metadata.Data()
	stages := make([]jobdto.StageRunResponse, 0, len(meta.Stages))
	for _, s := range meta.Stages {
		stages = append(stages, jobdto.StageRunResponse{
			Stage:      string(s.Stage),
			Attempts:   s.Attempts,
			StartedAt:  s.StartedAt,
			FinishedAt: s.FinishedAt,
			Error:      s.Error,
		})
	}

	return &jobdto.JobResponse{
		ID:                  j.ID.String(),
		VideoID:             j.VideoID.String(),
		OriginalLanguage:    j.OriginalLanguage,
		TargetLanguage:      j.TargetLanguage,
		Status:              string(j.Status),
		ProgressPercentage:  j.ProgressPercentage,
		ErrorMessage:        j.ErrorMessage,
		TranslatedAudioPath: j.TranslatedAudioPath,
		Stages:              stages,
		Cancelled:           meta.Cancelled,
		Running:             running,
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
		CompletedAt:         j.CompletedAt,
	}
}

// ToJobDetailsResponse converts job details to JobDetailsResponse DTO
func ToJobDetailsResponse(d *repositories.JobDetails, running bool) *jobdto.JobDetailsResponse {
	if d == nil {
		return nil
	}
	return &jobdto.JobDetailsResponse{
		JobResponse:  *ToJobResponse(d.Job, running),
		Video:        ToVideoResponse(d.Video),
		SpeakerCount: d.SpeakerCount,
		SegmentCount: d.SegmentCount,
	}
}

// ToSpeakerResponse converts a Speaker entity to SpeakerResponse DTO
func ToSpeakerResponse(s *entities.Speaker) jobdto.SpeakerResponse {
	return jobdto.SpeakerResponse{
		ID:                s.ID.String(),
		SpeakerLabel:      s.Label,
		SpeakerName:       s.Name,
		Gender:            string(s.Gender),
		TotalSpeakingTime: s.TotalSpeakingTime,
	}
}

// ToSegmentResponse converts a TranscriptSegment entity to SegmentResponse DTO
func ToSegmentResponse(s *entities.TranscriptSegment) jobdto.SegmentResponse {
	var speakerID *string
	if s.SpeakerID != nil {
		id := s.SpeakerID.String()
		speakerID = &id
	}
	return jobdto.SegmentResponse{
		ID:              s.ID.String(),
		SpeakerID:       speakerID,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		OriginalText:    s.OriginalText,
		TranslatedText:  s.TranslatedText,
		ConfidenceScore: s.Confidence,
		SegmentOrder:    s.SegmentOrder,
	}
}

// ToTranscriptResponse converts speakers and segments of a job to TranscriptResponse DTO
func ToTranscriptResponse(j *entities.TranslationJob, speakers []entities.Speaker, segments []entities.TranscriptSegment) *jobdto.TranscriptResponse {
	resp := &jobdto.TranscriptResponse{
		JobID:    j.ID.String(),
		Status:   string(j.Status),
		Speakers: make([]jobdto.SpeakerResponse, 0, len(speakers)),
		Segments: make([]jobdto.SegmentResponse, 0, len(segments)),
	}
	for i := range speakers {
		resp.Speakers = append(resp.Speakers, ToSpeakerResponse(&speakers[i]))
	}
	for i := range segments {
		resp.Segments = append(resp.Segments, ToSegmentResponse(&segments[i]))
	}
	return resp
}
