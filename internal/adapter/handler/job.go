package handler

import (
	"context"
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/errors"
	"github.com/johnquangdev/dubbing-service/internal/adapter/dto/common"
	jobdto "github.com/johnquangdev/dubbing-service/internal/adapter/dto/job"
	"github.com/johnquangdev/dubbing-service/internal/adapter/presenter"
	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/domain/repositories"
	jobUsecase "github.com/johnquangdev/dubbing-service/internal/usecase/job"
)

// JobService is the job usecase consumed by the HTTP layer
type JobService interface {
	CreateJob(ctx context.Context, input jobUsecase.CreateJobInput) (*entities.TranslationJob, error)
	StartJob(ctx context.Context, jobID uuid.UUID, userID string) error
	CancelJob(ctx context.Context, jobID uuid.UUID, userID string) error
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, userID string, input jobUsecase.UpdateStatusInput) (*entities.TranslationJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID, userID string) (*repositories.JobDetails, error)
	ListJobs(ctx context.Context, filters repositories.JobFilters) ([]*entities.TranslationJob, int64, error)
	GetTranscript(ctx context.Context, jobID uuid.UUID, userID string) (*jobUsecase.Transcript, error)
	CreateSpeaker(ctx context.Context, jobID uuid.UUID, userID string, input jobUsecase.CreateSpeakerInput) (*entities.Speaker, error)
	CreateSegment(ctx context.Context, jobID uuid.UUID, userID string, input jobUsecase.CreateSegmentInput) (*entities.TranscriptSegment, error)
	RenameSpeaker(ctx context.Context, jobID, speakerID uuid.UUID, userID, name string) (*entities.Speaker, error)
}

// RunState reports whether a job has an active run in this process
type RunState interface {
	IsRunning(jobID uuid.UUID) bool
}

// Job handles translation job HTTP requests
type Job struct {
	jobService JobService
	runs       RunState
	logger     *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService JobService, runs RunState, logger *zap.Logger) *Job {
	return &Job{
		jobService: jobService,
		runs:       runs,
		logger:     logger,
	}
}

// CreateJob handles POST /jobs
// @Summary      Create a translation job
// @Description  Creates a pending dubbing job for an uploaded video
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      job.CreateJobRequest  true  "Job creation request"
// @Success      201      {object}  job.JobResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid request or unsupported language"
// @Failure      403      {object}  map[string]interface{}  "Video belongs to another user"
// @Failure      404      {object}  map[string]interface{}  "Video not found"
// @Router       /jobs [post]
func (h *Job) CreateJob(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req jobdto.CreateJobRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	job, err := h.jobService.CreateJob(c.Request().Context(), jobUsecase.CreateJobInput{
		VideoID:        uuid.MustParse(req.VideoID),
		UserID:         userID,
		TargetLanguage: req.TargetLanguage,
	})
	if stdErrors.Is(err, entities.ErrVideoNotFound) {
		e := errors.ErrVideoNotFound(req.VideoID)
		e.Raw = err
		return HandleError(h.logger, c, e)
	}
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToJobResponse(job, false))
}

// ListJobs handles GET /jobs
// @Summary      List translation jobs
// @Description  Lists the caller's jobs, newest first
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        limit   query     int     false  "Page size (default 20, max 100)"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  common.ListResponse
// @Router       /jobs [get]
func (h *Job) ListJobs(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req jobdto.ListJobsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	filters := repositories.JobFilters{
		UserID: userID,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.Status != nil {
		status := entities.JobStatus(*req.Status)
		filters.Status = &status
	}

	jobs, total, err := h.jobService.ListJobs(c.Request().Context(), filters)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	items := make([]*jobdto.JobResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, presenter.ToJobResponse(j, h.runs.IsRunning(j.ID)))
	}
	limit := filters.Limit
	if limit == 0 {
		limit = 20
	}
	return HandleSuccess(h.logger, c, common.ListResponse{
		Items: items,
		Pagination: &common.PaginationResponse{
			Limit:      limit,
			Offset:     filters.Offset,
			TotalItems: total,
		},
	})
}

// GetJob handles GET /jobs/:id
// @Summary      Get a translation job
// @Description  Returns a job with its video and speaker/segment counts
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  job.JobDetailsResponse
// @Failure      404  {object}  map[string]interface{}  "Job not found"
// @Router       /jobs/{id} [get]
func (h *Job) GetJob(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	jobID := pathUUID(c, "id")

	details, err := h.jobService.GetJob(c.Request().Context(), jobID, userID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToJobDetailsResponse(details, h.runs.IsRunning(jobID)))
}

// StartJob handles POST /jobs/:id/start
// @Summary      Start or resume a job
// @Description  Starts the dubbing pipeline. A job interrupted inside a stage resumes from that stage.
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      202  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]interface{}  "Already running or terminal"
// @Router       /jobs/{id}/start [post]
func (h *Job) StartJob(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	jobID := pathUUID(c, "id")

	if err := h.jobService.StartJob(c.Request().Context(), jobID, userID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return respond(h.logger, c, http.StatusAccepted, map[string]interface{}{
		"job_id":  jobID.String(),
		"running": true,
	})
}

// CancelJob handles POST /jobs/:id/cancel
// @Summary      Cancel a running job
// @Description  The job fails with a cancellation message at its next stage boundary
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      202  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}  "Job has no active run"
// @Router       /jobs/{id}/cancel [post]
func (h *Job) CancelJob(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	jobID := pathUUID(c, "id")

	if err := h.jobService.CancelJob(c.Request().Context(), jobID, userID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return respond(h.logger, c, http.StatusAccepted, map[string]interface{}{
		"job_id":              jobID.String(),
		"cancellation_queued": true,
	})
}

// UpdateStatus handles PATCH /jobs/:id/status
// @Summary      Report a job status change
// @Description  Applies an external status change through the pipeline transition rules
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Job ID"
// @Param        request  body      job.UpdateStatusRequest  true  "Status update"
// @Success      200      {object}  job.JobResponse
// @Failure      409      {object}  map[string]interface{}  "Transition not allowed or job running"
// @Router       /jobs/{id}/status [patch]
func (h *Job) UpdateStatus(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	jobID := pathUUID(c, "id")

	var req jobdto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	job, err := h.jobService.UpdateJobStatus(c.Request().Context(), jobID, userID, jobUsecase.UpdateStatusInput{
		Status:           entities.JobStatus(req.Status),
		Progress:         req.ProgressPercentage,
		ErrorMessage:     req.ErrorMessage,
		OriginalLanguage: req.OriginalLanguage,
		AudioPath:        req.TranslatedAudioPath,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToJobResponse(job, false))
}

// GetTranscript handles GET /jobs/:id/transcript
// @Summary      Get the transcript of a job
// @Description  Returns all speakers and the segments ordered by segment_order
// @Tags         Transcript
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  job.TranscriptResponse
// @Router       /jobs/{id}/transcript [get]
func (h *Job) GetTranscript(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	t, err := h.jobService.GetTranscript(c.Request().Context(), pathUUID(c, "id"), userID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToTranscriptResponse(t.Job, t.Speakers, t.Segments))
}

// CreateSpeaker handles POST /jobs/:id/speakers
// @Summary      Add a speaker
// @Description  Adds a speaker while the job is still editable
// @Tags         Transcript
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Job ID"
// @Param        request  body      job.CreateSpeakerRequest  true  "Speaker"
// @Success      201      {object}  job.SpeakerResponse
// @Failure      409      {object}  map[string]interface{}  "Label taken or job not editable"
// @Router       /jobs/{id}/speakers [post]
func (h *Job) CreateSpeaker(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req jobdto.CreateSpeakerRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	speaker, err := h.jobService.CreateSpeaker(c.Request().Context(), pathUUID(c, "id"), userID, jobUsecase.CreateSpeakerInput{
		Label:             req.SpeakerLabel,
		Name:              req.SpeakerName,
		Gender:            entities.SpeakerGender(req.Gender),
		TotalSpeakingTime: req.TotalSpeakingTime,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToSpeakerResponse(speaker))
}

// RenameSpeaker handles PATCH /jobs/:id/speakers/:speakerId
// @Summary      Rename a speaker
// @Tags         Transcript
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string                    true  "Job ID"
// @Param        speakerId  path      string                    true  "Speaker ID"
// @Param        request    body      job.RenameSpeakerRequest  true  "New name"
// @Success      200        {object}  job.SpeakerResponse
// @Router       /jobs/{id}/speakers/{speakerId} [patch]
func (h *Job) RenameSpeaker(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req jobdto.RenameSpeakerRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	speaker, err := h.jobService.RenameSpeaker(c.Request().Context(), pathUUID(c, "id"), pathUUID(c, "speakerId"), userID, req.SpeakerName)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSpeakerResponse(speaker))
}

// CreateSegment handles POST /jobs/:id/segments
// @Summary      Add a transcript segment
// @Description  Appends a segment while the job is still editable. segment_order must equal the current segment count.
// @Tags         Transcript
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Job ID"
// @Param        request  body      job.CreateSegmentRequest  true  "Segment"
// @Success      201      {object}  job.SegmentResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid timing, order or confidence"
// @Router       /jobs/{id}/segments [post]
func (h *Job) CreateSegment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req jobdto.CreateSegmentRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, err)
	}

	input := jobUsecase.CreateSegmentInput{
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		OriginalText:   req.OriginalText,
		TranslatedText: req.TranslatedText,
		Confidence:     req.ConfidenceScore,
		SegmentOrder:   req.SegmentOrder,
	}
	if req.SpeakerID != nil {
		id, err := uuid.Parse(*req.SpeakerID)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("speaker_id must be a valid UUID"))
		}
		input.SpeakerID = &id
	}

	segment, err := h.jobService.CreateSegment(c.Request().Context(), pathUUID(c, "id"), userID, input)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToSegmentResponse(segment))
}
