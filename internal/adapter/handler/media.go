package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/errors"
	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
)

const audioURLExpiry = time.Hour

// URLSigner generates temporary download URLs for stored objects
type URLSigner interface {
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Media serves download links for generated media
type Media struct {
	jobService JobService
	signer     URLSigner
	logger     *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(jobService JobService, signer URLSigner, logger *zap.Logger) *Media {
	return &Media{
		jobService: jobService,
		signer:     signer,
		logger:     logger,
	}
}

// DubbedAudioURL handles GET /jobs/:id/audio
// @Summary      Get the dubbed audio download URL
// @Description  Generates a presigned URL for the dubbed track of a completed job
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  map[string]interface{}  "Download URL"
// @Failure      409  {object}  map[string]interface{}  "Job not completed"
// @Router       /jobs/{id}/audio [get]
func (h *Media) DubbedAudioURL(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	ctx := c.Request().Context()

	details, err := h.jobService.GetJob(ctx, pathUUID(c, "id"), userID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	job := details.Job
	if job.Status != entities.JobStatusCompleted || job.TranslatedAudioPath == nil {
		return HandleError(h.logger, c, errors.ErrConflict("Dubbed audio is available once the job completes").
			WithDetail("status", string(job.Status)))
	}

	url, err := h.signer.GetFileURL(ctx, *job.TranslatedAudioPath, audioURLExpiry)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to generate download URL",
				zap.String("job_id", job.ID.String()),
				zap.String("file", *job.TranslatedAudioPath),
				zap.Error(err))
		}
		return HandleError(h.logger, c, errors.ErrStorageFailed("presign", err))
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{
		"job_id":     job.ID.String(),
		"file":       *job.TranslatedAudioPath,
		"url":        url,
		"expires_in": audioURLExpiry.String(),
	})
}
