package handler

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/errors"
	"github.com/johnquangdev/dubbing-service/internal/adapter/presenter"
	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	videoUsecase "github.com/johnquangdev/dubbing-service/internal/usecase/video"
)

// VideoService is the video usecase consumed by the HTTP layer
type VideoService interface {
	UploadVideo(ctx context.Context, input videoUsecase.UploadInput) (*entities.Video, error)
	GetVideo(ctx context.Context, videoID uuid.UUID, userID string) (*entities.Video, error)
	DeleteVideo(ctx context.Context, videoID uuid.UUID, userID string) error
}

// Video handles video HTTP requests
type Video struct {
	videoService VideoService
	logger       *zap.Logger
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(videoService VideoService, logger *zap.Logger) *Video {
	return &Video{
		videoService: videoService,
		logger:       logger,
	}
}

// UploadVideo handles POST /videos
// @Summary      Upload a video
// @Description  Stores a video file for dubbing. Duration is reported by the client in seconds.
// @Tags         Videos
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file      formData  file    true  "Video file"
// @Param        duration  formData  number  true  "Duration in seconds"
// @Success      201       {object}  video.VideoResponse
// @Failure      400       {object}  map[string]interface{}  "Missing file or invalid duration"
// @Failure      500       {object}  map[string]interface{}  "Upload failed"
// @Router       /videos [post]
func (h *Video) UploadVideo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("file is required"))
	}
	duration, err := strconv.ParseFloat(c.FormValue("duration"), 64)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("duration must be a number of seconds"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrVideoUploadFailed(err))
	}
	defer file.Close()

	video, err := h.videoService.UploadVideo(c.Request().Context(), videoUsecase.UploadInput{
		UserID:           userID,
		OriginalFilename: fileHeader.Filename,
		MimeType:         fileHeader.Header.Get(echo.HeaderContentType),
		Size:             fileHeader.Size,
		Duration:         duration,
		Content:          file,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToVideoResponse(video))
}

// GetVideo handles GET /videos/:id
// @Summary      Get a video
// @Tags         Videos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Video ID"
// @Success      200  {object}  video.VideoResponse
// @Failure      404  {object}  map[string]interface{}  "Video not found"
// @Router       /videos/{id} [get]
func (h *Video) GetVideo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	video, err := h.videoService.GetVideo(c.Request().Context(), pathUUID(c, "id"), userID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToVideoResponse(video))
}

// DeleteVideo handles DELETE /videos/:id
// @Summary      Delete a video
// @Description  Cancels active runs, removes media and deletes the video with its jobs, speakers and segments
// @Tags         Videos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Video ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /videos/{id} [delete]
func (h *Video) DeleteVideo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	videoID := pathUUID(c, "id")

	if err := h.videoService.DeleteVideo(c.Request().Context(), videoID, userID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{
		"video_id": videoID.String(),
		"deleted":  true,
	})
}
