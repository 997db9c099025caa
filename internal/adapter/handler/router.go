package handler

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/dubbing-service/pkg/config"
	pkgmw "github.com/johnquangdev/dubbing-service/pkg/middleware"
)

// Router holds all handlers
type Router struct {
	cfg           *config.Config
	healthHandler *Health
	videoHandler  *Video
	jobHandler    *Job
	mediaHandler  *Media
	authMW        echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	healthHandler *Health,
	videoHandler *Video,
	jobHandler *Job,
	mediaHandler *Media,
	authMW echo.MiddlewareFunc,
) *Router {
	return &Router{
		cfg:           cfg,
		healthHandler: healthHandler,
		videoHandler:  videoHandler,
		jobHandler:    jobHandler,
		mediaHandler:  mediaHandler,
		authMW:        authMW,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthHandler.Check)

	// API docs
	if rt.cfg == nil || !rt.cfg.IsProduction() {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// API v1 group
	v1 := e.Group("/v1", rt.authMW)

	rt.setupVideoRoutes(v1)
	rt.setupJobRoutes(v1)
}

// setupVideoRoutes configures video routes
func (rt *Router) setupVideoRoutes(g *echo.Group) {
	videos := g.Group("/videos")

	videos.POST("", rt.videoHandler.UploadVideo)
	videos.GET("/:id", rt.videoHandler.GetVideo, pkgmw.UUIDParams("id"))
	videos.DELETE("/:id", rt.videoHandler.DeleteVideo, pkgmw.UUIDParams("id"))
}

// setupJobRoutes configures translation job routes
func (rt *Router) setupJobRoutes(g *echo.Group) {
	jobs := g.Group("/jobs")

	jobs.POST("", rt.jobHandler.CreateJob)
	jobs.GET("", rt.jobHandler.ListJobs)

	job := jobs.Group("/:id", pkgmw.UUIDParams("id", "speakerId"))
	job.GET("", rt.jobHandler.GetJob)
	job.POST("/start", rt.jobHandler.StartJob)
	job.POST("/cancel", rt.jobHandler.CancelJob)
	job.PATCH("/status", rt.jobHandler.UpdateStatus)
	job.GET("/transcript", rt.jobHandler.GetTranscript)
	job.POST("/speakers", rt.jobHandler.CreateSpeaker)
	job.PATCH("/speakers/:speakerId", rt.jobHandler.RenameSpeaker)
	job.POST("/segments", rt.jobHandler.CreateSegment)
	if rt.mediaHandler != nil {
		job.GET("/audio", rt.mediaHandler.DubbedAudioURL)
	}
}
