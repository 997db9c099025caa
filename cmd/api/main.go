package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/johnquangdev/dubbing-service/docs"
	"github.com/johnquangdev/dubbing-service/internal/adapter/handler"
	"github.com/johnquangdev/dubbing-service/internal/adapter/repository"
	"github.com/johnquangdev/dubbing-service/internal/infrastructure/cache"
	"github.com/johnquangdev/dubbing-service/internal/infrastructure/database"
	httpmw "github.com/johnquangdev/dubbing-service/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/dubbing-service/internal/infrastructure/queue"
	"github.com/johnquangdev/dubbing-service/internal/infrastructure/storage"
	jobUsecase "github.com/johnquangdev/dubbing-service/internal/usecase/job"
	"github.com/johnquangdev/dubbing-service/internal/usecase/pipeline"
	"github.com/johnquangdev/dubbing-service/internal/usecase/stages"
	videoUsecase "github.com/johnquangdev/dubbing-service/internal/usecase/video"
	pkgai "github.com/johnquangdev/dubbing-service/pkg/ai"
	"github.com/johnquangdev/dubbing-service/pkg/config"
	"github.com/johnquangdev/dubbing-service/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/dubbing-service/pkg/validator"
)

// @title           Dubbing Service API
// @version         1.0
// @description     Video dubbing pipeline: upload, transcribe, translate and synthesize dubbed audio

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${id} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))

	logger.Info("🔧 Initializing dependencies...")

	// Database
	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		if _, err := database.Migrate(db, cfg.Database.MigrationsDir, logger); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	} else {
		logger.Info("🔄 Skipping migrations; run scripts/migrate.go before deploying")
	}

	jobRepo := repository.NewJobRepository(db)
	videoRepo := repository.NewVideoRepository(db)

	// Object storage
	logger.Info("📦 Connecting to object storage...", zap.String("endpoint", cfg.Storage.Endpoint))
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// AI providers
	logger.Info("🤖 Initializing AI providers...", zap.String("translator", cfg.Translator))
	assemblyClient := pkgai.NewAssemblyAIClient(&cfg.AssemblyAI)
	groqClient := pkgai.NewGroqClient(&cfg.Groq)
	var translator stages.Translator = groqClient
	if cfg.Translator == "ollama" {
		translator = pkgai.NewOllamaClient(&cfg.Ollama)
	}

	source := stages.NewAudioSource(minioClient, assemblyClient, cfg.AssemblyAI.UploadMedia, logger)
	executors := pipeline.Executors{
		LanguageDetection: stages.NewLanguageDetection(source, assemblyClient, logger),
		Transcription:     stages.NewTranscription(source, assemblyClient, logger),
		Translation:       stages.NewTranslation(translator, cfg.Groq.BatchSize, logger),
		Dubbing: stages.NewDubbing(groqClient, minioClient, stages.Voices{
			Male:   cfg.Groq.MaleVoice,
			Female: cfg.Groq.FemaleVoice,
		}, logger),
	}

	// Job events
	var events pipeline.EventPublisher = pipeline.NopPublisher{}
	var publisher *queue.Publisher
	if cfg.RabbitMQ.URL != "" {
		publisher, err = queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.EventsQueue, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		events = publisher
	}

	orchestrator, err := pipeline.NewOrchestrator(jobRepo, videoRepo, executors, pipeline.RetryPolicy{
		MaxAttempts:         cfg.Pipeline.MaxAttempts,
		InitialInterval:     cfg.Pipeline.InitialBackoff,
		MaxInterval:         cfg.Pipeline.MaxBackoff,
		Multiplier:          cfg.Pipeline.Multiplier,
		RandomizationFactor: cfg.Pipeline.Jitter,
		StageTimeout:        cfg.Pipeline.StageTimeout,
	}, events, logger)
	if err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}

	// Health checks and run leases
	checks := map[string]handler.Checker{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
		"storage":  minioClient.Ping,
	}
	var leases pipeline.LeaseStore
	switch cfg.Pipeline.LeaseBackend {
	case "redis":
		logger.Info("📦 Connecting to Redis...", zap.String("addr", cfg.GetRedisAddr()))
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		leases = cache.NewRedisLeaseStore(redisClient)
		checks["redis"] = pingRedis(redisClient)
	default:
		memory := cache.NewMemoryStore()
		defer memory.Close()
		leases = memory
	}

	supervisor := pipeline.NewSupervisor(orchestrator, leases, cfg.Pipeline.LeaseTTL, logger)

	if cfg.Pipeline.ResumeOnStartup {
		if _, err := supervisor.ResumeInterrupted(context.Background(), jobRepo); err != nil {
			logger.Error("Failed to resume interrupted jobs", zap.Error(err))
		}
	}

	// Start requests from the queue
	consumeCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	var consumer *queue.Consumer
	if cfg.RabbitMQ.URL != "" {
		consumer, err = queue.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.StartQueue, supervisor, logger)
		if err != nil {
			logger.Fatal("Failed to start RabbitMQ consumer", zap.Error(err))
		}
		go func() {
			if err := consumer.Consume(consumeCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("RabbitMQ consumer stopped", zap.Error(err))
			}
		}()
	}

	// Usecases and handlers
	jobService := jobUsecase.NewService(jobRepo, videoRepo, supervisor, logger)
	videoService := videoUsecase.NewService(videoRepo, jobRepo, minioClient, supervisor, logger)
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)

	router := handler.NewRouter(
		cfg,
		handler.NewHealthHandler(cfg.Server.Environment, checks),
		handler.NewVideoHandler(videoService, logger),
		handler.NewJobHandler(jobService, supervisor, logger),
		handler.NewMediaHandler(jobService, minioClient, logger),
		httpmw.EchoAuth(jwtManager),
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("🚀 Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
	}

	// no new starts from the queue while runs wind down
	stopConsumer()
	if consumer != nil {
		consumer.Close()
	}
	if err := supervisor.Shutdown(ctx); err != nil {
		logger.Warn("⚠️ Runs still active at shutdown deadline", zap.Error(err))
	}
	if publisher != nil {
		publisher.Close()
	}

	logger.Info("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func pingRedis(client *redis.Client) handler.Checker {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
