package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig     `envconfig:"SERVER"`
	Database   DatabaseConfig   `envconfig:"DB"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	JWT        JWTConfig        `envconfig:"JWT"`
	Storage    StorageConfig    `envconfig:"STORAGE"`
	AssemblyAI AssemblyAIConfig `envconfig:"ASSEMBLYAI"`
	Groq       GroqConfig       `envconfig:"GROQ"`
	Ollama     OllamaConfig     `envconfig:"OLLAMA"`
	Translator string           `envconfig:"TRANSLATOR_PROVIDER" default:"groq"`
	Pipeline   PipelineConfig   `envconfig:"PIPELINE"`
	RabbitMQ   RabbitMQConfig   `envconfig:"RABBITMQ"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host          string `envconfig:"HOST" default:"localhost"`
	Port          string `envconfig:"PORT" default:"5432"`
	User          string `envconfig:"USER" default:"postgres"`
	Password      string `envconfig:"PASSWORD" default:"postgres"`
	Name          string `envconfig:"NAME" default:"dubbing"`
	SSLMode       string `envconfig:"SSLMODE" default:"disable"`
	MaxConns      int    `envconfig:"MAX_CONNS" default:"25"`
	MinConns      int    `envconfig:"MIN_CONNS" default:"5"`
	AutoMigrate   bool   `envconfig:"AUTO_MIGRATE" default:"true"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string        `envconfig:"ACCESS_SECRET" default:"your-access-secret-change-in-production"`
	AccessExpiry time.Duration `envconfig:"ACCESS_EXPIRY" default:"15m"`
	Issuer       string        `envconfig:"ISSUER" default:"dubbing-service"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Endpoint        string        `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string        `envconfig:"ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string        `envconfig:"SECRET_KEY" default:"minioadmin"`
	BucketName      string        `envconfig:"BUCKET" default:"dubbing"`
	UseSSL          bool          `envconfig:"USE_SSL" default:"false"`
	PublicURL       string        `envconfig:"PUBLIC_URL"`
	PresignExpiry   time.Duration `envconfig:"PRESIGN_EXPIRY" default:"1h"`
}

// AssemblyAIConfig holds AssemblyAI configuration
type AssemblyAIConfig struct {
	APIKey  string `envconfig:"API_KEY"`
	BaseURL string `envconfig:"BASE_URL"`
	// UploadMedia streams source audio to AssemblyAI instead of handing it a presigned URL
	UploadMedia       bool  `envconfig:"UPLOAD_MEDIA" default:"false"`
	DetectionSampleMs int64 `envconfig:"DETECTION_SAMPLE_MS" default:"60000"`
}

// GroqConfig holds Groq configuration
type GroqConfig struct {
	APIKey      string `envconfig:"API_KEY"`
	BaseURL     string `envconfig:"BASE_URL" default:"https://api.groq.com"`
	ChatModel   string `envconfig:"CHAT_MODEL" default:"llama-3.3-70b-versatile"`
	TTSModel    string `envconfig:"TTS_MODEL" default:"playai-tts"`
	MaleVoice   string `envconfig:"MALE_VOICE" default:"Fritz-PlayAI"`
	FemaleVoice string `envconfig:"FEMALE_VOICE" default:"Arista-PlayAI"`
	BatchSize   int    `envconfig:"BATCH_SIZE" default:"20"`
}

// OllamaConfig holds Ollama configuration
type OllamaConfig struct {
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:11434"`
	Model   string `envconfig:"MODEL" default:"llama3.1"`
}

// PipelineConfig holds retry and supervision settings for job runs
type PipelineConfig struct {
	MaxAttempts     int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	InitialBackoff  time.Duration `envconfig:"INITIAL_BACKOFF" default:"2s"`
	MaxBackoff      time.Duration `envconfig:"MAX_BACKOFF" default:"1m"`
	Multiplier      float64       `envconfig:"BACKOFF_MULTIPLIER" default:"2"`
	Jitter          float64       `envconfig:"BACKOFF_JITTER" default:"0.1"`
	StageTimeout    time.Duration `envconfig:"STAGE_TIMEOUT" default:"30m"`
	LeaseBackend    string        `envconfig:"LEASE_BACKEND" default:"memory"`
	LeaseTTL        time.Duration `envconfig:"LEASE_TTL" default:"30s"`
	ResumeOnStartup bool          `envconfig:"RESUME_ON_STARTUP" default:"true"`
}

// RabbitMQConfig holds RabbitMQ configuration
type RabbitMQConfig struct {
	URL         string `envconfig:"URL"`
	StartQueue  string `envconfig:"START_QUEUE" default:"dubbing.jobs.start"`
	EventsQueue string `envconfig:"EVENTS_QUEUE" default:"dubbing.jobs.events"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.AssemblyAI.APIKey == "" {
		return fmt.Errorf("ASSEMBLYAI_API_KEY is required")
	}
	switch c.Translator {
	case "groq":
		if c.Groq.APIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required")
		}
	case "ollama":
		if c.Ollama.BaseURL == "" {
			return fmt.Errorf("OLLAMA_BASE_URL is required")
		}
	default:
		return fmt.Errorf("TRANSLATOR_PROVIDER must be groq or ollama, got %q", c.Translator)
	}
	// speech synthesis always goes through Groq
	if c.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("PIPELINE_MAX_ATTEMPTS must be at least 1")
	}
	if c.Pipeline.LeaseBackend != "memory" && c.Pipeline.LeaseBackend != "redis" {
		return fmt.Errorf("PIPELINE_LEASE_BACKEND must be memory or redis, got %q", c.Pipeline.LeaseBackend)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
