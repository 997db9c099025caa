package jobcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KeyContext string

var (
	keyJobID        KeyContext = "job_id"
	keyRunID        KeyContext = "run_id"
	keyStage        KeyContext = "stage"
	keyAttempt      KeyContext = "attempt"
	keyMaxAttempts  KeyContext = "max_attempts"
	keyRunStartTime KeyContext = "run_start_time"
)

// RunMetadata holds metadata for one orchestrator run of a job
type RunMetadata struct {
	JobID       uuid.UUID
	RunID       string
	Stage       string
	Attempt     int
	MaxAttempts int
	StartTime   time.Time
}

// RunBegin attaches run metadata to ctx. The returned run id identifies this run in logs.
func RunBegin(parentCtx context.Context, jobID uuid.UUID, maxAttempts int) (context.Context, string) {
	runID := uuid.NewString()

	ctx := context.WithValue(parentCtx, keyJobID, jobID)
	ctx = context.WithValue(ctx, keyRunID, runID)
	ctx = context.WithValue(ctx, keyMaxAttempts, maxAttempts)
	ctx = context.WithValue(ctx, keyRunStartTime, time.Now())

	return ctx, runID
}

// StageBegin marks ctx with the stage being executed and resets the attempt counter
func StageBegin(ctx context.Context, stage string) context.Context {
	ctx = context.WithValue(ctx, keyStage, stage)
	return context.WithValue(ctx, keyAttempt, 0)
}

// GetJobID extracts job ID from context
func GetJobID(ctx context.Context) (uuid.UUID, bool) {
	jobID, ok := ctx.Value(keyJobID).(uuid.UUID)
	return jobID, ok
}

// GetRunID extracts run ID from context
func GetRunID(ctx context.Context) string {
	runID, _ := ctx.Value(keyRunID).(string)
	return runID
}

// GetStage extracts the current stage from context
func GetStage(ctx context.Context) string {
	stage, _ := ctx.Value(keyStage).(string)
	return stage
}

// GetAttempt extracts current attempt from context (1-based once a stage ran)
func GetAttempt(ctx context.Context) int {
	attempt, ok := ctx.Value(keyAttempt).(int)
	if !ok {
		return 0
	}
	return attempt
}

// SetAttempt updates the attempt in context
func SetAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, keyAttempt, attempt)
}

// GetMaxAttempts extracts max attempts from context
func GetMaxAttempts(ctx context.Context) int {
	maxAttempts, ok := ctx.Value(keyMaxAttempts).(int)
	if !ok {
		return 3 // default
	}
	return maxAttempts
}

// GetRunStartTime extracts run start time from context
func GetRunStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyRunStartTime).(time.Time)
	return startTime, ok
}

// GetRunMetadata extracts all run metadata from context
func GetRunMetadata(ctx context.Context) *RunMetadata {
	jobID, _ := GetJobID(ctx)
	startTime, _ := GetRunStartTime(ctx)

	return &RunMetadata{
		JobID:       jobID,
		RunID:       GetRunID(ctx),
		Stage:       GetStage(ctx),
		Attempt:     GetAttempt(ctx),
		MaxAttempts: GetMaxAttempts(ctx),
		StartTime:   startTime,
	}
}

// Fields returns zap fields describing the run carried by ctx
func Fields(ctx context.Context) []zap.Field {
	meta := GetRunMetadata(ctx)
	fields := make([]zap.Field, 0, 5)
	if meta.JobID != uuid.Nil {
		fields = append(fields, zap.String("job_id", meta.JobID.String()))
	}
	if meta.RunID != "" {
		fields = append(fields, zap.String("run_id", meta.RunID))
	}
	if meta.Stage != "" {
		fields = append(fields, zap.String("stage", meta.Stage))
	}
	if meta.Attempt > 0 {
		fields = append(fields, zap.Int("attempt", meta.Attempt), zap.Int("max_attempts", meta.MaxAttempts))
	}
	return fields
}

// IsRetryableError checks if an error should trigger a retry
// Retryable errors include: network errors, timeouts, deadlocks, rate limits
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Context errors (timeout)
	if strings.Contains(errStr, "context deadline exceeded") {
		return true
	}

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "unexpected eof") {
		return true
	}

	// Database deadlock/lock errors (Postgres)
	if strings.Contains(errStr, "deadlock") ||
		strings.Contains(errStr, "40001") || // serialization_failure
		strings.Contains(errStr, "40p01") { // deadlock_detected
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}
