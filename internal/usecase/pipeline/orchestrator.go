package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/domain/repositories"
	"github.com/johnquangdev/dubbing-service/pkg/jobcontext"
)

// Orchestrator drives one job through the stage pipeline. It is the only writer
// of a job's status, progress, error and audio path while a run is active.
type Orchestrator struct {
	store     repositories.JobStore
	videos    VideoFinder
	executors Executors
	policy    RetryPolicy
	events    EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator. events and logger may be nil.
func NewOrchestrator(
	store repositories.JobStore,
	videos VideoFinder,
	executors Executors,
	policy RetryPolicy,
	events EventPublisher,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if store == nil || videos == nil {
		return nil, errors.New("job store and video finder are required")
	}
	if err := executors.validate(); err != nil {
		return nil, err
	}
	if events == nil {
		events = NopPublisher{}
	}
	return &Orchestrator{
		store:     store,
		videos:    videos,
		executors: executors,
		policy:    policy.normalized(),
		events:    events,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// RunJob drives a job to a terminal status without an external cancel signal
func (o *Orchestrator) RunJob(ctx context.Context, jobID uuid.UUID) (entities.JobStatus, error) {
	return o.Run(ctx, jobID, nil)
}

// Run resumes a job from its persisted status and executes the remaining stages in order.
// Closing cancel fails the job with ErrCancelled at the next stage boundary. Cancelling ctx
// stops the run at the next boundary with ErrInterrupted and leaves the job resumable.
func (o *Orchestrator) Run(ctx context.Context, jobID uuid.UUID, cancel <-chan struct{}) (entities.JobStatus, error) {
	ctx, _ = jobcontext.RunBegin(ctx, jobID, o.policy.MaxAttempts)

	job, err := o.store.LoadJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.Status.IsTerminal() {
		return job.Status, entities.ValidateTransition(job.Status, entities.JobStatusLanguageDetection)
	}

	video, err := o.videos.FindByID(ctx, job.VideoID)
	if err != nil {
		return job.Status, fmt.Errorf("failed to load video: %w", err)
	}

	if o.logger != nil {
		o.logger.Info("▶️ Job run started",
			append(jobcontext.Fields(ctx), zap.String("status", string(job.Status)))...,
		)
	}

	if job.Status == entities.JobStatusPending {
		if stopped, status, err := o.atBoundary(ctx, job, cancel); stopped {
			return status, err
		}
		job, err = o.begin(ctx, job)
		if err != nil {
			return entities.JobStatusPending, err
		}
	}

	for job.Status.IsStage() {
		if stopped, status, err := o.atBoundary(ctx, job, cancel); stopped {
			return status, err
		}
		job, err = o.runStage(ctx, job, video, cancel)
		if err != nil {
			return job.Status, err
		}
	}

	if o.logger != nil {
		o.logger.Info("✅ Job run finished",
			append(jobcontext.Fields(ctx), zap.String("status", string(job.Status)))...,
		)
	}
	return job.Status, nil
}

// atBoundary checks for cancellation and shutdown between stages
func (o *Orchestrator) atBoundary(ctx context.Context, job *entities.TranslationJob, cancel <-chan struct{}) (bool, entities.JobStatus, error) {
	if isClosed(cancel) {
		status, err := o.fail(ctx, job, entities.ErrCancelled, 0, o.now())
		return true, status, err
	}
	if ctx.Err() != nil {
		if o.logger != nil {
			o.logger.Info("⏸️ Job run interrupted",
				append(jobcontext.Fields(ctx), zap.String("status", string(job.Status)))...,
			)
		}
		return true, job.Status, fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
	}
	return false, "", nil
}

// begin moves a pending job into language detection
func (o *Orchestrator) begin(ctx context.Context, job *entities.TranslationJob) (*entities.TranslationJob, error) {
	progress := entities.JobStatusLanguageDetection.ProgressFloor()
	update := entities.JobUpdate{
		Status:   entities.JobStatusLanguageDetection,
		Progress: &progress,
	}
	if err := o.store.ConditionalUpdateJob(context.WithoutCancel(ctx), job.ID, job.Status, update); err != nil {
		return job, err
	}
	job.Status = entities.JobStatusLanguageDetection
	job.ProgressPercentage = progress
	o.publish(ctx, JobEvent{JobID: job.ID, Status: job.Status, Progress: progress})
	return job, nil
}

// runStage executes the stage for job.Status and persists its outcome
func (o *Orchestrator) runStage(ctx context.Context, job *entities.TranslationJob, video *entities.Video, cancel <-chan struct{}) (*entities.TranslationJob, error) {
	status := job.Status
	ctx = jobcontext.StageBegin(ctx, string(status))

	// each stage starts from what is durably stored
	fresh, err := o.store.LoadJob(ctx, job.ID)
	if err != nil {
		return job, err
	}
	if fresh.Status != status {
		return fresh, entities.ErrStaleJobState
	}
	speakers, segments, err := o.store.LoadTranscript(ctx, job.ID)
	if err != nil {
		return fresh, fmt.Errorf("failed to load transcript: %w", err)
	}

	started := o.now()
	var (
		result   *StageResult
		attempts int
	)
	if status == entities.JobStatusTranscribing && len(segments) > 0 {
		// transcript already stored by an earlier run or by hand
		result = &StageResult{}
		if o.logger != nil {
			o.logger.Info("⏭️ Transcript already present, skipping transcription",
				append(jobcontext.Fields(ctx), zap.Int("segments", len(segments)))...,
			)
		}
	} else {
		exec, _ := o.executors.forStatus(status)
		in := StageInput{
			Job:      fresh,
			Video:    video,
			Speakers: speakers,
			Segments: segments,
			Report:   o.newProgressReporter(ctx, fresh).Report,
		}
		result, attempts, err = o.execute(ctx, status, exec, in, cancel)
		if err != nil {
			switch {
			case isClosed(cancel):
				return o.failJob(ctx, fresh, entities.ErrCancelled, attempts, started)
			case ctx.Err() != nil:
				return fresh, fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
			}
			return o.failJob(ctx, fresh, err, attempts, started)
		}
	}

	update, err := o.buildUpdate(ctx, fresh, result, speakers, segments, attempts, started)
	if err != nil {
		return o.failJob(ctx, fresh, withStage(status, err), attempts, started)
	}

	if err := o.store.ConditionalUpdateJob(context.WithoutCancel(ctx), fresh.ID, status, update); err != nil {
		if isOutputRejected(err) {
			return o.failJob(ctx, fresh, withStage(status, Permanent(err)), attempts, started)
		}
		return fresh, err
	}

	fresh.Status = update.Status
	fresh.ProgressPercentage = *update.Progress
	if update.OriginalLanguage != nil {
		fresh.OriginalLanguage = update.OriginalLanguage
	}
	if update.TranslatedAudioPath != nil {
		fresh.TranslatedAudioPath = update.TranslatedAudioPath
	}
	fresh.CompletedAt = update.CompletedAt

	if o.logger != nil {
		o.logger.Info("✅ Stage completed",
			append(jobcontext.Fields(ctx),
				zap.String("next_status", string(update.Status)),
				zap.Int("progress", *update.Progress),
				zap.Int("attempts", attempts),
				zap.Duration("took", o.now().Sub(started)),
			)...,
		)
	}
	o.publish(ctx, JobEvent{JobID: fresh.ID, Status: fresh.Status, Progress: fresh.ProgressPercentage})
	return fresh, nil
}

// execute invokes exec under the retry policy. Attempts run detached from ctx so a
// stage call is never interrupted mid-flight; ctx and cancel only stop the waits between attempts.
func (o *Orchestrator) execute(ctx context.Context, stage entities.JobStatus, exec Executor, in StageInput, cancel <-chan struct{}) (*StageResult, int, error) {
	waitCtx, stopWaiting := context.WithCancel(ctx)
	defer stopWaiting()
	if cancel != nil {
		go func() {
			select {
			case <-cancel:
				stopWaiting()
			case <-waitCtx.Done():
			}
		}()
	}

	var (
		result   *StageResult
		attempts int
	)
	operation := func() error {
		attempts++
		res, err := o.attempt(jobcontext.SetAttempt(ctx, attempts), stage, exec, in)
		if err == nil {
			result = res
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		if o.logger != nil {
			o.logger.Warn("⚠️ Stage attempt failed, retrying",
				append(jobcontext.Fields(jobcontext.SetAttempt(ctx, attempts)),
					zap.Duration("retry_in", wait),
					zap.Error(err),
				)...,
			)
		}
	}

	err := backoff.RetryNotify(operation, o.policy.backOff(waitCtx), notify)
	if err == nil {
		return result, attempts, nil
	}
	if waitCtx.Err() != nil && errors.Is(err, waitCtx.Err()) {
		return nil, attempts, err
	}
	se := withStage(stage, err)
	if se.Kind == KindTransient {
		se = &StageError{
			Stage: stage,
			Kind:  KindPermanent,
			Err:   fmt.Errorf("retry budget exhausted after %d attempts: %w", attempts, se.Err),
		}
	}
	return nil, attempts, se
}

// attempt runs a single executor call under the stage timeout
func (o *Orchestrator) attempt(ctx context.Context, stage entities.JobStatus, exec Executor, in StageInput) (result *StageResult, err error) {
	callCtx := context.WithoutCancel(ctx)
	if o.policy.StageTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, o.policy.StageTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			result, err = nil, withStage(stage, Permanent(fmt.Errorf("panic recovered: %v", p)))
		}
	}()

	result, err = exec.Execute(callCtx, in)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, withStage(stage, Transient(fmt.Errorf("%w after %s", ErrStageTimeout, o.policy.StageTimeout)))
		}
		return nil, withStage(stage, err)
	}
	if result == nil {
		result = &StageResult{}
	}
	return result, nil
}

// buildUpdate turns a stage result into the conditional update for the next status
func (o *Orchestrator) buildUpdate(
	ctx context.Context,
	job *entities.TranslationJob,
	result *StageResult,
	speakers []entities.Speaker,
	segments []entities.TranscriptSegment,
	attempts int,
	started time.Time,
) (entities.JobUpdate, error) {
	next, ok := job.Status.Next()
	if !ok {
		return entities.JobUpdate{}, entities.ValidateTransition(job.Status, "")
	}
	progress := next.ProgressFloor()
	update := entities.JobUpdate{Status: next, Progress: &progress}

	switch job.Status {
	case entities.JobStatusLanguageDetection:
		lang := entities.NormalizeLanguageCode(result.SourceLanguage)
		if err := entities.ValidateAdvance(job.Status, next, lang, nil); err != nil {
			return update, Permanent(err)
		}
		update.OriginalLanguage = &lang

	case entities.JobStatusTranscribing:
		if len(result.Segments) > 0 {
			newSpeakers, err := mergeSpeakers(job.ID, speakers, result.Speakers)
			if err != nil {
				return update, Permanent(err)
			}
			var last *entities.TranscriptSegment
			if len(segments) > 0 {
				last = &segments[len(segments)-1]
			}
			if err := entities.ValidateSegments(last, result.Segments); err != nil {
				return update, Permanent(err)
			}
			update.Speakers = newSpeakers
			update.Segments = result.Segments
		}

	case entities.JobStatusTranslating:
		index := make(map[uuid.UUID]int, len(segments))
		applied := make([]entities.TranscriptSegment, len(segments))
		for i, seg := range segments {
			index[seg.ID] = i
			applied[i] = seg
		}
		for _, t := range result.Translations {
			i, known := index[t.SegmentID]
			if !known {
				return update, Permanent(fmt.Errorf("translation for unknown segment %s", t.SegmentID))
			}
			text := t.TranslatedText
			applied[i].TranslatedText = &text
		}
		if err := entities.ValidateAdvance(job.Status, next, job.SourceLanguage(), applied); err != nil {
			return update, Permanent(err)
		}
		update.Translations = result.Translations

	case entities.JobStatusDubbing:
		if result.AudioPath == "" {
			return update, Permanent(errors.New("dubbing produced no audio path"))
		}
		now := o.now()
		update.TranslatedAudioPath = &result.AudioPath
		update.CompletedAt = &now
	}

	meta := o.recordStage(ctx, job, attempts, started, result.ExternalID, "")
	update.Metadata = &meta
	return update, nil
}

func (o *Orchestrator) failJob(ctx context.Context, job *entities.TranslationJob, cause error, attempts int, started time.Time) (*entities.TranslationJob, error) {
	status, err := o.fail(ctx, job, cause, attempts, started)
	job.Status = status
	return job, err
}

// fail moves the job to failed with cause as its error message. Progress is left as is.
func (o *Orchestrator) fail(ctx context.Context, job *entities.TranslationJob, cause error, attempts int, started time.Time) (entities.JobStatus, error) {
	msg := cause.Error()
	now := o.now()
	meta := o.recordStage(ctx, job, attempts, started, "", msg)
	if errors.Is(cause, entities.ErrCancelled) {
		meta.Cancelled = true
	}

	update := entities.JobUpdate{
		Status:       entities.JobStatusFailed,
		ErrorMessage: &msg,
		CompletedAt:  &now,
		Metadata:     &meta,
	}
	if err := o.store.ConditionalUpdateJob(context.WithoutCancel(ctx), job.ID, job.Status, update); err != nil {
		if o.logger != nil {
			o.logger.Error("❌ Failed to record job failure",
				append(jobcontext.Fields(ctx), zap.String("cause", msg), zap.Error(err))...,
			)
		}
		return job.Status, fmt.Errorf("failed to mark job as failed (%v): %w", cause, err)
	}

	if o.logger != nil {
		o.logger.Error("❌ Job failed",
			append(jobcontext.Fields(ctx),
				zap.String("failed_in", string(job.Status)),
				zap.Int("progress", job.ProgressPercentage),
				zap.Error(cause),
			)...,
		)
	}
	o.publish(ctx, JobEvent{JobID: job.ID, Status: entities.JobStatusFailed, Progress: job.ProgressPercentage, ErrorMessage: msg})
	return entities.JobStatusFailed, cause
}

// recordStage appends this stage's outcome to a copy of the job metadata
func (o *Orchestrator) recordStage(ctx context.Context, job *entities.TranslationJob, attempts int, started time.Time, externalID, errMsg string) entities.JobMetadata {
	prev := job.Metadata.Data()
	meta := entities.JobMetadata{
		Stages:    append(make([]entities.StageRun, 0, len(prev.Stages)+1), prev.Stages...),
		Cancelled: prev.Cancelled,
	}
	if len(prev.ExternalIDs) > 0 || externalID != "" {
		meta.ExternalIDs = make(map[string]string, len(prev.ExternalIDs)+1)
		for k, v := range prev.ExternalIDs {
			meta.ExternalIDs[k] = v
		}
		if externalID != "" {
			meta.ExternalIDs[string(job.Status)] = externalID
		}
	}
	if job.Status.IsStage() {
		meta.Stages = append(meta.Stages, entities.StageRun{
			Stage:      job.Status,
			RunID:      jobcontext.GetRunID(ctx),
			Attempts:   attempts,
			StartedAt:  started,
			FinishedAt: o.now(),
			Error:      errMsg,
		})
	}
	return meta
}

func (o *Orchestrator) publish(ctx context.Context, event JobEvent) {
	if event.At.IsZero() {
		event.At = o.now()
	}
	if err := o.events.PublishJobEvent(context.WithoutCancel(ctx), event); err != nil && o.logger != nil {
		o.logger.Warn("failed to publish job event",
			zap.String("job_id", event.JobID.String()),
			zap.String("status", string(event.Status)),
			zap.Error(err),
		)
	}
}

// mergeSpeakers drops produced speakers whose label already exists for the job,
// segments then link to the stored speaker by label
func mergeSpeakers(jobID uuid.UUID, existing, produced []entities.Speaker) ([]entities.Speaker, error) {
	known := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		known[s.Label] = struct{}{}
	}
	out := make([]entities.Speaker, 0, len(produced))
	for _, s := range produced {
		if _, ok := known[s.Label]; ok {
			continue
		}
		s.JobID = jobID
		out = append(out, s)
	}
	if err := entities.ValidateSpeakers(existing, out); err != nil {
		return nil, err
	}
	return out, nil
}

// isOutputRejected reports store errors caused by invalid stage output
func isOutputRejected(err error) bool {
	return errors.Is(err, entities.ErrValidation) ||
		errors.Is(err, entities.ErrDuplicateSpeakerLabel) ||
		errors.Is(err, entities.ErrSpeakerNotFound)
}

func isClosed(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
