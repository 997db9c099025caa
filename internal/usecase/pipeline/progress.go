package pipeline

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/pkg/jobcontext"
)

const progressWriteTimeout = 5 * time.Second

// StageProgress maps a stage fraction onto the job percentage.
// The result stays below the stage ceiling so only the transition itself reaches it.
func StageProgress(status entities.JobStatus, fraction float64) int {
	floor, ceiling := status.ProgressFloor(), status.ProgressCeiling()
	if ceiling <= floor {
		return floor
	}
	if math.IsNaN(fraction) || fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	p := floor + int(fraction*float64(ceiling-floor))
	if p >= ceiling {
		p = ceiling - 1
	}
	return p
}

// progressReporter persists sub-progress of one stage and drops regressions
type progressReporter struct {
	o      *Orchestrator
	ctx    context.Context
	jobID  uuid.UUID
	status entities.JobStatus

	mu   sync.Mutex
	last int
}

func (o *Orchestrator) newProgressReporter(ctx context.Context, job *entities.TranslationJob) *progressReporter {
	return &progressReporter{
		o:      o,
		ctx:    context.WithoutCancel(ctx),
		jobID:  job.ID,
		status: job.Status,
		last:   job.ProgressPercentage,
	}
}

// Report is safe for concurrent use by executors
func (r *progressReporter) Report(fraction float64) {
	p := StageProgress(r.status, fraction)

	r.mu.Lock()
	defer r.mu.Unlock()
	if p <= r.last {
		return
	}

	ctx, cancel := context.WithTimeout(r.ctx, progressWriteTimeout)
	defer cancel()

	updated, err := r.o.store.UpdateProgress(ctx, r.jobID, r.status, p)
	if err != nil {
		if r.o.logger != nil {
			r.o.logger.Warn("failed to persist stage progress",
				append(jobcontext.Fields(r.ctx), zap.Int("progress", p), zap.Error(err))...,
			)
		}
		return
	}
	if !updated {
		return
	}
	r.last = p
	r.o.publish(r.ctx, JobEvent{JobID: r.jobID, Status: r.status, Progress: p})
}
