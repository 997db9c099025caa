package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/dubbing-service/internal/usecase/errors"
)

const (
	leaseKeyPrefix      = "dubbing:job-run:"
	leaseReleaseTimeout = 5 * time.Second
	defaultLeaseTTL     = 30 * time.Second
)

// Runner drives a job to a terminal status. *Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, jobID uuid.UUID, cancel <-chan struct{}) (entities.JobStatus, error)
}

// LeaseStore grants exclusive, expiring ownership of a key across processes
type LeaseStore interface {
	// Acquire takes the lease if it is free or expired. Returns false when held by another owner.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Refresh extends a lease held by owner. Returns false when the lease was lost.
	Refresh(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Release drops the lease if owner still holds it
	Release(ctx context.Context, key, owner string) error
}

// InterruptedLister finds jobs that stopped inside a stage
type InterruptedLister interface {
	ListInterrupted(ctx context.Context) ([]*entities.TranslationJob, error)
}

type activeRun struct {
	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}

	status entities.JobStatus
	err    error
}

func (r *activeRun) requestCancel() {
	r.cancelOnce.Do(func() { close(r.cancel) })
}

// Supervisor allows at most one active run per job
type Supervisor struct {
	runner   Runner
	leases   LeaseStore
	leaseTTL time.Duration
	owner    string
	logger   *zap.Logger

	mu     sync.Mutex
	runs   map[uuid.UUID]*activeRun
	closed bool
	wg     sync.WaitGroup

	baseCtx context.Context
	stopAll context.CancelFunc
}

// NewSupervisor creates a supervisor. leases may be nil for a single process deployment.
func NewSupervisor(runner Runner, leases LeaseStore, leaseTTL time.Duration, logger *zap.Logger) *Supervisor {
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseCtx, stopAll := context.WithCancel(context.Background())
	return &Supervisor{
		runner:   runner,
		leases:   leases,
		leaseTTL: leaseTTL,
		owner:    uuid.NewString(),
		logger:   logger,
		runs:     make(map[uuid.UUID]*activeRun),
		baseCtx:  baseCtx,
		stopAll:  stopAll,
	}
}

// Start launches a run for jobID in the background.
// Returns ErrAlreadyRunning if this or another process is running the job.
func (s *Supervisor) Start(ctx context.Context, jobID uuid.UUID) error {
	_, err := s.launch(ctx, jobID, nil)
	return err
}

// Run launches a run and waits for it. Cancelling ctx interrupts the run at the next
// stage boundary and leaves the job resumable.
func (s *Supervisor) Run(ctx context.Context, jobID uuid.UUID) (entities.JobStatus, error) {
	run, err := s.launch(ctx, jobID, ctx)
	if err != nil {
		return "", err
	}
	<-run.done
	return run.status, run.err
}

// Cancel asks the active run of jobID to fail with ErrCancelled at its next stage boundary
func (s *Supervisor) Cancel(jobID uuid.UUID) error {
	s.mu.Lock()
	run, ok := s.runs[jobID]
	s.mu.Unlock()
	if !ok {
		return usecaseErrors.ErrNotRunning
	}
	run.requestCancel()
	s.logger.Info("🛑 Cancellation requested", zap.String("job_id", jobID.String()))
	return nil
}

// IsRunning reports whether this process has an active run for jobID
func (s *Supervisor) IsRunning(jobID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runs[jobID]
	return ok
}

// Wait blocks until the active run of jobID exits and returns its outcome
func (s *Supervisor) Wait(ctx context.Context, jobID uuid.UUID) (entities.JobStatus, error) {
	s.mu.Lock()
	run, ok := s.runs[jobID]
	s.mu.Unlock()
	if !ok {
		return "", usecaseErrors.ErrNotRunning
	}
	select {
	case <-run.done:
		return run.status, run.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ResumeInterrupted starts every job left inside a stage by an earlier process.
// Pending and terminal jobs are never started here.
func (s *Supervisor) ResumeInterrupted(ctx context.Context, lister InterruptedLister) (int, error) {
	jobs, err := lister.ListInterrupted(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list interrupted jobs: %w", err)
	}

	started := 0
	for _, job := range jobs {
		if !job.Status.IsStage() {
			continue
		}
		if err := s.Start(ctx, job.ID); err != nil {
			if errors.Is(err, usecaseErrors.ErrAlreadyRunning) {
				continue
			}
			if errors.Is(err, usecaseErrors.ErrShuttingDown) {
				return started, err
			}
			s.logger.Warn("failed to resume job",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
			continue
		}
		started++
	}

	if started > 0 {
		s.logger.Info("🔁 Resumed interrupted jobs", zap.Int("count", started))
	}
	return started, nil
}

// Shutdown stops accepting runs and interrupts active ones at their next stage boundary.
// It waits until they exit or ctx is done.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	active := len(s.runs)
	s.mu.Unlock()

	s.logger.Info("Shutting down supervisor", zap.Int("active_runs", active))
	s.stopAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("supervisor shutdown: %w", ctx.Err())
	}
}

// launch registers the run and spawns it. When link is set, its cancellation interrupts the run.
func (s *Supervisor) launch(ctx context.Context, jobID uuid.UUID, link context.Context) (*activeRun, error) {
	run := &activeRun{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}

	// insert-if-absent under the lock
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, usecaseErrors.ErrShuttingDown
	}
	if _, ok := s.runs[jobID]; ok {
		s.mu.Unlock()
		return nil, usecaseErrors.ErrAlreadyRunning
	}
	s.runs[jobID] = run
	s.wg.Add(1)
	s.mu.Unlock()

	key := leaseKeyPrefix + jobID.String()
	if s.leases != nil {
		ok, err := s.leases.Acquire(ctx, key, s.owner, s.leaseTTL)
		if err != nil || !ok {
			s.unregister(jobID)
			if err != nil {
				return nil, fmt.Errorf("failed to acquire run lease: %w", err)
			}
			return nil, usecaseErrors.ErrAlreadyRunning
		}
	}

	runCtx, stopRun := context.WithCancel(s.baseCtx)
	stopLink := func() bool { return false }
	if link != nil {
		stopLink = context.AfterFunc(link, stopRun)
	}

	s.logger.Info("🚀 Job run scheduled", zap.String("job_id", jobID.String()))

	go func() {
		var refreshDone chan struct{}
		if s.leases != nil {
			refreshDone = make(chan struct{})
			go s.keepLease(runCtx, key, jobID, stopRun, refreshDone)
		}

		run.status, run.err = s.execute(runCtx, jobID, run.cancel)

		if s.leases != nil {
			close(refreshDone)
			s.releaseLease(key, jobID)
		}
		stopLink()
		stopRun()
		s.logOutcome(jobID, run.status, run.err)

		s.mu.Lock()
		delete(s.runs, jobID)
		s.mu.Unlock()
		close(run.done)
		s.wg.Done()
	}()

	return run, nil
}

// execute calls the runner and turns a panic into an error
func (s *Supervisor) execute(ctx context.Context, jobID uuid.UUID, cancel <-chan struct{}) (status entities.JobStatus, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("💥 Job run panicked",
				zap.String("job_id", jobID.String()),
				zap.Any("panic", p),
			)
			err = fmt.Errorf("job run panicked: %v", p)
		}
	}()
	return s.runner.Run(ctx, jobID, cancel)
}

// keepLease refreshes the run lease at a third of its TTL and stops the run if it is lost
func (s *Supervisor) keepLease(ctx context.Context, key string, jobID uuid.UUID, stopRun context.CancelFunc, done <-chan struct{}) {
	ticker := time.NewTicker(s.leaseTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := s.leases.Refresh(ctx, key, s.owner, s.leaseTTL)
			if err != nil {
				s.logger.Warn("failed to refresh run lease",
					zap.String("job_id", jobID.String()),
					zap.Error(err),
				)
				continue
			}
			if !ok {
				s.logger.Error("❌ Run lease lost, interrupting run", zap.String("job_id", jobID.String()))
				stopRun()
				return
			}
		}
	}
}

func (s *Supervisor) releaseLease(key string, jobID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), leaseReleaseTimeout)
	defer cancel()
	if err := s.leases.Release(ctx, key, s.owner); err != nil {
		s.logger.Warn("failed to release run lease",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
	}
}

func (s *Supervisor) unregister(jobID uuid.UUID) {
	s.mu.Lock()
	delete(s.runs, jobID)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Supervisor) logOutcome(jobID uuid.UUID, status entities.JobStatus, err error) {
	fields := []zap.Field{
		zap.String("job_id", jobID.String()),
		zap.String("status", string(status)),
	}
	switch {
	case err == nil:
		s.logger.Info("Job run exited", fields...)
	case errors.Is(err, ErrInterrupted):
		s.logger.Info("Job run interrupted, job stays resumable", fields...)
	default:
		s.logger.Warn("Job run exited with error", append(fields, zap.Error(err))...)
	}
}
