package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/dubbing-service/internal/usecase/errors"
)

// gateRunner blocks every run until release is closed, a cancel arrives or ctx ends
type gateRunner struct {
	release chan struct{}
	started chan uuid.UUID
	runs    atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func newGateRunner() *gateRunner {
	return &gateRunner{
		release: make(chan struct{}),
		started: make(chan uuid.UUID, 16),
	}
}

func (g *gateRunner) Run(ctx context.Context, jobID uuid.UUID, cancel <-chan struct{}) (entities.JobStatus, error) {
	g.runs.Add(1)
	n := g.active.Add(1)
	defer g.active.Add(-1)
	for {
		seen := g.maxSeen.Load()
		if n <= seen || g.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	g.started <- jobID

	select {
	case <-g.release:
		return entities.JobStatusCompleted, nil
	case <-cancel:
		return entities.JobStatusFailed, entities.ErrCancelled
	case <-ctx.Done():
		return entities.JobStatusTranscribing, ErrInterrupted
	}
}

func waitStarted(t *testing.T, g *gateRunner) uuid.UUID {
	t.Helper()
	select {
	case id := <-g.started:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("run did not start")
		return uuid.Nil
	}
}

func TestSupervisorAllowsOneRunPerJob(t *testing.T) {
	runner := newGateRunner()
	sup := NewSupervisor(runner, nil, 0, nil)
	jobID := uuid.New()
	ctx := context.Background()

	if err := sup.Start(ctx, jobID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitStarted(t, runner)

	var wg sync.WaitGroup
	var rejected atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sup.Start(ctx, jobID); errors.Is(err, usecaseErrors.ErrAlreadyRunning) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()
	if rejected.Load() != 8 {
		t.Errorf("rejected = %d, want 8", rejected.Load())
	}
	if !sup.IsRunning(jobID) {
		t.Error("IsRunning() = false during run")
	}

	close(runner.release)
	status, err := sup.Wait(ctx, jobID)
	if err != nil || status != entities.JobStatusCompleted {
		t.Fatalf("Wait() = %s, %v", status, err)
	}
	if runner.runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runner.runs.Load())
	}

	// the slot is free again once the run exits
	if sup.IsRunning(jobID) {
		t.Error("IsRunning() = true after run")
	}
	if err := sup.Start(ctx, jobID); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	waitStarted(t, runner)
	if _, err := sup.Wait(ctx, jobID); err != nil && !errors.Is(err, usecaseErrors.ErrNotRunning) {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestSupervisorRunsDistinctJobsInParallel(t *testing.T) {
	runner := newGateRunner()
	sup := NewSupervisor(runner, nil, 0, nil)

	for i := 0; i < 3; i++ {
		if err := sup.Start(context.Background(), uuid.New()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		waitStarted(t, runner)
	}
	if runner.maxSeen.Load() != 3 {
		t.Errorf("max concurrent runs = %d, want 3", runner.maxSeen.Load())
	}
	close(runner.release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sup.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestSupervisorCancel(t *testing.T) {
	runner := newGateRunner()
	sup := NewSupervisor(runner, nil, 0, nil)
	jobID := uuid.New()

	if err := sup.Cancel(jobID); !errors.Is(err, usecaseErrors.ErrNotRunning) {
		t.Fatalf("Cancel() on idle job error = %v, want ErrNotRunning", err)
	}

	if err := sup.Start(context.Background(), jobID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitStarted(t, runner)

	if err := sup.Cancel(jobID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	// repeated cancels are harmless
	_ = sup.Cancel(jobID)

	status, err := sup.Wait(context.Background(), jobID)
	if !errors.Is(err, entities.ErrCancelled) || status != entities.JobStatusFailed {
		t.Fatalf("Wait() = %s, %v, want failed with ErrCancelled", status, err)
	}
}

func TestSupervisorRunLinksCallerContext(t *testing.T) {
	runner := newGateRunner()
	sup := NewSupervisor(runner, nil, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := sup.Run(ctx, uuid.New())
		done <- err
	}()
	waitStarted(t, runner)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) {
			t.Fatalf("Run() error = %v, want ErrInterrupted", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after caller cancellation")
	}
}

func TestSupervisorShutdownInterruptsRuns(t *testing.T) {
	runner := newGateRunner()
	sup := NewSupervisor(runner, nil, 0, nil)
	jobID := uuid.New()

	if err := sup.Start(context.Background(), jobID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitStarted(t, runner)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sup.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if sup.IsRunning(jobID) {
		t.Error("run still registered after shutdown")
	}
	if err := sup.Start(context.Background(), uuid.New()); !errors.Is(err, usecaseErrors.ErrShuttingDown) {
		t.Errorf("Start() after shutdown error = %v, want ErrShuttingDown", err)
	}
}

func TestSupervisorLeasesAcrossProcesses(t *testing.T) {
	leases := newFakeLeases()
	runnerA, runnerB := newGateRunner(), newGateRunner()
	supA := NewSupervisor(runnerA, leases, time.Minute, nil)
	supB := NewSupervisor(runnerB, leases, time.Minute, nil)
	jobID := uuid.New()

	if err := supA.Start(context.Background(), jobID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitStarted(t, runnerA)

	if err := supB.Start(context.Background(), jobID); !errors.Is(err, usecaseErrors.ErrAlreadyRunning) {
		t.Fatalf("second process Start() error = %v, want ErrAlreadyRunning", err)
	}
	if supB.IsRunning(jobID) {
		t.Error("rejected start left a registered run")
	}

	close(runnerA.release)
	if _, err := supA.Wait(context.Background(), jobID); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if leases.held(leaseKeyPrefix + jobID.String()) {
		t.Error("lease not released after run")
	}
	if err := supB.Start(context.Background(), jobID); err != nil {
		t.Fatalf("Start() after release error = %v", err)
	}
	waitStarted(t, runnerB)
	close(runnerB.release)
}

func TestSupervisorStopsRunWhenLeaseIsLost(t *testing.T) {
	leases := newFakeLeases()
	runner := newGateRunner()
	sup := NewSupervisor(runner, leases, 30*time.Millisecond, nil)
	jobID := uuid.New()

	if err := sup.Start(context.Background(), jobID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitStarted(t, runner)
	leases.lost.Store(true)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := sup.Wait(ctx, jobID)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("Wait() error = %v, want ErrInterrupted", err)
	}
}

type panicRunner struct{}

func (panicRunner) Run(context.Context, uuid.UUID, <-chan struct{}) (entities.JobStatus, error) {
	panic("boom")
}

func TestSupervisorRecoversRunnerPanic(t *testing.T) {
	sup := NewSupervisor(panicRunner{}, nil, 0, nil)

	_, err := sup.Run(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error from panicking runner")
	}
}

type staticLister []*entities.TranslationJob

func (l staticLister) ListInterrupted(context.Context) ([]*entities.TranslationJob, error) {
	return l, nil
}

func TestSupervisorResumeInterrupted(t *testing.T) {
	runner := newGateRunner()
	sup := NewSupervisor(runner, nil, 0, nil)

	job := func(status entities.JobStatus) *entities.TranslationJob {
		j := entities.NewTranslationJob(uuid.New(), "es")
		j.Status = status
		return j
	}
	jobs := staticLister{
		job(entities.JobStatusTranscribing),
		job(entities.JobStatusDubbing),
		job(entities.JobStatusPending),
		job(entities.JobStatusFailed),
		job(entities.JobStatusCompleted),
	}

	started, err := sup.ResumeInterrupted(context.Background(), jobs)
	if err != nil {
		t.Fatalf("ResumeInterrupted() error = %v", err)
	}
	if started != 2 {
		t.Fatalf("started = %d, want 2", started)
	}
	for i := 0; i < 2; i++ {
		waitStarted(t, runner)
	}
	if sup.IsRunning(jobs[2].ID) || sup.IsRunning(jobs[3].ID) {
		t.Error("pending or failed job started implicitly")
	}
	close(runner.release)
}

func TestSupervisorWithOrchestrator(t *testing.T) {
	stages := happyStages()
	f := newFixture(t, stages, testPolicy())
	sup := NewSupervisor(f.orch, newFakeLeases(), time.Minute, nil)

	status, err := sup.Run(context.Background(), f.job.ID)
	if err != nil || status != entities.JobStatusCompleted {
		t.Fatalf("Run() = %s, %v, want completed", status, err)
	}
	if got := f.store.job(f.job.ID).ProgressPercentage; got != 100 {
		t.Errorf("progress = %d, want 100", got)
	}
}
