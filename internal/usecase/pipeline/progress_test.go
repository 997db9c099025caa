package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
)

func TestStageProgress(t *testing.T) {
	tests := []struct {
		status   entities.JobStatus
		fraction float64
		want     int
	}{
		{entities.JobStatusLanguageDetection, 0, 0},
		{entities.JobStatusLanguageDetection, 0.5, 12},
		{entities.JobStatusLanguageDetection, 1, 24},
		{entities.JobStatusTranscribing, 0.5, 37},
		{entities.JobStatusTranslating, 0.2, 55},
		{entities.JobStatusTranslating, 2, 74},
		{entities.JobStatusDubbing, -1, 75},
		{entities.JobStatusDubbing, math.NaN(), 75},
		{entities.JobStatusDubbing, 0.99, 99},
		{entities.JobStatusCompleted, 0.5, 100},
		{entities.JobStatusFailed, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.status, tt.fraction), func(t *testing.T) {
			if got := StageProgress(tt.status, tt.fraction); got != tt.want {
				t.Errorf("StageProgress(%s, %v) = %d, want %d", tt.status, tt.fraction, got, tt.want)
			}
		})
	}
}

func TestProgressReporterDropsRegressions(t *testing.T) {
	f := newFixture(t, happyStages(), testPolicy())
	f.store.set(f.job.ID, func(job *entities.TranslationJob) {
		job.Status = entities.JobStatusTranslating
		job.ProgressPercentage = 50
	})
	job := f.store.job(f.job.ID)

	r := f.orch.newProgressReporter(context.Background(), &job)
	r.Report(0.4)
	r.Report(0.2)
	r.Report(0.4)
	r.Report(0.8)

	got := f.store.progressHistory(f.job.ID)
	want := []int{0, 60, 70}
	if len(got) != len(want) {
		t.Fatalf("progress writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress writes = %v, want %v", got, want)
		}
	}
	if n := len(f.events.all()); n != 2 {
		t.Errorf("events = %d, want 2", n)
	}
}

func TestProgressReporterIgnoresStatusChange(t *testing.T) {
	f := newFixture(t, happyStages(), testPolicy())
	f.store.force(f.job.ID, entities.JobStatusTranscribing)
	job := f.store.job(f.job.ID)
	r := f.orch.newProgressReporter(context.Background(), &job)

	// the job moved on, a late report must not write
	f.store.force(f.job.ID, entities.JobStatusFailed)
	r.Report(0.5)

	if got := f.store.job(f.job.ID).ProgressPercentage; got != 0 {
		t.Errorf("progress = %d, want 0", got)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"tagged transient", Transient(errors.New("boom")), true},
		{"tagged permanent", Permanent(errors.New("connection refused")), false},
		{"wrapped transient", fmt.Errorf("call: %w", Transient(errors.New("boom"))), true},
		{"untagged network", errors.New("read tcp: connection reset by peer"), true},
		{"untagged rate limit", errors.New("status 429: too many requests"), true},
		{"untagged other", errors.New("unsupported codec"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.transient)
			}
			if tt.err != nil && IsPermanent(tt.err) == tt.transient {
				t.Errorf("IsPermanent() = %v, want %v", !tt.transient, !tt.transient)
			}
		})
	}
}

func TestWithStageKeepsKind(t *testing.T) {
	se := withStage(entities.JobStatusDubbing, Transient(errors.New("busy")))
	if se.Stage != entities.JobStatusDubbing || se.Kind != KindTransient {
		t.Fatalf("withStage() = %+v", se)
	}
	if se.Error() != "dubbing: busy" {
		t.Errorf("Error() = %q", se.Error())
	}

	again := withStage(entities.JobStatusTranslating, se)
	if again.Stage != entities.JobStatusDubbing {
		t.Errorf("stage overwritten: %s", again.Stage)
	}
}

func TestRetryPolicyBackOff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, Multiplier: 2}.normalized()
	if p.RandomizationFactor != DefaultRetryPolicy().RandomizationFactor {
		t.Errorf("randomization = %v, want default", p.RandomizationFactor)
	}
	if p.MaxInterval < p.InitialInterval {
		t.Errorf("max interval %v below initial %v", p.MaxInterval, p.InitialInterval)
	}

	b := p.backOff(context.Background())
	waits := 0
	for b.NextBackOff() != backoff.Stop {
		waits++
	}
	// three attempts means two waits
	if waits != 2 {
		t.Errorf("waits = %d, want 2", waits)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if p.backOff(ctx).NextBackOff() != backoff.Stop {
		t.Error("cancelled context should stop the schedule")
	}

	if got := (RetryPolicy{}).normalized().MaxAttempts; got != 3 {
		t.Errorf("default attempts = %d, want 3", got)
	}
}
