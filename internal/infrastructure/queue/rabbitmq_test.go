package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	usecaseErrors "github.com/johnquangdev/dubbing-service/internal/usecase/errors"
)

type stubStarter struct {
	err error
	got []uuid.UUID
}

func (s *stubStarter) Start(_ context.Context, jobID uuid.UUID) error {
	s.got = append(s.got, jobID)
	return s.err
}

func TestHandleStart(t *testing.T) {
	jobID := uuid.New()
	valid := []byte(`{"job_id":"` + jobID.String() + `"}`)
	boom := errors.New("boom")

	tests := []struct {
		name        string
		body        []byte
		startErr    error
		wantErr     bool
		wantRequeue bool
		wantStarted bool
	}{
		{name: "started", body: valid, wantStarted: true},
		{name: "already running is handled", body: valid, startErr: usecaseErrors.ErrAlreadyRunning, wantStarted: true},
		{name: "shutting down requeues", body: valid, startErr: usecaseErrors.ErrShuttingDown, wantErr: true, wantRequeue: true, wantStarted: true},
		{name: "start failure drops", body: valid, startErr: boom, wantErr: true, wantStarted: true},
		{name: "malformed json", body: []byte(`{`), wantErr: true},
		{name: "bad job id", body: []byte(`{"job_id":"nope"}`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starter := &stubStarter{err: tt.startErr}
			requeue, err := HandleStart(context.Background(), tt.body, starter)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleStart() error = %v, wantErr %v", err, tt.wantErr)
			}
			if requeue != tt.wantRequeue {
				t.Errorf("requeue = %v, want %v", requeue, tt.wantRequeue)
			}
			if started := len(starter.got) == 1; started != tt.wantStarted {
				t.Fatalf("started = %v, want %v", started, tt.wantStarted)
			}
			if tt.wantStarted && starter.got[0] != jobID {
				t.Errorf("started job %s, want %s", starter.got[0], jobID)
			}
		})
	}
}

func TestHandleStartRejectsBadIDAsInvalidInput(t *testing.T) {
	_, err := HandleStart(context.Background(), []byte(`{"job_id":""}`), &stubStarter{})
	if !errors.Is(err, usecaseErrors.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}
