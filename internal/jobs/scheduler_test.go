package jobs

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/queue"
)

type fakeQueue struct {
	jobs []queue.Job
}

func (f *fakeQueue) Enqueue(_ context.Context, job queue.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func TestSchedulerRegistersCleanup(t *testing.T) {
	q := &fakeQueue{}
	s := NewScheduler(q, zerolog.New(io.Discard))

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if s.Entries() != 1 {
		t.Errorf("entries = %d, want 1", s.Entries())
	}

	s.enqueueSessionCleanup()
	if len(q.jobs) != 1 || q.jobs[0].Type != queue.TaskSessionCleanup {
		t.Errorf("jobs = %+v", q.jobs)
	}
}

func TestSchedulerWithoutQueueIsIdle(t *testing.T) {
	s := NewScheduler(nil, zerolog.New(io.Discard))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Entries() != 0 {
		t.Errorf("entries = %d, want 0", s.Entries())
	}
}
