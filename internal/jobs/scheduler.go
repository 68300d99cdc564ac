package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/queue"
)

// SessionCleanupSpec runs at the top of every hour.
const SessionCleanupSpec = "0 0 * * * *"

type Enqueuer interface {
	Enqueue(ctx context.Context, job queue.Job) error
}

type Scheduler struct {
	cron  *cron.Cron
	queue Enqueuer
	log   zerolog.Logger
}

func NewScheduler(queue Enqueuer, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:  c,
		queue: queue,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(SessionCleanupSpec, s.enqueueSessionCleanup); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		<-s.cron.Stop().Done()
		cancel()
	}()
	<-ctx.Done()
	return cancel
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) enqueueSessionCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.queue.Enqueue(ctx, queue.Job{Type: queue.TaskSessionCleanup}); err != nil {
		s.log.Error().Err(err).Msg("enqueue session cleanup failed")
	}
}
