package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"campaigndash/internal/config"
	"campaigndash/internal/queue"
)

// Scheduler enqueues the periodic worker tasks.
type Scheduler struct {
	cron  *cron.Cron
	queue queue.Enqueuer
	cfg   config.JobsConfig
	log   zerolog.Logger
}

func NewScheduler(q queue.Enqueuer, cfg config.JobsConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		queue: q,
		cfg:   cfg,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if s.cfg.CleanupSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.CleanupSpec, s.enqueueFunc(queue.TaskCleanup)); err != nil {
			return err
		}
	}
	if s.cfg.SnapshotSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.SnapshotSpec, s.enqueueFunc(queue.TaskSnapshot)); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop waits up to five seconds for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueFunc(taskType queue.TaskType) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.queue.Enqueue(ctx, queue.Task{Type: taskType}); err != nil {
			s.log.Error().Err(err).Str("task", string(taskType)).Msg("enqueue scheduled task failed")
			return
		}
		s.log.Debug().Str("task", string(taskType)).Msg("scheduled task enqueued")
	}
}
