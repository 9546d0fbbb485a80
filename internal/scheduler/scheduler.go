package scheduler

import (
	"context"
	"fmt"
	"time"

	"anoa.com/datingapp/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Job is a unit of background work run on a cron schedule.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
}

// New returns a scheduler whose job runs are cancelled after timeout.
func New(timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(),
		timeout: timeout,
	}
}

// Register schedules job. Jobs without a schedule can only be run by name.
func (s *Scheduler) Register(job Job) error {
	s.jobs = append(s.jobs, job)

	schedule := job.Schedule()
	if schedule == "" {
		logger.Info("job registered on demand", "job", job.Name())
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.execute(job) }); err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	logger.Info("job scheduled", "job", job.Name(), "schedule", schedule)
	return nil
}

func (s *Scheduler) execute(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		logger.Error("job failed", "job", job.Name(), "error", err)
		return
	}
	logger.Info("job completed", "job", job.Name(), "took", time.Since(started).String())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunByName runs a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("job %q is not registered", name)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}
