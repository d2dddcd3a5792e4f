package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/florianilch/postbot/internal/auth"
)

// Job is a task run at a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Locker claims a job run across instances. A claim expires after ttl.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// Scheduler runs jobs on tickers until its context ends.
type Scheduler struct {
	jobs   []Job
	locker Locker
}

// NewScheduler creates a Scheduler. Jobs without a positive interval are disabled.
// locker may be nil for single-instance deployments.
func NewScheduler(locker Locker, jobs ...Job) *Scheduler {
	s := &Scheduler{locker: locker}
	for _, job := range jobs {
		if job.Interval > 0 && job.Run != nil {
			s.jobs = append(s.jobs, job)
		}
	}
	return s
}

// Len reports the number of enabled jobs.
func (s *Scheduler) Len() int {
	return len(s.jobs)
}

// Run blocks until ctx is done. Job failures are logged and never stop the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, job)
		}()
	}
	wg.Wait()
	return nil
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	slog.InfoContext(ctx, "job scheduled", "job", job.Name, "interval", job.Interval)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	if s.locker != nil {
		// The claim outlives the run so other instances skip this tick
		acquired, err := s.locker.Acquire(ctx, job.Name, job.Interval*9/10)
		if err != nil {
			slog.WarnContext(ctx, "failed to claim job", "job", job.Name, "error", err)
			return
		}
		if !acquired {
			slog.DebugContext(ctx, "job claimed by another instance", "job", job.Name)
			return
		}
	}

	err := job.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrNotAuthenticated):
		slog.InfoContext(ctx, "skipping job until logged in", "job", job.Name)
	case ctx.Err() != nil:
	default:
		slog.ErrorContext(ctx, "job failed", "job", job.Name, "error", err)
	}
}
