package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// JobFunc is one run of a background job. It receives the scheduler context
// bounded by the job timeout.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	fn       JobFunc
	running  atomic.Bool
}

// Scheduler runs balance and payroll jobs on fixed intervals. A job whose
// previous run has not finished is skipped for that tick.
type Scheduler struct {
	jobs   []*job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	// Timeout bounds a single run. Zero means the run lasts until Stop.
	Timeout time.Duration
}

// NewScheduler creates a scheduler with a 10 minute per-run timeout.
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:     ctx,
		cancel:  cancel,
		Timeout: 10 * time.Minute,
	}
}

// AddJob registers a job. Jobs added after Start are not run.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, &job{name: name, interval: interval, timeout: s.Timeout, fn: fn})
	slog.Info("Cron job registered", "name", name, "interval", interval)
}

// Start runs every job once immediately and then on its interval.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(j)
	}
	slog.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop cancels in-flight runs and waits for every loop to exit.
func (s *Scheduler) Stop() {
	slog.Info("Stopping cron scheduler")
	s.cancel()
	s.wg.Wait()
	slog.Info("Cron scheduler stopped")
}

func (s *Scheduler) loop(j *job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	s.tick(s.ctx, j)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick(s.ctx, j)
		}
	}
}

// tick runs j unless a previous run is still going.
func (s *Scheduler) tick(ctx context.Context, j *job) {
	if !j.running.CompareAndSwap(false, true) {
		slog.Warn("Cron job still running, skipping tick", "name", j.name)
		return
	}
	defer j.running.Store(false)

	start := time.Now()
	if err := s.run(ctx, j); err != nil {
		slog.Error("Cron job failed", "name", j.name, "error", err, "duration", time.Since(start))
		return
	}
	slog.Debug("Cron job completed", "name", j.name, "duration", time.Since(start))
}

// run executes one attempt and turns a panic into an error so one bad
// company cannot take the loop down.
func (s *Scheduler) run(ctx context.Context, j *job) (err error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(ctx)
}

// RunOnce runs every job in registration order and returns the joined errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]*job(nil), s.jobs...)
	s.mu.Unlock()

	var errs []error
	for _, j := range jobs {
		if err := s.run(ctx, j); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", j.name, err))
		}
	}
	return errors.Join(errs...)
}
