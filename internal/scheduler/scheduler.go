package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/progress"
	"github.com/powerbrief-dev/powerbrief/internal/services"
)

const (
	JobScorecardSync  = "scorecard_sync"
	JobExecutionSweep = "execution_sweep"
	JobProgressSweep  = "progress_sweep"

	sweepInterval = time.Minute
)

// JobFunc is one run of a periodic job.
type JobFunc func(ctx context.Context)

type Job struct {
	name     string
	interval time.Duration
	run      JobFunc
	ticker   *time.Ticker
	cancel   context.CancelFunc
	lastRun  time.Time
}

type Scheduler struct {
	jobs   map[string]*Job // job name -> job
	mu     sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    logger.Logger
}

// Options selects the background work Start registers. Nil parts are skipped.
type Options struct {
	Scorecard        *services.ScorecardSyncer
	ScorecardEvery   time.Duration
	Automation       *services.AutomationRunner
	ExecutionTimeout time.Duration
	Progress         *progress.Tracker
}

// NewScheduler initializes a new Scheduler instance
func NewScheduler(log logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*Job),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Start registers the jobs opts enables.
func (s *Scheduler) Start(opts Options) {
	s.log.Info("Starting scheduler")

	if opts.Scorecard != nil && opts.Scorecard.Meta != nil && opts.ScorecardEvery > 0 {
		syncer := opts.Scorecard
		s.AddJob(JobScorecardSync, opts.ScorecardEvery, false, func(ctx context.Context) {
			for _, period := range []string{services.PeriodLast7Days, services.PeriodLast30Days} {
				syncer.SyncAll(ctx, period)
			}
		})
	}

	if opts.Automation != nil && opts.ExecutionTimeout > 0 {
		runner := opts.Automation
		timeout := opts.ExecutionTimeout
		s.AddJob(JobExecutionSweep, sweepInterval, true, func(ctx context.Context) {
			swept, err := runner.SweepTimedOut(time.Now(), timeout)
			if err != nil {
				s.log.Error("Failed to sweep workflow executions", "error", err)
				return
			}
			if swept > 0 {
				s.log.Info("Timed out workflow executions", "count", swept)
			}
		})
	}

	if opts.Progress != nil {
		tracker := opts.Progress
		s.AddJob(JobProgressSweep, sweepInterval, false, func(ctx context.Context) {
			if removed := tracker.Sweep(); removed > 0 {
				s.log.Debug("Dropped expired upload progress", "count", removed)
			}
		})
	}

	s.log.Info("Scheduler started", "jobs", s.JobCount())
}

// Stop cancels every job and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping scheduler")
	s.cancel()

	s.mu.Lock()
	for _, job := range s.jobs {
		job.cancel()
	}
	s.jobs = make(map[string]*Job)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("Scheduler stopped")
}

// AddJob runs fn every interval, replacing a job of the same name. With
// immediate set the first run happens right away.
func (s *Scheduler) AddJob(name string, interval time.Duration, immediate bool, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobs[name]; ok {
		existing.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	job := &Job{
		name:     name,
		interval: interval,
		run:      fn,
		ticker:   time.NewTicker(interval),
		cancel:   jobCancel,
	}
	s.jobs[name] = job

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if immediate {
			s.execute(jobCtx, job)
		}
		s.runJob(jobCtx, job)
	}()

	s.log.Debug("Added job", "job", name, "interval", interval.String())
}

// RemoveJob stops the named job.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[name]; ok {
		job.cancel()
		delete(s.jobs, name)
		s.log.Debug("Removed job", "job", name)
	}
}

func (s *Scheduler) runJob(ctx context.Context, job *Job) {
	defer job.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-job.ticker.C:
			s.execute(ctx, job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job *Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Job panicked", "job", job.name, "panic", r)
		}
	}()

	start := time.Now()
	job.run(ctx)

	s.mu.Lock()
	job.lastRun = start
	s.mu.Unlock()

	s.log.Debug("Job finished", "job", job.name, "duration", time.Since(start).String())
}

func (s *Scheduler) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// GetStatus returns current scheduler status
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make(map[string]interface{}, len(s.jobs))
	for name, job := range s.jobs {
		entry := map[string]interface{}{"interval": job.interval.String()}
		if !job.lastRun.IsZero() {
			entry["last_run"] = job.lastRun.UTC().Format(time.RFC3339)
		}
		jobs[name] = entry
	}

	return map[string]interface{}{
		"jobs":    jobs,
		"running": s.ctx.Err() == nil,
	}
}
