// Package scheduler runs the periodic background jobs of the CRM.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is the body of a scheduled job
type JobFunc func(ctx context.Context) error

// Config holds scheduler configuration
type Config struct {
	JobTimeout time.Duration
	Location   *time.Location
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		JobTimeout: 10 * time.Minute,
		Location:   time.UTC,
	}
}

type job struct {
	name    string
	spec    string
	fn      JobFunc
	entryID cron.EntryID
	running sync.Mutex
	lastRun time.Time
	lastErr error
}

// JobInfo describes a registered job
type JobInfo struct {
	Name    string
	Spec    string
	Next    time.Time
	LastRun time.Time
	LastErr string
}

// Scheduler wraps a cron runner with per-job timeouts, overlap protection and metrics
type Scheduler struct {
	config  Config
	cron    *cron.Cron
	metrics *telemetry.Metrics
	logger  *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	jobs      map[string]*job
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, metrics *telemetry.Metrics, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	cl := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		config: config,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		metrics: metrics,
		logger:  logger,
		jobs:    make(map[string]*job),
	}
}

// Register adds a job. spec is a standard five-field cron expression or a descriptor such as "@every 15m".
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	j := &job{name: name, spec: spec, fn: fn}
	id, err := s.cron.AddFunc(spec, func() { s.run(j, false) })
	if err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidSchedule, name, spec, err)
	}
	j.entryID = id
	s.jobs[name] = j
	return nil
}

// Start starts the cron runner
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.cron.Start()

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop stops scheduling new runs and waits for running jobs to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow triggers a registered job immediately and waits for it
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	running := s.isRunning
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !running {
		return ErrSchedulerNotRunning
	}
	return s.run(j, true)
}

// Jobs lists registered jobs sorted by name
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := JobInfo{
			Name:    j.name,
			Spec:    j.spec,
			Next:    s.cron.Entry(j.entryID).Next,
			LastRun: j.lastRun,
		}
		if j.lastErr != nil {
			info.LastErr = j.lastErr.Error()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// run executes one job. Overlapping runs of the same job are skipped.
func (s *Scheduler) run(j *job, manual bool) error {
	if !j.running.TryLock() {
		s.logger.Warn("Skipping job, previous run still in progress", zap.String("job", j.name))
		return ErrJobAlreadyRunning
	}
	defer j.running.Unlock()

	s.mu.Lock()
	base := s.ctx
	s.mu.Unlock()
	if base == nil || base.Err() != nil {
		return ErrSchedulerNotRunning
	}

	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(base, s.config.JobTimeout)
	defer cancel()

	start := time.Now()
	err := s.safeCall(ctx, j)
	elapsed := time.Since(start)

	s.mu.Lock()
	j.lastRun = start
	j.lastErr = err
	s.mu.Unlock()
	s.metrics.JobRun(j.name, err)

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", j.name),
			zap.Bool("manual", manual),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("Job completed",
		zap.String("job", j.name),
		zap.Bool("manual", manual),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

func (s *Scheduler) safeCall(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(ctx)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
