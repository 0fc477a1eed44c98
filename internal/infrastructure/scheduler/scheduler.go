// Package scheduler runs the payout jobs on cron schedules and on demand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/estatevest/backend/internal/infrastructure/logger"
	"github.com/estatevest/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run of a job
type JobStatus string

const (
	JobStatusIdle    JobStatus = "IDLE"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Runner is a batch job such as payout.SettlementService
type Runner interface {
	Name() string
	Run(ctx context.Context) (*payout.BatchResult, error)
}

// Job binds a runner to a cron spec. An empty Spec registers the job for
// manual triggers only.
type Job struct {
	Spec   string
	Runner Runner
}

// Config holds scheduler configuration
type Config struct {
	Location   *time.Location
	JobTimeout time.Duration
}

// RunRecord describes one finished run
type RunRecord struct {
	RunID      string              `json:"run_id"`
	Trigger    string              `json:"trigger"`
	Status     JobStatus           `json:"status"`
	Error      string              `json:"error,omitempty"`
	Result     *payout.BatchResult `json:"result,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// JobInfo is a snapshot of a registered job
type JobInfo struct {
	Name    string     `json:"name"`
	Spec    string     `json:"spec,omitempty"`
	Running bool       `json:"running"`
	NextRun *time.Time `json:"next_run,omitempty"`
	LastRun *RunRecord `json:"last_run,omitempty"`
}

type entry struct {
	job     Job
	id      cron.EntryID
	running atomic.Bool

	mu      sync.Mutex
	lastRun *RunRecord
}

// Scheduler owns a cron instance and the root context of every job run
type Scheduler struct {
	config Config
	cron   *cron.Cron
	logger *zap.Logger

	mu      sync.RWMutex
	jobs    map[string]*entry
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a scheduler. Jobs must be registered before Start.
func New(config Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	logger = logger.With(zap.String("component", "scheduler"))
	cl := cronLogger{logger: logger}

	return &Scheduler{
		config: config,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		jobs:   make(map[string]*entry),
	}
}

// Register adds a job. Specs use the standard five field cron syntax.
func (s *Scheduler) Register(job Job) error {
	if job.Runner == nil {
		return fmt.Errorf("%w: job runner is nil", ErrInvalidConfig)
	}
	name := job.Runner.Name()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	e := &entry{job: job}
	if job.Spec != "" {
		id, err := s.cron.AddFunc(job.Spec, func() {
			_, _ = s.execute(e, telemetry.TriggerSchedule)
		})
		if err != nil {
			return fmt.Errorf("%w: job %s has invalid schedule %q: %v", ErrInvalidConfig, name, job.Spec, err)
		}
		e.id = id
	}
	s.jobs[name] = e

	s.logger.Info("Job registered",
		zap.String("job", name),
		zap.String("schedule", job.Spec),
	)
	return nil
}

// Start begins firing scheduled jobs. Runs are children of ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.cron.Start()

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.String("timezone", s.config.Location.String()),
	)
	return nil
}

// Stop cancels in-flight runs and waits for them until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out with jobs still running")
		return ctx.Err()
	}
}

// Trigger runs a job now and returns its result. It fails with
// ErrJobAlreadyRunning instead of overlapping a scheduled run.
func (s *Scheduler) Trigger(name string) (*payout.BatchResult, error) {
	s.mu.RLock()
	e, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(e, telemetry.TriggerManual)
}

// Jobs returns a snapshot of every registered job sorted by name
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, e := range s.jobs {
		info := JobInfo{Name: name, Spec: e.job.Spec, Running: e.running.Load()}
		if e.id != 0 && s.running {
			next := s.cron.Entry(e.id).Next
			if !next.IsZero() {
				info.NextRun = &next
			}
		}
		e.mu.Lock()
		if e.lastRun != nil {
			last := *e.lastRun
			info.LastRun = &last
		}
		e.mu.Unlock()
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// IsRunning reports whether Start has been called without a matching Stop
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) execute(e *entry, trigger string) (*payout.BatchResult, error) {
	name := e.job.Runner.Name()

	s.mu.RLock()
	if !s.running {
		s.mu.RUnlock()
		return nil, ErrSchedulerNotRunning
	}
	root := s.ctx
	s.wg.Add(1)
	s.mu.RUnlock()
	defer s.wg.Done()

	if !e.running.CompareAndSwap(false, true) {
		s.logger.Warn("Skipping job run, previous run still in progress",
			zap.String("job", name),
			zap.String("trigger", trigger),
		)
		return nil, fmt.Errorf("%w: %s", ErrJobAlreadyRunning, name)
	}
	defer e.running.Store(false)

	ctx := root
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(root, s.config.JobTimeout)
		defer cancel()
	}

	record := &RunRecord{RunID: uuid.NewString(), Trigger: trigger, StartedAt: time.Now()}
	ctx, runLogger := logger.WithJobRun(ctx, s.logger, name, record.RunID)
	var (
		result *payout.BatchResult
		err    error
	)
	telemetry.WithJobLabels(ctx, name, trigger, func(ctx context.Context) {
		result, err = s.runWithSpan(ctx, e.job.Runner, trigger)
	})
	record.FinishedAt = time.Now()
	record.Result = result

	fields := []zap.Field{
		zap.String("trigger", trigger),
		zap.Duration("duration", record.FinishedAt.Sub(record.StartedAt)),
	}
	if err != nil {
		record.Status = JobStatusFailed
		record.Error = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			fields = append(fields, zap.Duration("timeout", s.config.JobTimeout))
		}
		runLogger.Error("Job run failed", append(fields, zap.Error(err))...)
	} else {
		record.Status = JobStatusSuccess
		if result != nil {
			fields = append(fields,
				zap.Int("candidates", result.Candidates),
				zap.Int("succeeded", result.Succeeded),
				zap.Int("failed", result.Failed),
				zap.Int("skipped", result.Skipped),
				zap.Int("unprocessed", result.Unprocessed),
			)
		}
		runLogger.Info("Job run completed", fields...)
	}

	e.mu.Lock()
	e.lastRun = record
	e.mu.Unlock()
	return result, err
}

func (s *Scheduler) runWithSpan(ctx context.Context, r Runner, trigger string) (*payout.BatchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "job."+r.Name(),
		telemetry.WithSpanKind(trace.SpanKindInternal),
		telemetry.WithAttribute("job.name", r.Name()),
		telemetry.WithAttribute("job.trigger", trigger),
	)
	defer span.End()

	result, err := r.Run(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return result, err
	}
	if result != nil {
		telemetry.SetAttributes(span,
			"job.candidates", result.Candidates,
			"job.succeeded", result.Succeeded,
			"job.failed", result.Failed,
		)
	}
	telemetry.SetOK(span)
	return result, nil
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
