// Package jobs runs the periodic maintenance work: activating review cycles
// whose dates have arrived, flagging overdue initiatives and purging aged
// data. Every run is recorded in job_runs.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pms/internal/platform/config"
)

const (
	JobCycleActivation   = "review_cycle_activation"
	JobInitiativeOverdue = "initiative_overdue"
	JobDataRetention     = "data_retention"

	queueSize = 128
)

var (
	Types = []string{JobCycleActivation, JobInitiativeOverdue, JobDataRetention}

	ErrUnknownJob = errors.New("unknown job type")
	ErrQueueFull  = errors.New("job queue full")
)

type CycleActivator interface {
	ActivateScheduledCycles(ctx context.Context, today time.Time) (activated, completed int, err error)
}

type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

// RunLog persists the start and outcome of each job run.
type RunLog interface {
	Start(ctx context.Context, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, details []byte) error
}

type Service struct {
	Cfg     config.Config
	Runs    RunLog
	Cycles  CycleActivator
	Overdue OverdueMarker
	Retain  Retainer
	queue   chan job
	now     func() time.Time

	mu       sync.Mutex
	lastRuns map[string]time.Time
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, cycles CycleActivator, overdue OverdueMarker) *Service {
	var runs RunLog
	var retain Retainer
	if db != nil {
		runs = &pgRunLog{DB: db}
		retain = &pgRetention{DB: db}
	}
	return &Service{
		Cfg:      cfg,
		Runs:     runs,
		Retain:   retain,
		Cycles:   cycles,
		Overdue:  overdue,
		queue:    make(chan job, queueSize),
		now:      time.Now,
		lastRuns: map[string]time.Time{},
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.CycleActivationInterval > 0 && s.Cycles != nil {
		go s.schedule(ctx, s.Cfg.CycleActivationInterval, JobCycleActivation, s.activateCycles)
	}
	if s.Cfg.OverdueCheckInterval > 0 && s.Overdue != nil {
		go s.schedule(ctx, s.Cfg.OverdueCheckInterval, JobInitiativeOverdue, s.markOverdue)
	}
	if s.Cfg.RetentionInterval > 0 && s.Retain != nil {
		go s.schedule(ctx, s.Cfg.RetentionInterval, JobDataRetention, s.purge)
	}
}

// Enqueue never blocks; a full queue drops the job with a warning.
func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

// Trigger queues one run of a known job type for the background worker.
func (s *Service) Trigger(jobType string) error {
	var run func(context.Context) (any, error)
	switch {
	case jobType == JobCycleActivation && s.Cycles != nil:
		run = s.activateCycles
	case jobType == JobInitiativeOverdue && s.Overdue != nil:
		run = s.markOverdue
	case jobType == JobDataRetention && s.Retain != nil:
		run = s.purge
	default:
		return ErrUnknownJob
	}
	if !s.Enqueue(jobType, run) {
		return ErrQueueFull
	}
	return nil
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// ActivateCycles runs the cycle activation job once, synchronously.
func (s *Service) ActivateCycles(ctx context.Context) (any, error) {
	return s.RunNow(ctx, JobCycleActivation, s.activateCycles)
}

// MarkOverdue runs the overdue initiative job once, synchronously.
func (s *Service) MarkOverdue(ctx context.Context) (any, error) {
	return s.RunNow(ctx, JobInitiativeOverdue, s.markOverdue)
}

// PurgeData runs the retention job once, synchronously.
func (s *Service) PurgeData(ctx context.Context) (any, error) {
	return s.RunNow(ctx, JobDataRetention, s.purge)
}

// LastRuns reports when each job type last finished in this process.
func (s *Service) LastRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.lastRuns)
}

func (s *Service) activateCycles(ctx context.Context) (any, error) {
	activated, completed, err := s.Cycles.ActivateScheduledCycles(ctx, s.now())
	return map[string]any{"activated": activated, "completed": completed}, err
}

func (s *Service) markOverdue(ctx context.Context) (any, error) {
	marked, err := s.Overdue.MarkOverdue(ctx, s.now())
	return map[string]any{"marked": marked}, err
}

func (s *Service) purge(ctx context.Context) (any, error) {
	return s.Retain.Purge(ctx, CutoffsAt(s.now(), s.Cfg.NotificationRetention, s.Cfg.JobRunRetention, s.Cfg.AuditRetention))
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.Runs != nil {
		id, err := s.Runs.Start(ctx, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		}
		runID = id
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"error": err.Error(), "details": details}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.Runs.Finish(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "jobType", j.Type, "err", updErr)
		}
	}

	s.mu.Lock()
	s.lastRuns[j.Type] = s.now()
	s.mu.Unlock()

	slog.Info("job finished", "jobType", j.Type, "status", status)
	return details, err
}

func (s *Service) schedule(ctx context.Context, interval time.Duration, jobType string, run func(context.Context) (any, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(jobType, run)
		}
	}
}

type pgRunLog struct {
	DB *pgxpool.Pool
}

func (l *pgRunLog) Start(ctx context.Context, jobType string) (string, error) {
	var runID string
	err := l.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1, $2)
    RETURNING id
  `, jobType, "running").Scan(&runID)
	return runID, err
}

func (l *pgRunLog) Finish(ctx context.Context, runID, status string, details []byte) error {
	_, err := l.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	return err
}
