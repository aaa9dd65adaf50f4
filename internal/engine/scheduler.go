package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/rulesync/internal/store"
)

const (
	auditJobName = "audit"
	staleRunAge  = 2 * time.Hour
)

// Scheduler runs the drift audit periodically. Each run holds a scheduler
// lock so that only one replica audits at a time.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	store  store.Store
	log    *slog.Logger
	holder string

	auditInterval time.Duration
	auditEntryID  cron.EntryID
}

// NewScheduler creates a new Scheduler that audits on auditInterval.
func NewScheduler(
	eng *Engine,
	s store.Store,
	auditInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	sched := &Scheduler{
		cron:          c,
		engine:        eng,
		store:         s,
		log:           log,
		holder:        host + "-" + uuid.NewString(),
		auditInterval: auditInterval,
	}

	id, err := c.AddFunc("@every "+auditInterval.String(), sched.runAudit)
	if err != nil {
		return nil, fmt.Errorf("scheduling audit: %w", err)
	}
	sched.auditEntryID = id

	return sched, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started", "audit_interval", s.auditInterval)
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextAudit returns when the audit runs next. It is zero before Start.
func (s *Scheduler) NextAudit() time.Time {
	return s.cron.Entry(s.auditEntryID).Next
}

// RecoverStaleAuditRuns marks audit runs left running by a crashed process.
func (s *Scheduler) RecoverStaleAuditRuns(ctx context.Context) {
	n, err := s.store.RecoverStaleAuditRuns(ctx, staleRunAge)
	if err != nil {
		s.log.Error("recovering stale audit runs", "error", err)
		return
	}
	if n > 0 {
		s.log.Warn("marked stale audit runs as crashed", "count", n)
	}
}

func (s *Scheduler) runAudit() {
	ctx := context.Background()
	s.log.Info("scheduled audit starting")
	err := s.runJob(ctx, auditJobName, s.auditInterval, func(ctx context.Context) error {
		_, err := s.engine.RunAudit(ctx)
		return err
	})
	if err != nil {
		s.log.Error("scheduled audit failed", "error", err)
	}
}

// runJob runs fn while holding the named scheduler lock. It returns nil
// without running fn when another holder has the lock.
func (s *Scheduler) runJob(ctx context.Context, name string, ttl time.Duration, fn func(context.Context) error) error {
	ok, err := s.store.AcquireSchedulerLock(ctx, name, s.holder, ttl)
	if err != nil {
		return fmt.Errorf("acquiring %s lock: %w", name, err)
	}
	if !ok {
		s.log.Info("job locked by another holder, skipping", "job", name)
		return nil
	}
	defer func() {
		if err := s.store.ReleaseSchedulerLock(context.WithoutCancel(ctx), name, s.holder); err != nil {
			s.log.Error("releasing scheduler lock", "job", name, "error", err)
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()
	return fn(jobCtx)
}
