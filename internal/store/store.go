// Package store defines the datastore abstraction for rulesync's wait
// history and audit bookkeeping. Business logic depends on the Store
// interface, never on concrete implementations.
package store

import (
	"context"
	"time"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// WaitQuery defines optional filters for wait history queries.
type WaitQuery struct {
	Kind      *domain.WaitKind
	Outcome   *domain.WaitOutcome
	Source    *string
	Namespace *string
	Group     *string
	Since     *time.Time
	Limit     int // default 50
	Offset    int
}

// Store defines all data access operations for rulesync.
type Store interface {
	// Wait history
	RecordWait(ctx context.Context, w *domain.WaitRecord) error
	GetWait(ctx context.Context, id string) (*domain.WaitRecord, error)
	ListWaits(ctx context.Context, q *WaitQuery) ([]domain.WaitRecord, int, error)

	// Audit runs
	InsertAuditRun(ctx context.Context) (id string, err error)
	CompleteAuditRun(ctx context.Context, run *domain.AuditRun) error
	ListAuditRuns(ctx context.Context, limit int) ([]domain.AuditRun, error)
	RecoverStaleAuditRuns(ctx context.Context, olderThan time.Duration) (int, error)

	// Scheduler
	AcquireSchedulerLock(ctx context.Context, jobName string, holder string, ttl time.Duration) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
