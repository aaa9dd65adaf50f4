package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
// Its methods are exercised by the integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*pgxpool.Config)

// WithPoolSize overrides the maximum number of pooled connections.
func WithPoolSize(n int32) PostgresOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string, opts ...PostgresOption) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// RecordWait inserts a finished wait and sets its ID.
func (s *PostgresStore) RecordWait(ctx context.Context, w *domain.WaitRecord) error {
	args := pgx.NamedArgs{
		"kind":        string(w.Kind),
		"source":      w.Group.Source,
		"namespace":   w.Group.Namespace,
		"group_name":  w.Group.Group,
		"rule_name":   w.RuleName,
		"outcome":     string(w.Outcome),
		"reason":      w.Reason,
		"ticks":       w.Ticks,
		"elapsed_ms":  w.Elapsed.Milliseconds(),
		"started_at":  w.StartedAt,
		"finished_at": w.FinishedAt,
	}
	if err := s.pool.QueryRow(ctx, queryInsertWait, args).Scan(&w.ID); err != nil {
		return fmt.Errorf("inserting wait record: %w", err)
	}
	return nil
}

// GetWait returns a single wait record by ID.
func (s *PostgresStore) GetWait(ctx context.Context, id string) (*domain.WaitRecord, error) {
	var w domain.WaitRecord
	err := scanWait(s.pool.QueryRow(ctx, queryGetWait, id), &w)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("wait %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting wait: %w", err)
	}
	return &w, nil
}

// ListWaits returns one page of wait history, newest first, and the total
// number of matching records.
func (s *PostgresStore) ListWaits(ctx context.Context, q *WaitQuery) ([]domain.WaitRecord, int, error) {
	if q == nil {
		q = &WaitQuery{}
	}
	dataSQL, countSQL, args := q.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting waits: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying waits: %w", err)
	}
	defer rows.Close()

	var waits []domain.WaitRecord
	for rows.Next() {
		var w domain.WaitRecord
		if err := scanWait(rows, &w); err != nil {
			return nil, 0, fmt.Errorf("scanning wait: %w", err)
		}
		waits = append(waits, w)
	}
	return waits, total, rows.Err()
}

// InsertAuditRun records the start of an audit and returns its UUID.
func (s *PostgresStore) InsertAuditRun(ctx context.Context) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, queryInsertAuditRun).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting audit run: %w", err)
	}
	return id, nil
}

// CompleteAuditRun stores the final status and counts of run.
func (s *PostgresStore) CompleteAuditRun(ctx context.Context, run *domain.AuditRun) error {
	_, err := s.pool.Exec(ctx, queryCompleteAuditRun,
		run.ID, string(run.Status), run.ErrorText, run.GroupsChecked, run.GroupsDrifted,
	)
	if err != nil {
		return fmt.Errorf("completing audit run: %w", err)
	}
	return nil
}

// ListAuditRuns returns the most recent audit runs, newest first.
func (s *PostgresStore) ListAuditRuns(ctx context.Context, limit int) ([]domain.AuditRun, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.pool.Query(ctx, queryListAuditRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.AuditRun
	for rows.Next() {
		var r domain.AuditRun
		var status string
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.CompletedAt, &status,
			&r.ErrorText, &r.GroupsChecked, &r.GroupsDrifted,
		); err != nil {
			return nil, fmt.Errorf("scanning audit run: %w", err)
		}
		r.Status = domain.AuditStatus(status)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecoverStaleAuditRuns marks running audits older than olderThan as
// crashed, then deletes runs older than 30 days. It returns the number of
// runs marked crashed.
func (s *PostgresStore) RecoverStaleAuditRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := s.pool.Exec(ctx, queryMarkStaleAuditRunsCrashed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("marking stale audit runs crashed: %w", err)
	}
	affected := int(tag.RowsAffected())

	if _, err := s.pool.Exec(ctx, queryDeleteOldAuditRuns); err != nil {
		return affected, fmt.Errorf("deleting old audit runs: %w", err)
	}

	return affected, nil
}

// AcquireSchedulerLock attempts to acquire a distributed lock for the given job.
// Returns true if the lock was acquired, false if another holder already owns it.
func (s *PostgresStore) AcquireSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
	ttl time.Duration,
) (bool, error) {
	expiresAt := time.Now().Add(ttl)

	var gotName string
	err := s.pool.QueryRow(ctx, queryAcquireSchedulerLock, jobName, holder, expiresAt).Scan(&gotName)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquiring scheduler lock: %w", err)
	}

	return true, nil
}

// ReleaseSchedulerLock deletes the lock row for the given job and holder.
func (s *PostgresStore) ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error {
	_, err := s.pool.Exec(ctx, queryReleaseSchedulerLock, jobName, holder)
	if err != nil {
		return fmt.Errorf("releasing scheduler lock: %w", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanWait(row scannable, w *domain.WaitRecord) error {
	var kind, outcome string
	var elapsedMS int64
	if err := row.Scan(
		&w.ID, &kind, &w.Group.Source, &w.Group.Namespace, &w.Group.Group, &w.RuleName,
		&outcome, &w.Reason, &w.Ticks, &elapsedMS, &w.StartedAt, &w.FinishedAt,
	); err != nil {
		return err
	}
	w.Kind = domain.WaitKind(kind)
	w.Outcome = domain.WaitOutcome(outcome)
	w.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return nil
}
