package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// MemoryStore implements Store in process memory. It is used when no
// database is configured; history is lost on restart and capped at
// maxWaits records.
type MemoryStore struct {
	mu       sync.RWMutex
	waits    []domain.WaitRecord
	audits   []domain.AuditRun
	locks    map[string]memoryLock
	maxWaits int
	nowFunc  func() time.Time
}

type memoryLock struct {
	holder    string
	expiresAt time.Time
}

const defaultMaxWaits = 10000

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:    make(map[string]memoryLock),
		maxWaits: defaultMaxWaits,
		nowFunc:  time.Now,
	}
}

// RecordWait stores w, assigning an ID when it has none.
func (m *MemoryStore) RecordWait(_ context.Context, w *domain.WaitRecord) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits = append(m.waits, *w)
	if over := len(m.waits) - m.maxWaits; over > 0 {
		m.waits = slices.Delete(m.waits, 0, over)
	}
	return nil
}

// GetWait returns the wait with the given ID.
func (m *MemoryStore) GetWait(_ context.Context, id string) (*domain.WaitRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.waits {
		if m.waits[i].ID == id {
			w := m.waits[i]
			return &w, nil
		}
	}
	return nil, fmt.Errorf("wait %s: %w", id, domain.ErrNotFound)
}

// ListWaits returns one page of matching waits, newest first.
func (m *MemoryStore) ListWaits(_ context.Context, q *WaitQuery) ([]domain.WaitRecord, int, error) {
	if q == nil {
		q = &WaitQuery{}
	}

	m.mu.RLock()
	var matched []domain.WaitRecord
	for i := range m.waits {
		if q.Matches(&m.waits[i]) {
			matched = append(matched, m.waits[i])
		}
	}
	m.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b domain.WaitRecord) int {
		return b.FinishedAt.Compare(a.FinishedAt)
	})

	total := len(matched)
	start := min(q.offset(), total)
	end := min(start+q.limit(), total)
	return matched[start:end], total, nil
}

// InsertAuditRun records the start of an audit.
func (m *MemoryStore) InsertAuditRun(_ context.Context) (string, error) {
	run := domain.AuditRun{
		ID:        uuid.NewString(),
		StartedAt: m.nowFunc(),
		Status:    domain.AuditRunning,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, run)
	return run.ID, nil
}

// CompleteAuditRun stores the final status and counts of run.
func (m *MemoryStore) CompleteAuditRun(_ context.Context, run *domain.AuditRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.audits {
		if m.audits[i].ID != run.ID {
			continue
		}
		now := m.nowFunc()
		a := &m.audits[i]
		a.CompletedAt = &now
		a.Status = run.Status
		a.ErrorText = run.ErrorText
		a.GroupsChecked = run.GroupsChecked
		a.GroupsDrifted = run.GroupsDrifted
		return nil
	}
	return fmt.Errorf("audit run %s: %w", run.ID, domain.ErrNotFound)
}

// ListAuditRuns returns the most recent audit runs, newest first.
func (m *MemoryStore) ListAuditRuns(_ context.Context, limit int) ([]domain.AuditRun, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	m.mu.RLock()
	runs := slices.Clone(m.audits)
	m.mu.RUnlock()

	slices.SortStableFunc(runs, func(a, b domain.AuditRun) int {
		return cmp.Compare(b.StartedAt.UnixNano(), a.StartedAt.UnixNano())
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// RecoverStaleAuditRuns marks running audits older than olderThan as crashed.
func (m *MemoryStore) RecoverStaleAuditRuns(_ context.Context, olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	cutoff := now.Add(-olderThan)
	n := 0
	for i := range m.audits {
		a := &m.audits[i]
		if a.Status == domain.AuditRunning && a.StartedAt.Before(cutoff) {
			a.Status = domain.AuditCrashed
			a.CompletedAt = &now
			n++
		}
	}
	return n, nil
}

// AcquireSchedulerLock takes the named lock if it is free, expired, or
// already held by holder.
func (m *MemoryStore) AcquireSchedulerLock(_ context.Context, jobName, holder string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	if l, ok := m.locks[jobName]; ok && l.holder != holder && now.Before(l.expiresAt) {
		return false, nil
	}
	m.locks[jobName] = memoryLock{holder: holder, expiresAt: now.Add(ttl)}
	return true, nil
}

// ReleaseSchedulerLock drops the named lock if holder owns it.
func (m *MemoryStore) ReleaseSchedulerLock(_ context.Context, jobName, holder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locks[jobName]; ok && l.holder == holder {
		delete(m.locks, jobName)
	}
	return nil
}

// Migrate is a no-op.
func (*MemoryStore) Migrate(context.Context) error { return nil }

// Ping always succeeds.
func (*MemoryStore) Ping(context.Context) error { return nil }
