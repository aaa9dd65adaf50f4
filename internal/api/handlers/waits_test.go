package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/rulesync/internal/api/handlers"
	"github.com/donaldgifford/rulesync/internal/engine"
	"github.com/donaldgifford/rulesync/internal/poller"
	"github.com/donaldgifford/rulesync/internal/store"
	"github.com/donaldgifford/rulesync/pkg/consistency"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// fakeWaiter is a test double for handlers.Waiter.
type fakeWaiter struct {
	mu sync.Mutex

	groupRes   poller.Result
	groupErr   error
	gotGroup   domain.GroupRef
	gotTimeout time.Duration
	cancelled  bool
	active     []domain.GroupRef
	resolveErr error
	gotSpec    *engine.RuleSpec
	ruleRes    poller.ExistenceResult
	gotWant    poller.Presence
	waits      []domain.WaitRecord
	total      int
	listErr    error
	gotQuery   *store.WaitQuery
	wait       *domain.WaitRecord
	getErr     error
}

func (f *fakeWaiter) WaitGroup(_ context.Context, ref domain.GroupRef, timeout time.Duration) (poller.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotGroup = ref
	f.gotTimeout = timeout
	res := f.groupRes
	res.Ref = ref
	return res, f.groupErr
}

func (f *fakeWaiter) CancelWait(ref domain.GroupRef) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotGroup = ref
	return f.cancelled
}

func (f *fakeWaiter) ActiveWaits() []domain.GroupRef {
	return f.active
}

func (f *fakeWaiter) ResolveRule(_ context.Context, spec *engine.RuleSpec) (domain.RuleRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotSpec = spec
	if f.resolveErr != nil {
		return domain.RuleRef{}, f.resolveErr
	}
	return domain.RuleRef{Group: spec.Group, Name: spec.Name, UID: spec.UID}, nil
}

func (f *fakeWaiter) WaitRule(
	_ context.Context,
	ref domain.RuleRef,
	want poller.Presence,
	timeout time.Duration,
) poller.ExistenceResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotWant = want
	f.gotTimeout = timeout
	res := f.ruleRes
	res.Rule = ref
	res.Want = want
	return res
}

func (f *fakeWaiter) ListWaits(_ context.Context, q *store.WaitQuery) ([]domain.WaitRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotQuery = q
	return f.waits, f.total, f.listErr
}

func (f *fakeWaiter) GetWait(_ context.Context, _ string) (*domain.WaitRecord, error) {
	return f.wait, f.getErr
}

func newWaitsAPI(t *testing.T, w *fakeWaiter) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterWaitRoutes(api, handlers.NewWaitsHandler(w))
	return api
}

func TestWaitGroup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        map[string]any
		res         poller.Result
		err         error
		wantStatus  int
		wantTimeout time.Duration
		wantBody    []string
	}{
		{
			name: "converged",
			body: map[string]any{"namespace": "team-a", "group": "latency", "timeout_seconds": 30},
			res: poller.Result{
				Outcome: domain.OutcomeConverged,
				Verdict: consistency.Verdict{InSync: true, Reason: consistency.ReasonConverged},
				Ticks:   3,
				Elapsed: 6 * time.Second,
			},
			wantStatus:  http.StatusOK,
			wantTimeout: 30 * time.Second,
			wantBody:    []string{`"outcome":"converged"`, `"ticks":3`, `"elapsed_ms":6000`},
		},
		{
			name: "timed out uses default timeout",
			body: map[string]any{"source": "prod", "namespace": "team-a", "group": "latency"},
			res: poller.Result{
				Outcome: domain.OutcomeTimedOut,
				Verdict: consistency.Verdict{Reason: consistency.ReasonCountMismatch},
			},
			wantStatus: http.StatusOK,
			wantBody:   []string{`"outcome":"timed_out"`, `"reason":"count_mismatch"`},
		},
		{
			name: "failed on unknown source",
			body: map[string]any{"source": "nope", "namespace": "team-a", "group": "latency"},
			res: poller.Result{
				Outcome: domain.OutcomeFailed,
				Err:     fmt.Errorf("unknown source: %w", domain.ErrInvalidReference),
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{"unknown source"},
		},
		{
			name:       "missing group",
			body:       map[string]any{"namespace": "team-a"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "timeout above maximum",
			body:       map[string]any{"namespace": "team-a", "group": "latency", "timeout_seconds": 7200},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "engine error",
			body:       map[string]any{"namespace": "team-a", "group": "latency"},
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := &fakeWaiter{groupRes: tt.res, groupErr: tt.err}
			api := newWaitsAPI(t, w)

			resp := api.Post("/api/v1/waits/group", tt.body)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			for _, s := range tt.wantBody {
				assert.Contains(t, resp.Body.String(), s)
			}
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantTimeout, w.gotTimeout)
				assert.Equal(t, "team-a", w.gotGroup.Namespace)
			}
		})
	}
}

func TestWaitRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       map[string]any
		resolveErr error
		res        poller.ExistenceResult
		wantStatus int
		wantWant   poller.Presence
		wantBody   []string
	}{
		{
			name: "appear by name",
			body: map[string]any{
				"namespace": "team-a", "group": "latency", "name": "HighLatency", "mode": "appear",
			},
			res:        poller.ExistenceResult{Outcome: domain.OutcomeConverged, Ticks: 2},
			wantStatus: http.StatusOK,
			wantWant:   poller.Present,
			wantBody:   []string{`"mode":"appear"`, `"outcome":"converged"`, `"name":"HighLatency"`},
		},
		{
			name: "disappear with content",
			body: map[string]any{
				"namespace": "team-a", "group": "latency", "name": "HighLatency", "mode": "disappear",
				"kind": "alerting", "query": "up == 0", "labels": map[string]string{"severity": "page"},
				"timeout_seconds": 5,
			},
			res:        poller.ExistenceResult{Outcome: domain.OutcomeTimedOut},
			wantStatus: http.StatusOK,
			wantWant:   poller.Absent,
			wantBody:   []string{`"mode":"disappear"`, `"outcome":"timed_out"`},
		},
		{
			name: "rule missing from definition store",
			body: map[string]any{
				"namespace": "team-a", "group": "latency", "name": "Gone", "mode": "appear",
			},
			resolveErr: fmt.Errorf("resolving rule: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name: "ambiguous name",
			body: map[string]any{
				"namespace": "team-a", "group": "latency", "name": "Dup", "mode": "appear",
			},
			resolveErr: fmt.Errorf("%w: not unique", domain.ErrInvalidReference),
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "invalid mode",
			body: map[string]any{
				"namespace": "team-a", "group": "latency", "name": "HighLatency", "mode": "sometimes",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := &fakeWaiter{resolveErr: tt.resolveErr, ruleRes: tt.res}
			api := newWaitsAPI(t, w)

			resp := api.Post("/api/v1/waits/rule", tt.body)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			for _, s := range tt.wantBody {
				assert.Contains(t, resp.Body.String(), s)
			}
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantWant, w.gotWant)
				require.NotNil(t, w.gotSpec)
				assert.Equal(t, "HighLatency", w.gotSpec.Name)
			}
		})
	}
}

func TestWaitRule_PassesContent(t *testing.T) {
	t.Parallel()

	w := &fakeWaiter{ruleRes: poller.ExistenceResult{Outcome: domain.OutcomeConverged}}
	api := newWaitsAPI(t, w)

	resp := api.Post("/api/v1/waits/rule", map[string]any{
		"source": "prod", "namespace": "team-a", "group": "latency", "name": "r",
		"uid": "abc", "kind": "recording", "query": "sum(x)", "mode": "appear",
		"timeout_seconds": 10,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	require.NotNil(t, w.gotSpec)
	assert.Equal(t, domain.GroupRef{Source: "prod", Namespace: "team-a", Group: "latency"}, w.gotSpec.Group)
	assert.Equal(t, domain.KindRecording, w.gotSpec.Kind)
	assert.Equal(t, "sum(x)", w.gotSpec.Query)
	assert.Equal(t, "abc", w.gotSpec.UID)
	assert.Equal(t, 10*time.Second, w.gotTimeout)
}

func TestCancelWait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		cancelled  bool
		wantStatus int
		wantRef    domain.GroupRef
	}{
		{
			name:       "cancels active wait",
			path:       "/api/v1/waits/group/-/team-a/latency",
			cancelled:  true,
			wantStatus: http.StatusOK,
			wantRef:    domain.GroupRef{Namespace: "team-a", Group: "latency"},
		},
		{
			name:       "no active wait",
			path:       "/api/v1/waits/group/prod/team-a/latency",
			wantStatus: http.StatusNotFound,
			wantRef:    domain.GroupRef{Source: "prod", Namespace: "team-a", Group: "latency"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := &fakeWaiter{cancelled: tt.cancelled}
			api := newWaitsAPI(t, w)

			resp := api.Delete(tt.path)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Equal(t, tt.wantRef, w.gotGroup)
		})
	}
}

func TestActiveWaits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		active   []domain.GroupRef
		wantBody []string
	}{
		{
			name:     "none",
			wantBody: []string{`"waits":[]`},
		},
		{
			name:     "one",
			active:   []domain.GroupRef{{Namespace: "team-a", Group: "latency"}},
			wantBody: []string{`"namespace":"team-a"`, `"group":"latency"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := newWaitsAPI(t, &fakeWaiter{active: tt.active})

			resp := api.Get("/api/v1/waits/active")
			require.Equal(t, http.StatusOK, resp.Code)
			for _, s := range tt.wantBody {
				assert.Contains(t, resp.Body.String(), s)
			}
		})
	}
}

func TestListWaits(t *testing.T) {
	t.Parallel()

	t.Run("filters", func(t *testing.T) {
		t.Parallel()

		w := &fakeWaiter{
			waits: []domain.WaitRecord{{ID: "w1", Kind: domain.WaitGroup, Outcome: domain.OutcomeConverged}},
			total: 1,
		}
		api := newWaitsAPI(t, w)

		resp := api.Get("/api/v1/waits?kind=group&outcome=converged&source=-&namespace=team-a&group=latency&since=2026-01-02T03:04:05Z&limit=10&offset=5")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Contains(t, resp.Body.String(), `"id":"w1"`)
		assert.Contains(t, resp.Body.String(), `"total":1`)

		q := w.gotQuery
		require.NotNil(t, q)
		require.NotNil(t, q.Kind)
		assert.Equal(t, domain.WaitGroup, *q.Kind)
		require.NotNil(t, q.Outcome)
		assert.Equal(t, domain.OutcomeConverged, *q.Outcome)
		require.NotNil(t, q.Source)
		assert.Empty(t, *q.Source)
		require.NotNil(t, q.Namespace)
		assert.Equal(t, "team-a", *q.Namespace)
		require.NotNil(t, q.Since)
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), q.Since.UTC())
		assert.Equal(t, 10, q.Limit)
		assert.Equal(t, 5, q.Offset)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		w := &fakeWaiter{}
		resp := newWaitsAPI(t, w).Get("/api/v1/waits")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"waits":[]`)
		assert.Nil(t, w.gotQuery.Kind)
		assert.Nil(t, w.gotQuery.Since)
	})

	t.Run("bad since", func(t *testing.T) {
		t.Parallel()

		resp := newWaitsAPI(t, &fakeWaiter{}).Get("/api/v1/waits?since=yesterday")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		resp := newWaitsAPI(t, &fakeWaiter{listErr: errors.New("db down")}).Get("/api/v1/waits")
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Contains(t, resp.Body.String(), "db down")
	})
}

func TestGetWait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		wait       *domain.WaitRecord
		err        error
		wantStatus int
	}{
		{
			name:       "found",
			wait:       &domain.WaitRecord{ID: "w1", Kind: domain.WaitRuleAppear, RuleName: "HighLatency"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			err:        fmt.Errorf("wait w1: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "store error",
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := newWaitsAPI(t, &fakeWaiter{wait: tt.wait, getErr: tt.err})

			resp := api.Get("/api/v1/waits/w1")
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			if tt.wait != nil {
				assert.Contains(t, resp.Body.String(), `"rule_name":"HighLatency"`)
			}
		})
	}
}
