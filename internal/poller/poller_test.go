package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/rulesync/pkg/consistency"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

var testRef = domain.GroupRef{Source: "prod", Namespace: "team-a", Group: "latency"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defGroup(names ...string) *domain.DefinitionGroup {
	g := &domain.DefinitionGroup{Ref: testRef}
	for _, n := range names {
		g.Rules = append(g.Rules, domain.DefinitionRule{
			Kind:  domain.KindAlerting,
			Name:  n,
			Query: "up == 0",
		})
	}
	return g
}

func rtGroup(names ...string) *domain.RuntimeGroup {
	g := &domain.RuntimeGroup{Ref: testRef}
	for _, n := range names {
		g.Rules = append(g.Rules, domain.RuntimeRule{
			Kind:  domain.KindAlerting,
			Name:  n,
			Query: "up == 0",
		})
	}
	return g
}

// fakeGroups answers each fetch with a function of the 1-based call number.
type fakeGroups struct {
	def func(ctx context.Context, call int) (*domain.DefinitionGroup, error)
	rt  func(ctx context.Context, call int) (*domain.RuntimeGroup, error)

	defCalls atomic.Int32
	rtCalls  atomic.Int32
}

func (f *fakeGroups) FetchDefinitionGroup(ctx context.Context, _ domain.GroupRef) (*domain.DefinitionGroup, error) {
	return f.def(ctx, int(f.defCalls.Add(1)))
}

func (f *fakeGroups) FetchRuntimeGroup(ctx context.Context, _ domain.GroupRef) (*domain.RuntimeGroup, error) {
	return f.rt(ctx, int(f.rtCalls.Add(1)))
}

func staticDef(g *domain.DefinitionGroup, err error) func(context.Context, int) (*domain.DefinitionGroup, error) {
	return func(context.Context, int) (*domain.DefinitionGroup, error) { return g, err }
}

func staticRT(g *domain.RuntimeGroup, err error) func(context.Context, int) (*domain.RuntimeGroup, error) {
	return func(context.Context, int) (*domain.RuntimeGroup, error) { return g, err }
}

func newTestPoller(f GroupFetcher, timeout time.Duration) *ConsistencyPoller {
	return NewConsistencyPoller(f,
		WithInterval(5*time.Millisecond),
		WithTimeout(timeout),
		WithLogger(quietLogger()),
	)
}

func TestNewConsistencyPoller_Defaults(t *testing.T) {
	t.Parallel()

	p := NewConsistencyPoller(&fakeGroups{})
	assert.Equal(t, DefaultInterval, p.interval)
	assert.Equal(t, DefaultTimeout, p.timeout)
	assert.NotNil(t, p.log)
	assert.Empty(t, p.Active())
}

func TestWaitForGroupConsistency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		fetcher     *fakeGroups
		wantOutcome domain.WaitOutcome
		wantReason  consistency.Reason
		wantTicks   int
		wantDegrade bool
	}{
		{
			name: "already consistent",
			fetcher: &fakeGroups{
				def: staticDef(defGroup("a", "b"), nil),
				rt:  staticRT(rtGroup("a", "b"), nil),
			},
			wantOutcome: domain.OutcomeConverged,
			wantReason:  consistency.ReasonConverged,
			wantTicks:   1,
		},
		{
			name: "rule added converges after runtime catches up",
			fetcher: &fakeGroups{
				def: staticDef(defGroup("a", "b"), nil),
				rt: func(_ context.Context, call int) (*domain.RuntimeGroup, error) {
					if call < 3 {
						return rtGroup("a"), nil
					}
					return rtGroup("a", "b"), nil
				},
			},
			wantOutcome: domain.OutcomeConverged,
			wantReason:  consistency.ReasonConverged,
			wantTicks:   3,
		},
		{
			name: "group deleted converges once runtime drops it",
			fetcher: &fakeGroups{
				def: staticDef(nil, domain.ErrNotFound),
				rt: func(_ context.Context, call int) (*domain.RuntimeGroup, error) {
					if call < 2 {
						return rtGroup("a"), nil
					}
					return nil, domain.ErrNotFound
				},
			},
			wantOutcome: domain.OutcomeConverged,
			wantReason:  consistency.ReasonGroupAbsentBothSides,
			wantTicks:   2,
		},
		{
			name: "runtime unreachable resolves degraded",
			fetcher: &fakeGroups{
				def: staticDef(defGroup("a"), nil),
				rt:  staticRT(nil, errors.New("connection refused")),
			},
			wantOutcome: domain.OutcomeConverged,
			wantReason:  consistency.ReasonRuntimeFetchFailed,
			wantTicks:   1,
			wantDegrade: true,
		},
		{
			name: "never converges times out",
			fetcher: &fakeGroups{
				def: staticDef(defGroup("a", "b"), nil),
				rt:  staticRT(rtGroup("a"), nil),
			},
			wantOutcome: domain.OutcomeTimedOut,
			wantReason:  consistency.ReasonCountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newTestPoller(tt.fetcher, 200*time.Millisecond)
			res := p.WaitForGroupConsistency(context.Background(), testRef)

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantReason, res.Verdict.Reason)
			assert.Equal(t, tt.wantDegrade, res.Verdict.Degraded)
			assert.Equal(t, testRef, res.Ref)
			if tt.wantTicks > 0 {
				assert.Equal(t, tt.wantTicks, res.Ticks)
			}
			assert.Empty(t, p.Active())
		})
	}
}

func TestWaitForGroupConsistency_InvalidReferenceFails(t *testing.T) {
	t.Parallel()

	invalid := errors.Join(domain.ErrInvalidReference, errors.New("unknown source"))
	p := newTestPoller(&fakeGroups{
		def: staticDef(nil, invalid),
		rt:  staticRT(nil, invalid),
	}, time.Second)

	res := p.WaitForGroupConsistency(context.Background(), testRef)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, domain.ErrInvalidReference)
}

func TestWait_SlowFetchDoesNotExtendDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	p := newTestPoller(&fakeGroups{
		def: staticDef(defGroup("a"), nil),
		// Ignores ctx and only returns after the test ends, reporting
		// consistency that must never be used.
		rt: func(context.Context, int) (*domain.RuntimeGroup, error) {
			<-release
			return rtGroup("a"), nil
		},
	}, time.Second)

	start := time.Now()
	w := p.StartWithDeadline(context.Background(), testRef, start.Add(50*time.Millisecond))

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not resolve at its deadline")
	}

	res, ok := w.Result()
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeTimedOut, res.Outcome)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateTimedOut, w.State())
}

func TestWait_Cancel(t *testing.T) {
	t.Parallel()

	p := newTestPoller(&fakeGroups{
		def: staticDef(defGroup("a", "b"), nil),
		rt:  staticRT(rtGroup("a"), nil),
	}, time.Minute)

	w := p.Start(context.Background(), testRef)
	require.Eventually(t, func() bool {
		return len(p.Active()) == 1
	}, time.Second, time.Millisecond)

	assert.True(t, p.Cancel(testRef))
	<-w.Done()

	res, ok := w.Result()
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)
	assert.Equal(t, StateCancelled, w.State())

	// Cancelling again is a no-op.
	w.Cancel()
	assert.Equal(t, StateCancelled, w.State())
	assert.False(t, p.Cancel(testRef))
}

func TestConsistencyPoller_ActiveSorted(t *testing.T) {
	t.Parallel()

	p := newTestPoller(&fakeGroups{
		def: staticDef(defGroup("a", "b"), nil),
		rt:  staticRT(rtGroup("a"), nil),
	}, time.Minute)

	refs := []domain.GroupRef{
		{Source: "prod", Namespace: "team-b", Group: "errors"},
		{Namespace: "team-a", Group: "latency"},
		{Source: "prod", Namespace: "team-a", Group: "latency"},
		{Source: "dev", Namespace: "team-c", Group: "saturation"},
	}
	waits := make([]*Wait, 0, len(refs))
	for _, ref := range refs {
		waits = append(waits, p.Start(context.Background(), ref))
	}
	defer func() {
		for _, w := range waits {
			w.Cancel()
		}
	}()

	require.Eventually(t, func() bool {
		return len(p.Active()) == len(refs)
	}, time.Second, time.Millisecond)

	want := []string{
		"-/team-a/latency",
		"dev/team-c/saturation",
		"prod/team-a/latency",
		"prod/team-b/errors",
	}
	for range 5 {
		got := make([]string, 0, len(refs))
		for _, ref := range p.Active() {
			got = append(got, ref.String())
		}
		assert.Equal(t, want, got)
	}
}

func TestWait_CancelBeforeStart(t *testing.T) {
	t.Parallel()

	f := &fakeGroups{
		def: staticDef(defGroup("a"), nil),
		rt:  staticRT(rtGroup("a"), nil),
	}
	p := newTestPoller(f, time.Second)

	w := p.NewWait(testRef)
	assert.Equal(t, StateIdle, w.State())

	w.Cancel()
	assert.Equal(t, StateCancelled, w.State())

	w.Start(context.Background(), time.Now().Add(time.Second))
	<-w.Done()

	res, _ := w.Result()
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)
	assert.Zero(t, f.defCalls.Load())
	assert.Zero(t, f.rtCalls.Load())
	assert.Empty(t, p.Active())
}

func TestWait_CallerContextCancelled(t *testing.T) {
	t.Parallel()

	p := newTestPoller(&fakeGroups{
		def: staticDef(defGroup("a", "b"), nil),
		rt:  staticRT(rtGroup("a"), nil),
	}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	w := p.Start(ctx, testRef)
	time.AfterFunc(20*time.Millisecond, cancel)

	res, err := w.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)
}

func TestWait_AwaitContextDoesNotCancelWait(t *testing.T) {
	t.Parallel()

	p := newTestPoller(&fakeGroups{
		def: staticDef(defGroup("a", "b"), nil),
		rt:  staticRT(rtGroup("a"), nil),
	}, time.Minute)

	w := p.Start(context.Background(), testRef)
	defer w.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := w.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatePolling, w.State())
}

func TestConsistencyPoller_LastWriterWins(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		gates   []chan struct{}
		inSync  atomic.Bool
		entered = make(chan struct{}, 8)
	)

	f := &fakeGroups{
		def: staticDef(defGroup("a", "b"), nil),
		rt: func(context.Context, int) (*domain.RuntimeGroup, error) {
			gate := make(chan struct{})
			mu.Lock()
			gates = append(gates, gate)
			mu.Unlock()
			entered <- struct{}{}
			<-gate
			if inSync.Load() {
				return rtGroup("a", "b"), nil
			}
			return rtGroup("a"), nil
		},
	}
	p := newTestPoller(f, time.Minute)

	first := p.Start(context.Background(), testRef)
	<-entered

	// The first wait's tick is still in flight when the second wait starts.
	second := p.Start(context.Background(), testRef)
	<-entered

	// Both in-flight fetches now report consistency.
	inSync.Store(true)
	mu.Lock()
	for _, g := range gates {
		close(g)
	}
	mu.Unlock()

	firstRes, err := first.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCancelled, firstRes.Outcome)

	secondRes, err := second.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeConverged, secondRes.Outcome)
	assert.Empty(t, p.Active())
}

func TestConsistencyPoller_CancelUnknownRef(t *testing.T) {
	t.Parallel()

	p := newTestPoller(&fakeGroups{}, time.Second)
	assert.False(t, p.Cancel(testRef))
}

func TestState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    State
		name     string
		terminal bool
	}{
		{StateIdle, "idle", false},
		{StatePolling, "polling", false},
		{StateConverged, "converged", true},
		{StateTimedOut, "timed_out", true},
		{StateCancelled, "cancelled", true},
		{StateFailed, "failed", true},
		{State(42), "unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.name, tt.state.String())
			assert.Equal(t, tt.terminal, tt.state.Terminal())
		})
	}
}

func TestConsistencyPoller_InvalidRefPanics(t *testing.T) {
	t.Parallel()

	p := newTestPoller(&fakeGroups{}, time.Second)
	assert.Panics(t, func() {
		p.NewWait(domain.GroupRef{Source: "prod", Namespace: "team-a"})
	})
}
