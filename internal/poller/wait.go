package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/donaldgifford/rulesync/pkg/consistency"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// State is the lifecycle state of a Wait.
type State int

// Wait states. Converged, TimedOut, Cancelled and Failed are terminal.
const (
	StateIdle State = iota
	StatePolling
	StateConverged
	StateTimedOut
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateConverged:
		return "converged"
	case StateTimedOut:
		return "timed_out"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s >= StateConverged
}

func stateFor(o domain.WaitOutcome) State {
	switch o {
	case domain.OutcomeConverged:
		return StateConverged
	case domain.OutcomeTimedOut:
		return StateTimedOut
	case domain.OutcomeFailed:
		return StateFailed
	default:
		return StateCancelled
	}
}

// Result describes a finished group wait.
type Result struct {
	Ref     domain.GroupRef     `json:"ref"`
	Outcome domain.WaitOutcome  `json:"outcome"`
	Verdict consistency.Verdict `json:"verdict"`
	Ticks   int                 `json:"ticks"`

	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`

	// Err is set when the wait Failed.
	Err error `json:"-"`
}

// Wait is one group consistency wait. It moves from Idle to Polling when
// started and then to exactly one terminal state. A Wait can be cancelled at
// any point, including before it is started. Once cancelled it never resolves
// Converged.
type Wait struct {
	ref domain.GroupRef
	p   *ConsistencyPoller

	mu        sync.Mutex
	state     State
	cancelled bool
	cancel    context.CancelCauseFunc
	started   time.Time
	result    Result
	done      chan struct{}
}

// newWait panics on a reference that cannot name a group.
func newWait(p *ConsistencyPoller, ref domain.GroupRef) *Wait {
	if err := ref.Validate(); err != nil {
		panic(fmt.Sprintf("poller: invalid group reference %q: %v", ref, err))
	}
	return &Wait{
		ref:  ref,
		p:    p,
		done: make(chan struct{}),
	}
}

// Ref returns the group the wait watches.
func (w *Wait) Ref() domain.GroupRef { return w.ref }

// State returns the current state.
func (w *Wait) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Done is closed when the wait reaches a terminal state.
func (w *Wait) Done() <-chan struct{} { return w.done }

// Result returns the terminal result, or false while the wait is unresolved.
func (w *Wait) Result() (Result, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result, w.state.Terminal()
}

// Await blocks until the wait resolves or ctx ends. Ending ctx does not cancel
// the wait.
func (w *Wait) Await(ctx context.Context) (Result, error) {
	select {
	case <-w.done:
		res, _ := w.Result()
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Start begins polling until deadline. Polling also stops when ctx ends.
// Starting a wait cancels any earlier wait for the same group. Start on a
// wait that is not Idle does nothing.
func (w *Wait) Start(ctx context.Context, deadline time.Time) {
	runCtx, cancel := context.WithCancelCause(ctx)
	runCtx, release := context.WithDeadlineCause(runCtx, deadline, errWaitTimedOut)

	if !w.begin(cancel) {
		release()
		cancel(ErrWaitCancelled)
		return
	}
	w.p.register(w)

	go w.p.run(runCtx, w, func() {
		release()
		cancel(nil)
	})
}

// Cancel stops the wait. It is safe to call in any state and more than once.
func (w *Wait) Cancel() {
	w.mu.Lock()
	if w.state.Terminal() || w.cancelled {
		w.mu.Unlock()
		return
	}
	w.cancelled = true
	idle := w.state == StateIdle
	cancel := w.cancel
	w.mu.Unlock()

	if idle {
		w.finish(Result{Ref: w.ref, Outcome: domain.OutcomeCancelled})
		return
	}
	cancel(ErrWaitCancelled)
}

func (w *Wait) begin(cancel context.CancelCauseFunc) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateIdle || w.cancelled {
		return false
	}
	w.state = StatePolling
	w.cancel = cancel
	w.started = time.Now()
	return true
}

// finish moves the wait to the terminal state for res. It reports false if
// the wait had already resolved. A cancelled wait always resolves Cancelled.
func (w *Wait) finish(res Result) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Terminal() {
		return false
	}
	if w.cancelled {
		res.Outcome = domain.OutcomeCancelled
		res.Err = nil
	}
	if !w.started.IsZero() {
		res.StartedAt = w.started
		res.Elapsed = time.Since(w.started)
	}
	w.state = stateFor(res.Outcome)
	w.result = res
	close(w.done)
	return true
}
