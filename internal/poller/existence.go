package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/donaldgifford/rulesync/internal/metrics"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// Presence is the end state an existence wait is watching for.
type Presence bool

// Presence values.
const (
	Present Presence = true
	Absent  Presence = false
)

func (p Presence) kind() domain.WaitKind {
	if p == Present {
		return domain.WaitRuleAppear
	}
	return domain.WaitRuleDisappear
}

// ExistenceResult describes a finished existence wait.
type ExistenceResult struct {
	Rule    domain.RuleRef     `json:"rule"`
	Want    Presence           `json:"want"`
	Outcome domain.WaitOutcome `json:"outcome"`
	Ticks   int                `json:"ticks"`

	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`

	// Found is the runtime rule last observed, if any.
	Found *domain.RuntimeRule `json:"found,omitempty"`

	Err error `json:"-"`
}

// ExistencePoller waits for a single rule to appear in or vanish from the
// runtime-state store.
type ExistencePoller struct {
	fetcher RuleFetcher
	settings
}

// NewExistencePoller creates a poller reading rules through f.
func NewExistencePoller(f RuleFetcher, opts ...Option) *ExistencePoller {
	return &ExistencePoller{
		fetcher:  f,
		settings: newSettings(opts),
	}
}

// WaitForAppearance blocks until ref is observed or the default timeout
// elapses. It reports false on timeout and ErrWaitCancelled if ctx ends.
func (p *ExistencePoller) WaitForAppearance(ctx context.Context, ref domain.RuleRef) (bool, error) {
	return p.Await(ctx, ref, Present, time.Now().Add(p.timeout)).bool()
}

// WaitForDisappearance blocks until ref is no longer observed or the default
// timeout elapses.
func (p *ExistencePoller) WaitForDisappearance(ctx context.Context, ref domain.RuleRef) (bool, error) {
	return p.Await(ctx, ref, Absent, time.Now().Add(p.timeout)).bool()
}

func (r ExistenceResult) bool() (bool, error) {
	switch r.Outcome {
	case domain.OutcomeConverged:
		return true, nil
	case domain.OutcomeTimedOut:
		return false, nil
	case domain.OutcomeFailed:
		return false, r.Err
	default:
		return false, ErrWaitCancelled
	}
}

// Await checks once and returns immediately if ref is already in the wanted
// state. Otherwise it polls until the state holds, deadline passes or ctx
// ends. A fetch error counts as not observing the rule.
func (p *ExistencePoller) Await(ctx context.Context, ref domain.RuleRef, want Presence, deadline time.Time) ExistenceResult {
	res := ExistenceResult{Rule: ref, Want: want, StartedAt: time.Now()}
	log := p.log.With("rule", ref.String(), "kind", want.kind())

	metrics.ActiveWaits.Inc()
	defer metrics.ActiveWaits.Dec()

	finish := func(o domain.WaitOutcome, err error) ExistenceResult {
		res.Outcome = o
		res.Err = err
		res.Elapsed = time.Since(res.StartedAt)
		p.record(res)
		return res
	}

	runCtx, cancel := context.WithDeadlineCause(ctx, deadline, errWaitTimedOut)
	defer cancel()

	// The first check runs without an initial delay but still races the
	// deadline.
	for first := true; ; first = false {
		if !first && !sleep(runCtx, p.interval) {
			return finish(outcomeOf(context.Cause(runCtx)), nil)
		}

		res.Ticks++
		got, err := race(runCtx, func(ctx context.Context) holdResult {
			var r ExistenceResult
			held, err := p.holds(ctx, ref, want, &r)
			return holdResult{held: held, err: err, found: r.Found}
		})
		if err != nil {
			return finish(outcomeOf(err), nil)
		}
		res.Found = got.found
		switch {
		case got.err != nil:
			log.Error("existence wait failed", "error", got.err)
			return finish(domain.OutcomeFailed, got.err)
		case got.held && first:
			log.Debug("rule already in wanted state")
			return finish(domain.OutcomeConverged, nil)
		case got.held:
			log.Info("rule reached wanted state", "ticks", res.Ticks)
			return finish(domain.OutcomeConverged, nil)
		}
	}
}

type holdResult struct {
	held  bool
	err   error
	found *domain.RuntimeRule
}

// holds fetches ref once. Only an invalid reference is returned as an error;
// other fetch failures are logged and count as not observed.
func (p *ExistencePoller) holds(ctx context.Context, ref domain.RuleRef, want Presence, res *ExistenceResult) (bool, error) {
	rule, err := p.fetcher.FetchRuntimeRule(ctx, ref)
	switch {
	case err == nil:
		res.Found = rule
		return want == Present, nil
	case errors.Is(err, domain.ErrNotFound):
		res.Found = nil
		return want == Absent, nil
	case errors.Is(err, domain.ErrInvalidReference):
		return false, fmt.Errorf("fetching rule %s: %w", ref, err)
	default:
		metrics.FetchErrorsTotal.WithLabelValues("runtime").Inc()
		p.log.WarnContext(ctx, "rule fetch failed", "rule", ref.String(), "error", err)
		return false, nil
	}
}

func (p *ExistencePoller) record(res ExistenceResult) {
	kind := string(res.Want.kind())
	metrics.WaitsTotal.WithLabelValues(kind, string(res.Outcome)).Inc()
	metrics.WaitTicks.Observe(float64(res.Ticks))
	switch res.Outcome {
	case domain.OutcomeConverged, domain.OutcomeTimedOut:
		metrics.WaitDuration.WithLabelValues(kind, string(res.Outcome)).Observe(res.Elapsed.Seconds())
	}
}
