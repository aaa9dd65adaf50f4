package poller

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/rulesync/internal/metrics"
	"github.com/donaldgifford/rulesync/internal/tracing"
	"github.com/donaldgifford/rulesync/pkg/consistency"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// ConsistencyPoller waits for groups to become consistent across both stores.
// At most one wait per group is active: starting a wait for a group cancels
// the previous one.
type ConsistencyPoller struct {
	fetcher GroupFetcher
	settings

	mu     sync.Mutex
	active map[domain.GroupRef]*Wait
}

// NewConsistencyPoller creates a poller reading groups through f.
func NewConsistencyPoller(f GroupFetcher, opts ...Option) *ConsistencyPoller {
	return &ConsistencyPoller{
		fetcher:  f,
		settings: newSettings(opts),
		active:   make(map[domain.GroupRef]*Wait),
	}
}

// NewWait returns an idle wait for ref. It does not poll until started.
func (p *ConsistencyPoller) NewWait(ref domain.GroupRef) *Wait {
	return newWait(p, ref)
}

// Start starts a wait for ref with the poller's default timeout.
func (p *ConsistencyPoller) Start(ctx context.Context, ref domain.GroupRef) *Wait {
	return p.StartWithDeadline(ctx, ref, time.Now().Add(p.timeout))
}

// StartWithDeadline starts a wait for ref that times out at deadline.
func (p *ConsistencyPoller) StartWithDeadline(ctx context.Context, ref domain.GroupRef, deadline time.Time) *Wait {
	w := newWait(p, ref)
	w.Start(ctx, deadline)
	return w
}

// WaitForGroupConsistency starts a wait for ref and blocks until it resolves.
// Cancelling ctx cancels the wait.
func (p *ConsistencyPoller) WaitForGroupConsistency(ctx context.Context, ref domain.GroupRef) Result {
	w := p.Start(ctx, ref)
	<-w.Done()
	res, _ := w.Result()
	return res
}

// Cancel cancels the active wait for ref, if any.
func (p *ConsistencyPoller) Cancel(ref domain.GroupRef) bool {
	p.mu.Lock()
	w, ok := p.active[ref]
	p.mu.Unlock()
	if !ok {
		return false
	}
	w.Cancel()
	return true
}

// Active returns the groups with a wait in progress, sorted by reference.
func (p *ConsistencyPoller) Active() []domain.GroupRef {
	p.mu.Lock()
	refs := make([]domain.GroupRef, 0, len(p.active))
	for ref := range p.active {
		refs = append(refs, ref)
	}
	p.mu.Unlock()

	slices.SortFunc(refs, func(a, b domain.GroupRef) int {
		return cmp.Compare(a.String(), b.String())
	})
	return refs
}

// register makes w the active wait for its group, cancelling the previous one
// before returning.
func (p *ConsistencyPoller) register(w *Wait) {
	p.mu.Lock()
	prev := p.active[w.ref]
	p.active[w.ref] = w
	p.mu.Unlock()

	if prev != nil && prev != w {
		p.log.Debug("superseding wait", "group", w.ref.String())
		prev.Cancel()
	}
}

func (p *ConsistencyPoller) unregister(w *Wait) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active[w.ref] == w {
		delete(p.active, w.ref)
	}
}

func (p *ConsistencyPoller) run(ctx context.Context, w *Wait, release func()) {
	defer release()
	defer p.unregister(w)

	metrics.ActiveWaits.Inc()
	defer metrics.ActiveWaits.Dec()

	log := p.log.With("group", w.ref.String())
	log.Debug("wait started")

	var (
		last  consistency.Verdict
		ticks int
	)
	res := func(o domain.WaitOutcome, err error) Result {
		return Result{Ref: w.ref, Outcome: o, Verdict: last, Ticks: ticks, Err: err}
	}

	for {
		// No new tick once the wait has ended.
		if ctx.Err() != nil {
			p.resolve(w, res(outcomeOf(context.Cause(ctx)), nil), log)
			return
		}

		ticks++
		v, err := p.check(ctx, w.ref, log)
		switch {
		case errors.Is(err, domain.ErrInvalidReference):
			p.resolve(w, res(domain.OutcomeFailed, err), log)
			return
		case err != nil:
			p.resolve(w, res(outcomeOf(err), nil), log)
			return
		}

		last = v
		if v.InSync {
			p.resolve(w, res(domain.OutcomeConverged, nil), log)
			return
		}
		log.Debug("group not yet consistent", "reason", v.Reason, "detail", v.Detail, "tick", ticks)

		if !sleep(ctx, p.interval) {
			p.resolve(w, res(outcomeOf(context.Cause(ctx)), nil), log)
			return
		}
	}
}

func (p *ConsistencyPoller) resolve(w *Wait, res Result, log *slog.Logger) {
	if !w.finish(res) {
		return
	}
	final, _ := w.Result()
	kind := string(domain.WaitGroup)

	metrics.WaitsTotal.WithLabelValues(kind, string(final.Outcome)).Inc()
	metrics.WaitTicks.Observe(float64(final.Ticks))

	switch final.Outcome {
	case domain.OutcomeConverged, domain.OutcomeTimedOut:
		metrics.WaitDuration.WithLabelValues(kind, string(final.Outcome)).Observe(final.Elapsed.Seconds())
	}

	switch final.Outcome {
	case domain.OutcomeFailed:
		log.Error("wait failed", "error", final.Err, "ticks", final.Ticks)
	case domain.OutcomeTimedOut:
		log.Warn("wait timed out",
			"ticks", final.Ticks,
			"elapsed", final.Elapsed,
			"reason", final.Verdict.Reason,
			"detail", final.Verdict.Detail,
		)
	default:
		log.Info("wait finished",
			"outcome", final.Outcome,
			"ticks", final.Ticks,
			"elapsed", final.Elapsed,
			"reason", final.Verdict.Reason,
		)
	}
}

// check performs one tick: both fetches in parallel, then the predicate. It
// returns the cause of ctx if ctx ends before both fetches complete.
func (p *ConsistencyPoller) check(
	ctx context.Context,
	ref domain.GroupRef,
	log *slog.Logger,
) (v consistency.Verdict, err error) {
	ctx, span := tracing.Start(ctx, "poller.check", attribute.String("rulesync.group", ref.String()))
	defer func() {
		span.SetAttributes(
			attribute.Bool("rulesync.in_sync", v.InSync),
			attribute.String("rulesync.reason", string(v.Reason)),
		)
		tracing.End(span, err)
	}()

	type pair struct {
		def consistency.DefinitionFetch
		rt  consistency.RuntimeFetch
	}

	got, err := race(ctx, func(ctx context.Context) pair {
		var out pair
		var g errgroup.Group
		g.Go(func() error {
			grp, err := p.fetcher.FetchDefinitionGroup(ctx, ref)
			out.def = consistency.DefinitionFetch{Group: grp, Err: err}
			return nil
		})
		g.Go(func() error {
			grp, err := p.fetcher.FetchRuntimeGroup(ctx, ref)
			out.rt = consistency.RuntimeFetch{Group: grp, Err: err}
			return nil
		})
		_ = g.Wait()
		return out
	})
	if err != nil {
		return consistency.Verdict{}, err
	}

	for _, e := range []error{got.def.Err, got.rt.Err} {
		if errors.Is(e, domain.ErrInvalidReference) {
			return consistency.Verdict{}, fmt.Errorf("fetching group %s: %w", ref, e)
		}
	}
	if got.def.Failed() {
		metrics.FetchErrorsTotal.WithLabelValues("definition").Inc()
	}
	if got.rt.Failed() {
		metrics.FetchErrorsTotal.WithLabelValues("runtime").Inc()
	}

	v = consistency.IsConsistent(got.def, got.rt)
	if v.Degraded {
		metrics.DegradedSyncTotal.WithLabelValues(string(v.Reason)).Inc()
		log.WarnContext(ctx, "declaring group in sync without observing both stores",
			"reason", v.Reason,
			"detail", v.Detail,
		)
	}
	return v, nil
}
