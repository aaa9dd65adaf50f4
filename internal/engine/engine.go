package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/rulesync/internal/notify"
	"github.com/donaldgifford/rulesync/internal/poller"
	"github.com/donaldgifford/rulesync/internal/store"
	"github.com/donaldgifford/rulesync/pkg/consistency"
	"github.com/donaldgifford/rulesync/pkg/fingerprint"
	"github.com/donaldgifford/rulesync/pkg/matcher"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

const defaultDriftThreshold = 2

// Fetcher reads groups and single rules from the configured backends.
// backend.Router is the production implementation.
type Fetcher interface {
	poller.GroupFetcher
	poller.RuleFetcher
}

// Engine orchestrates on-demand matching, waits and the drift audit.
type Engine struct {
	fetcher  Fetcher
	store    store.Store
	notifier notify.Notifier
	log      *slog.Logger

	groups *poller.ConsistencyPoller
	rules  *poller.ExistencePoller

	pollInterval   time.Duration
	pollTimeout    time.Duration
	auditGroups    []domain.GroupRef
	driftThreshold int

	mu      sync.Mutex
	streaks map[domain.GroupRef]int
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	f Fetcher,
	s store.Store,
	n notify.Notifier,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		fetcher:        f,
		store:          s,
		notifier:       n,
		log:            slog.Default(),
		pollInterval:   poller.DefaultInterval,
		pollTimeout:    poller.DefaultTimeout,
		driftThreshold: defaultDriftThreshold,
		streaks:        make(map[domain.GroupRef]int),
	}
	for _, opt := range opts {
		opt(eng)
	}

	pollOpts := []poller.Option{
		poller.WithInterval(eng.pollInterval),
		poller.WithTimeout(eng.pollTimeout),
		poller.WithLogger(eng.log),
	}
	eng.groups = poller.NewConsistencyPoller(f, pollOpts...)
	eng.rules = poller.NewExistencePoller(f, pollOpts...)
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithPollInterval sets the delay between wait ticks.
func WithPollInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.pollInterval = d
	}
}

// WithPollTimeout sets the default wait timeout.
func WithPollTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.pollTimeout = d
	}
}

// WithAuditGroups sets the groups checked by RunAudit.
func WithAuditGroups(refs []domain.GroupRef) EngineOption {
	return func(e *Engine) {
		e.auditGroups = refs
	}
}

// WithDriftThreshold sets how many consecutive drifted audits a group needs
// before it is reported.
func WithDriftThreshold(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.driftThreshold = n
		}
	}
}

// PollTimeout returns the default wait timeout.
func (eng *Engine) PollTimeout() time.Duration {
	return eng.pollTimeout
}

// RuleIDs pairs the identifiers each backend assigns to one matched rule.
type RuleIDs struct {
	Name       string                `json:"name"`
	Definition domain.RuleIdentifier `json:"definition"`
	Runtime    domain.RuleIdentifier `json:"runtime"`
}

// GroupMatch is the on-demand comparison of one group across both stores.
type GroupMatch struct {
	Ref        domain.GroupRef         `json:"ref"`
	Verdict    consistency.Verdict     `json:"verdict"`
	Match      matcher.Result          `json:"match"`
	Identities []RuleIDs               `json:"identities"`
	Definition *domain.DefinitionGroup `json:"definition,omitempty"`
	Runtime    *domain.RuntimeGroup    `json:"runtime,omitempty"`
}

// MatchGroup fetches one snapshot of ref from each store and matches them.
// An absent group matches as an empty rule list.
func (eng *Engine) MatchGroup(ctx context.Context, ref domain.GroupRef) (*GroupMatch, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidReference, err)
	}

	var (
		def consistency.DefinitionFetch
		rt  consistency.RuntimeFetch
		g   errgroup.Group
	)
	g.Go(func() error {
		def.Group, def.Err = eng.fetcher.FetchDefinitionGroup(ctx, ref)
		return nil
	})
	g.Go(func() error {
		rt.Group, rt.Err = eng.fetcher.FetchRuntimeGroup(ctx, ref)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{def.Err, rt.Err} {
		if errors.Is(err, domain.ErrInvalidReference) {
			return nil, fmt.Errorf("matching group %s: %w", ref, err)
		}
	}

	var defRules []domain.DefinitionRule
	var rtRules []domain.RuntimeRule
	if def.Err == nil {
		defRules = def.Group.Rules
	}
	if rt.Err == nil {
		rtRules = rt.Group.Rules
	}

	res := matcher.MatchGroup(defRules, rtRules)
	gm := &GroupMatch{
		Ref:        ref,
		Verdict:    consistency.IsConsistent(def, rt),
		Match:      res,
		Identities: make([]RuleIDs, 0, len(res.Matched)),
		Definition: def.Group,
		Runtime:    rt.Group,
	}
	for i := range res.Matched {
		p := &res.Matched[i]
		gm.Identities = append(gm.Identities, RuleIDs{
			Name:       p.Definition.Name,
			Definition: fingerprint.DefinitionID(ref, &p.Definition),
			Runtime:    fingerprint.RuntimeID(ref, &p.Runtime),
		})
	}
	if gm.Verdict.Degraded {
		eng.log.WarnContext(ctx, "match computed without observing both stores",
			"group", ref.String(),
			"reason", gm.Verdict.Reason,
			"detail", gm.Verdict.Detail,
		)
	}
	return gm, nil
}

// WaitGroup polls ref until both stores agree, timeout elapses or ctx ends,
// then records the wait. A zero timeout uses the engine default. Starting a
// wait for a group cancels any wait already running for it.
func (eng *Engine) WaitGroup(ctx context.Context, ref domain.GroupRef, timeout time.Duration) (poller.Result, error) {
	if err := ref.Validate(); err != nil {
		return poller.Result{}, fmt.Errorf("%w: %w", domain.ErrInvalidReference, err)
	}
	if timeout <= 0 {
		timeout = eng.pollTimeout
	}

	w := eng.groups.StartWithDeadline(ctx, ref, time.Now().Add(timeout))
	<-w.Done()
	res, _ := w.Result()

	eng.recordWait(ctx, &domain.WaitRecord{
		Kind:       domain.WaitGroup,
		Group:      ref,
		Outcome:    res.Outcome,
		Reason:     waitReason(string(res.Verdict.Reason), res.Err),
		Ticks:      res.Ticks,
		Elapsed:    res.Elapsed,
		StartedAt:  res.StartedAt,
		FinishedAt: res.StartedAt.Add(res.Elapsed),
	})
	return res, nil
}

// CancelWait cancels the running wait for ref. It reports whether one was
// running.
func (eng *Engine) CancelWait(ref domain.GroupRef) bool {
	return eng.groups.Cancel(ref)
}

// ActiveWaits returns the groups with a wait in progress.
func (eng *Engine) ActiveWaits() []domain.GroupRef {
	return eng.groups.Active()
}

// RuleSpec describes a rule to wait for. When it carries no query, labels
// or annotations the rule is looked up by name in the definition store.
type RuleSpec struct {
	Group       domain.GroupRef
	Name        string
	UID         string
	Kind        domain.RuleKind
	Query       string
	Labels      map[string]string
	Annotations map[string]string
}

func (s *RuleSpec) hasContent() bool {
	return s.Query != "" || len(s.Labels) > 0 || len(s.Annotations) > 0
}

// ResolveRule turns spec into a RuleRef carrying a fingerprint.
func (eng *Engine) ResolveRule(ctx context.Context, spec *RuleSpec) (domain.RuleRef, error) {
	if err := spec.Group.Validate(); err != nil {
		return domain.RuleRef{}, fmt.Errorf("%w: %w", domain.ErrInvalidReference, err)
	}
	if spec.Name == "" {
		return domain.RuleRef{}, fmt.Errorf("%w: rule name is required", domain.ErrInvalidReference)
	}

	if spec.hasContent() {
		kind := spec.Kind
		if kind == "" {
			kind = domain.KindUnknown
		}
		ref := fingerprint.Ref(spec.Group, &domain.DefinitionRule{
			Kind:        kind,
			Name:        spec.Name,
			Query:       spec.Query,
			Labels:      spec.Labels,
			Annotations: spec.Annotations,
		})
		ref.UID = spec.UID
		return ref, nil
	}

	g, err := eng.fetcher.FetchDefinitionGroup(ctx, spec.Group)
	if err != nil {
		return domain.RuleRef{}, fmt.Errorf("resolving rule %q: %w", spec.Name, err)
	}
	var found *domain.DefinitionRule
	for i := range g.Rules {
		if g.Rules[i].Name != spec.Name {
			continue
		}
		if found != nil {
			return domain.RuleRef{}, fmt.Errorf(
				"%w: rule name %q is not unique in %s; supply its query and labels",
				domain.ErrInvalidReference, spec.Name, spec.Group,
			)
		}
		found = &g.Rules[i]
	}
	if found == nil {
		return domain.RuleRef{}, fmt.Errorf("resolving rule %q in %s: %w", spec.Name, spec.Group, domain.ErrNotFound)
	}
	ref := fingerprint.Ref(spec.Group, found)
	ref.UID = spec.UID
	return ref, nil
}

// WaitRule polls until ref reaches the wanted presence in the runtime-state
// store, then records the wait. A zero timeout uses the engine default.
func (eng *Engine) WaitRule(
	ctx context.Context,
	ref domain.RuleRef,
	want poller.Presence,
	timeout time.Duration,
) poller.ExistenceResult {
	if timeout <= 0 {
		timeout = eng.pollTimeout
	}

	res := eng.rules.Await(ctx, ref, want, time.Now().Add(timeout))

	kind := domain.WaitRuleAppear
	if want == poller.Absent {
		kind = domain.WaitRuleDisappear
	}
	eng.recordWait(ctx, &domain.WaitRecord{
		Kind:       kind,
		Group:      ref.Group,
		RuleName:   ref.Name,
		Outcome:    res.Outcome,
		Reason:     waitReason("", res.Err),
		Ticks:      res.Ticks,
		Elapsed:    res.Elapsed,
		StartedAt:  res.StartedAt,
		FinishedAt: res.StartedAt.Add(res.Elapsed),
	})
	return res
}

// recordWait stores w. A cancelled request context must not lose the record.
func (eng *Engine) recordWait(ctx context.Context, w *domain.WaitRecord) {
	if err := eng.store.RecordWait(context.WithoutCancel(ctx), w); err != nil {
		eng.log.Error("recording wait", "kind", w.Kind, "group", w.Group.String(), "error", err)
	}
}

func waitReason(reason string, err error) string {
	if err != nil {
		return err.Error()
	}
	return reason
}

// ListWaits returns recorded waits matching q and the total match count.
func (eng *Engine) ListWaits(ctx context.Context, q *store.WaitQuery) ([]domain.WaitRecord, int, error) {
	return eng.store.ListWaits(ctx, q)
}

// GetWait returns one recorded wait.
func (eng *Engine) GetWait(ctx context.Context, id string) (*domain.WaitRecord, error) {
	return eng.store.GetWait(ctx, id)
}

// ListAuditRuns returns the most recent audit runs.
func (eng *Engine) ListAuditRuns(ctx context.Context, limit int) ([]domain.AuditRun, error) {
	return eng.store.ListAuditRuns(ctx, limit)
}
