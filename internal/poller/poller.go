// Package poller waits for definition-store mutations to become observable in
// the runtime-state store.
//
// ConsistencyPoller watches a whole group until both stores agree on its
// membership and order. ExistencePoller watches a single rule until it
// appears or disappears. Both poll on a fixed interval, bound every wait by a
// wall-clock deadline that in-flight fetches cannot extend, and distinguish
// cancellation from timeout.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// Reference polling cadence.
const (
	DefaultInterval = 3 * time.Second
	DefaultTimeout  = 90 * time.Second
)

// ErrWaitCancelled is returned when a wait ends because its caller cancelled
// it or a newer wait for the same reference replaced it.
var ErrWaitCancelled = errors.New("wait cancelled")

// errWaitTimedOut is the context cause used for wait deadlines.
var errWaitTimedOut = errors.New("wait timed out")

// GroupFetcher reads one group from each store. Both methods return
// domain.ErrNotFound (possibly wrapped) when the group does not exist.
type GroupFetcher interface {
	FetchDefinitionGroup(ctx context.Context, ref domain.GroupRef) (*domain.DefinitionGroup, error)
	FetchRuntimeGroup(ctx context.Context, ref domain.GroupRef) (*domain.RuntimeGroup, error)
}

// RuleFetcher reads one rule from the runtime-state store, returning
// domain.ErrNotFound when no rule matches ref.
type RuleFetcher interface {
	FetchRuntimeRule(ctx context.Context, ref domain.RuleRef) (*domain.RuntimeRule, error)
}

type settings struct {
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a poller.
type Option func(*settings)

// WithInterval sets the delay between polls.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		s.interval = d
	}
}

// WithTimeout sets the default deadline offset for new waits.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.log = l
	}
}

// race runs fn and returns its value unless ctx ends first. A value that
// arrives after ctx ended is discarded.
func race[T any](ctx context.Context, fn func(context.Context) T) (T, error) {
	ch := make(chan T, 1)
	go func() {
		ch <- fn(ctx)
	}()

	var zero T
	select {
	case <-ctx.Done():
		return zero, context.Cause(ctx)
	case v := <-ch:
		if ctx.Err() != nil {
			return zero, context.Cause(ctx)
		}
		return v, nil
	}
}

// sleep waits for d on a timer it owns, returning false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// outcomeOf maps the cause of an ended wait context to an outcome.
func outcomeOf(cause error) domain.WaitOutcome {
	if errors.Is(cause, errWaitTimedOut) {
		return domain.OutcomeTimedOut
	}
	return domain.OutcomeCancelled
}
