package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/donaldgifford/rulesync/pkg/matcher"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// Backend is one configured pair of stores.
type Backend struct {
	Name       string
	Definition DefinitionClient
	Runtime    RuntimeClient
}

// Router dispatches fetches to the backend named by GroupRef.Source. The
// empty source resolves to the default backend.
type Router struct {
	backends    map[string]Backend
	defaultName string
	log         *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithDefault names the backend used for references with an empty source.
func WithDefault(name string) RouterOption {
	return func(r *Router) {
		r.defaultName = name
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		r.log = l
	}
}

// NewRouter creates a router over backends. Names must be unique and the
// default, if set, must be one of them.
func NewRouter(backends []Backend, opts ...RouterOption) (*Router, error) {
	r := &Router{
		backends: make(map[string]Backend, len(backends)),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	var errs []error
	for _, b := range backends {
		if b.Name == "" {
			errs = append(errs, errors.New("backend name is required"))
			continue
		}
		if _, dup := r.backends[b.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate backend %q", b.Name))
			continue
		}
		r.backends[b.Name] = b
	}
	if r.defaultName != "" {
		if _, ok := r.backends[r.defaultName]; !ok {
			errs = append(errs, fmt.Errorf("default backend %q is not configured", r.defaultName))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Sources returns the configured backend names in sorted order.
func (r *Router) Sources() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Default returns the name of the default backend, if any.
func (r *Router) Default() string {
	return r.defaultName
}

func (r *Router) resolve(source string) (Backend, error) {
	if source == "" {
		source = r.defaultName
	}
	b, ok := r.backends[source]
	if !ok {
		return Backend{}, fmt.Errorf("%w %q", ErrUnknownSource, source)
	}
	return b, nil
}

// FetchDefinitionGroup reads ref from its backend's definition store.
func (r *Router) FetchDefinitionGroup(ctx context.Context, ref domain.GroupRef) (*domain.DefinitionGroup, error) {
	b, err := r.resolve(ref.Source)
	if err != nil {
		return nil, err
	}
	return b.Definition.FetchDefinitionGroup(ctx, ref)
}

// FetchRuntimeGroup reads ref from its backend's runtime-state store.
func (r *Router) FetchRuntimeGroup(ctx context.Context, ref domain.GroupRef) (*domain.RuntimeGroup, error) {
	b, err := r.resolve(ref.Source)
	if err != nil {
		return nil, err
	}
	return b.Runtime.FetchRuntimeGroup(ctx, ref)
}

// FetchRuntimeRule looks up a single rule in its group's runtime snapshot.
// It returns domain.ErrNotFound when the group or the rule is absent.
func (r *Router) FetchRuntimeRule(ctx context.Context, ref domain.RuleRef) (*domain.RuntimeRule, error) {
	g, err := r.FetchRuntimeGroup(ctx, ref.Group)
	if err != nil {
		return nil, err
	}
	rule, ok := matcher.FindRuntimeRule(&ref, g.Rules)
	if !ok {
		r.log.Debug("rule not in runtime group", "rule", ref.String(), "rules", len(g.Rules))
		return nil, fmt.Errorf("runtime rule %s: %w", ref, domain.ErrNotFound)
	}
	return &rule, nil
}
