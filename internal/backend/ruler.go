package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"gopkg.in/yaml.v3"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

const defaultRulerPrefix = "/api/v1/rules"

// RulerClient reads rule groups from a Cortex/Mimir-style ruler config API.
type RulerClient struct {
	req requester
}

// NewRulerClient creates a ruler client for baseURL.
func NewRulerClient(baseURL string, opts ...Option) *RulerClient {
	return &RulerClient{req: newRequester("definition", baseURL, defaultRulerPrefix, opts)}
}

// rulerGroup is the YAML shape of a rule group as the ruler serves it.
type rulerGroup struct {
	Name     string      `yaml:"name"`
	Interval string      `yaml:"interval,omitempty"`
	Rules    []rulerRule `yaml:"rules"`
}

type rulerRule struct {
	Alert       string            `yaml:"alert,omitempty"`
	Record      string            `yaml:"record,omitempty"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// FetchDefinitionGroup implements DefinitionClient. A 404 from the ruler is
// domain.ErrNotFound.
func (c *RulerClient) FetchDefinitionGroup(ctx context.Context, ref domain.GroupRef) (*domain.DefinitionGroup, error) {
	path := "/" + url.PathEscape(ref.Namespace) + "/" + url.PathEscape(ref.Group)

	body, err := c.req.get(ctx, path, nil, "application/yaml")
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("ruler group %s: %w", ref, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("fetching ruler group %s: %w", ref, err)
	}

	var g rulerGroup
	if err := yaml.Unmarshal(body, &g); err != nil {
		return nil, fmt.Errorf("parsing ruler group %s: %w", ref, err)
	}

	out := &domain.DefinitionGroup{
		Ref:      ref,
		Interval: g.Interval,
		Rules:    make([]domain.DefinitionRule, 0, len(g.Rules)),
	}
	for _, r := range g.Rules {
		out.Rules = append(out.Rules, r.toDomain())
	}
	return out, nil
}

func (r *rulerRule) toDomain() domain.DefinitionRule {
	d := domain.DefinitionRule{
		Kind:        domain.KindUnknown,
		Query:       r.Expr,
		For:         r.For,
		Labels:      r.Labels,
		Annotations: r.Annotations,
	}
	switch {
	case r.Alert != "":
		d.Kind = domain.KindAlerting
		d.Name = r.Alert
	case r.Record != "":
		d.Kind = domain.KindRecording
		d.Name = r.Record
	}
	return d
}
