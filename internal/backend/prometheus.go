package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

const defaultPrometheusPrefix = "/api/v1/rules"

// PrometheusClient reads rule groups from the Prometheus rules API.
type PrometheusClient struct {
	req requester
}

// NewPrometheusClient creates a client for the Prometheus-compatible API at
// baseURL.
func NewPrometheusClient(baseURL string, opts ...Option) *PrometheusClient {
	return &PrometheusClient{req: newRequester("runtime", baseURL, defaultPrometheusPrefix, opts)}
}

type rulesResponse struct {
	Status    string    `json:"status"`
	Data      rulesData `json:"data"`
	ErrorType string    `json:"errorType,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type rulesData struct {
	Groups []promGroup `json:"groups"`
}

type promGroup struct {
	Name           string     `json:"name"`
	File           string     `json:"file"`
	Rules          []promRule `json:"rules"`
	Interval       float64    `json:"interval"`
	LastEvaluation *time.Time `json:"lastEvaluation,omitempty"`
}

type promRule struct {
	Type           string            `json:"type"`
	Name           string            `json:"name"`
	Query          string            `json:"query"`
	Labels         map[string]string `json:"labels,omitempty"`
	Annotations    map[string]string `json:"annotations,omitempty"`
	State          string            `json:"state,omitempty"`
	Health         string            `json:"health"`
	LastError      string            `json:"lastError,omitempty"`
	LastEvaluation *time.Time        `json:"lastEvaluation,omitempty"`
	UID            string            `json:"uid,omitempty"`
}

// FetchRuntimeGroup implements RuntimeClient. A group the API does not list
// is domain.ErrNotFound.
func (c *PrometheusClient) FetchRuntimeGroup(ctx context.Context, ref domain.GroupRef) (*domain.RuntimeGroup, error) {
	q := url.Values{}
	q.Add("rule_group[]", ref.Group)
	q.Add("file[]", ref.Namespace)

	body, err := c.req.get(ctx, "", q, "application/json")
	if err != nil {
		return nil, fmt.Errorf("fetching runtime group %s: %w", ref, err)
	}

	var resp rulesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing rules response: %w", err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("rules API returned %s: %s: %s", resp.Status, resp.ErrorType, resp.Error)
	}

	for i := range resp.Data.Groups {
		g := &resp.Data.Groups[i]
		if g.Name == ref.Group && fileMatches(g.File, ref.Namespace) {
			return g.toDomain(ref), nil
		}
	}
	return nil, fmt.Errorf("runtime group %s: %w", ref, domain.ErrNotFound)
}

// fileMatches reports whether a group's file names namespace. Multi-tenant
// rulers report the namespace itself; a plain Prometheus reports the rule
// file path, whose base name without extension is taken as the namespace.
func fileMatches(file, namespace string) bool {
	if file == namespace {
		return true
	}
	base := path.Base(file)
	return strings.TrimSuffix(base, path.Ext(base)) == namespace
}

func (g *promGroup) toDomain(ref domain.GroupRef) *domain.RuntimeGroup {
	out := &domain.RuntimeGroup{
		Ref:            ref,
		Rules:          make([]domain.RuntimeRule, 0, len(g.Rules)),
		LastEvaluation: evaluated(g.LastEvaluation),
	}
	for _, r := range g.Rules {
		out.Rules = append(out.Rules, domain.RuntimeRule{
			Kind:           domain.ParseRuleKind(r.Type),
			Name:           r.Name,
			Query:          r.Query,
			Labels:         r.Labels,
			Annotations:    r.Annotations,
			State:          domain.RuleState(r.State),
			Health:         r.Health,
			LastError:      r.LastError,
			LastEvaluation: evaluated(r.LastEvaluation),
			UID:            r.UID,
		})
	}
	return out
}

// evaluated drops the zero timestamp Prometheus reports for rules that have
// not been evaluated yet.
func evaluated(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return t
}
