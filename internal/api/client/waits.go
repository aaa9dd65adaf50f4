package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/donaldgifford/rulesync/pkg/consistency"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// WaitGroupRequest starts a group consistency wait.
type WaitGroupRequest struct {
	Source         string `json:"source,omitempty"`
	Namespace      string `json:"namespace"`
	Group          string `json:"group"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// WaitRuleRequest starts a single-rule existence wait. Mode is "appear" or
// "disappear".
type WaitRuleRequest struct {
	Source         string            `json:"source,omitempty"`
	Namespace      string            `json:"namespace"`
	Group          string            `json:"group"`
	Name           string            `json:"name"`
	UID            string            `json:"uid,omitempty"`
	Kind           string            `json:"kind,omitempty"`
	Query          string            `json:"query,omitempty"`
	Labels         map[string]string `json:"labels,omitempty"`
	Annotations    map[string]string `json:"annotations,omitempty"`
	Mode           string            `json:"mode"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
}

// GroupWaitResult is the outcome of a group wait.
type GroupWaitResult struct {
	Ref       domain.GroupRef     `json:"ref"`
	Outcome   domain.WaitOutcome  `json:"outcome"`
	Verdict   consistency.Verdict `json:"verdict"`
	Ticks     int                 `json:"ticks"`
	StartedAt time.Time           `json:"started_at"`
	ElapsedMS int64               `json:"elapsed_ms"`
	Error     string              `json:"error,omitempty"`
}

// RuleWaitResult is the outcome of an existence wait.
type RuleWaitResult struct {
	Rule      domain.RuleRef      `json:"rule"`
	Mode      string              `json:"mode"`
	Outcome   domain.WaitOutcome  `json:"outcome"`
	Ticks     int                 `json:"ticks"`
	StartedAt time.Time           `json:"started_at"`
	ElapsedMS int64               `json:"elapsed_ms"`
	Found     *domain.RuntimeRule `json:"found,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// WaitsResponse is one page of wait history.
type WaitsResponse struct {
	Waits  []domain.WaitRecord `json:"waits"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// ListWaitsParams filters wait history.
type ListWaitsParams struct {
	Kind      string
	Outcome   string
	Source    string
	Namespace string
	Group     string
	Since     time.Time
	Limit     int
	Offset    int
}

// WaitGroup blocks until the server's wait for the group finishes.
func (c *Client) WaitGroup(ctx context.Context, req *WaitGroupRequest) (*GroupWaitResult, error) {
	var res GroupWaitResult
	if err := c.post(ctx, "/api/v1/waits/group", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// WaitRule blocks until the server's wait for the rule finishes.
func (c *Client) WaitRule(ctx context.Context, req *WaitRuleRequest) (*RuleWaitResult, error) {
	var res RuleWaitResult
	if err := c.post(ctx, "/api/v1/waits/rule", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CancelWait cancels the active wait for a group.
func (c *Client) CancelWait(ctx context.Context, ref domain.GroupRef) error {
	return c.del(ctx, "/api/v1/waits/group/"+groupPath(ref), nil)
}

// ActiveWaits lists groups with a wait in progress.
func (c *Client) ActiveWaits(ctx context.Context) ([]domain.GroupRef, error) {
	var resp struct {
		Waits []domain.GroupRef `json:"waits"`
	}
	if err := c.get(ctx, "/api/v1/waits/active", &resp); err != nil {
		return nil, err
	}
	return resp.Waits, nil
}

// ListWaits returns wait history matching p.
func (c *Client) ListWaits(ctx context.Context, p *ListWaitsParams) (*WaitsResponse, error) {
	v := url.Values{}
	if p != nil {
		setIf(v, "kind", p.Kind)
		setIf(v, "outcome", p.Outcome)
		setIf(v, "source", p.Source)
		setIf(v, "namespace", p.Namespace)
		setIf(v, "group", p.Group)
		if !p.Since.IsZero() {
			v.Set("since", p.Since.UTC().Format(time.RFC3339))
		}
		if p.Limit > 0 {
			v.Set("limit", strconv.Itoa(p.Limit))
		}
		if p.Offset > 0 {
			v.Set("offset", strconv.Itoa(p.Offset))
		}
	}

	path := "/api/v1/waits"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var resp WaitsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetWait returns one recorded wait.
func (c *Client) GetWait(ctx context.Context, id string) (*domain.WaitRecord, error) {
	var w domain.WaitRecord
	if err := c.get(ctx, "/api/v1/waits/"+url.PathEscape(id), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
