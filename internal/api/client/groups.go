package client

import (
	"context"
	"net/url"

	"github.com/donaldgifford/rulesync/pkg/consistency"
	"github.com/donaldgifford/rulesync/pkg/matcher"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// RuleIDs pairs the identifiers each backend assigns to one matched rule.
type RuleIDs struct {
	Name       string                `json:"name"`
	Definition domain.RuleIdentifier `json:"definition"`
	Runtime    domain.RuleIdentifier `json:"runtime"`
}

// MatchResponse is the comparison of one group across both stores.
type MatchResponse struct {
	Ref        domain.GroupRef         `json:"ref"`
	Verdict    consistency.Verdict     `json:"verdict"`
	Match      matcher.Result          `json:"match"`
	Identities []RuleIDs               `json:"identities"`
	Definition *domain.DefinitionGroup `json:"definition,omitempty"`
	Runtime    *domain.RuntimeGroup    `json:"runtime,omitempty"`
}

// SourcesResponse lists the server's configured backends.
type SourcesResponse struct {
	Sources []string `json:"sources"`
	Default string   `json:"default,omitempty"`
}

// groupPath renders ref as path segments. The empty source is sent as "-".
func groupPath(ref domain.GroupRef) string {
	source := ref.Source
	if source == "" {
		source = "-"
	}
	return url.PathEscape(source) + "/" + url.PathEscape(ref.Namespace) + "/" + url.PathEscape(ref.Group)
}

// Match compares one group across both stores.
func (c *Client) Match(ctx context.Context, ref domain.GroupRef) (*MatchResponse, error) {
	var gm MatchResponse
	if err := c.get(ctx, "/api/v1/groups/"+groupPath(ref)+"/match", &gm); err != nil {
		return nil, err
	}
	return &gm, nil
}

// ListSources returns the server's configured backends.
func (c *Client) ListSources(ctx context.Context) (*SourcesResponse, error) {
	var resp SourcesResponse
	if err := c.get(ctx, "/api/v1/sources", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
