package client

import (
	"context"
	"fmt"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// RunAudit triggers one drift audit and returns the finished run.
func (c *Client) RunAudit(ctx context.Context) (*domain.AuditRun, error) {
	var run domain.AuditRun
	if err := c.post(ctx, "/api/v1/audit", nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListAuditRuns returns recent audit runs, newest first.
func (c *Client) ListAuditRuns(ctx context.Context, limit int) ([]domain.AuditRun, error) {
	path := "/api/v1/audit/runs"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var runs []domain.AuditRun
	if err := c.get(ctx, path, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
