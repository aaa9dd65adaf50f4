package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// Auditor runs the drift audit and reads its history.
type Auditor interface {
	RunAudit(ctx context.Context) (*domain.AuditRun, error)
	ListAuditRuns(ctx context.Context, limit int) ([]domain.AuditRun, error)
}

// AuditHandler handles drift audit endpoints.
type AuditHandler struct {
	auditor Auditor
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(a Auditor) *AuditHandler {
	return &AuditHandler{auditor: a}
}

// RunAuditOutput is the response for a manual audit.
type RunAuditOutput struct {
	Body *domain.AuditRun
}

// ListAuditRunsInput limits the audit history.
type ListAuditRunsInput struct {
	Limit int `query:"limit" doc:"Number of runs (default 20)" minimum:"1" maximum:"500"`
}

// ListAuditRunsOutput is the audit run history.
type ListAuditRunsOutput struct {
	Body []domain.AuditRun
}

const defaultAuditHistoryLimit = 20

// RunAudit runs the drift audit once. Errors checking individual groups are
// reported in the run's status and error text; only a run that could not be
// recorded at all fails the request.
func (h *AuditHandler) RunAudit(
	ctx context.Context,
	_ *struct{},
) (*RunAuditOutput, error) {
	run, err := h.auditor.RunAudit(ctx)
	if err != nil && run == nil {
		return nil, huma.Error500InternalServerError("audit failed: " + err.Error())
	}
	return &RunAuditOutput{Body: run}, nil
}

// ListAuditRuns returns recent audit runs, newest first.
func (h *AuditHandler) ListAuditRuns(
	ctx context.Context,
	input *ListAuditRunsInput,
) (*ListAuditRunsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = defaultAuditHistoryLimit
	}

	runs, err := h.auditor.ListAuditRuns(ctx, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing audit runs failed: " + err.Error())
	}

	if runs == nil {
		runs = []domain.AuditRun{}
	}

	return &ListAuditRunsOutput{Body: runs}, nil
}

// RegisterAuditRoutes registers drift audit endpoints with the Huma API.
func RegisterAuditRoutes(api huma.API, h *AuditHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "run-audit",
		Method:      http.MethodPost,
		Path:        "/api/v1/audit",
		Summary:     "Run the drift audit",
		Description: "Checks every configured audit group once and notifies on groups that stay out of sync.",
		Tags:        []string{"audit"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.RunAudit)

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-runs",
		Method:      http.MethodGet,
		Path:        "/api/v1/audit/runs",
		Summary:     "List audit runs",
		Description: "Returns recent drift audit runs (newest first).",
		Tags:        []string{"audit"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListAuditRuns)
}
