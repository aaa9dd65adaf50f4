package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/rulesync/internal/engine"
	"github.com/donaldgifford/rulesync/internal/poller"
	"github.com/donaldgifford/rulesync/internal/store"
	"github.com/donaldgifford/rulesync/pkg/consistency"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// GroupWaiter runs and cancels group consistency waits.
type GroupWaiter interface {
	WaitGroup(ctx context.Context, ref domain.GroupRef, timeout time.Duration) (poller.Result, error)
	CancelWait(ref domain.GroupRef) bool
	ActiveWaits() []domain.GroupRef
}

// RuleWaiter runs single-rule existence waits.
type RuleWaiter interface {
	ResolveRule(ctx context.Context, spec *engine.RuleSpec) (domain.RuleRef, error)
	WaitRule(ctx context.Context, ref domain.RuleRef, want poller.Presence, timeout time.Duration) poller.ExistenceResult
}

// WaitHistory reads recorded waits.
type WaitHistory interface {
	ListWaits(ctx context.Context, q *store.WaitQuery) ([]domain.WaitRecord, int, error)
	GetWait(ctx context.Context, id string) (*domain.WaitRecord, error)
}

// Waiter is everything the waits endpoints need. engine.Engine implements
// it.
type Waiter interface {
	GroupWaiter
	RuleWaiter
	WaitHistory
}

// WaitsHandler handles wait endpoints. Wait requests block until the wait
// finishes.
type WaitsHandler struct {
	waiter Waiter
}

// NewWaitsHandler creates a new WaitsHandler.
func NewWaitsHandler(w Waiter) *WaitsHandler {
	return &WaitsHandler{waiter: w}
}

// MaxWaitTimeoutSeconds bounds timeout_seconds on wait requests.
const MaxWaitTimeoutSeconds = 3600

// --- Input/Output types ---

// WaitGroupInput is the request body for a group consistency wait.
type WaitGroupInput struct {
	Body struct {
		Source         string `json:"source,omitempty"          doc:"Backend name; empty selects the default backend"`
		Namespace      string `json:"namespace"                 doc:"Rule namespace"                                  minLength:"1"`
		Group          string `json:"group"                     doc:"Rule group name"                                 minLength:"1"`
		TimeoutSeconds int    `json:"timeout_seconds,omitempty" doc:"Give up after this long (default from config)"   minimum:"0" maximum:"3600"`
	}
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

// WaitGroupOutput is the response for a group consistency wait.
type WaitGroupOutput struct {
	Body GroupWaitResult
}

// WaitRuleInput is the request body for a single-rule existence wait. A rule
// given by name alone is looked up in the definition store; supply query and
// labels to wait for a rule the definition store does not hold.
type WaitRuleInput struct {
	Body struct {
		Source         string            `json:"source,omitempty"          doc:"Backend name; empty selects the default backend"`
		Namespace      string            `json:"namespace"                 doc:"Rule namespace"                                                    minLength:"1"`
		Group          string            `json:"group"                     doc:"Rule group name"                                                   minLength:"1"`
		Name           string            `json:"name"                      doc:"Rule name (alert or record)"                                       minLength:"1"`
		UID            string            `json:"uid,omitempty"             doc:"Runtime UID, when the backend reports one"`
		Kind           string            `json:"kind,omitempty"            doc:"Rule kind"                                  enum:"alerting,recording,"`
		Query          string            `json:"query,omitempty"           doc:"Rule query"`
		Labels         map[string]string `json:"labels,omitempty"          doc:"Rule labels"`
		Annotations    map[string]string `json:"annotations,omitempty"     doc:"Rule annotations"`
		Mode           string            `json:"mode"                      doc:"Wait for the rule to appear or disappear"   enum:"appear,disappear"`
		TimeoutSeconds int               `json:"timeout_seconds,omitempty" doc:"Give up after this long (default from config)" minimum:"0" maximum:"3600"`
	}
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

// WaitRuleOutput is the response for an existence wait.
type WaitRuleOutput struct {
	Body RuleWaitResult
}

// CancelWaitOutput is the response for cancelling a group wait.
type CancelWaitOutput struct {
	Body struct {
		Cancelled bool            `json:"cancelled"`
		Ref       domain.GroupRef `json:"ref"`
	}
}

// ActiveWaitsOutput lists groups with a wait in progress.
type ActiveWaitsOutput struct {
	Body struct {
		Waits []domain.GroupRef `json:"waits"`
	}
}

// ListWaitsInput filters wait history.
type ListWaitsInput struct {
	Kind      string `query:"kind"      doc:"Filter by wait kind"               enum:"group,rule_appear,rule_disappear,"`
	Outcome   string `query:"outcome"   doc:"Filter by outcome"                 enum:"converged,timed_out,cancelled,failed,"`
	Source    string `query:"source"    doc:"Filter by backend name"`
	Namespace string `query:"namespace" doc:"Filter by namespace"`
	Group     string `query:"group"     doc:"Filter by group"`
	Since     string `query:"since"     doc:"Only waits started at or after this RFC 3339 time"`
	Limit     int    `query:"limit"     doc:"Number of results (default 50)"                                                   minimum:"1" maximum:"1000"`
	Offset    int    `query:"offset"    doc:"Pagination offset"                                                                minimum:"0"`
}

// ListWaitsOutput is one page of wait history.
type ListWaitsOutput struct {
	Body struct {
		Waits  []domain.WaitRecord `json:"waits"`
		Total  int                 `json:"total"`
		Limit  int                 `json:"limit"`
		Offset int                 `json:"offset"`
	}
}

// GetWaitInput is the input for getting a single wait record.
type GetWaitInput struct {
	ID string `path:"id" doc:"Wait record ID"`
}

// GetWaitOutput is the response for a single wait record.
type GetWaitOutput struct {
	Body *domain.WaitRecord
}

// --- Handlers ---

// WaitGroup blocks until the group converges, the timeout passes or the
// client goes away.
func (h *WaitsHandler) WaitGroup(
	ctx context.Context,
	input *WaitGroupInput,
) (*WaitGroupOutput, error) {
	ref := domain.GroupRef{
		Source:    sourceParam(input.Body.Source),
		Namespace: input.Body.Namespace,
		Group:     input.Body.Group,
	}
	res, err := h.waiter.WaitGroup(ctx, ref, seconds(input.Body.TimeoutSeconds))
	if err != nil {
		return nil, apiError("wait failed", err)
	}
	if errors.Is(res.Err, domain.ErrInvalidReference) {
		return nil, apiError("wait failed", res.Err)
	}

	out := &WaitGroupOutput{Body: GroupWaitResult{
		Ref:       res.Ref,
		Outcome:   res.Outcome,
		Verdict:   res.Verdict,
		Ticks:     res.Ticks,
		StartedAt: res.StartedAt,
		ElapsedMS: res.Elapsed.Milliseconds(),
	}}
	if res.Err != nil {
		out.Body.Error = res.Err.Error()
	}
	return out, nil
}

// WaitRule blocks until the rule reaches the wanted presence in the
// runtime-state store.
func (h *WaitsHandler) WaitRule(
	ctx context.Context,
	input *WaitRuleInput,
) (*WaitRuleOutput, error) {
	b := &input.Body
	spec := &engine.RuleSpec{
		Group: domain.GroupRef{
			Source:    sourceParam(b.Source),
			Namespace: b.Namespace,
			Group:     b.Group,
		},
		Name:        b.Name,
		UID:         b.UID,
		Query:       b.Query,
		Labels:      b.Labels,
		Annotations: b.Annotations,
	}
	if b.Kind != "" {
		spec.Kind = domain.ParseRuleKind(b.Kind)
	}

	ref, err := h.waiter.ResolveRule(ctx, spec)
	if err != nil {
		return nil, apiError("resolving rule failed", err)
	}

	want := poller.Present
	if b.Mode == "disappear" {
		want = poller.Absent
	}
	res := h.waiter.WaitRule(ctx, ref, want, seconds(b.TimeoutSeconds))
	if errors.Is(res.Err, domain.ErrInvalidReference) {
		return nil, apiError("wait failed", res.Err)
	}

	out := &WaitRuleOutput{Body: RuleWaitResult{
		Rule:      res.Rule,
		Mode:      b.Mode,
		Outcome:   res.Outcome,
		Ticks:     res.Ticks,
		StartedAt: res.StartedAt,
		ElapsedMS: res.Elapsed.Milliseconds(),
		Found:     res.Found,
	}}
	if res.Err != nil {
		out.Body.Error = res.Err.Error()
	}
	return out, nil
}

// CancelWait cancels the wait in progress for a group.
func (h *WaitsHandler) CancelWait(
	_ context.Context,
	input *GroupPathInput,
) (*CancelWaitOutput, error) {
	ref := input.Ref()
	if !h.waiter.CancelWait(ref) {
		return nil, huma.Error404NotFound(fmt.Sprintf("no active wait for %s", ref))
	}
	resp := &CancelWaitOutput{}
	resp.Body.Cancelled = true
	resp.Body.Ref = ref
	return resp, nil
}

// ActiveWaits lists groups with a wait in progress.
func (h *WaitsHandler) ActiveWaits(
	_ context.Context,
	_ *struct{},
) (*ActiveWaitsOutput, error) {
	resp := &ActiveWaitsOutput{}
	resp.Body.Waits = h.waiter.ActiveWaits()
	if resp.Body.Waits == nil {
		resp.Body.Waits = []domain.GroupRef{}
	}
	return resp, nil
}

// ListWaits returns recorded waits, newest first.
func (h *WaitsHandler) ListWaits(
	ctx context.Context,
	input *ListWaitsInput,
) (*ListWaitsOutput, error) {
	q := &store.WaitQuery{
		Limit:  input.Limit,
		Offset: input.Offset,
	}

	if input.Kind != "" {
		k := domain.WaitKind(input.Kind)
		q.Kind = &k
	}

	if input.Outcome != "" {
		o := domain.WaitOutcome(input.Outcome)
		q.Outcome = &o
	}

	if input.Source != "" {
		src := sourceParam(input.Source)
		q.Source = &src
	}

	if input.Namespace != "" {
		q.Namespace = &input.Namespace
	}

	if input.Group != "" {
		q.Group = &input.Group
	}

	if input.Since != "" {
		since, err := time.Parse(time.RFC3339, input.Since)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid since: " + err.Error())
		}
		q.Since = &since
	}

	waits, total, err := h.waiter.ListWaits(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing waits failed: " + err.Error())
	}

	if waits == nil {
		waits = []domain.WaitRecord{}
	}

	resp := &ListWaitsOutput{}
	resp.Body.Waits = waits
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset
	return resp, nil
}

// GetWait returns one recorded wait.
func (h *WaitsHandler) GetWait(
	ctx context.Context,
	input *GetWaitInput,
) (*GetWaitOutput, error) {
	w, err := h.waiter.GetWait(ctx, input.ID)
	if err != nil {
		return nil, apiError("getting wait failed", err)
	}
	return &GetWaitOutput{Body: w}, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// RegisterWaitRoutes registers wait endpoints with the Huma API.
func RegisterWaitRoutes(api huma.API, h *WaitsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "wait-group",
		Method:      http.MethodPost,
		Path:        "/api/v1/waits/group",
		Summary:     "Wait for a group to converge",
		Description: "Polls both stores until the group is consistent, the timeout passes or the request is cancelled. A new wait for the same group cancels the running one.",
		Tags:        []string{"waits"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.WaitGroup)

	huma.Register(api, huma.Operation{
		OperationID: "wait-rule",
		Method:      http.MethodPost,
		Path:        "/api/v1/waits/rule",
		Summary:     "Wait for a rule to appear or disappear",
		Description: "Polls the runtime-state store until the rule is present (mode appear) or absent (mode disappear).",
		Tags:        []string{"waits"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, h.WaitRule)

	huma.Register(api, huma.Operation{
		OperationID: "cancel-group-wait",
		Method:      http.MethodDelete,
		Path:        "/api/v1/waits/group/{source}/{namespace}/{group}",
		Summary:     "Cancel a group wait",
		Description: "Cancels the wait in progress for the group. The waiting request returns with outcome cancelled.",
		Tags:        []string{"waits"},
		Errors:      []int{http.StatusNotFound},
	}, h.CancelWait)

	huma.Register(api, huma.Operation{
		OperationID: "list-active-waits",
		Method:      http.MethodGet,
		Path:        "/api/v1/waits/active",
		Summary:     "List active group waits",
		Tags:        []string{"waits"},
	}, h.ActiveWaits)

	huma.Register(api, huma.Operation{
		OperationID: "list-waits",
		Method:      http.MethodGet,
		Path:        "/api/v1/waits",
		Summary:     "List wait history",
		Description: "Returns finished waits, newest first, with optional filters and pagination.",
		Tags:        []string{"waits"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.ListWaits)

	huma.Register(api, huma.Operation{
		OperationID: "get-wait",
		Method:      http.MethodGet,
		Path:        "/api/v1/waits/{id}",
		Summary:     "Get a wait record",
		Tags:        []string{"waits"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.GetWait)
}
