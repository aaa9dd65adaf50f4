package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/rulesync/pkg/consistency"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ActiveWaits(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"unknown source"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Match(context.Background(), domain.GroupRef{Source: "nope", Namespace: "a", Group: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (HTTP 400)")
	assert.Contains(t, err.Error(), "unknown source")
	assert.False(t, NotFound(err))
}

func TestClient_ProblemDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		body         string
		wantDetail   string
		wantFields   []string
		wantNotFound bool
	}{
		{
			name:   "validation errors",
			status: http.StatusUnprocessableEntity,
			body: `{"title":"Unprocessable Entity","status":422,"detail":"validation failed",` +
				`"errors":[{"message":"expected length >= 1","location":"body.namespace"}]}`,
			wantDetail: "validation failed",
			wantFields: []string{"body.namespace: expected length >= 1"},
		},
		{
			name:         "title only",
			status:       http.StatusNotFound,
			body:         `{"title":"Not Found","status":404}`,
			wantDetail:   "Not Found",
			wantNotFound: true,
		},
		{
			name:       "plain text body",
			status:     http.StatusBadGateway,
			body:       "upstream down\n",
			wantDetail: "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).GetWait(context.Background(), "w1")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, tt.wantFields, apiErr.Fields)
			assert.Equal(t, tt.wantNotFound, NotFound(err))
		})
	}
}

func TestClient_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ref      domain.GroupRef
		wantPath string
	}{
		{
			name:     "default source",
			ref:      domain.GroupRef{Namespace: "team-a", Group: "latency"},
			wantPath: "/api/v1/groups/-/team-a/latency/match",
		},
		{
			name:     "named source",
			ref:      domain.GroupRef{Source: "prod", Namespace: "team-a", Group: "latency"},
			wantPath: "/api/v1/groups/prod/team-a/latency/match",
		},
		{
			name:     "escapes segments",
			ref:      domain.GroupRef{Namespace: "ns", Group: "a/b"},
			wantPath: "/api/v1/groups/-/ns/a%2Fb/match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.EscapedPath())
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(MatchResponse{
					Ref:     tt.ref,
					Verdict: consistency.Verdict{InSync: true, Reason: consistency.ReasonConverged},
				})
			}))
			defer srv.Close()

			gm, err := New(srv.URL).Match(context.Background(), tt.ref)
			require.NoError(t, err)
			assert.True(t, gm.Verdict.InSync)
			assert.Equal(t, tt.ref, gm.Ref)
		})
	}
}

func TestClient_ListSources(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sources", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"$schema":"x","sources":["prod","staging"],"default":"prod"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).ListSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"prod", "staging"}, resp.Sources)
	assert.Equal(t, "prod", resp.Default)
}

func TestClient_WaitGroup(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/waits/group", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req WaitGroupRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "team-a", req.Namespace)
		assert.Equal(t, 30, req.TimeoutSeconds)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(GroupWaitResult{
			Ref:       domain.GroupRef{Namespace: req.Namespace, Group: req.Group},
			Outcome:   domain.OutcomeConverged,
			Ticks:     3,
			ElapsedMS: 6000,
		})
	}))
	defer srv.Close()

	res, err := New(srv.URL).WaitGroup(context.Background(), &WaitGroupRequest{
		Namespace:      "team-a",
		Group:          "latency",
		TimeoutSeconds: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeConverged, res.Outcome)
	assert.Equal(t, 3, res.Ticks)
	assert.Equal(t, int64(6000), res.ElapsedMS)
}

func TestClient_WaitRule(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/waits/rule", r.URL.Path)

		var req WaitRuleRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "disappear", req.Mode)
		assert.Equal(t, "HighLatency", req.Name)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RuleWaitResult{
			Rule:    domain.RuleRef{Name: req.Name},
			Mode:    req.Mode,
			Outcome: domain.OutcomeTimedOut,
		})
	}))
	defer srv.Close()

	res, err := New(srv.URL).WaitRule(context.Background(), &WaitRuleRequest{
		Namespace: "team-a",
		Group:     "latency",
		Name:      "HighLatency",
		Mode:      "disappear",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeTimedOut, res.Outcome)
	assert.Equal(t, "HighLatency", res.Rule.Name)
}

func TestClient_CancelWait(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/waits/group/prod/team-a/latency", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cancelled":true}`))
	}))
	defer srv.Close()

	err := New(srv.URL).CancelWait(context.Background(), domain.GroupRef{
		Source: "prod", Namespace: "team-a", Group: "latency",
	})
	require.NoError(t, err)
}

func TestClient_ActiveWaits(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/waits/active", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"waits":[{"namespace":"team-a","group":"latency"}]}`))
	}))
	defer srv.Close()

	refs, err := New(srv.URL).ActiveWaits(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "latency", refs[0].Group)
}

func TestClient_ListWaits(t *testing.T) {
	t.Parallel()

	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		params    *ListWaitsParams
		wantQuery map[string]string
	}{
		{
			name:      "no params",
			wantQuery: map[string]string{},
		},
		{
			name: "all filters",
			params: &ListWaitsParams{
				Kind:      "group",
				Outcome:   "timed_out",
				Source:    "prod",
				Namespace: "team-a",
				Group:     "latency",
				Since:     since,
				Limit:     10,
				Offset:    20,
			},
			wantQuery: map[string]string{
				"kind":      "group",
				"outcome":   "timed_out",
				"source":    "prod",
				"namespace": "team-a",
				"group":     "latency",
				"since":     "2026-03-01T12:00:00Z",
				"limit":     "10",
				"offset":    "20",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/waits", r.URL.Path)
				assert.Len(t, r.URL.Query(), len(tt.wantQuery))
				for k, v := range tt.wantQuery {
					assert.Equal(t, v, r.URL.Query().Get(k), k)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(WaitsResponse{
					Waits: []domain.WaitRecord{{ID: "w1"}},
					Total: 1,
				})
			}))
			defer srv.Close()

			resp, err := New(srv.URL).ListWaits(context.Background(), tt.params)
			require.NoError(t, err)
			assert.Equal(t, 1, resp.Total)
			assert.Equal(t, "w1", resp.Waits[0].ID)
		})
	}
}

func TestClient_GetWait(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/waits/w1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.WaitRecord{ID: "w1", Kind: domain.WaitGroup})
	}))
	defer srv.Close()

	wr, err := New(srv.URL).GetWait(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, domain.WaitGroup, wr.Kind)
}

func TestClient_RunAudit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/audit", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.AuditRun{ID: "a1", Status: domain.AuditSucceeded, GroupsChecked: 2})
	}))
	defer srv.Close()

	run, err := New(srv.URL).RunAudit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.AuditSucceeded, run.Status)
	assert.Equal(t, 2, run.GroupsChecked)
}

func TestClient_ListAuditRuns(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/audit/runs", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]domain.AuditRun{{ID: "a1"}, {ID: "a2"}})
	}))
	defer srv.Close()

	runs, err := New(srv.URL).ListAuditRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
