package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

func ptr[T any](v T) *T { return &v }

func TestWaitQuery_ToSQL(t *testing.T) {
	t.Parallel()

	since := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		query         WaitQuery
		wantCountSQL  string
		wantArgs      []any
		wantDataHas   []string
		wantDataNotIn []string
	}{
		{
			name:  "empty query uses defaults",
			query: WaitQuery{},
			wantDataHas: []string{
				"FROM wait_history",
				"ORDER BY finished_at DESC",
				"LIMIT 50",
				"OFFSET 0",
			},
			wantDataNotIn: []string{"WHERE"},
			wantCountSQL:  "SELECT COUNT(*) FROM wait_history",
		},
		{
			name:         "kind filter",
			query:        WaitQuery{Kind: ptr(domain.WaitGroup)},
			wantDataHas:  []string{"WHERE kind = $1"},
			wantCountSQL: "SELECT COUNT(*) FROM wait_history WHERE kind = $1",
			wantArgs:     []any{"group"},
		},
		{
			name: "group filters combined in order",
			query: WaitQuery{
				Outcome:   ptr(domain.OutcomeTimedOut),
				Source:    ptr("prod"),
				Namespace: ptr("team-a"),
				Group:     ptr("latency"),
			},
			wantDataHas: []string{
				"WHERE outcome = $1 AND source = $2 AND namespace = $3 AND group_name = $4",
			},
			wantCountSQL: "SELECT COUNT(*) FROM wait_history WHERE outcome = $1 AND source = $2 AND namespace = $3 AND group_name = $4",
			wantArgs:     []any{"timed_out", "prod", "team-a", "latency"},
		},
		{
			name:         "since filter",
			query:        WaitQuery{Since: &since},
			wantDataHas:  []string{"WHERE finished_at >= $1"},
			wantCountSQL: "SELECT COUNT(*) FROM wait_history WHERE finished_at >= $1",
			wantArgs:     []any{since},
		},
		{
			name:         "limit capped and offset kept",
			query:        WaitQuery{Limit: 10000, Offset: 20},
			wantDataHas:  []string{"LIMIT 500", "OFFSET 20"},
			wantCountSQL: "SELECT COUNT(*) FROM wait_history",
		},
		{
			name:         "negative offset clamped",
			query:        WaitQuery{Limit: 5, Offset: -3},
			wantDataHas:  []string{"LIMIT 5", "OFFSET 0"},
			wantCountSQL: "SELECT COUNT(*) FROM wait_history",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dataSQL, countSQL, args := tt.query.ToSQL()
			for _, s := range tt.wantDataHas {
				assert.Contains(t, dataSQL, s)
			}
			for _, s := range tt.wantDataNotIn {
				assert.NotContains(t, dataSQL, s)
			}
			assert.Equal(t, tt.wantCountSQL, countSQL)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestWaitQuery_Matches(t *testing.T) {
	t.Parallel()

	rec := &domain.WaitRecord{
		Kind:       domain.WaitRuleAppear,
		Group:      domain.GroupRef{Source: "prod", Namespace: "team-a", Group: "latency"},
		Outcome:    domain.OutcomeConverged,
		FinishedAt: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name  string
		query WaitQuery
		want  bool
	}{
		{name: "no filters", query: WaitQuery{}, want: true},
		{name: "kind matches", query: WaitQuery{Kind: ptr(domain.WaitRuleAppear)}, want: true},
		{name: "kind differs", query: WaitQuery{Kind: ptr(domain.WaitGroup)}, want: false},
		{name: "outcome differs", query: WaitQuery{Outcome: ptr(domain.OutcomeFailed)}, want: false},
		{name: "source differs", query: WaitQuery{Source: ptr("staging")}, want: false},
		{name: "group matches", query: WaitQuery{Namespace: ptr("team-a"), Group: ptr("latency")}, want: true},
		{name: "finished before since", query: WaitQuery{Since: ptr(time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC))}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.query.Matches(rec))
		})
	}
}
