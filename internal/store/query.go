package store

import (
	"fmt"
	"strings"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

const baseWaitsSelect = `SELECT id, kind, source, namespace, group_name, rule_name,
	outcome, reason, ticks, elapsed_ms, started_at, finished_at
FROM wait_history`

const countWaitsSelect = "SELECT COUNT(*) FROM wait_history"

// limit returns the effective page size.
func (q *WaitQuery) limit() int {
	switch {
	case q.Limit <= 0:
		return defaultLimit
	case q.Limit > maxLimit:
		return maxLimit
	default:
		return q.Limit
	}
}

func (q *WaitQuery) offset() int {
	if q.Offset < 0 {
		return 0
	}
	return q.Offset
}

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a wait
// history query. It returns the data query, the count query, and the
// positional parameters shared by both.
func (q *WaitQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	add := func(column string, v any) {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, paramIdx))
		args = append(args, v)
		paramIdx++
	}

	if q.Kind != nil {
		add("kind", string(*q.Kind))
	}
	if q.Outcome != nil {
		add("outcome", string(*q.Outcome))
	}
	if q.Source != nil {
		add("source", *q.Source)
	}
	if q.Namespace != nil {
		add("namespace", *q.Namespace)
	}
	if q.Group != nil {
		add("group_name", *q.Group)
	}
	if q.Since != nil {
		conditions = append(conditions, fmt.Sprintf("finished_at >= $%d", paramIdx))
		args = append(args, *q.Since)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	dataSQL = fmt.Sprintf("%s%s ORDER BY finished_at DESC LIMIT %d OFFSET %d",
		baseWaitsSelect, where, q.limit(), q.offset())
	countSQL = countWaitsSelect + where
	return dataSQL, countSQL, args
}

// Matches reports whether r passes the query's filters. It is the in-memory
// counterpart of ToSQL.
func (q *WaitQuery) Matches(r *domain.WaitRecord) bool {
	switch {
	case q.Kind != nil && r.Kind != *q.Kind:
		return false
	case q.Outcome != nil && r.Outcome != *q.Outcome:
		return false
	case q.Source != nil && r.Group.Source != *q.Source:
		return false
	case q.Namespace != nil && r.Group.Namespace != *q.Namespace:
		return false
	case q.Group != nil && r.Group.Group != *q.Group:
		return false
	case q.Since != nil && r.FinishedAt.Before(*q.Since):
		return false
	}
	return true
}
