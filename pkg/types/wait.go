package domain

import "time"

// WaitKind names what a wait was watching for.
type WaitKind string

// Wait kind constants.
const (
	WaitGroup         WaitKind = "group"
	WaitRuleAppear    WaitKind = "rule_appear"
	WaitRuleDisappear WaitKind = "rule_disappear"
)

// WaitOutcome is the terminal state of a wait.
type WaitOutcome string

// Wait outcome constants.
const (
	OutcomeConverged WaitOutcome = "converged"
	OutcomeTimedOut  WaitOutcome = "timed_out"
	OutcomeCancelled WaitOutcome = "cancelled"
	OutcomeFailed    WaitOutcome = "failed"
)

// WaitRecord is the history entry kept for every finished wait.
type WaitRecord struct {
	ID         string        `json:"id"                  db:"id"`
	Kind       WaitKind      `json:"kind"                db:"kind"`
	Group      GroupRef      `json:"group"`
	RuleName   string        `json:"rule_name,omitempty" db:"rule_name"`
	Outcome    WaitOutcome   `json:"outcome"             db:"outcome"`
	Reason     string        `json:"reason,omitempty"    db:"reason"`
	Ticks      int           `json:"ticks"               db:"ticks"`
	Elapsed    time.Duration `json:"elapsed"             db:"elapsed_ms"`
	StartedAt  time.Time     `json:"started_at"          db:"started_at"`
	FinishedAt time.Time     `json:"finished_at"         db:"finished_at"`
}
