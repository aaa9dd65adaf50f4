package domain

import "time"

// AuditStatus is the state of an audit run.
type AuditStatus string

// Audit status constants.
const (
	AuditRunning   AuditStatus = "running"
	AuditSucceeded AuditStatus = "succeeded"
	AuditFailed    AuditStatus = "failed"
	AuditCrashed   AuditStatus = "crashed"
)

// AuditRun records one pass of the drift audit.
type AuditRun struct {
	ID            string      `json:"id"`
	StartedAt     time.Time   `json:"started_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	Status        AuditStatus `json:"status"`
	ErrorText     string      `json:"error_text,omitempty"`
	GroupsChecked int         `json:"groups_checked"`
	GroupsDrifted int         `json:"groups_drifted"`
}

// DriftReport describes an audited group that is out of sync.
type DriftReport struct {
	Group  GroupRef `json:"group"`
	Reason string   `json:"reason"`
	Detail string   `json:"detail,omitempty"`

	// Names of the rules found on one side only.
	DefinitionOnly []string `json:"definition_only,omitempty"`
	RuntimeOnly    []string `json:"runtime_only,omitempty"`

	// ConsecutiveRuns counts audits in a row that found the group drifted.
	ConsecutiveRuns int `json:"consecutive_runs"`
}
