// Package domain defines the core types shared by the definition-store and
// runtime-state sides of rule reconciliation.
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrNotFound is returned by backend fetchers when the requested group or
// rule does not exist. It is a valid answer, not a failure.
var ErrNotFound = errors.New("not found")

// ErrInvalidReference is wrapped by fetch errors that no amount of retrying
// will fix, such as a reference to an unconfigured source.
var ErrInvalidReference = errors.New("invalid reference")

// RuleKind tags the shape of a rule.
type RuleKind string

// Rule kind constants.
const (
	KindAlerting  RuleKind = "alerting"
	KindRecording RuleKind = "recording"
	KindUnknown   RuleKind = "unknown"
)

// ParseRuleKind maps a backend type string to a RuleKind. Anything it does not
// recognize is KindUnknown.
func ParseRuleKind(s string) RuleKind {
	switch s {
	case "alerting", "alert":
		return KindAlerting
	case "recording", "record":
		return KindRecording
	default:
		return KindUnknown
	}
}

// RuleState is the evaluation state reported by the runtime-state store.
type RuleState string

// Rule state constants.
const (
	StateInactive RuleState = "inactive"
	StatePending  RuleState = "pending"
	StateFiring   RuleState = "firing"
	StateUnknown  RuleState = ""
)

// GroupRef identifies one logical rule group understood identically by both
// backends. Source names the backend; the empty source is the built-in one.
type GroupRef struct {
	Source    string `json:"source,omitempty" yaml:"source"`
	Namespace string `json:"namespace"        yaml:"namespace"`
	Group     string `json:"group"            yaml:"group"`
}

// Validate reports whether the reference can name a group at all.
func (g GroupRef) Validate() error {
	var errs []error
	if g.Namespace == "" {
		errs = append(errs, errors.New("namespace is required"))
	}
	if g.Group == "" {
		errs = append(errs, errors.New("group is required"))
	}
	return errors.Join(errs...)
}

// String renders the reference as source/namespace/group.
func (g GroupRef) String() string {
	source := g.Source
	if source == "" {
		source = "-"
	}
	return source + "/" + g.Namespace + "/" + g.Group
}

// DefinitionRule is a rule as the definition store (ruler) holds it.
type DefinitionRule struct {
	Kind        RuleKind          `json:"kind"`
	Name        string            `json:"name"`
	Query       string            `json:"query"`
	For         string            `json:"for,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// DefinitionGroup is a snapshot of one group in the definition store. Rules
// keep the store's source order.
type DefinitionGroup struct {
	Ref      GroupRef         `json:"ref"`
	Interval string           `json:"interval,omitempty"`
	Rules    []DefinitionRule `json:"rules"`
}

// RuntimeRule is a rule as the runtime-state store reports it. Annotations may
// be nil when the backend does not expose them.
type RuntimeRule struct {
	Kind           RuleKind          `json:"kind"`
	Name           string            `json:"name"`
	Query          string            `json:"query"`
	Labels         map[string]string `json:"labels,omitempty"`
	Annotations    map[string]string `json:"annotations,omitempty"`
	State          RuleState         `json:"state,omitempty"`
	Health         string            `json:"health,omitempty"`
	LastError      string            `json:"last_error,omitempty"`
	LastEvaluation *time.Time        `json:"last_evaluation,omitempty"`
	UID            string            `json:"uid,omitempty"`
}

// RuntimeGroup is a snapshot of one group in the runtime-state store.
type RuntimeGroup struct {
	Ref            GroupRef      `json:"ref"`
	Rules          []RuntimeRule `json:"rules"`
	LastEvaluation *time.Time    `json:"last_evaluation,omitempty"`
}

// Fingerprint is a content signature comparable across both backends. The
// query component is only meaningful when HasQuery is set.
type Fingerprint struct {
	Name        uint64 `json:"name"`
	Labels      uint64 `json:"labels"`
	Annotations uint64 `json:"annotations"`
	Query       uint64 `json:"query,omitempty"`
	HasQuery    bool   `json:"has_query,omitempty"`
}

// ProbableMatch reports whether the name, labels and annotations components
// agree, ignoring the query.
func (f Fingerprint) ProbableMatch(o Fingerprint) bool {
	return f.Name == o.Name && f.Labels == o.Labels && f.Annotations == o.Annotations
}

// CertainMatch reports whether every component agrees, including a query
// component present on both sides.
func (f Fingerprint) CertainMatch(o Fingerprint) bool {
	return f.ProbableMatch(o) && f.HasQuery && o.HasQuery && f.Query == o.Query
}

// String renders the fingerprint as dash-separated hex components.
func (f Fingerprint) String() string {
	s := hex(f.Name) + "-" + hex(f.Labels) + "-" + hex(f.Annotations)
	if f.HasQuery {
		s += "-" + hex(f.Query)
	}
	return s
}

func hex(v uint64) string {
	return fmt.Sprintf("%016x", v)
}

// IdentifierSide says which backend issued a RuleIdentifier.
type IdentifierSide string

// Identifier side constants.
const (
	SideDefinition IdentifierSide = "definition"
	SideRuntime    IdentifierSide = "runtime"
)

// RuleIdentifier names a rule within one backend's representation.
// Identifiers from different sides are never comparable.
type RuleIdentifier struct {
	Side  IdentifierSide `json:"side"`
	Group GroupRef       `json:"group"`
	Hash  string         `json:"hash,omitempty"`
	UID   string         `json:"uid,omitempty"`
}

// Absent reports whether a runtime identifier carries no backend UID.
func (id RuleIdentifier) Absent() bool {
	return id.Side == SideRuntime && id.UID == ""
}

// String renders the identifier for logs and API output.
func (id RuleIdentifier) String() string {
	switch {
	case id.Side == SideDefinition:
		return "def:" + id.Group.String() + "#" + id.Hash
	case id.UID != "":
		return "rt:" + id.Group.String() + "#" + id.UID
	default:
		return "rt:" + id.Group.String() + "#-"
	}
}

// RuleRef names a single rule for existence checks. UID is optional. The
// fingerprint carries the query component so lookups can fall back to it
// when the query-less comparison is ambiguous.
type RuleRef struct {
	Group       GroupRef    `json:"group"`
	Name        string      `json:"name"`
	UID         string      `json:"uid,omitempty"`
	Fingerprint Fingerprint `json:"fingerprint"`
}

// String renders the reference for logs.
func (r RuleRef) String() string {
	return r.Group.String() + "/" + strconv.Quote(r.Name)
}
