// Package consistency decides whether a definition-store snapshot and a
// runtime-state snapshot of the same rule group agree.
package consistency

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/donaldgifford/rulesync/pkg/matcher"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// Reason explains a Verdict.
type Reason string

// Verdict reasons.
const (
	ReasonBothFetchFailed        Reason = "both_fetch_failed"
	ReasonDefinitionFetchFailed  Reason = "definition_fetch_failed"
	ReasonRuntimeFetchFailed     Reason = "runtime_fetch_failed"
	ReasonGroupAbsentBothSides   Reason = "group_absent_both_sides"
	ReasonGroupAbsentRuntimeOnly Reason = "group_absent_runtime_only"
	ReasonDeletionPending        Reason = "deletion_pending"
	ReasonCreationPending        Reason = "creation_pending"
	ReasonCountMismatch          Reason = "count_mismatch"
	ReasonUnmatchedRules         Reason = "unmatched_rules"
	ReasonNameSequenceMismatch   Reason = "name_sequence_mismatch"
	ReasonConverged              Reason = "converged"
)

// Verdict is the outcome of IsConsistent.
type Verdict struct {
	InSync bool   `json:"in_sync"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`

	// Degraded is set when InSync was declared because a backend could not
	// be observed.
	Degraded bool `json:"degraded,omitempty"`

	// Match is set when both groups were found.
	Match *matcher.Result `json:"match,omitempty"`
}

// DefinitionFetch is the result of reading a group from the definition store:
// a group, ErrNotFound, or any other error.
type DefinitionFetch struct {
	Group *domain.DefinitionGroup
	Err   error
}

// RuntimeFetch is the result of reading a group from the runtime-state store.
type RuntimeFetch struct {
	Group *domain.RuntimeGroup
	Err   error
}

// NotFound reports whether the fetch established that the group is absent.
func (f DefinitionFetch) NotFound() bool { return errors.Is(f.Err, domain.ErrNotFound) }

// Failed reports whether the fetch failed for any reason other than absence.
func (f DefinitionFetch) Failed() bool { return f.Err != nil && !f.NotFound() }

// NotFound reports whether the fetch established that the group is absent.
func (f RuntimeFetch) NotFound() bool { return errors.Is(f.Err, domain.ErrNotFound) }

// Failed reports whether the fetch failed for any reason other than absence.
func (f RuntimeFetch) Failed() bool { return f.Err != nil && !f.NotFound() }

// IsConsistent compares one snapshot from each store. Fetch failures resolve
// to InSync so the operator is never blocked on a connectivity problem; such
// verdicts carry a degraded reason that callers must report.
func IsConsistent(def DefinitionFetch, rt RuntimeFetch) Verdict {
	switch {
	case def.Failed() && rt.Failed():
		return Verdict{
			InSync:   true,
			Degraded: true,
			Reason:   ReasonBothFetchFailed,
			Detail:   fmt.Sprintf("definition: %v; runtime: %v", def.Err, rt.Err),
		}
	case def.Failed():
		return Verdict{
			InSync:   true,
			Degraded: true,
			Reason:   ReasonDefinitionFetchFailed,
			Detail:   def.Err.Error(),
		}
	case rt.Failed():
		// Absent from the definition side too: assume the runtime side
		// dropped it as well.
		if def.NotFound() {
			return Verdict{
				InSync:   true,
				Degraded: true,
				Reason:   ReasonGroupAbsentRuntimeOnly,
				Detail:   "definition group absent; runtime unreachable: " + rt.Err.Error(),
			}
		}
		return Verdict{
			InSync:   true,
			Degraded: true,
			Reason:   ReasonRuntimeFetchFailed,
			Detail:   rt.Err.Error(),
		}
	case def.NotFound() && rt.NotFound():
		return Verdict{InSync: true, Reason: ReasonGroupAbsentBothSides}
	case def.NotFound():
		return Verdict{
			InSync: false,
			Reason: ReasonDeletionPending,
			Detail: fmt.Sprintf("runtime still lists group with %d rules", len(rt.Group.Rules)),
		}
	case rt.NotFound():
		if len(def.Group.Rules) == 0 {
			return Verdict{InSync: true, Reason: ReasonGroupAbsentRuntimeOnly}
		}
		return Verdict{
			InSync: false,
			Reason: ReasonCreationPending,
			Detail: fmt.Sprintf("runtime does not list group yet (%d rules defined)", len(def.Group.Rules)),
		}
	}

	return compareGroups(def.Group, rt.Group)
}

func compareGroups(def *domain.DefinitionGroup, rt *domain.RuntimeGroup) Verdict {
	res := matcher.MatchGroup(def.Rules, rt.Rules)
	v := Verdict{Match: &res}

	switch {
	case len(def.Rules) != len(rt.Rules):
		v.Reason = ReasonCountMismatch
		v.Detail = fmt.Sprintf("definition has %d rules, runtime has %d", len(def.Rules), len(rt.Rules))
	case res.Orphans():
		v.Reason = ReasonUnmatchedRules
		v.Detail = fmt.Sprintf("%d definition-only, %d runtime-only",
			len(res.DefinitionOnly), len(res.RuntimeOnly))
	case !sameNameSequence(res.Matched):
		v.Reason = ReasonNameSequenceMismatch
		v.Detail = "rule order differs"
	default:
		v.InSync = true
		v.Reason = ReasonConverged
	}
	return v
}

// sameNameSequence compares the matched names in definition order with the
// matched names in runtime order. Pairs arrive in definition order.
func sameNameSequence(pairs []matcher.Pair) bool {
	byRuntime := slices.Clone(pairs)
	slices.SortFunc(byRuntime, func(a, b matcher.Pair) int {
		return cmp.Compare(a.RuntimeIndex, b.RuntimeIndex)
	})
	for i := range pairs {
		if pairs[i].Definition.Name != byRuntime[i].Runtime.Name {
			return false
		}
	}
	return true
}
