// Package matcher pairs rules from the definition store with their
// counterparts in the runtime-state store.
//
// Rules are matched by name when the name is unique on both sides. Otherwise
// same-named candidates are narrowed by query-less fingerprint, then by
// query-inclusive fingerprint. Anything still ambiguous is left unmatched:
// a false pairing is worse than none because callers decide from the result
// whether a mutation has landed.
package matcher

import (
	"github.com/donaldgifford/rulesync/pkg/fingerprint"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// Pair is one matched definition/runtime rule with each rule's position in
// its input list.
type Pair struct {
	Definition      domain.DefinitionRule `json:"definition"`
	Runtime         domain.RuntimeRule    `json:"runtime"`
	DefinitionIndex int                   `json:"definition_index"`
	RuntimeIndex    int                   `json:"runtime_index"`
}

// Result partitions both inputs. Every input rule appears exactly once across
// Matched, DefinitionOnly and RuntimeOnly.
type Result struct {
	// Matched is ordered by the driving side: definition order for
	// MatchGroup, runtime order for MatchGroupReverse.
	Matched []Pair `json:"matched"`

	DefinitionOnly []domain.DefinitionRule `json:"definition_only"`
	RuntimeOnly    []domain.RuntimeRule    `json:"runtime_only"`
}

// Orphans reports whether either side has unmatched rules.
func (r *Result) Orphans() bool {
	return len(r.DefinitionOnly) > 0 || len(r.RuntimeOnly) > 0
}

// MatchGroup matches definition rules against runtime rules of the same
// group, processing definition rules in order.
func MatchGroup(defs []domain.DefinitionRule, runtimes []domain.RuntimeRule) Result {
	pairs, defOnly, rtOnly := match(definitionCandidates(defs), runtimeCandidates(runtimes))
	return build(defs, runtimes, pairs, defOnly, rtOnly)
}

// MatchGroupReverse is MatchGroup driven from the runtime side: runtime rules
// are processed in order and claim definition rules.
func MatchGroupReverse(runtimes []domain.RuntimeRule, defs []domain.DefinitionRule) Result {
	pairs, rtOnly, defOnly := match(runtimeCandidates(runtimes), definitionCandidates(defs))
	for i := range pairs {
		pairs[i] = [2]int{pairs[i][1], pairs[i][0]}
	}
	return build(defs, runtimes, pairs, defOnly, rtOnly)
}

func build(
	defs []domain.DefinitionRule,
	runtimes []domain.RuntimeRule,
	pairs [][2]int,
	defOnly, rtOnly []int,
) Result {
	res := Result{
		Matched:        make([]Pair, 0, len(pairs)),
		DefinitionOnly: make([]domain.DefinitionRule, 0, len(defOnly)),
		RuntimeOnly:    make([]domain.RuntimeRule, 0, len(rtOnly)),
	}
	for _, p := range pairs {
		res.Matched = append(res.Matched, Pair{
			Definition:      defs[p[0]],
			Runtime:         runtimes[p[1]],
			DefinitionIndex: p[0],
			RuntimeIndex:    p[1],
		})
	}
	for _, i := range defOnly {
		res.DefinitionOnly = append(res.DefinitionOnly, defs[i])
	}
	for _, i := range rtOnly {
		res.RuntimeOnly = append(res.RuntimeOnly, runtimes[i])
	}
	return res
}

// candidate is the side-neutral view of a rule used by match.
type candidate struct {
	name   string
	kind   domain.RuleKind
	loose  domain.Fingerprint
	strict domain.Fingerprint
}

func definitionCandidates(rules []domain.DefinitionRule) []candidate {
	out := make([]candidate, len(rules))
	for i := range rules {
		out[i] = candidate{
			name:   rules[i].Name,
			kind:   rules[i].Kind,
			loose:  fingerprint.Definition(&rules[i], false),
			strict: fingerprint.Definition(&rules[i], true),
		}
	}
	return out
}

func runtimeCandidates(rules []domain.RuntimeRule) []candidate {
	out := make([]candidate, len(rules))
	for i := range rules {
		out[i] = candidate{
			name:   rules[i].Name,
			kind:   rules[i].Kind,
			loose:  fingerprint.Runtime(&rules[i], false),
			strict: fingerprint.Runtime(&rules[i], true),
		}
	}
	return out
}

// match pairs left candidates with right candidates. It returns index pairs
// (left, right) in left order, then the unclaimed indexes of each side in
// input order.
func match(left, right []candidate) (pairs [][2]int, leftOnly, rightOnly []int) {
	leftCount := make(map[string]int, len(left))
	for i := range left {
		leftCount[left[i].name]++
	}

	// Same-named right candidates in source order.
	byName := make(map[string][]int, len(right))
	for i := range right {
		byName[right[i].name] = append(byName[right[i].name], i)
	}

	claimed := make([]bool, len(right))

	for li := range left {
		l := &left[li]
		pool := byName[l.name]

		if ri, ok := pick(l, pool, right, claimed, leftCount[l.name]); ok {
			claimed[ri] = true
			pairs = append(pairs, [2]int{li, ri})
			continue
		}
		leftOnly = append(leftOnly, li)
	}

	for ri := range right {
		if !claimed[ri] {
			rightOnly = append(rightOnly, ri)
		}
	}
	return pairs, leftOnly, rightOnly
}

// pick chooses the right-side counterpart for l from its same-named pool, or
// reports that there is no confident choice.
func pick(l *candidate, pool []int, right []candidate, claimed []bool, leftSameName int) (int, bool) {
	// Unique on both sides: the name alone decides.
	if leftSameName == 1 && len(pool) == 1 {
		return pool[0], !claimed[pool[0]]
	}

	loose := narrow(pool, claimed, func(ri int) bool {
		return compatible(l.kind, right[ri].kind) && l.loose.ProbableMatch(right[ri].loose)
	})
	switch len(loose) {
	case 0:
		return 0, false
	case 1:
		return loose[0], true
	}

	strict := narrow(loose, claimed, func(ri int) bool {
		return l.strict.CertainMatch(right[ri].strict)
	})
	if len(strict) == 1 {
		return strict[0], true
	}
	return 0, false
}

func narrow(pool []int, claimed []bool, keep func(int) bool) []int {
	var out []int
	for _, ri := range pool {
		if !claimed[ri] && keep(ri) {
			out = append(out, ri)
		}
	}
	return out
}

// compatible reports whether two rule kinds may describe the same rule. An
// unknown kind is compatible with anything.
func compatible(a, b domain.RuleKind) bool {
	return a == b || a == domain.KindUnknown || b == domain.KindUnknown
}
