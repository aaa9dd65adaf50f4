package matcher

import (
	"github.com/donaldgifford/rulesync/pkg/fingerprint"
	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// FindRuntimeRule looks up the runtime rule identified by ref. A UID reported
// on both sides decides on its own; otherwise the rule must share the name and
// the query-less fingerprint, and ties are broken by the query-inclusive one.
// A tie the query cannot break is reported as not found, except when ref has
// no query and the candidates are identical duplicates.
func FindRuntimeRule(ref *domain.RuleRef, rules []domain.RuntimeRule) (domain.RuntimeRule, bool) {
	var probable []int
	for i := range rules {
		r := &rules[i]
		if ref.UID != "" && r.UID != "" {
			if ref.UID == r.UID {
				return *r, true
			}
			continue
		}
		if r.Name != ref.Name {
			continue
		}
		if ref.Fingerprint.ProbableMatch(fingerprint.Runtime(r, false)) {
			probable = append(probable, i)
		}
	}

	switch len(probable) {
	case 0:
		return domain.RuntimeRule{}, false
	case 1:
		return rules[probable[0]], true
	}

	for _, i := range probable {
		if ref.Fingerprint.CertainMatch(fingerprint.Runtime(&rules[i], true)) {
			return rules[i], true
		}
	}
	if ref.Fingerprint.HasQuery {
		return domain.RuntimeRule{}, false
	}

	first := fingerprint.Runtime(&rules[probable[0]], true)
	for _, i := range probable[1:] {
		if !first.CertainMatch(fingerprint.Runtime(&rules[i], true)) {
			return domain.RuntimeRule{}, false
		}
	}
	return rules[probable[0]], true
}
