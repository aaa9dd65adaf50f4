// Package fingerprint derives order-independent content signatures for rules
// from either backend, so that rules can be compared across backends that
// share no primary key.
package fingerprint

import (
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// separator never appears in valid label names or UTF-8 text.
const separator = '\xff'

// Definition fingerprints a definition-store rule.
func Definition(r *domain.DefinitionRule, includeQuery bool) domain.Fingerprint {
	return compute(r.Kind, r.Name, r.Labels, r.Annotations, r.Query, includeQuery)
}

// Runtime fingerprints a runtime-state rule. Missing annotations hash the same
// as empty ones.
func Runtime(r *domain.RuntimeRule, includeQuery bool) domain.Fingerprint {
	return compute(r.Kind, r.Name, r.Labels, r.Annotations, r.Query, includeQuery)
}

// Ref builds the reference used to look a definition rule up in the
// runtime-state store.
func Ref(group domain.GroupRef, r *domain.DefinitionRule) domain.RuleRef {
	return domain.RuleRef{
		Group:       group,
		Name:        r.Name,
		Fingerprint: Definition(r, true),
	}
}

// DefinitionID derives the definition-side identifier: the group plus a
// content hash.
func DefinitionID(group domain.GroupRef, r *domain.DefinitionRule) domain.RuleIdentifier {
	return domain.RuleIdentifier{
		Side:  domain.SideDefinition,
		Group: group,
		Hash:  Definition(r, true).String(),
	}
}

// RuntimeID derives the runtime-side identifier. It is absent unless the
// backend issued a UID.
func RuntimeID(group domain.GroupRef, r *domain.RuntimeRule) domain.RuleIdentifier {
	return domain.RuleIdentifier{
		Side:  domain.SideRuntime,
		Group: group,
		UID:   r.UID,
	}
}

func compute(
	kind domain.RuleKind,
	name string,
	labels, annotations map[string]string,
	query string,
	includeQuery bool,
) domain.Fingerprint {
	// Recording rules carry no annotations on the runtime side.
	if kind == domain.KindRecording {
		annotations = nil
	}

	fp := domain.Fingerprint{
		Name:        xxhash.Sum64String(name),
		Labels:      hashMap(labels),
		Annotations: hashMap(annotations),
	}
	if includeQuery {
		fp.Query = xxhash.Sum64String(NormalizeQuery(query))
		fp.HasQuery = true
	}
	return fp
}

// hashMap hashes key=value pairs in key order.
func hashMap(m map[string]string) uint64 {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	d := xxhash.New()
	for i, k := range keys {
		if i > 0 {
			_, _ = d.Write([]byte{separator})
		}
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{'='})
		_, _ = d.WriteString(m[k])
	}
	return d.Sum64()
}

// NormalizeQuery collapses whitespace runs so that cosmetic differences
// between backend serializations do not change the query hash.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
