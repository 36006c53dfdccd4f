// Package groups holds the membership merge used by bulk group assignment.
package groups

import "sort"

// Merge computes the new group membership of one record.
//
// current is the record's membership right now, init the set the caller
// observed before editing and target the set the caller wants applied. The
// result is (current \ init) ∪ target: memberships the caller never saw stay
// untouched, every observed membership is replaced by the target selection.
// This keeps a stale client view from silently removing group assignments it
// did not display.
func Merge(current, init, target []string) []string {
	initSet := toSet(init)

	merged := make(map[string]struct{}, len(current)+len(target))
	for _, id := range current {
		if _, observed := initSet[id]; !observed {
			merged[id] = struct{}{}
		}
	}
	for _, id := range target {
		merged[id] = struct{}{}
	}

	result := make([]string, 0, len(merged))
	for id := range merged {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
