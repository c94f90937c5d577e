package loom

// crossJoinRow enumerates every combination of one columnMatch per slot,
// for a single archetype row, calling visit with each combination in turn.
// A plain (non-wildcard) TypeExpression always resolves to exactly one
// columnMatch per slot, so crossJoinRow degenerates to a single call per
// row when no slot is a wildcard; wildcard slots widen it to the full
// Cartesian product across their matched columns, per row (§4.7).
//
// visit returning false stops iteration early (used by ForEach's fn
// returning false to break).
func crossJoinRow(slots [][]columnMatch, combo []columnMatch, i, row int, visit func(row int, combo []columnMatch) bool) bool {
	if i == len(slots) {
		return visit(row, combo)
	}
	for _, cm := range slots[i] {
		combo[i] = cm
		if !crossJoinRow(slots, combo, i+1, row, visit) {
			return false
		}
	}
	return true
}

// crossJoinArchetype walks every row of a, cross-joining slots at each row.
// It returns false if visit ever returned false (an early stop propagated
// up to the caller).
func crossJoinArchetype(a *Archetype, slots [][]columnMatch, visit func(row int, combo []columnMatch) bool) bool {
	for _, s := range slots {
		if len(s) == 0 {
			return true // an unmatched slot means this archetype contributes nothing
		}
	}
	combo := make([]columnMatch, len(slots))
	for row := 0; row < a.Len(); row++ {
		if !crossJoinRow(slots, combo, 0, row, visit) {
			return false
		}
	}
	return true
}
