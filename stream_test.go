package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type likesTag struct{ Weight int }

// TestForEach1CrossJoinsWildcardRelationColumns exercises the wildcard
// cross-join path end to end: two entities each carry two distinct
// relation-keyed columns of the same component, and a wildcard query
// slot must visit every (row, matched-column) combination exactly once —
// rows * matched-columns-per-row tuples, not one tuple per row.
func TestForEach1CrossJoinsWildcardRelationColumns(t *testing.T) {
	w := NewWorld(0)
	likesID := ComponentIDFor[likesTag](w)

	bob := w.Spawn()
	alice := w.Spawn()

	e1 := w.Spawn()
	e2 := w.Spawn()
	for _, e := range []Identity{e1, e2} {
		require.NoError(t, AddComponent(w, e, WithKey(likesID, EntityRelationKey(bob)), likesTag{Weight: 1}))
		require.NoError(t, AddComponent(w, e, WithKey(likesID, EntityRelationKey(alice)), likesTag{Weight: 2}))
	}

	q := NewQuery(w, Mask{HasTypes: []TypeExpression{WithKey(likesID, AnyEntityRelationKey)}})

	const rows = 2
	const columnsPerRow = 2

	tuples := 0
	perEntity := map[Identity]int{}
	weightsSeen := map[Identity]map[int]bool{e1: {}, e2: {}}
	ForEach1[likesTag](w, q, WithKey(likesID, AnyTargetKey), func(id Identity, v *likesTag) bool {
		tuples++
		perEntity[id]++
		weightsSeen[id][v.Weight] = true
		return true
	})

	assert.Equal(t, rows*columnsPerRow, tuples, "cross-join must produce rows * matched-columns tuples")
	for _, e := range []Identity{e1, e2} {
		assert.Equal(t, columnsPerRow, perEntity[e], "each row contributes one tuple per matched column")
		assert.True(t, weightsSeen[e][1] && weightsSeen[e][2], "both relation columns' values must surface, not just one")
	}
}

// TestForEach1PlainSlotDegeneratesToOneTuplePerRow confirms the same
// cross-join machinery collapses to ordinary one-tuple-per-row iteration
// when the query slot is not a wildcard (invariant 10's base case).
func TestForEach1PlainSlotDegeneratesToOneTuplePerRow(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[queryTestPos](w)
	posExpr := Plain(posID)
	for i := 0; i < 3; i++ {
		id := w.Spawn()
		require.NoError(t, AddComponent(w, id, posExpr, queryTestPos{X: i}))
	}
	q := NewQuery(w, Mask{HasTypes: []TypeExpression{posExpr}})

	tuples := 0
	ForEach1[queryTestPos](w, q, posExpr, func(id Identity, v *queryTestPos) bool {
		tuples++
		return true
	})
	assert.Equal(t, 3, tuples)
}

// TestRaw1ExposesMutableBackingSlices confirms Raw1 hands back the live
// column storage (and the parallel identity slice), not a copy.
func TestRaw1ExposesMutableBackingSlices(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[queryTestPos](w)
	posExpr := Plain(posID)
	var ids []Identity
	for i := 0; i < 4; i++ {
		id := w.Spawn()
		require.NoError(t, AddComponent(w, id, posExpr, queryTestPos{X: i}))
		ids = append(ids, id)
	}
	q := NewQuery(w, Mask{HasTypes: []TypeExpression{posExpr}})

	visited := 0
	Raw1[queryTestPos](w, q, posExpr, func(rowIDs []Identity, values []queryTestPos) {
		require.Len(t, values, len(rowIDs))
		for i, id := range rowIDs {
			assert.Equal(t, ids[i], id)
			values[i].Y = values[i].X * 10
			visited++
		}
	})
	assert.Equal(t, 4, visited)

	ForEachUniform1[queryTestPos](w, q, posExpr, func(id Identity, v *queryTestPos) bool {
		assert.Equal(t, v.X*10, v.Y)
		return true
	})
}
