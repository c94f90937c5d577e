package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryTestPos struct{ X, Y int }
type queryTestVel struct{ X, Y int }
type queryTestTag struct{}

func TestQueryMatchesArchetypesCreatedBeforeAndAfter(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[queryTestPos](w)
	posExpr := Plain(posID)

	// One matching archetype exists before the query is built.
	early := w.Spawn()
	require.NoError(t, AddComponent(w, early, posExpr, queryTestPos{X: 1}))

	q := NewQuery(w, Mask{HasTypes: []TypeExpression{posExpr}})
	assert.Equal(t, 1, q.Count())

	// A brand new archetype satisfying the mask appears afterwards.
	late := w.Spawn()
	tagID := ComponentIDFor[queryTestTag](w)
	require.NoError(t, AddComponent(w, late, posExpr, queryTestPos{X: 2}))
	require.NoError(t, AddComponent(w, late, Plain(tagID), queryTestTag{}))

	assert.Equal(t, 2, q.Count())
}

func TestMaskNotTypesExcludesArchetype(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[queryTestPos](w)
	tagID := ComponentIDFor[queryTestTag](w)
	posExpr, tagExpr := Plain(posID), Plain(tagID)

	tagged := w.Spawn()
	require.NoError(t, AddComponent(w, tagged, posExpr, queryTestPos{}))
	require.NoError(t, AddComponent(w, tagged, tagExpr, queryTestTag{}))

	untagged := w.Spawn()
	require.NoError(t, AddComponent(w, untagged, posExpr, queryTestPos{}))

	q := NewQuery(w, Mask{HasTypes: []TypeExpression{posExpr}, NotTypes: []TypeExpression{tagExpr}})
	assert.Equal(t, 1, q.Count())
}

func TestForEachUniformVisitsEveryMatchedEntity(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[queryTestPos](w)
	posExpr := Plain(posID)
	for i := 0; i < 5; i++ {
		id := w.Spawn()
		require.NoError(t, AddComponent(w, id, posExpr, queryTestPos{X: i}))
	}
	q := NewQuery(w, Mask{HasTypes: []TypeExpression{posExpr}})

	sum := 0
	ForEachUniform1[queryTestPos](w, q, posExpr, func(id Identity, v *queryTestPos) bool {
		sum += v.X
		v.X *= 2
		return true
	})
	assert.Equal(t, 0+1+2+3+4, sum)

	ForEachUniform1[queryTestPos](w, q, posExpr, func(id Identity, v *queryTestPos) bool {
		sum += v.X
		return true
	})
	assert.Equal(t, 10+0+2+4+6+8, sum)
}

func TestStructuralChangeInsideForEachIsDeferred(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[queryTestPos](w)
	velID := ComponentIDFor[queryTestVel](w)
	posExpr, velExpr := Plain(posID), Plain(velID)

	var ids []Identity
	for i := 0; i < 3; i++ {
		id := w.Spawn()
		require.NoError(t, AddComponent(w, id, posExpr, queryTestPos{X: i}))
		ids = append(ids, id)
	}
	q := NewQuery(w, Mask{HasTypes: []TypeExpression{posExpr}})

	visited := 0
	ForEachUniform1[queryTestPos](w, q, posExpr, func(id Identity, v *queryTestPos) bool {
		visited++
		// A structural change issued mid-walk must not affect this walk's
		// row count or panic on a stale column slice.
		require.NoError(t, AddComponent(w, id, velExpr, queryTestVel{}))
		return true
	})
	assert.Equal(t, 3, visited)

	for _, id := range ids {
		assert.True(t, w.HasComponent(id, velExpr))
	}
}

func TestBlitOverwritesEveryMatchedRow(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[queryTestPos](w)
	posExpr := Plain(posID)
	for i := 0; i < 4; i++ {
		id := w.Spawn()
		require.NoError(t, AddComponent(w, id, posExpr, queryTestPos{X: i}))
	}
	q := NewQuery(w, Mask{HasTypes: []TypeExpression{posExpr}})
	Blit[queryTestPos](w, q, posExpr, queryTestPos{X: 7, Y: 7})

	ForEachUniform1[queryTestPos](w, q, posExpr, func(id Identity, v *queryTestPos) bool {
		assert.Equal(t, queryTestPos{X: 7, Y: 7}, *v)
		return true
	})
}

func TestParallelUniformVisitsEveryEntityExactlyOnce(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[queryTestPos](w)
	posExpr := Plain(posID)
	const n = 500
	for i := 0; i < n; i++ {
		id := w.Spawn()
		require.NoError(t, AddComponent(w, id, posExpr, queryTestPos{X: i}))
	}
	q := NewQuery(w, Mask{HasTypes: []TypeExpression{posExpr}})

	err := ParallelUniform1[queryTestPos](w, q, posExpr, 4, func(id Identity, v *queryTestPos) {
		v.X = -v.X
	})
	require.NoError(t, err)

	sum := 0
	ForEachUniform1[queryTestPos](w, q, posExpr, func(id Identity, v *queryTestPos) bool {
		sum += v.X
		return true
	})
	assert.Equal(t, -(n * (n - 1) / 2), sum)
}

func TestParallelUniformPropagatesPanicAsError(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[queryTestPos](w)
	posExpr := Plain(posID)
	for i := 0; i < 10; i++ {
		id := w.Spawn()
		require.NoError(t, AddComponent(w, id, posExpr, queryTestPos{}))
	}
	q := NewQuery(w, Mask{HasTypes: []TypeExpression{posExpr}})

	err := ParallelUniform1[queryTestPos](w, q, posExpr, 4, func(id Identity, v *queryTestPos) {
		panic("boom")
	})
	assert.Error(t, err)
}
