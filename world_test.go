package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type worldTestPos struct{ X, Y int }
type worldTestVel struct{ X, Y int }

func TestSpawnDespawnRecyclesSlotWithNewGeneration(t *testing.T) {
	w := NewWorld(0)
	id := w.Spawn()
	assert.True(t, w.IsAlive(id))

	require.NoError(t, w.Despawn(id))
	assert.False(t, w.IsAlive(id))

	id2 := w.Spawn()
	assert.Equal(t, id.Index(), id2.Index(), "the freed slot should be reused")
	assert.NotEqual(t, id.Generation(), id2.Generation())
	assert.True(t, w.IsAlive(id2))
	assert.False(t, w.IsAlive(id), "the stale handle must not resurrect as alive")
}

func TestDespawnUnknownEntityFails(t *testing.T) {
	w := NewWorld(0)
	ghost := ConstructEntity(0, 99, 1)
	err := w.Despawn(ghost)
	assert.ErrorIs(t, err, ErrEntityNotAlive)
}

func TestAddComponentMigratesArchetype(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[worldTestPos](w)
	posExpr := Plain(posID)

	id := w.Spawn()
	assert.False(t, w.HasComponent(id, posExpr))

	require.NoError(t, AddComponent(w, id, posExpr, worldTestPos{X: 1, Y: 2}))
	assert.True(t, w.HasComponent(id, posExpr))

	got, err := GetComponent[worldTestPos](w, id, posExpr)
	require.NoError(t, err)
	assert.Equal(t, worldTestPos{X: 1, Y: 2}, *got)
}

func TestAddComponentTwiceFails(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[worldTestPos](w)
	posExpr := Plain(posID)
	id := w.Spawn()
	require.NoError(t, AddComponent(w, id, posExpr, worldTestPos{}))
	err := AddComponent(w, id, posExpr, worldTestPos{})
	assert.ErrorIs(t, err, ErrComponentAlreadyPresent)
}

func TestRemoveComponentMissingFails(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[worldTestPos](w)
	id := w.Spawn()
	err := w.RemoveComponent(id, Plain(posID))
	assert.ErrorIs(t, err, ErrComponentNotPresent)
}

func TestAddThenRemoveReturnsToOriginalArchetype(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[worldTestPos](w)
	posExpr := Plain(posID)

	id := w.Spawn()
	sigBefore, err := w.SignatureOf(id)
	require.NoError(t, err)

	require.NoError(t, AddComponent(w, id, posExpr, worldTestPos{X: 3}))
	require.NoError(t, w.RemoveComponent(id, posExpr))

	sigAfter, err := w.SignatureOf(id)
	require.NoError(t, err)
	assert.True(t, sigBefore.Equal(sigAfter))
}

func TestRepeatedTransitionsReuseCachedDestination(t *testing.T) {
	w := NewWorld(0)
	posID := ComponentIDFor[worldTestPos](w)
	posExpr := Plain(posID)

	a := w.Spawn()
	b := w.Spawn()
	require.NoError(t, AddComponent(w, a, posExpr, worldTestPos{}))
	require.NoError(t, AddComponent(w, b, posExpr, worldTestPos{}))

	sigA, _ := w.SignatureOf(a)
	sigB, _ := w.SignatureOf(b)
	assert.True(t, sigA.Equal(sigB), "two entities transitioning the same way land in the same archetype")
}

func TestGetAllCollectsEveryMatchingRelation(t *testing.T) {
	w := NewWorld(0)
	likesID := ComponentIDFor[worldTestVel](w)
	bob := w.Spawn()
	alice := w.Spawn()
	entity := w.Spawn()

	require.NoError(t, AddComponent(w, entity, WithKey(likesID, EntityRelationKey(bob)), worldTestVel{X: 1}))
	require.NoError(t, AddComponent(w, entity, WithKey(likesID, EntityRelationKey(alice)), worldTestVel{X: 2}))

	all, err := GetAll[worldTestVel](w, entity, WithKey(likesID, AnyEntityRelationKey))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTryComponentIDForDoesNotRegister(t *testing.T) {
	w := NewWorld(0)
	_, ok := TryComponentIDFor[worldTestPos](w)
	assert.False(t, ok)

	want := ComponentIDFor[worldTestPos](w)
	got, ok := TryComponentIDFor[worldTestPos](w)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSpawnNCreatesDistinctLiveEntities(t *testing.T) {
	w := NewWorld(0)
	ids := w.SpawnN(10)
	assert.Len(t, ids, 10)
	seen := make(map[Identity]bool)
	for _, id := range ids {
		assert.True(t, w.IsAlive(id))
		assert.False(t, seen[id])
		seen[id] = true
	}
}
