package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecondaryKeyMatchesIsNonCommutative(t *testing.T) {
	bob := ConstructEntity(0, 5, 1)
	alice := ConstructEntity(0, 6, 1)

	plainQuery := Plain(1)
	relStored := WithKey(1, EntityRelationKey(bob))
	assert.False(t, plainQuery.Matches(relStored), "a plain query must not match a keyed stored slot")

	anyQuery := WithKey(1, AnyKey)
	assert.True(t, anyQuery.Matches(relStored))
	assert.True(t, anyQuery.Matches(Plain(1)))

	anyTargetQuery := WithKey(1, AnyTargetKey)
	assert.True(t, anyTargetQuery.Matches(relStored))
	assert.False(t, anyTargetQuery.Matches(Plain(1)), "AnyTarget must not match a plain stored slot")

	specificQuery := WithKey(1, EntityRelationKey(bob))
	assert.True(t, specificQuery.Matches(relStored))
	assert.False(t, specificQuery.Matches(WithKey(1, EntityRelationKey(alice))))
}

func TestTypeExpressionMatchesRequiresSameComponent(t *testing.T) {
	a := WithKey(1, AnyKey)
	b := WithKey(2, PlainKey)
	assert.False(t, a.Matches(b))
}

func TestSignatureTotalOrderIsStable(t *testing.T) {
	bob := ConstructEntity(0, 1, 1)
	e1 := WithKey(5, EntityRelationKey(bob))
	e2 := Plain(5)
	e3 := Plain(3)

	sig := NewSignature(e1, e2, e3)
	require := assert.New(t)
	require.Equal(3, sig.Len())
	require.True(sig.At(0).Component < sig.At(1).Component || sig.At(0).Component == sig.At(1).Component)
	// component 3 sorts before component 5
	require.Equal(ComponentID(3), sig.At(0).Component)
	// within component 5, plain (KeyPlain=0) sorts before EntityRelation (1)
	require.Equal(e2, sig.At(1))
	require.Equal(e1, sig.At(2))
}

func TestNewSignatureDeduplicates(t *testing.T) {
	e := Plain(1)
	sig := NewSignature(e, e, e)
	assert.Equal(t, 1, sig.Len())
}
