package loom

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Signature is an immutable, sorted, deduplicated sequence of
// TypeExpressions. It identifies an archetype uniquely (§4.3). All
// producing operations (Add, Remove, Union) return a new Signature; the
// receiver is never mutated.
type Signature struct {
	types []TypeExpression // sorted, deduplicated, never mutated in place
}

// EmptySignature is the signature of the archetype holding entities with
// no components.
var EmptySignature = Signature{}

// NewSignature builds a Signature from an arbitrary set of TypeExpressions,
// sorting and deduplicating them.
func NewSignature(exprs ...TypeExpression) Signature {
	if len(exprs) == 0 {
		return EmptySignature
	}
	cp := append([]TypeExpression(nil), exprs...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].less(cp[j]) })
	out := cp[:1]
	for _, e := range cp[1:] {
		if !out[len(out)-1].equal(e) {
			out = append(out, e)
		}
	}
	return Signature{types: out}
}

// Len returns the number of TypeExpressions in the signature.
func (s Signature) Len() int { return len(s.types) }

// At returns the TypeExpression at sorted position i.
func (s Signature) At(i int) TypeExpression { return s.types[i] }

// Types returns the signature's TypeExpressions as a read-only slice.
// Callers must not mutate the returned slice.
func (s Signature) Types() []TypeExpression { return s.types }

// Contains reports whether the signature contains e exactly (no wildcard
// matching — this is an archetype-identity check, not a query match).
func (s Signature) Contains(e TypeExpression) bool {
	_, ok := s.find(e)
	return ok
}

func (s Signature) find(e TypeExpression) (int, bool) {
	i := sort.Search(len(s.types), func(i int) bool { return !s.types[i].less(e) })
	if i < len(s.types) && s.types[i].equal(e) {
		return i, true
	}
	return i, false
}

// Add returns a new Signature with e inserted, or the receiver unchanged
// (same backing data) if e is already present.
func (s Signature) Add(e TypeExpression) Signature {
	i, ok := s.find(e)
	if ok {
		return s
	}
	out := make([]TypeExpression, 0, len(s.types)+1)
	out = append(out, s.types[:i]...)
	out = append(out, e)
	out = append(out, s.types[i:]...)
	return Signature{types: out}
}

// Remove returns a new Signature with e removed, or the receiver unchanged
// if e is not present.
func (s Signature) Remove(e TypeExpression) Signature {
	i, ok := s.find(e)
	if !ok {
		return s
	}
	out := make([]TypeExpression, 0, len(s.types)-1)
	out = append(out, s.types[:i]...)
	out = append(out, s.types[i+1:]...)
	return Signature{types: out}
}

// Union returns a new Signature containing every TypeExpression in either
// signature.
func (s Signature) Union(o Signature) Signature {
	if len(o.types) == 0 {
		return s
	}
	if len(s.types) == 0 {
		return o
	}
	merged := make([]TypeExpression, 0, len(s.types)+len(o.types))
	merged = append(merged, s.types...)
	merged = append(merged, o.types...)
	return NewSignature(merged...)
}

// Intersects reports whether any TypeExpression is present (by exact
// equality) in both signatures.
func (s Signature) Intersects(o Signature) bool {
	if len(s.types) == 0 || len(o.types) == 0 {
		return false
	}
	a, b := s.types, o.types
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].equal(b[j]):
			return true
		case a[i].less(b[j]):
			i++
		default:
			j++
		}
	}
	return false
}

// Equal reports structural equality: same TypeExpressions in the same
// (canonical) order.
func (s Signature) Equal(o Signature) bool {
	if len(s.types) != len(o.types) {
		return false
	}
	for i := range s.types {
		if !s.types[i].equal(o.types[i]) {
			return false
		}
	}
	return true
}

// Hash returns a content hash of the signature suitable for use as an
// intmap/map key in the World's archetype intern table (§4.6). Two equal
// signatures always hash the same; unequal signatures may collide, so
// interning code must still fall back to Equal on collision.
func (s Signature) Hash() uint64 {
	if len(s.types) == 0 {
		return 0
	}
	var buf [11]byte
	h := xxhash.New()
	for _, e := range s.types {
		buf[0] = byte(e.Component)
		buf[1] = byte(e.Component >> 8)
		buf[2] = byte(e.Key.Kind)
		v := uint64(e.Key.Value)
		for i := 0; i < 8; i++ {
			buf[3+i] = byte(v >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// componentMask returns a coarse bitmask of component ids present in the
// signature, ignoring secondary keys. Used as a cheap pre-filter before
// the precise, wildcard-aware TypeExpression scan (mask.go).
func (s Signature) componentMask() bitset256 {
	var m bitset256
	for _, e := range s.types {
		m.set(uint16(e.Component))
	}
	return m
}
