package loom

import "sync"

// Mask is a query predicate over TypeExpressions (§4.6, §8). An archetype
// satisfies a Mask when it matches every HasTypes entry, none of the
// NotTypes entries, and — if AnyTypes is non-empty — at least one AnyTypes
// entry. Matching against a single TypeExpression uses the same wildcard
// relation as Archetype.Matches.
type Mask struct {
	HasTypes []TypeExpression
	NotTypes []TypeExpression
	AnyTypes []TypeExpression
}

func (m Mask) matches(a *Archetype) bool {
	for _, e := range m.HasTypes {
		if !a.Matches(e) {
			return false
		}
	}
	for _, e := range m.NotTypes {
		if a.Matches(e) {
			return false
		}
	}
	if len(m.AnyTypes) > 0 {
		ok := false
		for _, e := range m.AnyTypes {
			if a.Matches(e) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func componentMaskOf(exprs []TypeExpression) bitset256 {
	var m bitset256
	for _, e := range exprs {
		m.set(uint16(e.Component))
	}
	return m
}

// Query is a Mask compiled against a World. Its matched-archetype list is
// maintained incrementally: rather than rescanning every archetype on each
// use, it subscribes to the World's archetypeNotifier once at construction
// and appends newly created archetypes that satisfy the Mask as they
// appear (§4.6, adapted from the teacher's eventbus subscription idiom).
type Query struct {
	w    *World
	mask Mask

	// hasMask/anyMask are the coarse, key-blind component prefilters for
	// mask.HasTypes/AnyTypes (mask.go's bitset256). Every archetype is
	// checked against these two word-compares before falling through to
	// the precise, wildcard-aware Mask.matches scan, since an archetype
	// missing a required component can never match regardless of keys.
	hasMask bitset256
	anyMask bitset256

	mu      sync.Mutex
	matched []*Archetype
}

// NewQuery compiles mask against w. The returned Query stays live for the
// lifetime of w: it never needs to be rebuilt as new archetypes appear.
func NewQuery(w *World, mask Mask) *Query {
	q := &Query{
		w:       w,
		mask:    mask,
		hasMask: componentMaskOf(mask.HasTypes),
		anyMask: componentMaskOf(mask.AnyTypes),
	}
	w.mu.Lock()
	for _, a := range w.archetypes {
		if q.accepts(a) {
			q.matched = append(q.matched, a)
		}
	}
	w.notifier.subscribe(func(a *Archetype) {
		if q.accepts(a) {
			q.mu.Lock()
			q.matched = append(q.matched, a)
			q.mu.Unlock()
		}
	})
	w.mu.Unlock()
	return q
}

// accepts is the two-stage test every candidate archetype goes through: a
// cheap word-compare prefilter against the coarse component masks, then
// (only on a prefilter pass) the precise, wildcard-aware Mask.matches.
func (q *Query) accepts(a *Archetype) bool {
	if !a.compMask.containsAll(q.hasMask) {
		return false
	}
	if len(q.mask.AnyTypes) > 0 && !a.compMask.intersects(q.anyMask) {
		return false
	}
	return q.mask.matches(a)
}

// Matched returns the archetypes currently satisfying the query's Mask.
// The returned slice must not be retained past the next structural change
// that could grow it; copy it if you need a stable snapshot.
func (q *Query) Matched() []*Archetype {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.matched
}

// Count returns the total number of entities across every matched
// archetype, as of this call.
func (q *Query) Count() int {
	total := 0
	for _, a := range q.Matched() {
		total += a.Len()
	}
	return total
}
