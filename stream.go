package loom

// Stream operations run a callback over every entity matched by a Query.
// They come in two families: the ForEach family resolves wildcard slots
// via crossJoinRow and hands back the actual matched TypeExpression's
// value; the ForEachUniform family assumes every slot expression is plain
// (no wildcard) and skips the cross-join machinery entirely, the fast path
// used by the overwhelming majority of queries (§4.7, §9 "generated arity
// family", mirrored on the teacher's Filter/Filter2.../Filter5 convention).
//
// Every Stream call brackets its walk in World.Lock/Unlock so that
// structural changes issued from inside fn are deferred until the walk
// completes (§5).

// ForEach1 walks every entity matched by q, resolving expr1 (which may be
// a wildcard) against each archetype and calling fn once per (entity,
// matched-column) combination.
func ForEach1[T1 any](w *World, q *Query, expr1 TypeExpression, fn func(id Identity, v1 *T1) bool) {
	w.Lock()
	defer w.Unlock()
	for _, a := range q.Matched() {
		slots := [][]columnMatch{a.Match(expr1)}
		crossJoinArchetype(a, slots, func(row int, combo []columnMatch) bool {
			c1 := combo[0].col.(*Column[T1])
			return fn(a.EntityAt(row), c1.At(row))
		})
	}
}

// ForEach2 is ForEach1 generalized to two slots, cross-joined together per
// row when either (or both) is a wildcard.
func ForEach2[T1, T2 any](w *World, q *Query, expr1, expr2 TypeExpression, fn func(id Identity, v1 *T1, v2 *T2) bool) {
	w.Lock()
	defer w.Unlock()
	for _, a := range q.Matched() {
		slots := [][]columnMatch{a.Match(expr1), a.Match(expr2)}
		crossJoinArchetype(a, slots, func(row int, combo []columnMatch) bool {
			c1 := combo[0].col.(*Column[T1])
			c2 := combo[1].col.(*Column[T2])
			return fn(a.EntityAt(row), c1.At(row), c2.At(row))
		})
	}
}

// ForEach3 is ForEach1 generalized to three slots.
func ForEach3[T1, T2, T3 any](w *World, q *Query, expr1, expr2, expr3 TypeExpression, fn func(id Identity, v1 *T1, v2 *T2, v3 *T3) bool) {
	w.Lock()
	defer w.Unlock()
	for _, a := range q.Matched() {
		slots := [][]columnMatch{a.Match(expr1), a.Match(expr2), a.Match(expr3)}
		crossJoinArchetype(a, slots, func(row int, combo []columnMatch) bool {
			c1 := combo[0].col.(*Column[T1])
			c2 := combo[1].col.(*Column[T2])
			c3 := combo[2].col.(*Column[T3])
			return fn(a.EntityAt(row), c1.At(row), c2.At(row), c3.At(row))
		})
	}
}

// ForEach4 is ForEach1 generalized to four slots.
func ForEach4[T1, T2, T3, T4 any](w *World, q *Query, expr1, expr2, expr3, expr4 TypeExpression, fn func(id Identity, v1 *T1, v2 *T2, v3 *T3, v4 *T4) bool) {
	w.Lock()
	defer w.Unlock()
	for _, a := range q.Matched() {
		slots := [][]columnMatch{a.Match(expr1), a.Match(expr2), a.Match(expr3), a.Match(expr4)}
		crossJoinArchetype(a, slots, func(row int, combo []columnMatch) bool {
			c1 := combo[0].col.(*Column[T1])
			c2 := combo[1].col.(*Column[T2])
			c3 := combo[2].col.(*Column[T3])
			c4 := combo[3].col.(*Column[T4])
			return fn(a.EntityAt(row), c1.At(row), c2.At(row), c3.At(row), c4.At(row))
		})
	}
}

// ForEachUniform1 is ForEach1 restricted to a plain (non-wildcard) expr1:
// no cross-join, one direct column lookup per archetype.
func ForEachUniform1[T1 any](w *World, q *Query, expr1 TypeExpression, fn func(id Identity, v1 *T1) bool) {
	w.Lock()
	defer w.Unlock()
	for _, a := range q.Matched() {
		col := a.columnFor(expr1)
		if col == nil {
			continue
		}
		c1 := col.(*Column[T1])
		for row := 0; row < a.Len(); row++ {
			if !fn(a.EntityAt(row), c1.At(row)) {
				break
			}
		}
	}
}

// ForEachUniform2 is ForEachUniform1 generalized to two plain slots.
func ForEachUniform2[T1, T2 any](w *World, q *Query, expr1, expr2 TypeExpression, fn func(id Identity, v1 *T1, v2 *T2) bool) {
	w.Lock()
	defer w.Unlock()
	for _, a := range q.Matched() {
		col1 := a.columnFor(expr1)
		col2 := a.columnFor(expr2)
		if col1 == nil || col2 == nil {
			continue
		}
		c1 := col1.(*Column[T1])
		c2 := col2.(*Column[T2])
		for row := 0; row < a.Len(); row++ {
			if !fn(a.EntityAt(row), c1.At(row), c2.At(row)) {
				break
			}
		}
	}
}

// ForEachUniform3 is ForEachUniform1 generalized to three plain slots.
func ForEachUniform3[T1, T2, T3 any](w *World, q *Query, expr1, expr2, expr3 TypeExpression, fn func(id Identity, v1 *T1, v2 *T2, v3 *T3) bool) {
	w.Lock()
	defer w.Unlock()
	for _, a := range q.Matched() {
		col1 := a.columnFor(expr1)
		col2 := a.columnFor(expr2)
		col3 := a.columnFor(expr3)
		if col1 == nil || col2 == nil || col3 == nil {
			continue
		}
		c1 := col1.(*Column[T1])
		c2 := col2.(*Column[T2])
		c3 := col3.(*Column[T3])
		for row := 0; row < a.Len(); row++ {
			if !fn(a.EntityAt(row), c1.At(row), c2.At(row), c3.At(row)) {
				break
			}
		}
	}
}

// ForEachUniform4 is ForEachUniform1 generalized to four plain slots.
func ForEachUniform4[T1, T2, T3, T4 any](w *World, q *Query, expr1, expr2, expr3, expr4 TypeExpression, fn func(id Identity, v1 *T1, v2 *T2, v3 *T3, v4 *T4) bool) {
	w.Lock()
	defer w.Unlock()
	for _, a := range q.Matched() {
		col1 := a.columnFor(expr1)
		col2 := a.columnFor(expr2)
		col3 := a.columnFor(expr3)
		col4 := a.columnFor(expr4)
		if col1 == nil || col2 == nil || col3 == nil || col4 == nil {
			continue
		}
		c1 := col1.(*Column[T1])
		c2 := col2.(*Column[T2])
		c3 := col3.(*Column[T3])
		c4 := col4.(*Column[T4])
		for row := 0; row < a.Len(); row++ {
			if !fn(a.EntityAt(row), c1.At(row), c2.At(row), c3.At(row), c4.At(row)) {
				break
			}
		}
	}
}

// Raw1 exposes the raw backing slice of expr1's column for every matched
// archetype, alongside the archetype's identity slice, for bulk
// vectorized access outside the per-row callback model (§4.7 "raw span
// access"). Slices are aliased to live storage: they are invalidated by
// the next structural change (§5).
func Raw1[T1 any](w *World, q *Query, expr1 TypeExpression, fn func(ids []Identity, v1 []T1)) {
	w.Lock()
	defer w.Unlock()
	for _, a := range q.Matched() {
		col := a.columnFor(expr1)
		if col == nil {
			continue
		}
		c1 := col.(*Column[T1])
		fn(a.IterEntities(), c1.Slice())
	}
}

// Blit overwrites every row of expr1's column, across every archetype
// matched by q, with value (§4.4 blit / §4.7).
func Blit[T1 any](w *World, q *Query, expr1 TypeExpression, value T1) {
	w.Lock()
	defer w.Unlock()
	for _, a := range q.Matched() {
		FillColumn(a, expr1, value)
	}
}
