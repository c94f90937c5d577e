package loom

import "sync/atomic"

// ArchetypeID is an archetype's stable position in the World's archetype
// arena (§9: "model the archetype graph as an arena of archetypes owned by
// the World and reference them by 32-bit archetype-ids").
type ArchetypeID int32

// Archetype groups every entity sharing one exact Signature and exposes
// columnar access to their component values (§4.5). A World exclusively
// owns all Archetypes, which exclusively own their Storage columns;
// nothing outside World/Archetype holds a raw reference that outlives a
// structural change.
type Archetype struct {
	id        ArchetypeID
	signature Signature
	compMask  bitset256 // coarse component-id pre-filter, ignoring secondary keys

	columns   []column         // parallel to signature.types
	exprIndex map[TypeExpression]int // exact TypeExpression -> columns index
	identity  []Identity              // implicit identity column, one per row

	version atomic.Uint64 // bumped on every structural mutation affecting this archetype

	// transition caches: adding/removing a single TypeExpression from
	// this archetype's signature always lands on the same destination
	// archetype, so remember it instead of re-interning every time
	// (§9 "inter-archetype transition caches").
	addTransition    map[TypeExpression]*Archetype
	removeTransition map[TypeExpression]*Archetype
}

func newArchetype(id ArchetypeID, sig Signature, reg *registry) *Archetype {
	a := &Archetype{
		id:               id,
		signature:        sig,
		compMask:         sig.componentMask(),
		columns:          make([]column, sig.Len()),
		exprIndex:        make(map[TypeExpression]int, sig.Len()),
		addTransition:    make(map[TypeExpression]*Archetype),
		removeTransition: make(map[TypeExpression]*Archetype),
	}
	for i, e := range sig.Types() {
		a.exprIndex[e] = i
		a.columns[i] = reg.newColumnFor(e.Component)
	}
	return a
}

// ID returns the archetype's stable arena id.
func (a *Archetype) ID() ArchetypeID { return a.id }

// Signature returns the archetype's immutable Signature.
func (a *Archetype) Signature() Signature { return a.signature }

// Len returns the current row (entity) count.
func (a *Archetype) Len() int { return len(a.identity) }

// IsEmpty reports whether the archetype currently holds no entities.
func (a *Archetype) IsEmpty() bool { return len(a.identity) == 0 }

// Version returns the archetype's monotone structural-change counter
// (§4.5). The Stream functions do not consult it: they run under
// World.Lock, so structural changes issued during a walk are deferred
// until the walk ends.
func (a *Archetype) Version() uint64 { return a.version.Load() }

func (a *Archetype) bumpVersion() { a.version.Add(1) }

// IterEntities returns the current, contiguous slice of row identities.
// The slice is a live view: it is invalidated by any structural mutation
// of this archetype (§5 ordering guarantees — row order is unspecified
// across structural changes).
func (a *Archetype) IterEntities() []Identity { return a.identity }

// EntityAt returns the identity stored at row.
func (a *Archetype) EntityAt(row int) Identity { return a.identity[row] }

// Contains reports whether the archetype stores expr exactly (an
// archetype-identity check; unlike Matches, it never applies wildcard
// matching).
func (a *Archetype) Contains(expr TypeExpression) bool {
	_, ok := a.exprIndex[expr]
	return ok
}

// columnFor returns the erased column backing expr's component+key exactly
// (no wildcard matching), or nil if this archetype has no such column.
func (a *Archetype) columnFor(expr TypeExpression) column {
	if i, ok := a.exprIndex[expr]; ok {
		return a.columns[i]
	}
	return nil
}

// columnMatch pairs a matched TypeExpression with its erased column, the
// unit Archetype.Match and the cross-join engine operate over.
type columnMatch struct {
	expr TypeExpression
	col  column
}

// Match returns every column whose TypeExpression matches the query
// expression expr, per the wildcard relation in §4.2. A plain expr matches
// at most one column (there is at most one plain slot per component per
// archetype, enforced by Signature's set semantics); a wildcard expr may
// match several.
func (a *Archetype) Match(expr TypeExpression) []columnMatch {
	if !expr.Key.Kind.isWildcard() {
		if col := a.columnFor(expr); col != nil {
			return []columnMatch{{expr: expr, col: col}}
		}
		return nil
	}
	if !a.compMask.has(uint16(expr.Component)) {
		return nil
	}
	var out []columnMatch
	for i, e := range a.signature.types {
		if e.Component == expr.Component && expr.Key.Matches(e.Key) {
			out = append(out, columnMatch{expr: e, col: a.columns[i]})
		}
	}
	return out
}

// Matches reports whether this archetype has at least one column
// satisfying the query expression expr.
func (a *Archetype) Matches(expr TypeExpression) bool {
	if !a.compMask.has(uint16(expr.Component)) {
		return false
	}
	if !expr.Key.Kind.isWildcard() {
		_, ok := a.exprIndex[expr]
		return ok
	}
	for _, e := range a.signature.types {
		if e.Component == expr.Component && expr.Key.Matches(e.Key) {
			return true
		}
	}
	return false
}

// AddRow appends a new row for identity id with every column holding its
// zero value, returning the new row index. Callers set the new row's value
// in every column that needs a non-zero initial value.
func (a *Archetype) AddRow(id Identity) int {
	row := len(a.identity)
	a.identity = append(a.identity, id)
	for _, c := range a.columns {
		c.AppendZero()
	}
	a.bumpVersion()
	return row
}

// RemoveRow deletes row via swap-with-last across every column and the
// identity column atomically, returning the identity of the entity that
// was moved into row (if any), so the caller can update its Meta.
func (a *Archetype) RemoveRow(row int) (movedFrom Identity, moved bool) {
	last := len(a.identity) - 1
	if row < 0 || row > last {
		return 0, false
	}
	if row != last {
		movedFrom = a.identity[last]
		moved = true
		a.identity[row] = a.identity[last]
	}
	a.identity = a.identity[:last]
	for _, c := range a.columns {
		_ = c.DeleteSwap(row)
	}
	a.bumpVersion()
	return movedFrom, moved
}

// FillColumn overwrites every row of the column matching expr with value.
// Used to implement Blit. (The single-row backfill after a migration goes
// through setErasedColumn instead.)
func FillColumn[T any](a *Archetype, expr TypeExpression, value T) bool {
	col := a.columnFor(expr)
	if col == nil {
		return false
	}
	typed, ok := col.(*Column[T])
	if !ok {
		return false
	}
	typed.Blit(value)
	return true
}

// MigrateRow moves row from a to dst: for every TypeExpression present in
// both, the column value is migrated (copied then swap-deleted from a);
// columns only in a are dropped (swap-deleted, value discarded); columns
// only in dst are left at their zero value for the caller to backfill.
// MigrateRow updates neither archetype's entity Meta — that is the
// World's responsibility, since only World knows the entity slot table.
func (a *Archetype) MigrateRow(row int, dst *Archetype) (newRow int, movedFrom Identity, moved bool) {
	id := a.identity[row]
	newRow = len(dst.identity)
	dst.identity = append(dst.identity, id)
	for i, e := range a.signature.types {
		if j, ok := dst.exprIndex[e]; ok {
			_ = a.columns[i].MigrateRowTo(dst.columns[j], row)
		}
	}
	// Columns only present in dst (the TypeExpression being added) have no
	// counterpart to migrate from; append a zero value so every dst column
	// stays exactly as long as dst.identity. The caller backfills it.
	for j, e := range dst.signature.types {
		if _, ok := a.exprIndex[e]; !ok {
			dst.columns[j].AppendZero()
		}
	}
	// Any column still present in a (not shared with dst) must be
	// swap-deleted too, and the identity row removed the same way
	// RemoveRow does, so that a's row count and every surviving
	// column's length stay in lockstep with the identity column.
	for i, e := range a.signature.types {
		if _, ok := dst.exprIndex[e]; !ok {
			_ = a.columns[i].DeleteSwap(row)
		}
	}
	last := len(a.identity) - 1
	if row != last {
		movedFrom = a.identity[last]
		moved = true
		a.identity[row] = a.identity[last]
	}
	a.identity = a.identity[:last]

	dst.bumpVersion()
	a.bumpVersion()
	return newRow, movedFrom, moved
}

// Truncate despawns every row beyond maxCount by repeatedly removing the
// last row, returning the identities removed so the caller (World) can
// recycle their slots. It does not itself touch World.Meta.
func (a *Archetype) Truncate(maxCount int) []Identity {
	if maxCount < 0 {
		maxCount = 0
	}
	var removed []Identity
	for len(a.identity) > maxCount {
		last := len(a.identity) - 1
		removed = append(removed, a.identity[last])
		a.identity = a.identity[:last]
		for _, c := range a.columns {
			_ = c.DeleteSwap(last)
		}
	}
	if len(removed) > 0 {
		a.bumpVersion()
	}
	return removed
}
