package loom

import (
	"sync"

	"github.com/kamstrup/intmap"
)

// meta is the World's per-entity-slot record: which archetype and row the
// entity currently occupies, and the generation that makes the slot's
// packed Identity valid (§3 "World Meta-row").
type meta struct {
	archetype  *Archetype
	row        int
	generation uint8 // 0 only for a never-used slot; a freed slot keeps its next generation and a nil archetype
}

// World is the central registry of entities and archetypes, and the sole
// mediator of structural change (§4.6). It owns every Archetype, which in
// turn owns every Storage column; entities and Queries hold only
// identifiers/indices back into World.
type World struct {
	index uint8 // this World's worldIndex, packed into every entity Identity it mints

	reg *registry

	mu         sync.RWMutex // guards entities/archetypes/mode below (§5 "small monitor")
	freeSlots  []uint32
	metas      []meta
	archetypes []*Archetype
	bySigHash  *intmap.Map[uint64, ArchetypeID] // Signature.Hash() -> arena index, fast path
	notifier   archetypeNotifier

	mode       lockMode
	lockCount  int
	deferred   []deferredOp
}

type lockMode uint8

const (
	modeImmediate lockMode = iota
	modeDeferred
)

// NewWorld creates an empty World. worldIndex identifies this World inside
// packed Identity values (0..254; 255 is reserved, see GlobalWorldIndex)
// and only matters when multiple Worlds' entities might otherwise be
// confused by a caller, e.g. relation targets crossing Worlds.
func NewWorld(worldIndex uint8) *World {
	w := &World{
		index:     worldIndex,
		reg:       newRegistry(),
		bySigHash: intmap.New[uint64, ArchetypeID](64),
	}
	w.getOrCreateArchetype(EmptySignature)
	return w
}

// ComponentIDFor registers (or looks up) the ComponentID for T.
func ComponentIDFor[T any](w *World) ComponentID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return idFor[T](w.reg)
}

// TryComponentIDFor looks up the ComponentID already assigned to T,
// without registering it if T has never been seen by w.
func TryComponentIDFor[T any](w *World) (ComponentID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return lookupID[T](w.reg)
}

// getOrCreateArchetype returns the archetype for sig, creating it (and
// registering it with every live Query whose Mask matches) on first
// request. Callers must hold w.mu for writing.
func (w *World) getOrCreateArchetype(sig Signature) *Archetype {
	h := sig.Hash()
	if id, ok := w.bySigHash.Get(h); ok {
		if cand := w.archetypes[id]; cand.signature.Equal(sig) {
			return cand
		}
		// hash collision: fall back to a linear scan for the exact match.
		for _, a := range w.archetypes {
			if a.signature.Equal(sig) {
				return a
			}
		}
	}
	id := ArchetypeID(len(w.archetypes))
	a := newArchetype(id, sig, w.reg)
	w.archetypes = append(w.archetypes, a)
	w.bySigHash.Put(h, id)
	w.notifier.publish(a)
	return a
}

func (w *World) allocSlot() uint32 {
	if n := len(w.freeSlots); n > 0 {
		slot := w.freeSlots[n-1]
		w.freeSlots = w.freeSlots[:n-1]
		return slot
	}
	slot := uint32(len(w.metas))
	w.metas = append(w.metas, meta{})
	return slot
}

func (w *World) isAliveLocked(id Identity) bool {
	if id.Kind() != KindEntity {
		return false
	}
	slot := id.Index()
	if int(slot) >= len(w.metas) {
		return false
	}
	m := &w.metas[slot]
	return m.archetype != nil && m.generation != 0 && m.generation == id.Generation()
}

// IsAlive reports whether id currently names a live entity.
func (w *World) IsAlive(id Identity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isAliveLocked(id)
}

// Spawn creates a new entity with no components, placed in the empty
// archetype. Unlike AddComponent/RemoveComponent/Despawn, Spawn always
// applies immediately, even while the World is locked: it only ever
// appends to the empty archetype, which no Mask with a HasTypes
// requirement can match, so it cannot invalidate a Stream in progress.
func (w *World) Spawn() Identity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawnLocked()
}

func (w *World) spawnLocked() Identity {
	slot := w.allocSlot()
	m := &w.metas[slot]
	if m.generation == 0 {
		m.generation = 1
	}
	id := ConstructEntity(w.index, slot, m.generation)
	empty := w.getOrCreateArchetype(EmptySignature)
	row := empty.AddRow(id)
	m.archetype = empty
	m.row = row
	return id
}

// SpawnN bulk-creates count entities with no components (§4.6). It
// preallocates the empty archetype's identity slice once instead of
// growing it count times (teacher's batch.go CreateEntitiesTo).
func (w *World) SpawnN(count int) []Identity {
	if count <= 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	empty := w.getOrCreateArchetype(EmptySignature)
	if need := len(empty.identity) + count; cap(empty.identity) < need {
		grown := make([]Identity, len(empty.identity), need)
		copy(grown, empty.identity)
		empty.identity = grown
	}
	out := make([]Identity, count)
	for i := 0; i < count; i++ {
		out[i] = w.spawnLocked()
	}
	return out
}

// Despawn removes id's row from its archetype and recycles its slot with
// the successor generation. In deferred mode the despawn is queued instead
// (§5).
func (w *World) Despawn(id Identity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode == modeDeferred {
		w.deferred = append(w.deferred, deferredOp{kind: opDespawn, entity: id})
		return nil
	}
	return w.despawnLocked(id)
}

func (w *World) despawnLocked(id Identity) error {
	if !w.isAliveLocked(id) {
		return newError(CodeEntityNotAlive, "despawn %s", id)
	}
	slot := id.Index()
	m := &w.metas[slot]
	a := m.archetype
	row := m.row
	movedFrom, moved := a.RemoveRow(row)
	if moved {
		w.metas[movedFrom.Index()].row = row
	}
	next, err := id.Successor()
	if err != nil {
		return err
	}
	m.generation = next.Generation()
	m.archetype = nil
	m.row = -1
	w.freeSlots = append(w.freeSlots, slot)
	return nil
}

// SignatureOf returns the Signature currently held by id.
func (w *World) SignatureOf(id Identity) (Signature, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.isAliveLocked(id) {
		return Signature{}, newError(CodeEntityNotAlive, "signature of %s", id)
	}
	return w.metas[id.Index()].archetype.Signature(), nil
}

// HasComponent reports whether id currently has a component matching expr
// (wildcard-aware per §4.2).
func (w *World) HasComponent(id Identity, expr TypeExpression) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.isAliveLocked(id) {
		return false
	}
	return w.metas[id.Index()].archetype.Matches(expr)
}

// AddComponent adds a component value at expr to id, migrating it to
// Signature∪{expr}. Fails with ComponentAlreadyPresent if expr is already
// present (§4.6). In deferred mode the add is queued.
func AddComponent[T any](w *World, id Identity, expr TypeExpression, value T) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode == modeDeferred {
		w.deferred = append(w.deferred, deferredOp{
			kind: opAdd, entity: id, expr: expr,
			apply: func(w *World) error { return w.addComponentLocked(id, expr, value) },
		})
		return nil
	}
	return w.addComponentLocked(id, expr, value)
}

func (w *World) addComponentLocked(id Identity, expr TypeExpression, value any) error {
	if !w.isAliveLocked(id) {
		return newError(CodeEntityNotAlive, "add %v", expr)
	}
	if value == nil {
		return newError(CodeNullComponentValue, "add %v", expr)
	}
	slot := id.Index()
	m := &w.metas[slot]
	old := m.archetype
	if old.Contains(expr) {
		return newError(CodeComponentAlreadyPresent, "%v on %s", expr, id)
	}
	dst, ok := old.addTransition[expr]
	if !ok {
		dst = w.getOrCreateArchetype(old.signature.Add(expr))
		old.addTransition[expr] = dst
	}
	newRow, movedFrom, moved := old.MigrateRow(m.row, dst)
	if moved {
		w.metas[movedFrom.Index()].row = m.row
	}
	m.archetype = dst
	m.row = newRow
	return setErasedColumn(dst, expr, newRow, value)
}

// setErasedColumn sets value (typed T, passed as any) into dst's column
// for expr at row. The column itself must already exist in dst (created
// alongside the archetype) and must be a *Column[T] matching value's
// dynamic type; a mismatch is an internal invariant violation.
func setErasedColumn(dst *Archetype, expr TypeExpression, row int, value any) error {
	col := dst.columnFor(expr)
	if col == nil {
		panic("loom: destination archetype missing column for " + "added TypeExpression")
	}
	return col.setAny(row, value)
}

// RemoveComponent removes the component at expr from id, migrating it to
// Signature∖{expr}. Fails with ComponentNotPresent if absent (§4.6). In
// deferred mode the remove is queued.
func (w *World) RemoveComponent(id Identity, expr TypeExpression) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode == modeDeferred {
		w.deferred = append(w.deferred, deferredOp{kind: opRemove, entity: id, expr: expr})
		return nil
	}
	return w.removeComponentLocked(id, expr)
}

func (w *World) removeComponentLocked(id Identity, expr TypeExpression) error {
	if !w.isAliveLocked(id) {
		return newError(CodeEntityNotAlive, "remove %v", expr)
	}
	slot := id.Index()
	m := &w.metas[slot]
	old := m.archetype
	if !old.Contains(expr) {
		return newError(CodeComponentNotPresent, "%v on %s", expr, id)
	}
	dst, ok := old.removeTransition[expr]
	if !ok {
		dst = w.getOrCreateArchetype(old.signature.Remove(expr))
		old.removeTransition[expr] = dst
	}
	newRow, movedFrom, moved := old.MigrateRow(m.row, dst)
	if moved {
		w.metas[movedFrom.Index()].row = m.row
	}
	m.archetype = dst
	m.row = newRow
	return nil
}

// GetComponent returns a pointer to id's component value at expr, or
// ComponentNotPresent. The pointer is valid until the next structural
// change to id's archetype (§5 "dangling reference" contract).
func GetComponent[T any](w *World, id Identity, expr TypeExpression) (*T, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.isAliveLocked(id) {
		return nil, newError(CodeEntityNotAlive, "get %v", expr)
	}
	m := &w.metas[id.Index()]
	col := m.archetype.columnFor(expr)
	if col == nil {
		return nil, newError(CodeComponentNotPresent, "%v on %s", expr, id)
	}
	typed, ok := col.(*Column[T])
	if !ok {
		panic("loom: GetComponent type mismatch for " + "TypeExpression")
	}
	return typed.Get(m.row)
}

// GetAll returns every value of type T whose TypeExpression matches expr
// on id — e.g. every Likes(_) relation target's value (§4.6 get_all).
func GetAll[T any](w *World, id Identity, expr TypeExpression) ([]T, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.isAliveLocked(id) {
		return nil, newError(CodeEntityNotAlive, "get_all %v", expr)
	}
	m := &w.metas[id.Index()]
	matches := m.archetype.Match(expr)
	out := make([]T, 0, len(matches))
	for _, cm := range matches {
		typed, ok := cm.col.(*Column[T])
		if !ok {
			panic("loom: GetAll type mismatch for TypeExpression")
		}
		v, err := typed.Get(m.row)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}
