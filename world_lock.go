package loom

// Lock puts the World into deferred mode: structural mutations
// (AddComponent, RemoveComponent, Despawn, Truncate) issued before the
// matching Unlock are queued instead of applied immediately, so that a
// Stream can safely walk an archetype's rows while callback code decides
// to restructure entities (§5). Lock is reentrant — nested Lock/Unlock
// pairs (e.g. a Stream running inside another Stream's callback) only
// drain the queue once the outermost Unlock returns.
func (w *World) Lock() {
	w.mu.Lock()
	w.lockCount++
	w.mode = modeDeferred
	w.mu.Unlock()
}

// Unlock decrements the reentrant lock count. The outermost Unlock drains
// every operation queued since the matching Lock and applies them in FIFO
// order (§5 "deferred operations apply in the order they were issued").
func (w *World) Unlock() {
	w.mu.Lock()
	w.lockCount--
	if w.lockCount > 0 {
		w.mu.Unlock()
		return
	}
	w.mode = modeImmediate
	queue := w.deferred
	w.deferred = nil
	w.mu.Unlock()

	for _, op := range queue {
		_ = w.applyDeferred(op)
	}
}

func (w *World) applyDeferred(op deferredOp) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch op.kind {
	case opAdd:
		return op.apply(w)
	case opRemove:
		return w.removeComponentLocked(op.entity, op.expr)
	case opDespawn:
		return w.despawnLocked(op.entity)
	case opTruncate:
		return w.truncateLocked(op.archetypeID, op.maxCount)
	default:
		return nil
	}
}

// Truncate discards every row beyond maxCount in the archetype identified
// by id, recycling each discarded entity's slot (§4.6). In deferred mode
// the truncation is queued like any other structural change.
func (w *World) Truncate(id ArchetypeID, maxCount int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode == modeDeferred {
		w.deferred = append(w.deferred, deferredOp{kind: opTruncate, archetypeID: id, maxCount: maxCount})
		return nil
	}
	return w.truncateLocked(id, maxCount)
}

func (w *World) truncateLocked(id ArchetypeID, maxCount int) error {
	if int(id) < 0 || int(id) >= len(w.archetypes) {
		return newError(CodeInvalidIdentityKind, "truncate: unknown archetype %d", id)
	}
	a := w.archetypes[id]
	removed := a.Truncate(maxCount)
	for _, rid := range removed {
		slot := rid.Index()
		m := &w.metas[slot]
		next, err := rid.Successor()
		if err != nil {
			return err
		}
		m.generation = next.Generation()
		m.archetype = nil
		m.row = -1
		w.freeSlots = append(w.freeSlots, slot)
	}
	return nil
}
