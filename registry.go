package loom

import (
	"fmt"
	"reflect"
)

// registry assigns a monotonic ComponentID to each component type the
// first time it is seen, grounded on the teacher's RegisterComponent/GetID
// pair (component.go) but owned per-World instead of process-global, so
// that multiple Worlds in the same process never contend over one table.
type registry struct {
	typeToID    map[reflect.Type]ComponentID
	idToType    []reflect.Type
	idToFactory []func() column
}

func newRegistry() *registry {
	return &registry{
		typeToID:    make(map[reflect.Type]ComponentID, 64),
		idToType:    make([]reflect.Type, 0, 64),
		idToFactory: make([]func() column, 0, 64),
	}
}

// newColumnFor instantiates a fresh, empty column for id via the factory
// captured when T was first registered (idFor). Every archetype column is
// built this way, so Archetype never needs to know a component's concrete
// Go type itself.
func (r *registry) newColumnFor(id ComponentID) column {
	return r.idToFactory[id]()
}

func componentTypeOf[T any]() reflect.Type {
	var zero T
	return reflect.TypeOf(zero)
}

// idFor returns the ComponentID for T, registering it on first use.
func idFor[T any](r *registry) ComponentID {
	t := componentTypeOf[T]()
	if id, ok := r.typeToID[t]; ok {
		return id
	}
	if len(r.idToType) >= MaxComponentTypes {
		panic(fmt.Sprintf("loom: cannot register component %s: maximum of %d component types reached", t, MaxComponentTypes))
	}
	id := ComponentID(len(r.idToType))
	r.typeToID[t] = id
	r.idToType = append(r.idToType, t)
	r.idToFactory = append(r.idToFactory, func() column { return newColumn[T]() })
	return id
}

// lookupID returns the ComponentID for T without registering it.
func lookupID[T any](r *registry) (ComponentID, bool) {
	id, ok := r.typeToID[componentTypeOf[T]()]
	return id, ok
}
