package loom

// column is the type-erased vtable a Storage column presents to the
// Archetype (§4.4, §9 "erased into a vtable ... plus a typed view obtained
// by a type-id check"). Each concrete component type gets its own
// *Column[T], reached through this interface everywhere the
// Archetype does not need T itself, and through Column[T] (below)
// everywhere it does.
//
// This is the teacher's compPointers/compSizes vtable (ecs.go, world.go)
// reshaped around Go generics and an interface instead of unsafe.Pointer
// arithmetic: same "erase the type, keep a typed view on demand" idea,
// without hand-rolled pointer math that nothing here can compile-check.
type column interface {
	Len() int
	Cap() int
	AppendZero() int
	AppendZeroN(n int) int
	DeleteSwap(row int) error
	MigrateRowTo(dst column, row int) error
	newEmpty() column
	setAny(row int, v any) error
}

// Column is the typed view of a storage column, used wherever caller code
// knows the component type T (Get, Set, Blit, raw column access for
// streaming).
type Column[T any] struct {
	values []T
}

func newColumn[T any]() *Column[T] {
	return &Column[T]{}
}

// Len returns the number of rows currently stored.
func (c *Column[T]) Len() int { return len(c.values) }

// Cap returns the column's current backing capacity.
func (c *Column[T]) Cap() int { return cap(c.values) }

// Get returns a pointer to the value at row. Panics via ErrRowOutOfBounds
// semantics are avoided: callers must check row against Archetype.Len()
// first per §4.4; Get itself returns an error for defense in depth.
func (c *Column[T]) Get(row int) (*T, error) {
	if row < 0 || row >= len(c.values) {
		return nil, newError(CodeRowOutOfBounds, "row %d, len %d", row, len(c.values))
	}
	return &c.values[row], nil
}

// At returns a pointer to the value at row without bounds checking, for
// hot paths that have already validated row (e.g. cross-join iteration
// that derived row from the same archetype's Len()).
func (c *Column[T]) At(row int) *T { return &c.values[row] }

// Set overwrites the value at row.
func (c *Column[T]) Set(row int, v T) error {
	if row < 0 || row >= len(c.values) {
		return newError(CodeRowOutOfBounds, "row %d, len %d", row, len(c.values))
	}
	c.values[row] = v
	return nil
}

// Append adds value as a new row and returns its index.
func (c *Column[T]) Append(value T) int {
	c.values = append(c.values, value)
	return len(c.values) - 1
}

// AppendN bulk-fills count copies of value, returning the index of the
// first appended row.
func (c *Column[T]) AppendN(value T, count int) int {
	start := len(c.values)
	for i := 0; i < count; i++ {
		c.values = append(c.values, value)
	}
	return start
}

// AppendZero appends a zero value as a new row and returns its index.
func (c *Column[T]) AppendZero() int {
	var zero T
	return c.Append(zero)
}

// AppendZeroN bulk-appends count zero values, returning the first index.
func (c *Column[T]) AppendZeroN(n int) int {
	var zero T
	return c.AppendN(zero, n)
}

// DeleteSwap removes row by swapping the last row into its place and
// shrinking by one (§4.4).
func (c *Column[T]) DeleteSwap(row int) error {
	n := len(c.values)
	if row < 0 || row >= n {
		return newError(CodeRowOutOfBounds, "row %d, len %d", row, n)
	}
	last := n - 1
	if row != last {
		c.values[row] = c.values[last]
	}
	var zero T
	c.values[last] = zero
	c.values = c.values[:last]
	return nil
}

// MigrateRowTo appends self[row] to dst and then deletes row from self via
// swap-with-last (§4.4). dst must be a *Column[T] for the same T; a type
// mismatch indicates an Archetype/Signature desync and is an internal
// invariant violation, not a usage error.
func (c *Column[T]) MigrateRowTo(dst column, row int) error {
	typed, ok := dst.(*Column[T])
	if !ok {
		panic("loom: MigrateRowTo target column type mismatch")
	}
	if row < 0 || row >= len(c.values) {
		return newError(CodeRowOutOfBounds, "row %d, len %d", row, len(c.values))
	}
	typed.values = append(typed.values, c.values[row])
	return c.DeleteSwap(row)
}

// Blit overwrites every row with a copy of value (§4.4).
func (c *Column[T]) Blit(value T) {
	for i := range c.values {
		c.values[i] = value
	}
}

func (c *Column[T]) newEmpty() column { return newColumn[T]() }

// setAny is the type-erased entry point World uses to write a freshly
// added component's value, whose static type T is only known at the
// generic AddComponent call site and has since been boxed into an any.
func (c *Column[T]) setAny(row int, v any) error {
	typed, ok := v.(T)
	if !ok {
		panic("loom: component value type mismatch for column")
	}
	return c.Set(row, typed)
}

// Slice exposes the column's current backing storage directly, for
// Stream.Raw span access. Callers must not retain the slice across a
// structural mutation (§5 "dangling reference" contract).
func (c *Column[T]) Slice() []T { return c.values }
