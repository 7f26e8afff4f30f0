package canopy

import "fmt"

// Cached is a memo cell holding a lazily recomputed value. It is either valid
// (holding a value) or invalid (the value must be recomputed before use).
//
// Cached is the building block for all derived per-drawable state: world
// transforms, draw colors, and aggregate bounds are each stored in a Cached
// cell and recomputed only when a dependency invalidates them.
//
// Cached is not safe for concurrent use; each cell is owned by the thread
// that owns its drawable.
type Cached[T any] struct {
	value T
	valid bool
}

// IsValid reports whether the cell currently holds a usable value.
func (c *Cached[T]) IsValid() bool {
	return c.valid
}

// Value returns the cached value.
// Panics if the cell is invalid; callers must check IsValid or use GetOrCompute.
func (c *Cached[T]) Value() T {
	if !c.valid {
		panic(fmt.Sprintf("canopy: reading invalid Cached[%T]", c.value))
	}
	return c.value
}

// Set stores a value and marks the cell valid.
func (c *Cached[T]) Set(value T) {
	c.value = value
	c.valid = true
}

// GetOrCompute returns the cached value, computing and storing it via fn
// if the cell is invalid.
func (c *Cached[T]) GetOrCompute(fn func() T) T {
	if !c.valid {
		c.value = fn()
		c.valid = true
	}
	return c.value
}

// Invalidate clears the cell's validity. Idempotent; reports whether the
// cell was valid before the call, so propagation chains can short-circuit
// when nothing changed.
func (c *Cached[T]) Invalidate() bool {
	if !c.valid {
		return false
	}
	c.valid = false
	var zero T
	c.value = zero
	return true
}
