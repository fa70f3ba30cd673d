package module

import (
	"fmt"
	"sync/atomic"
)

// UseCounter counts the live instances and server locks of one module.
// The module may be unloaded only while the count is zero.
type UseCounter struct {
	n atomic.Int64
}

// Add records one more user and returns the new count.
func (c *UseCounter) Add() int64 {
	return c.n.Add(1)
}

// Done records that a user went away and returns the new count.
// It panics if the count would become negative.
func (c *UseCounter) Done() int64 {
	n := c.n.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("module: use counter went negative (%d)", n))
	}
	return n
}

// Count returns the current count.
func (c *UseCounter) Count() int64 {
	return c.n.Load()
}

// CanUnload reports whether nothing is using the module.
func (c *UseCounter) CanUnload() bool {
	return c.n.Load() <= 0
}
