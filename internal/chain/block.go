// Package chain provides block-height sources. The block counter is the
// ordinal clock for market phase transitions; the engine reads it but never
// advances it.
package chain

import (
	"context"
	"sync/atomic"
)

// Counter is a manually-advanced block source for the memory mode and for
// tests. Height only moves forward.
type Counter struct {
	height atomic.Uint64
}

// NewCounter creates a Counter starting at the given height.
func NewCounter(start uint64) *Counter {
	c := &Counter{}
	c.height.Store(start)
	return c
}

// Height returns the current block height.
func (c *Counter) Height(ctx context.Context) (uint64, error) {
	return c.height.Load(), nil
}

// Advance moves the counter forward by n blocks and returns the new height.
func (c *Counter) Advance(n uint64) uint64 {
	return c.height.Add(n)
}

// SetHeight jumps the counter to height if that is an advance; lower values
// are ignored so the clock never runs backwards.
func (c *Counter) SetHeight(height uint64) {
	for {
		cur := c.height.Load()
		if height <= cur {
			return
		}
		if c.height.CompareAndSwap(cur, height) {
			return
		}
	}
}
