package prop

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/prop/pkg/typeid"
)

// globalIDCounter is the source of cell IDs. IDs are never reused.
var globalIDCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// cell is the shared value behind a family of handles.
type cell[T any] struct {
	id   uint64
	name string

	// mu protects value.
	mu    sync.RWMutex
	value T

	// strong counts live strong handles. The cell is destroyed when it
	// drops to zero and never revived afterwards.
	strong atomic.Int64

	subs registry
}

func newCell[T any](name string, value T) *cell[T] {
	c := &cell[T]{
		id:    nextID(),
		name:  name,
		value: value,
	}
	c.strong.Store(1)
	return c
}

func (c *cell[T]) get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// set replaces the value and then notifies subscribers. The lock is
// released first so subscribers may use the cell.
func (c *cell[T]) set(v T) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()

	c.subs.broadcast()
}

func (c *cell[T]) update(fn func(T) T) {
	c.mu.Lock()
	c.value = fn(c.value)
	c.mu.Unlock()

	c.subs.broadcast()
}

func (c *cell[T]) forceChange() {
	c.subs.broadcast()
}

func (c *cell[T]) typeID() typeid.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return typeid.Of[T]()
}

func (c *cell[T]) alive() bool {
	return c.strong.Load() > 0
}

// acquire adds a strong reference. The caller must already own one, which
// keeps the count above zero.
func (c *cell[T]) acquire() {
	c.strong.Add(1)
}

// tryAcquire adds a strong reference unless the cell is destroyed.
func (c *cell[T]) tryAcquire() bool {
	for {
		n := c.strong.Load()
		if n <= 0 {
			return false
		}
		if c.strong.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release drops a strong reference and destroys the cell on the last one.
func (c *cell[T]) release() {
	if c.strong.Add(-1) == 0 {
		c.subs.clear()
		logger().Debug("property destroyed", "name", c.name, "id", c.id)
	}
}
