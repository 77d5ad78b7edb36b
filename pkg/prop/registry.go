package prop

import (
	"slices"
	"sync"
	"sync/atomic"
)

// slot is one subscription in a registry.
type slot struct {
	conn *Connection

	// fire delivers one notification: it runs the callback inline or posts
	// it to a reactor.
	fire func()

	// release, if set, runs once when the slot leaves the registry.
	release func()

	pos   position
	group int
	seq   uint64
}

// before reports whether a fires before b: front slots newest first, then
// grouped slots by ascending group, then back slots. Ties go to the older
// registration.
func before(a, b *slot) bool {
	if a.pos != b.pos {
		return a.pos < b.pos
	}
	switch a.pos {
	case atFront:
		return a.seq > b.seq
	case inGroup:
		if a.group != b.group {
			return a.group < b.group
		}
	}
	return a.seq < b.seq
}

// registry is the ordered subscriber list of a cell.
type registry struct {
	mu    sync.Mutex
	seq   uint64
	slots []*slot
}

func (r *registry) add(s *slot) *Connection {
	c := &Connection{reg: r, s: s}
	c.connected.Store(true)
	s.conn = c

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	s.seq = r.seq
	i := slices.IndexFunc(r.slots, func(o *slot) bool { return before(s, o) })
	if i < 0 {
		i = len(r.slots)
	}
	r.slots = slices.Insert(r.slots, i, s)
	return c
}

func (r *registry) remove(s *slot) {
	if !s.conn.connected.CompareAndSwap(true, false) {
		return
	}

	r.mu.Lock()
	if i := slices.Index(r.slots, s); i >= 0 {
		r.slots = slices.Delete(r.slots, i, i+1)
	}
	r.mu.Unlock()

	if s.release != nil {
		s.release()
	}
}

// clear disconnects every slot.
func (r *registry) clear() {
	r.mu.Lock()
	slots := r.slots
	r.slots = nil
	r.mu.Unlock()

	for _, s := range slots {
		if s.conn.connected.CompareAndSwap(true, false) && s.release != nil {
			s.release()
		}
	}
}

// broadcast fires every connected slot in order. It works on a snapshot so
// callbacks may connect and disconnect freely; a slot disconnected during
// the broadcast is skipped.
func (r *registry) broadcast() {
	r.mu.Lock()
	snapshot := slices.Clone(r.slots)
	r.mu.Unlock()

	for _, s := range snapshot {
		if s.conn.connected.Load() {
			s.fire()
		}
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Connection is the token returned by Connect. Its methods are safe on a
// nil Connection.
type Connection struct {
	connected atomic.Bool
	reg       *registry
	s         *slot
}

// Disconnect stops future notifications. Deferred notifications already
// posted to a reactor still run. Disconnect is idempotent.
func (c *Connection) Disconnect() {
	if c == nil {
		return
	}
	c.reg.remove(c.s)
}

// Connected reports whether the subscription is still registered. It turns
// false after Disconnect and when the property is destroyed.
func (c *Connection) Connected() bool {
	return c != nil && c.connected.Load()
}
