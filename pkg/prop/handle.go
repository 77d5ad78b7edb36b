package prop

import (
	"sync/atomic"

	"github.com/vango-dev/prop/pkg/convert"
	"github.com/vango-dev/prop/pkg/typeid"
)

// binding is what a handle refers to: a cell and the family group it
// belongs to. Bindings are immutable and may be shared between handles.
type binding[T any] struct {
	cell  *cell[T]
	group *group
}

// leave gives up one family membership and, for strong members, one
// strong reference to the cell. The group is left first so a concurrent
// join that still sees the old binding finds the cell alive.
func (b *binding[T]) leave(strong bool) {
	b.group.leave()
	if strong {
		b.cell.release()
	}
}

// join adds a member to the family currently bound in p and returns the
// binding for it. A strong member also takes a strong reference to the
// cell, which fails once the cell is destroyed.
//
// While p still holds b under the group lock, the member behind p has not
// left b's family yet, so the group is live.
func join[T any](p *atomic.Pointer[binding[T]], strong bool) (*binding[T], bool) {
	for {
		b := p.Load()
		if b == nil {
			return nil, false
		}

		b.group.mu.Lock()
		if p.Load() != b {
			// Rebound or released meanwhile.
			b.group.mu.Unlock()
			continue
		}
		if strong && !b.cell.tryAcquire() {
			b.group.mu.Unlock()
			return nil, false
		}
		b.group.refs++
		b.group.mu.Unlock()
		return b, true
	}
}

// Handle is a strong reference to a property cell. All handles copied from
// one another observe the same value. A Handle must not be copied by value;
// use Copy.
type Handle[T any] struct {
	b atomic.Pointer[binding[T]]
}

// New creates a property holding the zero value of T with an empty name.
func New[T any]() *Handle[T] {
	var zero T
	return NewNamed("", zero)
}

// NewNamed creates a property with the given name and initial value.
func NewNamed[T any](name string, value T) *Handle[T] {
	h := &Handle[T]{}
	h.b.Store(&binding[T]{cell: newCell(name, value), group: newGroup()})
	return h
}

func handleFor[T any](b *binding[T]) *Handle[T] {
	h := &Handle[T]{}
	h.b.Store(b)
	return h
}

func (h *Handle[T]) bound() *binding[T] {
	b := h.b.Load()
	if b == nil {
		panic("prop: use of released handle")
	}
	return b
}

// Copy returns a new strong handle to the same cell.
func (h *Handle[T]) Copy() *Handle[T] {
	b, ok := join(&h.b, true)
	if !ok {
		panic("prop: copy of released handle")
	}
	return handleFor(b)
}

// CopyProperty is Copy for callers holding a Property.
func (h *Handle[T]) CopyProperty() Property {
	return h.Copy()
}

// Release gives up this handle. Releasing the last strong handle destroys
// the cell and disconnects its subscribers. Release is idempotent; any
// other use of a released handle panics.
func (h *Handle[T]) Release() {
	if b := h.b.Swap(nil); b != nil {
		b.leave(true)
	}
}

// Rebind makes h observe other's cell, leaving its current family and
// joining other's. It is a no-op when both already share a family.
func (h *Handle[T]) Rebind(other *Handle[T]) {
	if h == other {
		return
	}
	if h.bound().group == other.bound().group {
		return
	}

	nb, ok := join(&other.b, true)
	if !ok {
		panic("prop: rebind to released handle")
	}
	if old := h.b.Swap(nb); old != nil {
		old.leave(true)
	}
}

// Weaken returns a weak handle to the same cell.
func (h *Handle[T]) Weaken() *WeakHandle[T] {
	b, ok := join(&h.b, false)
	if !ok {
		panic("prop: weaken of released handle")
	}
	return weakFor(b)
}

// Get returns the current value.
func (h *Handle[T]) Get() T {
	return h.bound().cell.get()
}

// Set replaces the value and notifies subscribers. Immediate subscribers
// have run when Set returns; deferred ones have been posted.
func (h *Handle[T]) Set(v T) {
	h.bound().cell.set(v)
}

// Update replaces the value with fn(current) under the write lock and
// notifies subscribers. fn must not use the property.
func (h *Handle[T]) Update(fn func(T) T) {
	h.bound().cell.update(fn)
}

// ForceChange notifies subscribers without changing the value.
func (h *Handle[T]) ForceChange() {
	h.bound().cell.forceChange()
}

// Name returns the property name.
func (h *Handle[T]) Name() string {
	return h.bound().cell.name
}

// ID returns the process-unique ID of the underlying cell.
func (h *Handle[T]) ID() uint64 {
	return h.bound().cell.id
}

// TypeID returns the type identity of T.
func (h *Handle[T]) TypeID() typeid.ID {
	return h.bound().cell.typeID()
}

// Refs returns the number of strong and weak handles in h's family,
// including weak handles held by value-carrying subscriptions.
func (h *Handle[T]) Refs() int {
	return h.bound().group.count()
}

// Alive reports whether h has not been released.
func (h *Handle[T]) Alive() bool {
	b := h.b.Load()
	return b != nil && b.cell.alive()
}

// Subscribers returns the number of connected subscriptions.
func (h *Handle[T]) Subscribers() int {
	return h.bound().cell.subs.len()
}

// ValueAny returns the current value boxed.
func (h *Handle[T]) ValueAny() any {
	return h.Get()
}

// Text returns the current value in text form.
func (h *Handle[T]) Text() string {
	return convert.Format(h.Get())
}

// SetText parses s as a T and sets it. Nothing is changed or notified when
// parsing fails.
func (h *Handle[T]) SetText(s string) error {
	v, err := convert.Parse[T](s)
	if err != nil {
		return err
	}
	h.Set(v)
	return nil
}
