package prop

import "sync/atomic"

// WeakHandle refers to a property cell without keeping it alive. It is a
// member of the family of the handle it was derived from.
type WeakHandle[T any] struct {
	b atomic.Pointer[binding[T]]
}

func weakFor[T any](b *binding[T]) *WeakHandle[T] {
	w := &WeakHandle[T]{}
	w.b.Store(b)
	return w
}

// Weaken returns a weak handle to h's cell.
func Weaken[T any](h *Handle[T]) *WeakHandle[T] {
	return h.Weaken()
}

// Upgrade is the function form of w.Upgrade.
func Upgrade[T any](w *WeakHandle[T]) (*Handle[T], bool) {
	return w.Upgrade()
}

// Upgrade returns a new strong handle to the cell, or false when the cell
// has been destroyed or w has been released.
func (w *WeakHandle[T]) Upgrade() (*Handle[T], bool) {
	b, ok := join(&w.b, true)
	if !ok {
		return nil, false
	}
	return handleFor(b), true
}

// Copy returns another weak handle to the same cell. Copying a released
// weak handle yields a released weak handle.
func (w *WeakHandle[T]) Copy() *WeakHandle[T] {
	b, ok := join(&w.b, false)
	if !ok {
		return &WeakHandle[T]{}
	}
	return weakFor(b)
}

// Release gives up w's family membership. It is idempotent.
func (w *WeakHandle[T]) Release() {
	if b := w.b.Swap(nil); b != nil {
		b.leave(false)
	}
}

// Alive reports whether the cell still exists and w has not been released.
func (w *WeakHandle[T]) Alive() bool {
	b := w.b.Load()
	return b != nil && b.cell.alive()
}

// Name returns the property name, or "" once w is released.
func (w *WeakHandle[T]) Name() string {
	if b := w.b.Load(); b != nil {
		return b.cell.name
	}
	return ""
}
