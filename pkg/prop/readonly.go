package prop

import (
	"github.com/vango-dev/prop/pkg/convert"
	"github.com/vango-dev/prop/pkg/typeid"
)

// ReadOnly is a strong reference that can observe a property but not
// change it.
type ReadOnly[T any] struct {
	h *Handle[T]
}

// NewReadOnly returns a read-only view of h's property. The view owns its
// own strong reference; release it with Release.
func NewReadOnly[T any](h *Handle[T]) *ReadOnly[T] {
	return &ReadOnly[T]{h: h.Copy()}
}

// ReadOnly returns a read-only view of the property.
func (h *Handle[T]) ReadOnly() *ReadOnly[T] {
	return NewReadOnly(h)
}

func (r *ReadOnly[T]) Get() T            { return r.h.Get() }
func (r *ReadOnly[T]) Name() string      { return r.h.Name() }
func (r *ReadOnly[T]) TypeID() typeid.ID { return r.h.TypeID() }
func (r *ReadOnly[T]) Text() string      { return convert.Format(r.h.Get()) }
func (r *ReadOnly[T]) Alive() bool       { return r.h.Alive() }
func (r *ReadOnly[T]) Release()          { r.h.Release() }

// Copy returns another read-only view of the same property.
func (r *ReadOnly[T]) Copy() *ReadOnly[T] {
	return &ReadOnly[T]{h: r.h.Copy()}
}

// Connect subscribes fn to changes.
func (r *ReadOnly[T]) Connect(fn func(), opts ...ConnectOption) *Connection {
	return r.h.Connect(fn, opts...)
}

// ConnectView subscribes fn and passes it a read-only view that is valid
// until fn returns.
func (r *ReadOnly[T]) ConnectView(fn func(*ReadOnly[T]), opts ...ConnectOption) *Connection {
	if fn == nil {
		return nil
	}
	return r.h.ConnectHandle(func(h *Handle[T]) {
		fn(&ReadOnly[T]{h: h})
	}, opts...)
}
