package prop

import "github.com/vango-dev/prop/pkg/typeid"

// Property is the type-erased view of a Handle used by collections and
// transports that handle properties of mixed types.
type Property interface {
	// Name returns the property name.
	Name() string

	// TypeID returns the identity of the value type, for checked casts
	// back to a concrete Handle.
	TypeID() typeid.ID

	// ValueAny returns the current value boxed.
	ValueAny() any

	// Text returns the current value in text form.
	Text() string

	// SetText parses and sets a new value.
	SetText(s string) error

	// Connect subscribes fn to changes.
	Connect(fn func(), opts ...ConnectOption) *Connection

	// Alive reports whether the handle is usable.
	Alive() bool

	// CopyProperty returns a new strong handle to the same property.
	CopyProperty() Property

	// Release gives up the handle.
	Release()
}

var _ Property = (*Handle[int])(nil)
