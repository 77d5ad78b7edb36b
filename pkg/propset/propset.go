// Package propset holds properties of mixed value types under unique names.
//
// A Collection owns one strong handle per entry. Typed access goes through
// Get, which checks the stored type identity before handing out a copy:
//
//	c := propset.New()
//	c.Add("port", prop.NewNamed("port", 8080))
//
//	port, err := propset.Get[int](c, "port")    // copy of the handle
//	_, err = propset.Get[string](c, "port")     // ErrTypeMismatch
package propset

import (
	stderrors "errors"
	"reflect"
	"slices"
	"sync"

	"github.com/vango-dev/prop/internal/errors"
	"github.com/vango-dev/prop/pkg/convert"
	"github.com/vango-dev/prop/pkg/prop"
	"github.com/vango-dev/prop/pkg/typeid"
)

var (
	// ErrNotFound is wrapped when no property has the requested name.
	ErrNotFound = stderrors.New("propset: property not found")

	// ErrTypeMismatch is wrapped when a property is requested as the wrong type.
	ErrTypeMismatch = stderrors.New("propset: type mismatch")

	// ErrDuplicate is wrapped when adding a name that is already taken.
	ErrDuplicate = stderrors.New("propset: duplicate property")

	// ErrInvalidName is wrapped when adding a property under an empty name.
	ErrInvalidName = stderrors.New("propset: invalid property name")
)

// Collection is a flat name → property map. It is safe for concurrent use.
type Collection struct {
	mu    sync.RWMutex
	props map[string]prop.Property
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{props: make(map[string]prop.Property)}
}

// Add stores p under name. The collection takes over p: it is released by
// Remove or Clear. Add fails if name is empty or already taken.
func (c *Collection) Add(name string, p prop.Property) error {
	if name == "" {
		return errors.New("E004").Wrap(ErrInvalidName)
	}
	if p == nil || !p.Alive() {
		return errors.New("E004").
			WithDetailf("%q has no live property", name).
			Wrap(ErrInvalidName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.props[name]; exists {
		return errors.New("E003").WithDetailf("%q", name).Wrap(ErrDuplicate)
	}
	c.props[name] = p
	return nil
}

// Get returns a new strong handle to the property stored under name. The
// caller owns the returned handle.
func Get[T any](c *Collection, name string) (*prop.Handle[T], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.props[name]
	if !ok {
		return nil, notFound(name)
	}

	want := typeid.Of[T]()
	if got := p.TypeID(); got != want {
		return nil, errors.New("E002").
			WithDetailf("%q holds %s, requested %s", name, typeid.Name(got), typeid.Name(want)).
			Wrap(ErrTypeMismatch)
	}

	h, ok := p.(*prop.Handle[T])
	if !ok {
		return nil, errors.New("E002").
			WithDetailf("%q is not a *prop.Handle[%s]", name, typeid.Name(want)).
			Wrap(ErrTypeMismatch)
	}
	return h.Copy(), nil
}

// Define parses raw as a T and adds a new property named name holding it.
func Define[T any](c *Collection, name, raw string) error {
	v, err := convert.Parse[T](raw)
	if err != nil {
		return err
	}
	h := prop.NewNamed(name, v)
	if err := c.Add(name, h); err != nil {
		h.Release()
		return err
	}
	return nil
}

// DefineAs is Define for a type chosen at run time by its name, as accepted
// by convert.LookupType ("int", "double", "bool", ...).
func DefineAs(c *Collection, name, typeName, raw string) error {
	t, ok := convert.LookupType(typeName)
	if !ok {
		return errors.New("E031").WithDetailf("type %q", typeName).Wrap(convert.ErrUnsupported)
	}
	return definers[t](c, name, raw)
}

var definers = map[reflect.Type]func(*Collection, string, string) error{
	reflect.TypeFor[string]():  Define[string],
	reflect.TypeFor[bool]():    Define[bool],
	reflect.TypeFor[int]():     Define[int],
	reflect.TypeFor[int16]():   Define[int16],
	reflect.TypeFor[int64]():   Define[int64],
	reflect.TypeFor[uint]():    Define[uint],
	reflect.TypeFor[float32](): Define[float32],
	reflect.TypeFor[float64](): Define[float64],
}

// Lookup returns the property stored under name. The collection keeps
// ownership; callers must not release it.
func (c *Collection) Lookup(name string) (prop.Property, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.props[name]
	return p, ok
}

// Has reports whether a property is stored under name.
func (c *Collection) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// TypeID returns the type identity of the property stored under name.
func (c *Collection) TypeID(name string) (typeid.ID, error) {
	p, ok := c.Lookup(name)
	if !ok {
		return typeid.Invalid, notFound(name)
	}
	return p.TypeID(), nil
}

// Remove releases and forgets the property stored under name.
func (c *Collection) Remove(name string) error {
	c.mu.Lock()
	p, ok := c.props[name]
	delete(c.props, name)
	c.mu.Unlock()

	if !ok {
		return notFound(name)
	}
	p.Release()
	return nil
}

// Clear releases and forgets every property.
func (c *Collection) Clear() {
	c.mu.Lock()
	props := c.props
	c.props = make(map[string]prop.Property)
	c.mu.Unlock()

	for _, p := range props {
		p.Release()
	}
}

// Names returns the stored names in sorted order.
func (c *Collection) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.props))
	for name := range c.props {
		names = append(names, name)
	}
	c.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Len returns the number of stored properties.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.props)
}

// Range calls fn for each property in name order until fn returns false.
// fn runs without the collection lock held.
func (c *Collection) Range(fn func(name string, p prop.Property) bool) {
	for _, name := range c.Names() {
		p, ok := c.Lookup(name)
		if !ok {
			continue
		}
		if !fn(name, p) {
			return
		}
	}
}

func notFound(name string) error {
	return errors.New("E001").WithDetailf("%q", name).Wrap(ErrNotFound)
}
