// Package typeid hands out a stable numeric identifier per distinct Go type.
//
// Identifiers are assigned lazily on first use and never change for the
// lifetime of the process. They are used to check, at run time, that a value
// stored behind an untyped interface is requested through the right static
// type:
//
//	if p.TypeID() != typeid.Of[int]() {
//	    return errTypeMismatch
//	}
//
// Assignment is safe for concurrent first use: two goroutines asking for the
// same type at the same time always observe the same ID.
package typeid

import (
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
)

// ID identifies a Go type. The zero ID is never assigned.
type ID uint32

// Invalid is the zero ID, used for "no type".
const Invalid ID = 0

// String returns the decimal form of the ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Valid reports whether the ID was assigned by this package.
func (id ID) Valid() bool {
	return id != Invalid
}

var (
	// lastID is the most recently assigned ID.
	lastID atomic.Uint32

	// ids maps reflect.Type to ID.
	ids sync.Map

	// names maps ID back to the type for diagnostics.
	names sync.Map
)

// Of returns the ID of type T.
func Of[T any]() ID {
	return OfType(reflect.TypeFor[T]())
}

// OfType returns the ID of t, assigning a new one on first use.
// A nil type yields Invalid.
func OfType(t reflect.Type) ID {
	if t == nil {
		return Invalid
	}
	if v, ok := ids.Load(t); ok {
		return v.(ID)
	}

	// Losers of the race burn an ID; IDs stay unique and stable either way.
	candidate := ID(lastID.Add(1))
	actual, loaded := ids.LoadOrStore(t, candidate)
	id := actual.(ID)
	if !loaded {
		names.Store(id, t)
	}
	return id
}

// TypeOf returns the type registered under id, if any.
func TypeOf(id ID) (reflect.Type, bool) {
	v, ok := names.Load(id)
	if !ok {
		return nil, false
	}
	return v.(reflect.Type), true
}

// Name returns a printable name for id, or "invalid" when unknown.
func Name(id ID) string {
	t, ok := TypeOf(id)
	if !ok {
		return "invalid"
	}
	return t.String()
}
