// Package prop provides thread-safe observable properties.
//
// A property is a named, typed value cell. Handles are strong references to
// a cell; every write through any handle is broadcast to the cell's
// subscribers. Subscribers run either inline on the writing goroutine
// (immediate delivery) or later on a reactor goroutine (deferred delivery,
// the default), which decouples the code that changes a value from the
// code that reacts to it.
//
//	reactor.Start()
//	defer reactor.Stop()
//
//	x := prop.NewNamed("x", 5)
//	defer x.Release()
//
//	x.Connect(func() { fmt.Println("x is now", x.Get()) })
//	x.Set(6)        // returns immediately
//	reactor.Sync()  // prints "x is now 6"
//
// # Ownership
//
// Go has no destructors, so a handle's lifetime is explicit: Copy creates a
// new strong reference, Release gives one up. A cell is destroyed when its
// last strong handle is released. Destroying a cell disconnects all of its
// subscribers; memory is reclaimed by the garbage collector afterwards.
//
// A WeakHandle refers to a cell without keeping it alive. Upgrade returns a
// new strong handle while at least one other strong handle exists, and
// fails once the cell has been destroyed.
//
// Handles that alias one cell form a family. Copy, Rebind and Release of
// family members are serialized by a small mutex-guarded counter shared by
// the family, so a handle can be copied while another goroutine rebinds or
// releases it.
//
// # Reentrancy
//
// Set releases the value lock before notifying subscribers. An immediate
// subscriber may therefore read or write the same property from its
// callback; writing unconditionally recurses without bound.
package prop
