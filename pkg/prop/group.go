package prop

import "sync"

// group is the bookkeeping block shared by a family of handles that alias
// one cell. Its lifetime is independent of the cell's: it dies when the
// last strong or weak member leaves, which may be before or after the cell
// is destroyed.
//
// The mutex serializes joining against leaving, so a member can be copied
// while another goroutine releases or rebinds it.
type group struct {
	mu   sync.Mutex
	refs int
}

func newGroup() *group {
	return &group{refs: 1}
}

// leave drops one membership and reports whether the group is now dead.
func (g *group) leave() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refs--
	return g.refs == 0
}

func (g *group) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refs
}
