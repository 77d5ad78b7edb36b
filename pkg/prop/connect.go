package prop

// Connect subscribes fn to changes of the property. Delivery is deferred
// to the process reactor unless opts say otherwise.
func (h *Handle[T]) Connect(fn func(), opts ...ConnectOption) *Connection {
	b := h.bound()
	if fn == nil {
		return nil
	}
	o := applyConnectOptions(opts)
	return b.cell.subs.add(&slot{
		fire:  o.deliver(fn),
		pos:   o.pos,
		group: o.group,
	})
}

// ConnectLocal subscribes fn with immediate delivery.
func (h *Handle[T]) ConnectLocal(fn func(), opts ...ConnectOption) *Connection {
	return h.Connect(fn, append(opts, Immediate())...)
}

// ConnectHandle subscribes fn to changes and passes it a fresh strong
// handle to the property. The handle is released when fn returns; fn must
// Copy it to keep it.
//
// The subscription holds only a weak handle. If the property is destroyed
// before a deferred notification runs, the notification is logged and
// skipped.
func (h *Handle[T]) ConnectHandle(fn func(*Handle[T]), opts ...ConnectOption) *Connection {
	b := h.bound()
	if fn == nil {
		return nil
	}

	c := b.cell
	w := h.Weaken()
	invoke := func() {
		u, ok := w.Upgrade()
		if !ok {
			if !c.alive() {
				logger().Warn("property does not exist anymore", "name", c.name, "id", c.id)
			}
			return
		}
		defer u.Release()
		fn(u)
	}

	o := applyConnectOptions(opts)
	return c.subs.add(&slot{
		fire:    o.deliver(invoke),
		release: w.Release,
		pos:     o.pos,
		group:   o.group,
	})
}

// ConnectHandleLocal subscribes fn with immediate delivery.
func (h *Handle[T]) ConnectHandleLocal(fn func(*Handle[T]), opts ...ConnectOption) *Connection {
	return h.ConnectHandle(fn, append(opts, Immediate())...)
}
