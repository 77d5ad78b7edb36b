package prop

import "github.com/vango-dev/prop/pkg/reactor"

// position selects where a subscription is ordered.
type position int8

const (
	atFront position = iota
	inGroup
	atBack
)

// ConnectOption configures a subscription.
type ConnectOption func(*connectOptions)

type connectOptions struct {
	pos       position
	group     int
	immediate bool

	// reactor runs deferred callbacks; nil means reactor.Default().
	reactor *reactor.Reactor
}

// AtFront orders the subscription before all others. Front subscriptions
// fire newest first.
func AtFront() ConnectOption {
	return func(o *connectOptions) {
		o.pos = atFront
	}
}

// AtBack orders the subscription after all others, in registration order.
// This is the default.
func AtBack() ConnectOption {
	return func(o *connectOptions) {
		o.pos = atBack
	}
}

// InGroup orders the subscription in numeric group n. Groups fire between
// front and back subscriptions, lower groups first, registration order
// within a group.
func InGroup(n int) ConnectOption {
	return func(o *connectOptions) {
		o.pos = inGroup
		o.group = n
	}
}

// Immediate runs the callback inline on the goroutine that changed the
// value, before Set returns.
func Immediate() ConnectOption {
	return func(o *connectOptions) {
		o.immediate = true
	}
}

// Deferred posts the callback to a reactor. This is the default.
func Deferred() ConnectOption {
	return func(o *connectOptions) {
		o.immediate = false
	}
}

// Via selects the reactor for deferred delivery and implies Deferred.
func Via(r *reactor.Reactor) ConnectOption {
	return func(o *connectOptions) {
		o.immediate = false
		o.reactor = r
	}
}

func applyConnectOptions(opts []ConnectOption) connectOptions {
	o := connectOptions{pos: atBack}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// deliver returns the function a broadcast calls for fn.
func (o connectOptions) deliver(fn func()) func() {
	if o.immediate {
		return fn
	}
	r := o.reactor
	if r == nil {
		r = reactor.Default()
	}
	return r.Wrap(fn)
}
