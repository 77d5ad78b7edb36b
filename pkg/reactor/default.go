package reactor

var defaultReactor = New(WithName("default"))

// Default returns the process-wide reactor used by the package-level
// functions and by deferred property connections without an explicit
// reactor.
func Default() *Reactor { return defaultReactor }

// Configure applies opts to the process-wide reactor. It fails with
// ErrAlreadyRunning unless the reactor is stopped.
func Configure(opts ...Option) error { return defaultReactor.Configure(opts...) }

// Start starts the process-wide reactor.
func Start() error { return defaultReactor.Start() }

// Stop drains and stops the process-wide reactor.
func Stop() error { return defaultReactor.Stop() }

// Sync waits until the process-wide reactor has run every job posted before
// the call.
func Sync() error { return defaultReactor.Sync() }

// Post queues fn on the process-wide reactor.
func Post(fn func()) error { return defaultReactor.Post(fn) }

// Wrap returns a function that posts fn to the process-wide reactor.
func Wrap(fn func()) func() { return defaultReactor.Wrap(fn) }
