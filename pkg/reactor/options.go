package reactor

import (
	"log/slog"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Reactor.
type Option func(*config)

// config holds the settings a Reactor is built from.
type config struct {
	name   string
	logger *slog.Logger

	spawn func(entry func())
	join  func()

	panicHandler func(any)

	tracerProvider trace.TracerProvider
	traceJobs      bool

	registerer prometheus.Registerer
	namespace  string
}

func defaultConfig() config {
	return config{
		name:      "default",
		namespace: DefaultNamespace,
	}
}

// WithName names the reactor in logs, spans and metric labels.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithSpawn replaces the strategy used to start the worker. spawn must run
// entry on a new thread of execution and return without waiting for it.
// The default is a plain goroutine.
func WithSpawn(spawn func(entry func())) Option {
	return func(c *config) {
		c.spawn = spawn
	}
}

// WithJoin replaces the strategy used by Stop to wait for the worker.
// The default waits until the worker's entry function has returned.
func WithJoin(join func()) Option {
	return func(c *config) {
		c.join = join
	}
}

// WithLockedThread runs the worker on a goroutine wired to its own OS
// thread for its whole life.
func WithLockedThread() Option {
	return WithSpawn(func(entry func()) {
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			entry()
		}()
	})
}

// WithPanicHandler makes the worker recover from panicking jobs and pass
// the recovered value to fn. Without it, a panicking job crashes the
// process.
func WithPanicHandler(fn func(recovered any)) Option {
	return func(c *config) {
		c.panicHandler = fn
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = tp
	}
}

// WithJobTracing records a span for every executed job.
func WithJobTracing(enabled bool) Option {
	return func(c *config) {
		c.traceJobs = enabled
	}
}

// WithRegisterer enables Prometheus metrics on reg.
// Metrics are disabled when no registerer is given.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}

// WithNamespace sets the metrics namespace (default: "prop").
func WithNamespace(namespace string) Option {
	return func(c *config) {
		c.namespace = namespace
	}
}
