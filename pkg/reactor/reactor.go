package reactor

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"go.opentelemetry.io/otel/trace"
)

// State is the lifecycle state of a Reactor.
type State int32

const (
	// Stopped: no worker; posts are rejected.
	Stopped State = iota

	// Running: the worker is alive and waits for jobs when idle.
	Running

	// Draining: Stop was called; the worker runs what is queued and exits.
	Draining
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Draining:
		return "draining"
	}
	return "unknown"
}

// job is a queued unit of work.
type job struct {
	fn     func()
	queued time.Time
}

// settings is the resolved form of a config. A Reactor swaps its settings
// as a whole, so every operation sees one consistent set.
type settings struct {
	name         string
	logger       *slog.Logger
	tracer       trace.Tracer
	metrics      *metrics
	traceJobs    bool
	panicHandler func(any)
	spawn        func(entry func())
	join         func()
}

// Reactor executes posted jobs one at a time on a dedicated worker.
// All methods are safe for concurrent use.
type Reactor struct {
	// lifecycle serializes Start, Stop and Configure, and guards cfg.
	lifecycle sync.Mutex
	cfg       config

	cur atomic.Pointer[settings]

	// mu guards everything below.
	mu     sync.Mutex
	wake   *sync.Cond
	jobs   *queue.Queue
	state  State
	exited chan struct{}
}

// New creates a stopped reactor.
func New(opts ...Option) *Reactor {
	r := &Reactor{
		cfg:  defaultConfig(),
		jobs: queue.New(),
	}
	r.wake = sync.NewCond(&r.mu)
	r.apply(opts)
	return r
}

// Configure applies opts to a stopped reactor.
func (r *Reactor) Configure(opts ...Option) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.State() != Stopped {
		return alreadyRunning(r.settings().name)
	}
	r.apply(opts)
	return nil
}

// apply must hold lifecycle, except from New.
func (r *Reactor) apply(opts []Option) {
	for _, opt := range opts {
		opt(&r.cfg)
	}
	cfg := r.cfg

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default().With("component", "reactor")
	}

	next := &settings{
		name:         cfg.name,
		logger:       logger.With("reactor", cfg.name),
		tracer:       resolveTracer(cfg.tracerProvider),
		traceJobs:    cfg.traceJobs,
		panicHandler: cfg.panicHandler,
		spawn:        cfg.spawn,
		join:         cfg.join,
	}

	prev := r.cur.Load()
	switch reg := cfg.registerer; {
	case reg == nil:
	case prev != nil && prev.metrics != nil && prev.metrics.registerer == reg && prev.metrics.name == cfg.name:
		next.metrics = prev.metrics
	default:
		next.metrics = newMetrics(reg, cfg.namespace, cfg.name, func() float64 {
			return float64(r.Pending())
		})
	}
	r.cur.Store(next)
}

func (r *Reactor) settings() *settings {
	return r.cur.Load()
}

// Name returns the reactor name.
func (r *Reactor) Name() string {
	return r.settings().name
}

// State returns the current lifecycle state.
func (r *Reactor) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Pending returns the number of queued jobs that have not started yet.
func (r *Reactor) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs.Length()
}

// Start spawns the worker. It returns ErrAlreadyRunning unless the reactor
// is stopped.
func (r *Reactor) Start() error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	st := r.settings()
	r.mu.Lock()
	if r.state != Stopped || r.exited != nil {
		r.mu.Unlock()
		return alreadyRunning(st.name)
	}
	r.state = Running
	exited := make(chan struct{})
	r.exited = exited
	r.mu.Unlock()

	entry := func() {
		defer close(exited)
		r.run(st)
	}
	if st.spawn != nil {
		st.spawn(entry)
	} else {
		go entry()
	}

	st.logger.Debug("reactor started")
	return nil
}

// Stop lets the worker finish all queued work, including jobs posted while
// draining, and waits for it to exit. It must not be called from a job.
func (r *Reactor) Stop() error {
	return r.StopContext(context.Background())
}

// StopContext is Stop with a context used for tracing.
func (r *Reactor) StopContext(ctx context.Context) (err error) {
	st := r.settings()
	_, span := r.startSpan(ctx, st, "reactor.stop")
	defer func() { endSpan(span, err) }()

	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	if r.state != Running {
		r.mu.Unlock()
		return notRunning(st.name)
	}
	r.state = Draining
	exited := r.exited
	r.wake.Broadcast()
	r.mu.Unlock()

	if st.join != nil {
		st.join()
	} else {
		<-exited
	}

	r.mu.Lock()
	r.state = Stopped
	r.exited = nil
	r.mu.Unlock()

	st.logger.Debug("reactor stopped")
	return nil
}

// Post queues fn for execution on the worker. Jobs run in the order their
// Post calls completed. A stopped reactor rejects fn with ErrNotRunning.
// Post never blocks on the queue.
func (r *Reactor) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	st := r.settings()

	r.mu.Lock()
	if r.state == Stopped {
		r.mu.Unlock()
		st.metrics.recordDrop()
		return notRunning(st.name)
	}
	r.jobs.Add(job{fn: fn, queued: time.Now()})
	r.wake.Signal()
	r.mu.Unlock()

	st.metrics.recordPost()
	return nil
}

// Sync blocks until every job posted before the call has finished.
// Calling Sync from a job deadlocks.
func (r *Reactor) Sync() error {
	return r.SyncContext(context.Background())
}

// SyncContext is Sync bounded by ctx. When ctx ends first the checkpoint
// stays queued and ctx.Err() is returned.
func (r *Reactor) SyncContext(ctx context.Context) (err error) {
	ctx, span := r.startSpan(ctx, r.settings(), "reactor.sync")
	defer func() { endSpan(span, err) }()

	done := make(chan struct{})
	if err := r.Post(func() { close(done) }); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wrap returns a function that posts fn instead of running it.
// A post rejected by a stopped reactor is logged and dropped.
func (r *Reactor) Wrap(fn func()) func() {
	return func() {
		if err := r.Post(fn); err != nil {
			r.settings().logger.Warn("deferred job dropped", "error", err)
		}
	}
}

// run is the worker loop. Once the reactor is draining and the queue is
// empty it marks the reactor stopped, under the same lock, and exits; no
// job can be accepted after the last one has been taken.
func (r *Reactor) run(st *settings) {
	for {
		r.mu.Lock()
		for r.jobs.Length() == 0 && r.state == Running {
			r.wake.Wait()
		}
		if r.jobs.Length() == 0 {
			r.state = Stopped
			r.mu.Unlock()
			return
		}
		next := r.jobs.Remove().(job)
		r.mu.Unlock()

		r.execute(st, next)
	}
}

func (r *Reactor) execute(st *settings, j job) {
	started := time.Now()
	defer st.metrics.recordRun(j.queued, started)

	if st.panicHandler != nil {
		defer func() {
			if p := recover(); p != nil {
				st.logger.Error("job panic",
					"panic", p,
					"stack", string(debug.Stack()))
				st.metrics.recordPanic()
				st.panicHandler(p)
			}
		}()
	}

	r.traceJob(st, j.queued, j.fn)()
}
