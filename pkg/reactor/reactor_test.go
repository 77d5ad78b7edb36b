package reactor

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/prop/internal/errors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startReactor(t *testing.T, opts ...Option) *Reactor {
	t.Helper()
	r := New(append([]Option{WithLogger(quietLogger())}, opts...)...)
	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if r.State() == Running {
			r.Stop()
		}
	})
	return r
}

func TestPostRunsInOrder(t *testing.T) {
	r := startReactor(t)

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		if err := r.Post(func() { got = append(got, i) }); err != nil {
			t.Fatalf("Post() error = %v", err)
		}
	}
	if err := r.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(got) != 100 {
		t.Fatalf("ran %d jobs, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("job %d ran at position %d", v, i)
		}
	}
}

func TestPostFromManyGoroutinesKeepsPerPosterOrder(t *testing.T) {
	r := startReactor(t)

	const posters = 8
	const perPoster = 200

	seen := make([][]int, posters)
	var wg sync.WaitGroup
	for p := 0; p < posters; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPoster; i++ {
				i := i
				r.Post(func() { seen[p] = append(seen[p], i) })
			}
		}(p)
	}
	wg.Wait()
	r.Sync()

	for p, list := range seen {
		if len(list) != perPoster {
			t.Fatalf("poster %d: ran %d jobs, want %d", p, len(list), perPoster)
		}
		for i, v := range list {
			if v != i {
				t.Fatalf("poster %d: job %d ran at position %d", p, v, i)
			}
		}
	}
}

func TestJobsRunOneAtATime(t *testing.T) {
	r := startReactor(t)

	var active, maxActive int32
	for i := 0; i < 50; i++ {
		r.Post(func() {
			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			time.Sleep(100 * time.Microsecond)
			atomic.AddInt32(&active, -1)
		})
	}
	r.Sync()

	if maxActive != 1 {
		t.Errorf("max concurrent jobs = %d, want 1", maxActive)
	}
}

func TestPostWhenStopped(t *testing.T) {
	r := New(WithLogger(quietLogger()))

	ran := false
	err := r.Post(func() { ran = true })
	if !stderrors.Is(err, ErrNotRunning) {
		t.Fatalf("Post() error = %v, want ErrNotRunning", err)
	}
	if code := errors.CodeOf(err); code != "E050" {
		t.Errorf("code = %q, want E050", code)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", r.Pending())
	}

	r.Start()
	r.Sync()
	r.Stop()
	if ran {
		t.Error("a job rejected while stopped must never run")
	}
}

func TestSyncAndStopWhenStopped(t *testing.T) {
	r := New(WithLogger(quietLogger()))

	if err := r.Sync(); !stderrors.Is(err, ErrNotRunning) {
		t.Errorf("Sync() error = %v, want ErrNotRunning", err)
	}
	if err := r.Stop(); !stderrors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestStartTwice(t *testing.T) {
	r := startReactor(t)

	err := r.Start()
	if !stderrors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
	if code := errors.CodeOf(err); code != "E051" {
		t.Errorf("code = %q, want E051", code)
	}
}

func TestStopDrainsQueue(t *testing.T) {
	r := New(WithLogger(quietLogger()))
	r.Start()

	release := make(chan struct{})
	var count int32
	r.Post(func() { <-release })
	for i := 0; i < 10; i++ {
		r.Post(func() { atomic.AddInt32(&count, 1) })
	}
	// A job that posts follow-up work while the reactor drains.
	r.Post(func() {
		r.Post(func() { atomic.AddInt32(&count, 100) })
	})

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop() returned while a job was still blocked")
	case <-time.After(20 * time.Millisecond):
	}
	if s := r.State(); s != Draining {
		t.Errorf("State() during Stop = %v, want draining", s)
	}

	close(release)
	<-stopped

	if got := atomic.LoadInt32(&count); got != 110 {
		t.Errorf("count = %d, want 110", got)
	}
	if s := r.State(); s != Stopped {
		t.Errorf("State() after Stop = %v, want stopped", s)
	}
}

func TestRestart(t *testing.T) {
	r := New(WithLogger(quietLogger()))

	for round := 0; round < 3; round++ {
		if err := r.Start(); err != nil {
			t.Fatalf("round %d: Start() error = %v", round, err)
		}
		ran := false
		r.Post(func() { ran = true })
		if err := r.Stop(); err != nil {
			t.Fatalf("round %d: Stop() error = %v", round, err)
		}
		if !ran {
			t.Errorf("round %d: job did not run before Stop returned", round)
		}
	}
}

func TestSyncContextCanceled(t *testing.T) {
	r := startReactor(t)

	release := make(chan struct{})
	r.Post(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.SyncContext(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("SyncContext() error = %v, want deadline exceeded", err)
	}

	close(release)
	if err := r.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}

func TestWrap(t *testing.T) {
	r := startReactor(t)

	var ran int32
	deferred := r.Wrap(func() { atomic.AddInt32(&ran, 1) })
	deferred()
	deferred()
	r.Sync()

	if got := atomic.LoadInt32(&ran); got != 2 {
		t.Errorf("wrapped function ran %d times, want 2", got)
	}

	r.Stop()
	deferred() // dropped and logged, must not panic
	if got := atomic.LoadInt32(&ran); got != 2 {
		t.Errorf("wrapped function ran %d times after Stop, want 2", got)
	}
}

func TestPanicHandler(t *testing.T) {
	var recovered atomic.Value
	r := startReactor(t, WithPanicHandler(func(p any) {
		recovered.Store(p)
	}))

	after := false
	r.Post(func() { panic("boom") })
	r.Post(func() { after = true })
	r.Sync()

	if recovered.Load() != "boom" {
		t.Errorf("panic handler got %v, want boom", recovered.Load())
	}
	if !after {
		t.Error("worker did not continue after a recovered panic")
	}
}

func TestCustomSpawnAndJoin(t *testing.T) {
	var spawned, joined int32
	var wg sync.WaitGroup

	r := New(
		WithLogger(quietLogger()),
		WithSpawn(func(entry func()) {
			atomic.AddInt32(&spawned, 1)
			wg.Add(1)
			go func() {
				defer wg.Done()
				entry()
			}()
		}),
		WithJoin(func() {
			atomic.AddInt32(&joined, 1)
			wg.Wait()
		}),
	)

	r.Start()
	ran := false
	r.Post(func() { ran = true })
	r.Stop()

	if spawned != 1 || joined != 1 {
		t.Errorf("spawned = %d, joined = %d, want 1 and 1", spawned, joined)
	}
	if !ran {
		t.Error("job did not run")
	}
}

func TestLockedThread(t *testing.T) {
	r := startReactor(t, WithLockedThread())

	ran := false
	r.Post(func() { ran = true })
	r.Sync()
	if !ran {
		t.Error("job did not run on locked thread worker")
	}
}

func TestPostAfterWorkerExitIsRejected(t *testing.T) {
	var r *Reactor
	exited := make(chan struct{})
	var postErr, syncErr error
	ran := false

	r = New(
		WithLogger(quietLogger()),
		WithSpawn(func(entry func()) {
			go func() {
				entry()
				close(exited)
			}()
		}),
		WithJoin(func() {
			<-exited
			postErr = r.Post(func() { ran = true })
			syncErr = r.Sync()
		}),
	)

	r.Start()
	r.Post(func() {})
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if !stderrors.Is(postErr, ErrNotRunning) {
		t.Errorf("Post() after the worker exited = %v, want ErrNotRunning", postErr)
	}
	if !stderrors.Is(syncErr, ErrNotRunning) {
		t.Errorf("Sync() after the worker exited = %v, want ErrNotRunning", syncErr)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", r.Pending())
	}

	r.Start()
	r.Stop()
	if ran {
		t.Error("a rejected job ran after restart")
	}
}

func TestConfigureWhilePosting(t *testing.T) {
	r := New(WithLogger(quietLogger()))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			r.Configure(WithName("x"), WithLogger(quietLogger()))
		}
	}()
	go func() {
		defer wg.Done()
		deferred := r.Wrap(func() {})
		for i := 0; i < 200; i++ {
			r.Post(func() {})
			r.Sync()
			deferred()
			_ = r.Name()
		}
	}()
	wg.Wait()

	if r.Name() != "x" {
		t.Errorf("Name() = %q, want x", r.Name())
	}
}

func TestConfigure(t *testing.T) {
	r := New(WithLogger(quietLogger()))
	if err := r.Configure(WithName("ui")); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if r.Name() != "ui" {
		t.Errorf("Name() = %q, want ui", r.Name())
	}

	r.Start()
	defer r.Stop()
	if err := r.Configure(WithName("other")); !stderrors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Configure() while running error = %v, want ErrAlreadyRunning", err)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(
		WithLogger(quietLogger()),
		WithName("metered"),
		WithRegisterer(reg),
		WithPanicHandler(func(any) {}),
	)

	r.Post(func() {}) // dropped
	r.Start()
	for i := 0; i < 3; i++ {
		r.Post(func() {})
	}
	r.Post(func() { panic("x") })
	r.Stop()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	counters := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "reactor" && lp.GetValue() != "metered" {
					t.Errorf("%s has reactor label %q", mf.GetName(), lp.GetValue())
				}
			}
			if c := m.GetCounter(); c != nil {
				counters[mf.GetName()] = c.GetValue()
			}
		}
	}

	want := map[string]float64{
		"prop_reactor_jobs_posted_total":   4,
		"prop_reactor_jobs_executed_total": 4,
		"prop_reactor_jobs_dropped_total":  1,
		"prop_reactor_jobs_panicked_total": 1,
	}
	for name, v := range want {
		if counters[name] != v {
			t.Errorf("%s = %v, want %v", name, counters[name], v)
		}
	}
}

// recordingProvider records the names of started spans.
type recordingProvider struct {
	noop.TracerProvider

	mu    sync.Mutex
	names []string
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return recordingTracer{p: p}
}

func (p *recordingProvider) started() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.names...)
}

type recordingTracer struct {
	noop.Tracer
	p *recordingProvider
}

func (t recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	t.p.mu.Lock()
	t.p.names = append(t.p.names, name)
	t.p.mu.Unlock()
	return t.Tracer.Start(ctx, name, opts...)
}

func TestTracing(t *testing.T) {
	tp := &recordingProvider{}
	r := New(WithLogger(quietLogger()), WithTracerProvider(tp), WithJobTracing(true))
	r.Start()
	r.Post(func() {})
	r.Sync()
	r.Stop()

	counts := map[string]int{}
	for _, name := range tp.started() {
		counts[name]++
	}
	// One posted job plus the Sync checkpoint.
	if counts["reactor.job"] != 2 {
		t.Errorf("reactor.job spans = %d, want 2", counts["reactor.job"])
	}
	if counts["reactor.sync"] != 1 {
		t.Errorf("reactor.sync spans = %d, want 1", counts["reactor.sync"])
	}
	if counts["reactor.stop"] != 1 {
		t.Errorf("reactor.stop spans = %d, want 1", counts["reactor.stop"])
	}
}

func TestDefaultReactor(t *testing.T) {
	if err := Configure(WithLogger(quietLogger())); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer Stop()

	var ran int32
	Post(func() { atomic.AddInt32(&ran, 1) })
	Wrap(func() { atomic.AddInt32(&ran, 1) })()
	if err := Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
	if Default().State() != Running {
		t.Errorf("Default().State() = %v, want running", Default().State())
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Stopped:   "stopped",
		Running:   "running",
		Draining:  "draining",
		State(42): "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
