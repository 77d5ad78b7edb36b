// Package reactor runs deferred work on a single dedicated goroutine.
//
// A Reactor decouples the goroutine that changes a property from the code
// that reacts to the change. Jobs posted to a running reactor execute one at
// a time, in the exact order they were posted across all posting goroutines:
//
//	reactor.Start()
//	defer reactor.Stop()
//
//	reactor.Post(func() { fmt.Println("a") })
//	reactor.Post(func() { fmt.Println("b") })
//	reactor.Sync() // "a" and "b" have both been printed
//
// # Lifecycle
//
// A reactor moves through Stopped → Running → Draining → Stopped. Start
// spawns the worker and keeps it alive while the queue is empty. Stop
// withdraws that keep-alive, lets the worker finish everything already
// queued (jobs may still post follow-up work while draining) and joins it.
// Stop blocks for as long as a queued job does: a job that never returns
// keeps Stop from returning.
//
// Posting to a stopped reactor fails with ErrNotRunning; nothing is queued.
//
// # Threading
//
// The worker is spawned through a pluggable strategy so hosts can run it on
// their own threading substrate (see WithSpawn, WithJoin and
// WithLockedThread).
//
// # Panics
//
// The reactor does not guard jobs. A panicking job crashes the process
// unless WithPanicHandler is configured, in which case the panic is logged,
// handed to the handler, and the worker moves on to the next job.
//
// # Process-wide reactor
//
// The package-level functions operate on one process-wide reactor returned
// by Default. Its Start and Stop calls must be paired by the host.
package reactor
