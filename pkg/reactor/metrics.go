package reactor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace is the metrics namespace used unless WithNamespace is set.
const DefaultNamespace = "prop"

const metricsSubsystem = "reactor"

// metrics holds the Prometheus collectors of one reactor.
//
// Exported series (namespace "prop", subsystem "reactor", const label
// reactor=<name>):
//   - prop_reactor_jobs_posted_total
//   - prop_reactor_jobs_executed_total
//   - prop_reactor_jobs_dropped_total: posts rejected while stopped
//   - prop_reactor_jobs_panicked_total: only counted with a panic handler
//   - prop_reactor_queue_depth
//   - prop_reactor_job_duration_seconds
//   - prop_reactor_job_wait_seconds: time between Post and execution
type metrics struct {
	registerer prometheus.Registerer
	name       string

	posted   prometheus.Counter
	executed prometheus.Counter
	dropped  prometheus.Counter
	panicked prometheus.Counter
	duration prometheus.Histogram
	wait     prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer, namespace, name string, depth func() float64) *metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"reactor": name}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   metricsSubsystem,
		Name:        "queue_depth",
		Help:        "Number of jobs waiting to run",
		ConstLabels: labels,
	}, depth)

	return &metrics{
		registerer: reg,
		name:       name,

		posted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   metricsSubsystem,
			Name:        "jobs_posted_total",
			Help:        "Total number of jobs accepted by the reactor",
			ConstLabels: labels,
		}),

		executed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   metricsSubsystem,
			Name:        "jobs_executed_total",
			Help:        "Total number of jobs run to completion or recovered",
			ConstLabels: labels,
		}),

		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   metricsSubsystem,
			Name:        "jobs_dropped_total",
			Help:        "Total number of jobs rejected because the reactor was stopped",
			ConstLabels: labels,
		}),

		panicked: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   metricsSubsystem,
			Name:        "jobs_panicked_total",
			Help:        "Total number of jobs that panicked and were recovered",
			ConstLabels: labels,
		}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   metricsSubsystem,
			Name:        "job_duration_seconds",
			Help:        "Job execution time in seconds",
			ConstLabels: labels,
			Buckets:     []float64{.00001, .0001, .001, .01, .1, 1},
		}),

		wait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   metricsSubsystem,
			Name:        "job_wait_seconds",
			Help:        "Time jobs spent queued before running",
			ConstLabels: labels,
			Buckets:     []float64{.00001, .0001, .001, .01, .1, 1},
		}),
	}
}

// The recording helpers are safe on a nil receiver so call sites need no
// "metrics enabled" checks.

func (m *metrics) recordPost() {
	if m != nil {
		m.posted.Inc()
	}
}

func (m *metrics) recordDrop() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *metrics) recordPanic() {
	if m != nil {
		m.panicked.Inc()
	}
}

func (m *metrics) recordRun(queued time.Time, started time.Time) {
	if m == nil {
		return
	}
	m.executed.Inc()
	m.wait.Observe(started.Sub(queued).Seconds())
	m.duration.Observe(time.Since(started).Seconds())
}
