package metrics

import (
	"time"

	"github.com/curtisnewbie/cpubridge/util/async"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultNamespace = "cpubridge"

	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
)

var (
	_ async.Observer       = (*PoolCollector)(nil)
	_ prometheus.Collector = (*PoolCollector)(nil)
)

// Prometheus metrics of worker pools, use it as the pool's observer.
//
//	c := metrics.NewPoolCollector("")
//	_ = c.Register(prometheus.DefaultRegisterer)
//	p := async.NewPool(8, async.WithObserver(c))
type PoolCollector struct {
	enqueued  *prometheus.CounterVec
	finished  *prometheus.CounterVec
	faulted   *prometheus.CounterVec
	discarded *prometheus.CounterVec
	running   *prometheus.GaugeVec
	queueWait *prometheus.HistogramVec
	duration  *prometheus.HistogramVec
}

func NewPoolCollector(namespace string) *PoolCollector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &PoolCollector{
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_enqueued_total",
			Help:      "Total number of jobs accepted by the pool",
		}, []string{"pool", "ordering"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Total number of jobs executed by the pool",
		}, []string{"pool", "outcome"}),
		faulted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_faulted_total",
			Help:      "Total number of panics that escaped a job",
		}, []string{"pool"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_discarded_total",
			Help:      "Total number of queued jobs discarded on shutdown",
		}, []string{"pool"}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_running",
			Help:      "Number of jobs currently running",
		}, []string{"pool"}),
		queueWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_queue_wait_seconds",
			Help:      "Time jobs spent in the queue before a worker took them",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"pool"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time jobs spent running on a worker",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"pool"}),
	}
}

func (c *PoolCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.enqueued, c.finished, c.faulted, c.discarded, c.running, c.queueWait, c.duration}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}

func (c *PoolCollector) Register(r prometheus.Registerer) error {
	return r.Register(c)
}

func (c *PoolCollector) JobEnqueued(pool string, ord async.Ordering) {
	c.enqueued.WithLabelValues(pool, ord.String()).Inc()
}

func (c *PoolCollector) JobStarted(pool string, queueWait time.Duration) {
	c.running.WithLabelValues(pool).Inc()
	c.queueWait.WithLabelValues(pool).Observe(queueWait.Seconds())
}

func (c *PoolCollector) JobFinished(pool string, took time.Duration, aborted bool) {
	c.running.WithLabelValues(pool).Dec()
	c.duration.WithLabelValues(pool).Observe(took.Seconds())
	outcome := OutcomeCompleted
	if aborted {
		outcome = OutcomeAborted
	}
	c.finished.WithLabelValues(pool, outcome).Inc()
}

func (c *PoolCollector) JobFaulted(pool string) {
	c.faulted.WithLabelValues(pool).Inc()
}

func (c *PoolCollector) JobDiscarded(pool string) {
	c.discarded.WithLabelValues(pool).Inc()
}
