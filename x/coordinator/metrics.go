package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"

	metricspkg "github.com/shadeboard/coordinator/pkg/metrics"
)

// Metrics abstracts coordinator instrumentation so tests can run without a
// process-wide Prometheus registry.
type Metrics interface {
	RecordTaskStarted(configBytes int)
	RecordSubmissions(batchSize int)
	RecordResume()
	RecordFinalized()
	RecordTimeout()
	RecordRejection(op, reason string)
}

type promMetrics struct {
	tasksStarted    prometheus.Counter
	configSize      prometheus.Histogram
	submissions     prometheus.Counter
	batchSize       prometheus.Histogram
	resumes         prometheus.Counter
	finalized       prometheus.Counter
	timedOut        prometheus.Counter
	rejectionsTotal *prometheus.CounterVec
}

// NewMetrics creates Prometheus-backed coordinator metrics.
func NewMetrics() Metrics {
	reg := metricspkg.NewComponentRegistry("coordinator", "ledger")

	return &promMetrics{
		tasksStarted: reg.NewCounter(prometheus.CounterOpts{
			Name: "tasks_started_total",
			Help: "Total number of coordination tasks started",
		}),
		configSize: reg.NewHistogram(prometheus.HistogramOpts{
			Name:    "task_config_bytes",
			Help:    "Size of task configs in bytes",
			Buckets: metricspkg.SizeBuckets,
		}),
		submissions: reg.NewCounter(prometheus.CounterOpts{
			Name: "worker_submissions_total",
			Help: "Total number of worker submissions recorded",
		}),
		batchSize: reg.NewHistogram(prometheus.HistogramOpts{
			Name:    "submission_batch_size",
			Help:    "Worker submissions recorded per call",
			Buckets: metricspkg.CountBuckets,
		}),
		resumes: reg.NewCounter(prometheus.CounterOpts{
			Name: "resumes_total",
			Help: "Total number of accepted coordinator resumes",
		}),
		finalized: reg.NewCounter(prometheus.CounterOpts{
			Name: "proposals_finalized_total",
			Help: "Total number of proposals finalized",
		}),
		timedOut: reg.NewCounter(prometheus.CounterOpts{
			Name: "proposals_timed_out_total",
			Help: "Total number of proposals timed out",
		}),
		rejectionsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "rejections_total",
			Help: "Total number of rejected calls by operation and reason",
		}, []string{"operation", "reason"}),
	}
}

func (m *promMetrics) RecordTaskStarted(configBytes int) {
	m.tasksStarted.Inc()
	m.configSize.Observe(float64(configBytes))
}

func (m *promMetrics) RecordSubmissions(batchSize int) {
	m.submissions.Add(float64(batchSize))
	m.batchSize.Observe(float64(batchSize))
}

func (m *promMetrics) RecordResume()    { m.resumes.Inc() }
func (m *promMetrics) RecordFinalized() { m.finalized.Inc() }
func (m *promMetrics) RecordTimeout()   { m.timedOut.Inc() }

func (m *promMetrics) RecordRejection(op, reason string) {
	m.rejectionsTotal.WithLabelValues(op, reason).Inc()
}

type noOpMetrics struct{}

// NewNoOpMetrics creates metrics that discard every observation.
func NewNoOpMetrics() Metrics { return noOpMetrics{} }

func (noOpMetrics) RecordTaskStarted(int)          {}
func (noOpMetrics) RecordSubmissions(int)          {}
func (noOpMetrics) RecordResume()                  {}
func (noOpMetrics) RecordFinalized()               {}
func (noOpMetrics) RecordTimeout()                 {}
func (noOpMetrics) RecordRejection(string, string) {}
