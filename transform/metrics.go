package transform

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for pipeline operations. A nil
// *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec   // by operation and outcome
	duration   *prometheus.HistogramVec // by operation
	triples    *prometheus.HistogramVec // by operation, size of produced graphs
	violations prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shaclx",
			Subsystem: "transform",
			Name:      "operations_total",
			Help:      "Total number of pipeline operations by outcome",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shaclx",
			Subsystem: "transform",
			Name:      "operation_duration_seconds",
			Help:      "Pipeline operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"operation"}),
		triples: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shaclx",
			Subsystem: "transform",
			Name:      "output_triples",
			Help:      "Distribution of produced graph sizes in triples",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"operation"}),
		violations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shaclx",
			Subsystem: "transform",
			Name:      "violations_total",
			Help:      "Total number of validation results reported",
		}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.duration, m.triples, m.violations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) record(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(Code(err))
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) recordTriples(op string, n int) {
	if m == nil {
		return
	}
	m.triples.WithLabelValues(op).Observe(float64(n))
}

func (m *Metrics) recordViolations(n int) {
	if m == nil || n == 0 {
		return
	}
	m.violations.Add(float64(n))
}
