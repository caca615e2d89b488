// Package metrics records Prometheus metrics for client operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/exprmap/exprmap/pkg/constants"
)

// Operation statuses
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusIntegrity = "integrity_error"
)

// Recorder holds the client metrics. A nil Recorder records nothing.
type Recorder struct {
	duration   *prometheus.HistogramVec
	calls      *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	violations *prometheus.CounterVec
}

// New creates a Recorder registering its collectors with reg.
// Registering two recorders with one registry panics.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		// Labels: operation, status (success, error, integrity_error)
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "client",
			Name:      "operation_duration_seconds",
			Help:      "Duration of client operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"operation", "status"}),

		// Labels: call_type
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "reconcile",
			Name:      "similarity_calls_total",
			Help:      "Reconciled similarity expression calls by call type",
		}, []string{"call_type"}),

		// Labels: taxon
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "reconcile",
			Name:      "skipped_calls_total",
			Help:      "Expression calls outside of any similarity group",
		}, []string{"taxon"}),

		// Labels: resource (anat entity, dev stage, gene)
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "reconcile",
			Name:      "integrity_violations_total",
			Help:      "Entities found in several disjoint groups",
		}, []string{"resource"}),
	}
}

// ObserveOperation records the duration of an operation.
func (r *Recorder) ObserveOperation(operation, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(operation, status).Observe(d.Seconds())
}

// AddCalls counts reconciled calls of one type.
func (r *Recorder) AddCalls(callType string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.calls.WithLabelValues(callType).Add(float64(n))
}

// AddSkipped counts calls skipped for a taxon.
func (r *Recorder) AddSkipped(taxon string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.skipped.WithLabelValues(taxon).Add(float64(n))
}

// IntegrityViolation counts an integrity violation.
func (r *Recorder) IntegrityViolation(resource string) {
	if r == nil {
		return
	}
	r.violations.WithLabelValues(resource).Inc()
}
