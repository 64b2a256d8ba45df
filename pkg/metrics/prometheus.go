package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	plansTotal     *prometheus.CounterVec
	dispatchTotal  *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	iterationsHist prometheus.Histogram
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		plansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimecast_plans_total",
				Help: "Total number of execution plans processed",
			},
			[]string{"operator", "outcome"},
		),
		dispatchTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimecast_dispatches_total",
				Help: "Total number of signal function dispatches",
			},
			[]string{"function"},
		),
		retriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimecast_contract_retries_total",
				Help: "Total number of bounded retries after contract violations",
			},
			[]string{"function"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimecast_errors_total",
				Help: "Total number of errors by taxonomy code",
			},
			[]string{"code"},
		),
		iterationsHist: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "regimecast_stability_iterations",
				Help:    "Iterations run by the stability loop before terminating",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 7, 10, 15, 20},
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regimecast_operation_duration_seconds",
				Help:    "Duration of engine operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPlan records a completed plan with its composition operator and outcome
// (converged, unstable, direct, error).
func (r *Recorder) RecordPlan(operator, outcome string) {
	r.plansTotal.WithLabelValues(operator, outcome).Inc()
}

// RecordDispatch records a signal function dispatch.
func (r *Recorder) RecordDispatch(function string) {
	r.dispatchTotal.WithLabelValues(function).Inc()
}

// RecordRetry records a contract-violation retry for a function.
func (r *Recorder) RecordRetry(function string) {
	r.retriesTotal.WithLabelValues(function).Inc()
}

// RecordError records an error occurrence by taxonomy code.
func (r *Recorder) RecordError(code string) {
	r.errorsTotal.WithLabelValues(code).Inc()
}

// RecordIterations records how many stability-loop iterations a plan ran.
func (r *Recorder) RecordIterations(n int) {
	r.iterationsHist.Observe(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
