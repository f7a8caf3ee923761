package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EvaluationBuckets spans fast pure checks up to predicates that
// run into the default 3s test timeout.
var EvaluationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 3, 5, 10}

// PrometheusMetrics implements EvaluatorMetrics with
// prometheus/client_golang collectors.
type PrometheusMetrics struct {
	evaluations *prometheus.CounterVec
	tests       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
}

// NewPrometheusMetrics creates the collectors and registers them
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluator_evaluations_total",
				Help: "Evaluations by outcome",
			},
			[]string{"outcome"},
		),
		tests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluator_tests_total",
				Help: "Test cases by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evaluator_evaluation_duration_seconds",
				Help:    "Evaluation duration",
				Buckets: EvaluationBuckets,
			},
			[]string{"outcome"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "evaluator_evaluations_in_flight",
				Help: "Evaluations currently running",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.evaluations, m.tests, m.duration, m.inFlight,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register evaluator metrics: %w", err)
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordEvaluation(outcome string, duration time.Duration) {
	m.evaluations.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordTest(outcome string) {
	m.tests.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) EvaluationStarted() {
	m.inFlight.Inc()
}

func (m *PrometheusMetrics) EvaluationFinished() {
	m.inFlight.Dec()
}
