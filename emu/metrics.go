package emu

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of an Emulator.
type Metrics struct {
	Predictions *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Discarded   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hmfemu_predictions_total",
				Help: "Total number of successful predictions by operation",
			},
			[]string{"op"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hmfemu_prediction_duration_seconds",
				Help:    "Duration of successful predictions in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"op"},
		),
		Discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hmfemu_discarded_draws_total",
				Help: "Total number of non-finite Monte Carlo draws dropped by redshift",
			},
			[]string{"redshift"},
		),
	}
}

// Register registers every metric with r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Predictions, m.Duration, m.Discarded} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observe(op string, seconds float64) {
	m.Predictions.WithLabelValues(op).Inc()
	m.Duration.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) discarded(z float64, n int) {
	if n > 0 {
		m.Discarded.WithLabelValues(strconv.FormatFloat(z, 'g', -1, 64)).Add(float64(n))
	}
}
