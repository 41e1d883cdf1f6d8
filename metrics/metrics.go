// Package metrics exposes pipeline activity as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	storeskema "github.com/kioskcart/storeskema"
	"github.com/kioskcart/storeskema/batch"
)

// Metrics provides observability for batch runs and diagnostics.
type Metrics struct {
	// Records evaluated by entity and outcome (accepted, skipped, failed)
	RecordsProcessed *prometheus.CounterVec

	// Batch wall time by entity and policy
	BatchDuration *prometheus.HistogramVec

	// Diagnostics raised by entity and kind
	Diagnostics *prometheus.CounterVec
}

var _ batch.Observer = (*Metrics)(nil)

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RecordsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storeskema_records_processed_total",
			Help: "Records evaluated by entity and outcome",
		}, []string{"entity", "outcome"}),

		BatchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storeskema_batch_duration_seconds",
			Help:    "Duration of batch evaluations by entity and policy",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"entity", "policy"}),

		Diagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storeskema_diagnostics_total",
			Help: "Non-fatal diagnostics by entity and kind",
		}, []string{"entity", "kind"}),
	}
}

// ObserveRecord implements batch.Observer.
func (m *Metrics) ObserveRecord(entity, outcome string) {
	if m != nil {
		m.RecordsProcessed.WithLabelValues(entity, outcome).Inc()
	}
}

// ObserveBatch implements batch.Observer.
func (m *Metrics) ObserveBatch(entity, policy string, _ batch.Report, d time.Duration) {
	if m != nil {
		m.BatchDuration.WithLabelValues(entity, policy).Observe(d.Seconds())
	}
}

// Sink returns a DiagnosticSink counting diagnostics before handing them to next.
func (m *Metrics) Sink(next storeskema.DiagnosticSink) storeskema.DiagnosticSink {
	return storeskema.DiagnosticFunc(func(ctx context.Context, d storeskema.Diagnostic) {
		if m != nil {
			m.Diagnostics.WithLabelValues(d.Entity, string(d.Kind)).Inc()
		}
		if next != nil {
			next.Diagnose(ctx, d)
		}
	})
}
