package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RowsProcessed        *prometheus.CounterVec
	NationalNumberChecks *prometheus.CounterVec
	ImportDuration       *prometheus.HistogramVec
	ImportsInFlight      prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RowsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "secretariat_import_rows_total",
			Help: "Spreadsheet rows handled by processors, by import type and outcome",
		}, []string{"type", "outcome"}),
		NationalNumberChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "secretariat_national_number_checks_total",
			Help: "National number checks by result",
		}, []string{"result"}),
		ImportDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "secretariat_import_duration_seconds",
			Help:    "Duration of complete imports",
			Buckets: []float64{1, 5, 15, 60, 300, 900},
		}, []string{"type", "status"}),
		ImportsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "secretariat_imports_in_flight",
			Help: "Imports currently running",
		}),
	}
}

func (m *Metrics) IncRow(importType, outcome string) {
	if m == nil {
		return
	}
	m.RowsProcessed.WithLabelValues(importType, outcome).Inc()
}

func (m *Metrics) IncNationalNumberCheck(result string) {
	if m == nil {
		return
	}
	m.NationalNumberChecks.WithLabelValues(result).Inc()
}

// TrackImport marks an import as running; the returned func records its
// duration with the final status.
func (m *Metrics) TrackImport(importType string) func(status string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.ImportsInFlight.Inc()
	return func(status string) {
		m.ImportsInFlight.Dec()
		m.ImportDuration.WithLabelValues(importType, status).Observe(time.Since(start).Seconds())
	}
}
