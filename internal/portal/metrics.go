package portal

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourorg/roadauthority/internal/render"
)

// Metrics is registered on its own registry so several services can coexist
// in one process (tests).
type Metrics struct {
	registry *prometheus.Registry

	FeeResolutions *prometheus.CounterVec
	Exports        *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec
	Verifications  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		FeeResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_fee_resolutions_total",
			Help: "Fee resolutions by category and outcome",
		}, []string{"category", "outcome"}),
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_document_exports_total",
			Help: "Finished document exports by document type and final state",
		}, []string{"document_type", "state"}),
		ExportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_document_export_duration_seconds",
			Help:    "Duration of document exports including printing and storage",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"document_type"}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_payload_verifications_total",
			Help: "QR payload verifications by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncFeeResolution(category, outcome string) {
	if m != nil {
		m.FeeResolutions.WithLabelValues(category, outcome).Inc()
	}
}

// ObserveExport implements render.Observer.
func (m *Metrics) ObserveExport(documentType string, state render.State, d time.Duration) {
	if m != nil {
		m.Exports.WithLabelValues(documentType, string(state)).Inc()
		m.ExportDuration.WithLabelValues(documentType).Observe(d.Seconds())
	}
}

func (m *Metrics) IncVerification(outcome string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
