// Package metrics exposes compliance activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	assessmentsScored *prometheus.CounterVec
	riskPercentage    prometheus.Histogram
	evidenceItems     *prometheus.CounterVec
	evidenceRemoved   *prometheus.CounterVec
	exports           prometheus.Counter
	actionItems       *prometheus.CounterVec
	uploadsRejected   *prometheus.CounterVec
	retakes           prometheus.Counter
}

// New registers all collectors on a fresh registry, together with the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		assessmentsScored: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hipaa_assessments_scored_total",
				Help: "Risk assessments scored, by resulting risk level",
			},
			[]string{"risk_level"},
		),
		riskPercentage: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hipaa_risk_percentage",
				Help:    "Risk percentage of scored assessments",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		evidenceItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hipaa_evidence_items_added_total",
				Help: "Evidence items attached to records, by kind",
			},
			[]string{"kind"},
		),
		evidenceRemoved: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hipaa_evidence_items_removed_total",
				Help: "Evidence items removed from records, by kind",
			},
			[]string{"kind"},
		),
		exports: f.NewCounter(
			prometheus.CounterOpts{
				Name: "hipaa_audit_exports_total",
				Help: "Audit packages generated",
			},
		),
		actionItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hipaa_action_items_created_total",
				Help: "Action items created by the generator, by priority",
			},
			[]string{"priority"},
		),
		uploadsRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hipaa_uploads_rejected_total",
				Help: "Evidence uploads rejected before storage, by reason",
			},
			[]string{"reason"},
		),
		retakes: f.NewCounter(
			prometheus.CounterOpts{
				Name: "hipaa_assessment_retakes_total",
				Help: "Assessments reset by a retake",
			},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AssessmentScored(level string, pct float64) {
	if m == nil {
		return
	}
	m.assessmentsScored.WithLabelValues(level).Inc()
	m.riskPercentage.Observe(pct)
}

func (m *Metrics) EvidenceAdded(kind string) {
	if m == nil {
		return
	}
	m.evidenceItems.WithLabelValues(kind).Inc()
}

func (m *Metrics) EvidenceRemoved(kind string) {
	if m == nil {
		return
	}
	m.evidenceRemoved.WithLabelValues(kind).Inc()
}

func (m *Metrics) ExportGenerated() {
	if m == nil {
		return
	}
	m.exports.Inc()
}

func (m *Metrics) ActionItemCreated(priority string) {
	if m == nil {
		return
	}
	m.actionItems.WithLabelValues(priority).Inc()
}

func (m *Metrics) UploadRejected(reason string) {
	if m == nil {
		return
	}
	m.uploadsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) AssessmentRetaken() {
	if m == nil {
		return
	}
	m.retakes.Inc()
}
