// Package metrics exposes service counters on a private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	submissionsTotal *prometheus.CounterVec
	documentsTotal   *prometheus.CounterVec
	emailsTotal      *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	submissionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoiced",
			Subsystem: "webhook",
			Name:      "submissions_total",
			Help:      "Webhook submissions by terminal status.",
		},
		[]string{"status"},
	)
	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoiced",
			Subsystem: "webhook",
			Name:      "documents_total",
			Help:      "Attachment documents by processing outcome.",
		},
		[]string{"outcome"},
	)
	emailsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoiced",
			Subsystem: "mail",
			Name:      "emails_total",
			Help:      "Outbound result emails by status.",
		},
		[]string{"status"},
	)

	registry.MustRegister(submissionsTotal, documentsTotal, emailsTotal)

	return &Metrics{
		registry:         registry,
		submissionsTotal: submissionsTotal,
		documentsTotal:   documentsTotal,
		emailsTotal:      emailsTotal,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordSubmission(status string) {
	m.submissionsTotal.WithLabelValues(status).Inc()
}

// RecordDocument outcomes: "extracted", "download_failed", "empty".
func (m *Metrics) RecordDocument(outcome string) {
	m.documentsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordEmail(status string) {
	m.emailsTotal.WithLabelValues(status).Inc()
}
