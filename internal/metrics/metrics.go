// Package metrics exposes prometheus collectors for searches and index builds.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docsearch"

// Search outcomes
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// UnknownLocale labels locales without any content
const UnknownLocale = "unknown"

// Metrics holds the collectors of one service instance on a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	builds         *prometheus.CounterVec
	documents      *prometheus.GaugeVec
	skipped        *prometheus.GaugeVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Search requests by locale, kind and outcome.",
		}, []string{"locale", "kind", "outcome"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time spent answering a search, index build included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"locale", "kind"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Locale index builds by result.",
		}, []string{"locale", "result"}),
		documents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_documents",
			Help:      "Documents in the latest build of a locale.",
		}, []string{"locale"}),
		skipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "skipped_documents",
			Help:      "Files skipped in the latest build of a locale.",
		}, []string{"locale"}),
	}

	m.registry.MustRegister(
		m.searches,
		m.searchDuration,
		m.builds,
		m.documents,
		m.skipped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSearch records one answered search
func (m *Metrics) ObserveSearch(locale, kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(locale, kind, outcome).Inc()
	m.searchDuration.WithLabelValues(locale, kind).Observe(elapsed.Seconds())
}

// ObserveBuild records a locale build. Failed builds and unknown locales leave the gauges untouched.
func (m *Metrics) ObserveBuild(locale string, documents, skipped int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.builds.WithLabelValues(locale, "error").Inc()
		return
	}
	m.builds.WithLabelValues(locale, "ok").Inc()
	if locale == UnknownLocale {
		return
	}
	m.documents.WithLabelValues(locale).Set(float64(documents))
	m.skipped.WithLabelValues(locale).Set(float64(skipped))
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
