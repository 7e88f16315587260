package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "geopunch"

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing, so services can be built without it in tests.
type Metrics struct {
	registry        *prometheus.Registry
	reportDuration  *prometheus.HistogramVec
	reportsServed   *prometheus.CounterVec
	skippedPunches  *prometheus.CounterVec
	punchesRecorded *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_build_seconds",
			Help:      "Time spent loading and building a report.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"report"}),
		reportsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_served_total",
			Help:      "Reports written to clients by report and format.",
		}, []string{"report", "format"}),
		skippedPunches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_skipped_punches_total",
			Help:      "Malformed punches skipped while building reports.",
		}, []string{"report"}),
		punchesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "punches_recorded_total",
			Help:      "Punches stored by type.",
		}, []string{"type"}),
	}

	reg.MustRegister(m.reportDuration, m.reportsServed, m.skippedPunches, m.punchesRecorded)
	return m
}

// ObserveReport records one report build.
func (m *Metrics) ObserveReport(report string, d time.Duration, skipped int) {
	if m == nil {
		return
	}
	m.reportDuration.WithLabelValues(report).Observe(d.Seconds())
	if skipped > 0 {
		m.skippedPunches.WithLabelValues(report).Add(float64(skipped))
	}
}

func (m *Metrics) ReportServed(report, format string) {
	if m == nil {
		return
	}
	m.reportsServed.WithLabelValues(report, format).Inc()
}

func (m *Metrics) PunchRecorded(punchType string) {
	if m == nil {
		return
	}
	m.punchesRecorded.WithLabelValues(punchType).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
