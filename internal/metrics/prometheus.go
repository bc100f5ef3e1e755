package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	runTotal   *prom.CounterVec
	runSeconds *prom.HistogramVec
	rowsTotal  *prom.CounterVec
}

func (p *promRecorder) IncRun(surface, outcome string) {
	p.runTotal.WithLabelValues(surface, outcome).Inc()
}

func (p *promRecorder) ObserveRunSeconds(surface, outcome string, seconds float64) {
	p.runSeconds.WithLabelValues(surface, outcome).Observe(seconds)
}

func (p *promRecorder) ObserveRows(valid, dropped int) {
	p.rowsTotal.WithLabelValues("valid").Add(float64(valid))
	p.rowsTotal.WithLabelValues("dropped").Add(float64(dropped))
}

// EnablePrometheus installs a Prometheus recorder backed by a fresh registry
// and returns the handler that serves it.
func EnablePrometheus() http.Handler {
	registry := prom.NewRegistry()
	p := &promRecorder{
		runTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "odour_cluster_runs_total",
			Help: "Total number of clustering runs by surface and outcome",
		}, []string{"surface", "outcome"}),
		runSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "odour_cluster_run_seconds",
			Help:    "Clustering run duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"surface", "outcome"}),
		rowsTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "odour_cluster_rows_total",
			Help: "Uploaded data rows by validation result",
		}, []string{"result"}),
	}

	registry.MustRegister(p.runTotal, p.runSeconds, p.rowsTotal)
	SetRecorder(p)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
