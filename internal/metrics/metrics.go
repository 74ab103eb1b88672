package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rickgao/tickersense/internal/version"
)

// Metrics owns a private registry with the pipeline collectors.
type Metrics struct {
	registry    *prometheus.Registry
	runDuration *prometheus.HistogramVec
	runErrors   *prometheus.CounterVec
}

// New registers collectors for src plus Go runtime and process metrics.
func New(src Sources) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_run_duration_seconds",
			Help:      "Duration of scheduled job runs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		runErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_run_errors_total",
			Help:      "Job run errors observed by the run hook.",
		}, []string{"job"}),
	}

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information; always 1.",
	}, []string{"version", "commit", "build_time"})
	info := version.Get()
	buildInfo.WithLabelValues(info.Version, info.Commit, info.BuildTime).Set(1)

	reg.MustRegister(
		&statsCollector{src: src},
		m.runDuration,
		m.runErrors,
		buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records one job run. Its signature matches scheduler.RunHook.
func (m *Metrics) ObserveRun(name string, d time.Duration, err error) {
	m.runDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.runErrors.WithLabelValues(name).Inc()
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
