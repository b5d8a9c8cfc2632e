package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for artifact builds.
type Metrics struct {
	// Build latency, successful or not
	BuildLatency prometheus.Histogram

	// Builds by result ("success", "failure", "incomplete")
	BuildTotal *prometheus.CounterVec

	// Rows written per artifact table
	RowsLoaded *prometheus.CounterVec
}

// New registers the build metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BuildLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "radar_build_duration_seconds",
			Help:    "Duration of artifact builds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}),
		BuildTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_build_total",
			Help: "Total artifact builds by result",
		}, []string{"result"}),
		RowsLoaded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_build_rows_loaded_total",
			Help: "Total rows loaded into the artifact by table",
		}, []string{"table"}),
	}
}

// ObserveBuild records one finished build.
func (m *Metrics) ObserveBuild(result string, d time.Duration) {
	if m != nil {
		m.BuildLatency.Observe(d.Seconds())
		m.BuildTotal.WithLabelValues(result).Inc()
	}
}

// AddRowsLoaded records rows written to table.
func (m *Metrics) AddRowsLoaded(table string, n int) {
	if m != nil {
		m.RowsLoaded.WithLabelValues(table).Add(float64(n))
	}
}
