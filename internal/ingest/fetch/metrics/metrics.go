package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for source downloads.
type Metrics struct {
	FetchLatency *prometheus.HistogramVec
}

// New registers the fetch metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		FetchLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "radar_fetch_duration_seconds",
			Help:    "Duration of source downloads by source",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"source"}),
	}
}

// ObserveFetch records the duration of one download.
func (m *Metrics) ObserveFetch(source string, d time.Duration) {
	if m != nil {
		m.FetchLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}
