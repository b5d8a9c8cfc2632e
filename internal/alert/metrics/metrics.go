package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for alert detection.
type Metrics struct {
	Emitted *prometheus.CounterVec
}

// New registers the alert metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Emitted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "radar_alert_emitted_total",
			Help: "Total alerts emitted by type and severity",
		}, []string{"type", "severity"}),
	}
}

// IncrementEmitted records one emitted alert.
func (m *Metrics) IncrementEmitted(alertType, severity string) {
	if m != nil {
		m.Emitted.WithLabelValues(alertType, severity).Inc()
	}
}
