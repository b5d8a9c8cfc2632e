package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the scoring engine.
type Metrics struct {
	// Scored companies by band
	BandTotal *prometheus.CounterVec

	// Active indicators by type
	IndicatorTotal *prometheus.CounterVec
}

// New registers the scoring metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BandTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_score_band_total",
			Help: "Total scored companies by risk band",
		}, []string{"band"}),

		IndicatorTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_score_indicator_total",
			Help: "Total active indicators by type",
		}, []string{"indicator"}),
	}
}

// IncrementBand records one scored company.
func (m *Metrics) IncrementBand(band string) {
	if m != nil {
		m.BandTotal.WithLabelValues(band).Inc()
	}
}

// IncrementIndicator records one active indicator.
func (m *Metrics) IncrementIndicator(indicator string) {
	if m != nil {
		m.IndicatorTotal.WithLabelValues(indicator).Inc()
	}
}
