package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for row validation.
type Metrics struct {
	// Rows dropped during validation by table and reason
	RowsDropped *prometheus.CounterVec

	// Rows accepted during validation by table
	RowsAccepted *prometheus.CounterVec
}

// New registers the pipeline metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RowsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_pipeline_rows_dropped_total",
			Help: "Total staged rows dropped by validation",
		}, []string{"table", "reason"}),

		RowsAccepted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_pipeline_rows_accepted_total",
			Help: "Total staged rows accepted by validation",
		}, []string{"table"}),
	}
}

func (m *Metrics) AddDropped(table, reason string, n int) {
	if m != nil {
		m.RowsDropped.WithLabelValues(table, reason).Add(float64(n))
	}
}

func (m *Metrics) AddAccepted(table string, n int) {
	if m != nil {
		m.RowsAccepted.WithLabelValues(table).Add(float64(n))
	}
}
