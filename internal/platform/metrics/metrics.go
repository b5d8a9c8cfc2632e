package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-level metrics of one batch run.
type Metrics struct {
	RunTotal      *prometheus.CounterVec
	LastSuccess   prometheus.Gauge
	ReferenceDate prometheus.Gauge
	RunDuration   prometheus.Gauge
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors. Module metrics register on it through their own New.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New registers the run metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_run_total",
			Help: "Total batch runs by result",
		}, []string{"result"}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "radar_run_last_success_timestamp_seconds",
			Help: "Unix time of the last successful batch run",
		}),
		ReferenceDate: f.NewGauge(prometheus.GaugeOpts{
			Name: "radar_run_reference_date_seconds",
			Help: "Reference date of the last batch run as Unix time",
		}),
		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "radar_run_duration_seconds",
			Help: "Wall time of the last batch run",
		}),
	}
}

// ObserveRun records the outcome of one run.
func (m *Metrics) ObserveRun(ref, finished time.Time, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ReferenceDate.Set(float64(ref.Unix()))
	m.RunDuration.Set(d.Seconds())
	if err != nil {
		m.RunTotal.WithLabelValues("failure").Inc()
		return
	}
	m.RunTotal.WithLabelValues("success").Inc()
	m.LastSuccess.Set(float64(finished.Unix()))
}
