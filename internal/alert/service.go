package alert

import (
	"context"
	"log/slog"
	"time"

	"radar/internal/alert/metrics"
	dErrors "radar/pkg/domain-errors"
)

// Service runs batch detection with logging and metrics around the pure
// rules.
type Service struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

func New(opts ...Option) *Service {
	s := &Service{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// DetectAll runs the batch path over pop. An alert with empty evidence is a
// rule bug and fails the run.
func (s *Service) DetectAll(ctx context.Context, pop Population, ref, detectedAt time.Time) ([]Alert, error) {
	alerts := DetectPopulation(pop, ref, detectedAt, s.cfg)

	byType := make(map[Type]int)
	for _, a := range alerts {
		if a.Evidence == "" {
			return nil, dErrors.New(dErrors.CodeInternal, "alert "+string(a.Type)+" emitted without evidence")
		}
		byType[a.Type]++
		s.metrics.IncrementEmitted(string(a.Type), string(a.Severity))
	}

	attrs := []any{"alerts", len(alerts)}
	for t, n := range byType {
		attrs = append(attrs, string(t), n)
	}
	s.logger.InfoContext(ctx, "detected alerts", attrs...)
	return alerts, nil
}
