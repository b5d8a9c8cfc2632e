package score

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"radar/internal/domain"
	"radar/internal/enrichment"
	"radar/internal/enrichment/activity"
	"radar/internal/score/metrics"
)

// Service scores a whole population. Evaluate stays pure; Service adds
// fan-out, logging and metrics around it.
type Service struct {
	cfg        Config
	activities *activity.Table
	logger     *slog.Logger
	metrics    *metrics.Metrics
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

func WithActivities(t *activity.Table) Option {
	return func(s *Service) {
		s.activities = t
	}
}

// New constructs a Service with DefaultConfig unless overridden.
func New(opts ...Option) *Service {
	s := &Service{cfg: DefaultConfig(), activities: activity.Default}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// InputFor assembles the engine input for one company.
func InputFor(ix *domain.Index, enriched enrichment.Result, c domain.Company, activities *activity.Table) Input {
	in := Input{
		Company:         c,
		Partners:        enriched.PartnersOf(c.CNPJ),
		Sanctions:       ix.Sanctions[c.CNPJ],
		Contracts:       ix.Contracts[c.CNPJ],
		SharedAddresses: enriched.SharedWith[c.CNPJ],
		Activities:      activities,
	}
	if n, ok := ix.EmployeeCountOf(c.CNPJ); ok {
		in.EmployeeCount = &n
	}
	return in
}

// ScoreAll scores every company in ix, in CompanyIDs order. Companies are
// independent, so the work is split across goroutines.
func (s *Service) ScoreAll(ctx context.Context, ix *domain.Index, enriched enrichment.Result, ref time.Time) ([]Score, error) {
	ids := ix.CompanyIDs()
	out := make([]Score, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, cnpj := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in := InputFor(ix, enriched, ix.Companies[cnpj], s.activities)
			out[i] = Evaluate(in, ref, s.cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[Band]int)
	for _, sc := range out {
		counts[sc.Band]++
		s.metrics.IncrementBand(string(sc.Band))
		for _, ind := range sc.Indicators {
			s.metrics.IncrementIndicator(string(ind.Type))
		}
	}
	s.logger.InfoContext(ctx, "scored companies",
		"companies", len(out),
		"low", counts[BandLow],
		"moderate", counts[BandModerate],
		"high", counts[BandHigh],
		"critical", counts[BandCritical],
	)
	return out, nil
}
