// Package pipeline runs one batch: validate staged rows, link identities,
// enrich, score, alert, build the graph and write the artifact.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"radar/internal/alert"
	"radar/internal/build"
	"radar/internal/domain"
	"radar/internal/enrichment"
	"radar/internal/graph"
	"radar/internal/identity"
	"radar/internal/pipeline/metrics"
	"radar/internal/score"
	"radar/internal/staging"
	dErrors "radar/pkg/domain-errors"
)

// DefaultGraphMaxNodes caps the persisted relationship graph.
const DefaultGraphMaxNodes = 50000

// Pipeline is constructed once per process. Runs must not overlap.
type Pipeline struct {
	salt          string
	builder       *build.Builder
	scorer        *score.Service
	alerter       *alert.Service
	graphMaxNodes int
	logger        *slog.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

type Option func(p *Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithScorer(s *score.Service) Option {
	return func(p *Pipeline) {
		p.scorer = s
	}
}

func WithAlerter(a *alert.Service) Option {
	return func(p *Pipeline) {
		p.alerter = a
	}
}

func WithGraphMaxNodes(n int) Option {
	return func(p *Pipeline) {
		p.graphMaxNodes = n
	}
}

// WithClock overrides the alert detection timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New fails closed on an empty salt: the pipeline never runs without a key
// for identifier hashing.
func New(salt string, builder *build.Builder, opts ...Option) (*Pipeline, error) {
	if _, err := identity.NewAnonymizer(salt); err != nil {
		return nil, err
	}
	if builder == nil {
		return nil, dErrors.New(dErrors.CodeConfig, "artifact builder is required")
	}
	p := &Pipeline{
		salt:          salt,
		builder:       builder,
		graphMaxNodes: DefaultGraphMaxNodes,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.scorer == nil {
		p.scorer = score.New(score.WithLogger(p.logger))
	}
	if p.alerter == nil {
		p.alerter = alert.New(alert.WithLogger(p.logger))
	}
	return p, nil
}

// Result summarizes one successful run.
type Result struct {
	RunID              string
	BuildID            uuid.UUID
	ArtifactPath       string
	BuildDuration      time.Duration
	Drops              *DropReport
	Resolution         build.Resolution
	DistinctIdentities int
	CompaniesScored    int
	Bands              map[score.Band]int
	AlertsByType       map[alert.Type]int
	GraphNodes         int
	GraphEdges         int
	GraphCapped        bool
	// Scores is kept for post-build steps such as cache warm-up.
	Scores []score.Score
}

// Run executes the batch against src with ref as the reference date for
// every time-dependent rule. Nothing is written when the completeness gate
// fails; a failed build leaves the previous artifact in place.
func (p *Pipeline) Run(ctx context.Context, src staging.Source, ref time.Time) (Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	res := Result{RunID: runID}

	if err := p.builder.Gate(ctx, src); err != nil {
		return res, err
	}
	snap, err := src.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("load staging: %w", err)
	}

	validated, report := Validate(snap)
	p.report(ctx, logger, report)
	res.Drops = report

	anon, err := identity.NewAnonymizer(p.salt)
	if err != nil {
		return res, err
	}
	ds := Link(validated, anon)
	res.DistinctIdentities = anon.Distinct()

	ds, resolution := build.ResolveForeignKeys(ds)
	res.Resolution = resolution
	logger.InfoContext(ctx, "resolved foreign keys",
		"contracts", resolution.Contracts, "contracts_unresolved", resolution.ContractsUnresolved,
		"sanctions", resolution.Sanctions, "sanctions_unresolved", resolution.SanctionsUnresolved,
		"donations", resolution.Donations, "donations_unresolved", resolution.DonationsUnresolved,
	)

	ix := domain.NewIndex(ds)
	enriched := enrichment.Enrich(ds, ix)
	ds.Partners = enriched.Partners

	scores, err := p.scorer.ScoreAll(ctx, ix, enriched, ref)
	if err != nil {
		return res, fmt.Errorf("score companies: %w", err)
	}
	alerts, err := p.alerter.DetectAll(ctx, alert.Population{
		Companies: ds.Companies,
		Partners:  ds.Partners,
		Contracts: ds.Contracts,
		Sanctions: ds.Sanctions,
		Donations: ds.Donations,
	}, ref, p.now())
	if err != nil {
		return res, fmt.Errorf("detect alerts: %w", err)
	}

	g := graph.Build(ds.Companies, ds.Partners, p.graphMaxNodes)
	if g.Capped {
		logger.WarnContext(ctx, "relationship graph capped", "max_nodes", p.graphMaxNodes)
	}

	suppliers := make(map[string]bool, len(ix.Suppliers))
	for cnpj := range ix.Suppliers {
		suppliers[cnpj.String()] = true
	}
	info, err := p.builder.Build(ctx, build.Artifact{
		Dataset:         ds,
		Suppliers:       suppliers,
		Scores:          scores,
		Alerts:          alerts,
		SharedAddresses: enriched.SharedAddresses,
		Graph:           g,
		ReferenceDate:   ref,
	})
	if err != nil {
		return res, err
	}

	res.BuildID = info.BuildID
	res.ArtifactPath = info.Path
	res.BuildDuration = info.Duration
	res.CompaniesScored = len(scores)
	res.Scores = scores
	res.Bands = make(map[score.Band]int)
	for _, s := range scores {
		res.Bands[s.Band]++
	}
	res.AlertsByType = make(map[alert.Type]int)
	for _, a := range alerts {
		res.AlertsByType[a.Type]++
	}
	res.GraphNodes = len(g.Nodes)
	res.GraphEdges = len(g.Edges)
	res.GraphCapped = g.Capped

	logger.InfoContext(ctx, "pipeline finished",
		"build_id", info.BuildID.String(),
		"companies_scored", res.CompaniesScored,
		"alerts", len(alerts),
		"graph_nodes", res.GraphNodes,
		"distinct_identities", res.DistinctIdentities,
	)
	return res, nil
}

// report logs every dropped row at WARN, one summary per table at INFO, and
// records the counts.
func (p *Pipeline) report(ctx context.Context, logger *slog.Logger, r *DropReport) {
	for _, d := range r.Drops {
		logger.WarnContext(ctx, "staged row dropped", "table", string(d.Table), "row", d.Row, "reason", d.Reason)
	}
	for _, t := range r.sortedTables() {
		tr := r.Tables[t]
		dropped := 0
		for reason, n := range tr.Dropped {
			dropped += n
			p.metrics.AddDropped(string(t), reason, n)
		}
		p.metrics.AddAccepted(string(t), tr.Accepted)
		logger.InfoContext(ctx, "validated staged table", "table", string(t), "accepted", tr.Accepted, "dropped", dropped)
	}
}
