package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"radar/internal/alert"
	alertmetrics "radar/internal/alert/metrics"
	"radar/internal/artifact"
	"radar/internal/build"
	buildmetrics "radar/internal/build/metrics"
	"radar/internal/graph"
	"radar/internal/graph/cache"
	"radar/internal/ingest/fetch"
	fetchmetrics "radar/internal/ingest/fetch/metrics"
	"radar/internal/pipeline"
	pipelinemetrics "radar/internal/pipeline/metrics"
	"radar/internal/platform/config"
	"radar/internal/platform/logger"
	platformmetrics "radar/internal/platform/metrics"
	"radar/internal/platform/redis"
	"radar/internal/score"
	scoremetrics "radar/internal/score/metrics"
	"radar/internal/staging/postgres"
	id "radar/pkg/domain"
	"radar/pkg/platform/sentinel"
)

// main wires one batch run: optional downloads, the pipeline over the staging
// database, and an optional warm-up of the neighborhood cache. It exits
// non-zero on any failure; a failed build keeps the previous artifact.
func main() {
	cfg, err := config.FromEnv()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "radar: configuration error:", err)
		os.Exit(2)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := platformmetrics.NewRegistry()
	runMetrics := platformmetrics.New(reg)

	start := time.Now()
	ref := cfg.ReferenceDate
	if ref.IsZero() {
		ref = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	}
	err = run(ctx, cfg, ref, log, reg)
	runMetrics.ObserveRun(ref, time.Now(), time.Since(start), err)
	if cfg.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(cfg.MetricsFile, reg); werr != nil {
			log.Error("could not write metrics textfile", "path", cfg.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		log.Error("radar run failed", "error", err)
		os.Exit(1)
	}
}

// run reads ref once; every time-dependent rule of the run uses it.
func run(ctx context.Context, cfg config.Pipeline, ref time.Time, log *slog.Logger, reg prometheus.Registerer) error {
	if len(cfg.Sources) > 0 {
		fetcher, err := fetch.New(cfg.DownloadDir,
			fetch.WithConcurrency(cfg.DownloadConcurrency),
			fetch.WithLogger(log),
			fetch.WithMetrics(fetchmetrics.New(reg)),
		)
		if err != nil {
			return err
		}
		sources := make([]fetch.Source, len(cfg.Sources))
		for i, s := range cfg.Sources {
			sources[i] = fetch.Source{Name: s.Name, URL: s.URL}
		}
		if _, err := fetcher.Run(ctx, sources); err != nil {
			return fmt.Errorf("download sources: %w", err)
		}
	}

	pool, err := postgres.Connect(ctx, cfg.StagingURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	builder, err := build.New(cfg.ArtifactPath,
		build.WithLogger(log),
		build.WithMetrics(buildmetrics.New(reg)),
	)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg.IdentitySalt, builder,
		pipeline.WithLogger(log),
		pipeline.WithMetrics(pipelinemetrics.New(reg)),
		pipeline.WithGraphMaxNodes(cfg.GraphMaxNodes),
		pipeline.WithScorer(score.New(score.WithLogger(log), score.WithMetrics(scoremetrics.New(reg)))),
		pipeline.WithAlerter(alert.New(alert.WithLogger(log), alert.WithMetrics(alertmetrics.New(reg)))),
	)
	if err != nil {
		return err
	}

	res, err := p.Run(ctx, postgres.New(pool), ref)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "run summary",
		"artifact", res.ArtifactPath,
		"build_duration", res.BuildDuration,
		"companies_scored", res.CompaniesScored,
		"rows_dropped", res.Drops.Dropped(),
		"graph_nodes", res.GraphNodes,
		"graph_edges", res.GraphEdges,
		"graph_capped", res.GraphCapped,
	)

	return warmCache(ctx, cfg, log, res)
}

// warmCache pre-loads the neighborhoods of critical companies. A missing or
// unreachable Redis is logged and skipped; the artifact is already in place.
func warmCache(ctx context.Context, cfg config.Pipeline, log *slog.Logger, res pipeline.Result) error {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.WarnContext(ctx, "neighborhood cache unavailable, skipping warm-up", "error", err)
		return nil
	}
	if client == nil {
		return nil
	}
	defer client.Close()

	var critical []id.CNPJ
	for _, s := range res.Scores {
		if s.Band == score.BandCritical {
			critical = append(critical, s.CNPJ)
		}
	}
	if len(critical) == 0 {
		return nil
	}

	reader, err := artifact.Open(ctx, res.ArtifactPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	nb := cache.New(client.Client, reader.BuildID(), cfg.Redis.TTL)
	// Companies without partners have no graph node; cache them as empty.
	load := func(ctx context.Context, cnpj id.CNPJ) ([]graph.Node, []graph.Edge, error) {
		nodes, edges, err := reader.Neighborhood(ctx, cnpj)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, nil
		}
		return nodes, edges, err
	}
	written, err := nb.Warm(ctx, critical, load)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WarnContext(ctx, "neighborhood warm-up incomplete", "written", written, "error", err)
		return nil
	}
	log.InfoContext(ctx, "neighborhood cache warmed", "companies", written, "build_id", reader.BuildID())
	return err
}
