// Package fetch downloads the external datasets in parallel with a bounded
// pool. The first failure cancels every download still running.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"radar/internal/ingest/fetch/metrics"
	dErrors "radar/pkg/domain-errors"
)

// DefaultConcurrency is the download pool size.
const DefaultConcurrency = 6

// Source is one external dataset.
type Source struct {
	Name string
	URL  string
}

// Result is one completed download.
type Result struct {
	Source   Source
	Path     string
	Bytes    int64
	Duration time.Duration
}

// Fetcher downloads sources into a directory.
type Fetcher struct {
	client      *http.Client
	dir         string
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		f.concurrency = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// New constructs a Fetcher writing into dir.
func New(dir string, opts ...Option) (*Fetcher, error) {
	if dir == "" {
		return nil, dErrors.New(dErrors.CodeConfig, "download directory is required")
	}
	f := &Fetcher{
		client:      &http.Client{Timeout: 30 * time.Minute},
		dir:         dir,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.concurrency < 1 {
		f.concurrency = 1
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f, nil
}

// Run downloads every source. Any failure aborts the run: the shared context
// is cancelled so in-flight downloads stop, and no partial file is left under
// a final name.
func (f *Fetcher) Run(ctx context.Context, sources []Source) ([]Result, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	results := make([]Result, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			res, err := f.download(gctx, src)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", src.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		f.logger.ErrorContext(ctx, "download aborted", "error", err)
		return nil, err
	}
	return results, nil
}

func (f *Fetcher) download(ctx context.Context, src Source) (Result, error) {
	start := time.Now()
	defer func() {
		f.metrics.ObserveFetch(src.Name, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	final := filepath.Join(f.dir, filepath.Base(src.Name))
	tmp := filepath.Join(f.dir, "."+filepath.Base(src.Name)+"-"+uuid.NewString()+".part")
	out, err := os.Create(tmp)
	if err != nil {
		return Result{}, err
	}
	n, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp)
		return Result{}, err
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return Result{}, err
	}

	res := Result{Source: src, Path: final, Bytes: n, Duration: time.Since(start)}
	f.logger.InfoContext(ctx, "downloaded source",
		"source", src.Name,
		"bytes", n,
		"duration", res.Duration,
	)
	return res, nil
}
