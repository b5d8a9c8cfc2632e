// Package build writes the finished analytical artifact. A build goes to a
// temporary SQLite file next to the target and replaces the target with a
// rename only after every table loaded; a failed build leaves the previous
// artifact untouched.
package build

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"radar/internal/alert"
	"radar/internal/build/metrics"
	"radar/internal/build/migrations"
	"radar/internal/domain"
	"radar/internal/enrichment"
	"radar/internal/graph"
	"radar/internal/score"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/tx"
)

// Artifact is everything written to one build.
type Artifact struct {
	Dataset         domain.Dataset
	Suppliers       map[string]bool // by CNPJ digits
	Scores          []score.Score
	Alerts          []alert.Alert
	SharedAddresses []enrichment.SharedAddress
	Graph           graph.Graph
	ReferenceDate   time.Time
}

// Info describes a successful build.
type Info struct {
	BuildID  uuid.UUID
	Path     string
	Rows     map[string]int
	Duration time.Duration
}

// Builder builds artifacts at one target path. Builds against the same path
// must not run concurrently.
type Builder struct {
	path    string
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Builder)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// New constructs a Builder for the artifact at path.
func New(path string, opts ...Option) (*Builder, error) {
	if path == "" {
		return nil, dErrors.New(dErrors.CodeConfig, "artifact path is required")
	}
	b := &Builder{path: path, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b, nil
}

// Path returns the final artifact path.
func (b *Builder) Path() string {
	return b.path
}

// Build writes a into a temporary artifact and swaps it in. On failure the
// temporary file is removed and the error of the failing step is returned
// unwrapped.
func (b *Builder) Build(ctx context.Context, a Artifact) (info Info, err error) {
	start := time.Now()
	buildID := uuid.New()
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Info{}, fmt.Errorf("create artifact dir: %w", err)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(b.path)+"."+buildID.String()+".tmp")

	logger := b.logger.With("build_id", buildID.String())
	defer func() {
		if err != nil {
			removeArtifact(tmp)
			b.metrics.ObserveBuild("failure", time.Since(start))
			logger.ErrorContext(ctx, "artifact build failed, previous artifact kept", "error", err)
		}
	}()

	db, err := openArtifact(tmp)
	if err != nil {
		return Info{}, err
	}
	rows, err := b.write(ctx, db, a, buildID)
	closeErr := db.Close()
	if err != nil {
		return Info{}, err
	}
	if closeErr != nil {
		return Info{}, closeErr
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return Info{}, err
	}

	info = Info{BuildID: buildID, Path: b.path, Rows: rows, Duration: time.Since(start)}
	b.metrics.ObserveBuild("success", info.Duration)
	for table, n := range rows {
		b.metrics.AddRowsLoaded(table, n)
	}
	logger.InfoContext(ctx, "artifact built", "path", b.path, "duration", info.Duration)
	return info, nil
}

func openArtifact(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// removeArtifact deletes a temporary artifact and any SQLite side files.
func removeArtifact(path string) {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("could not remove temporary artifact", "path", p, "error", err)
		}
	}
}

func (b *Builder) write(ctx context.Context, db *sql.DB, a Artifact, buildID uuid.UUID) (map[string]int, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return nil, err
	}
	if _, err := provider.Up(ctx); err != nil {
		return nil, err
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	ctx = tx.WithTx(ctx, sqlTx)

	l := &loader{db: db, rows: map[string]int{}}
	steps := []func(context.Context, Artifact) error{
		l.companies,
		l.partners,
		l.partnerSanctions,
		l.contracts,
		l.sanctions,
		l.donations,
		l.employeeCounts,
		l.scores,
		l.scoreDetails,
		l.alerts,
		l.sharedAddresses,
		l.graphNodes,
		l.graphEdges,
		func(ctx context.Context, a Artifact) error {
			return l.buildInfo(ctx, a, buildID, b.now())
		},
	}
	for _, step := range steps {
		if err := step(ctx, a); err != nil {
			_ = sqlTx.Rollback()
			return nil, err
		}
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, err
	}
	return l.rows, nil
}
