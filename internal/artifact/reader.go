// Package artifact reads a finished analytical artifact. Readers only ever
// open a completed file; the build swaps files by rename, so an open Reader
// keeps seeing the build it opened.
package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"radar/internal/alert"
	"radar/internal/build"
	"radar/internal/graph"
	"radar/internal/score"
	id "radar/pkg/domain"
	"radar/pkg/platform/sentinel"
)

// Reader is a read-only handle on one artifact file.
type Reader struct {
	db            *sql.DB
	buildID       string
	referenceDate time.Time
}

// Open opens the artifact at path read-only. It returns sentinel.ErrNotFound
// when no artifact has been built yet.
func Open(ctx context.Context, path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: artifact %s", sentinel.ErrNotFound, path)
		}
		return nil, err
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	r := &Reader{db: db}
	if err := r.loadInfo(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) loadInfo(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM build_info`)
	if err != nil {
		return fmt.Errorf("query build info: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan build info: %w", err)
		}
		switch key {
		case build.InfoBuildID:
			r.buildID = value
		case build.InfoReferenceDate:
			if r.referenceDate, err = time.Parse(time.DateOnly, value); err != nil {
				return fmt.Errorf("parse reference date: %w", err)
			}
		}
	}
	return rows.Err()
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// BuildID identifies the build this artifact came from.
func (r *Reader) BuildID() string {
	return r.buildID
}

func (r *Reader) ReferenceDate() time.Time {
	return r.referenceDate
}

// Score returns the score of cnpj with its active indicators in evaluation
// order.
func (r *Reader) Score(ctx context.Context, cnpj id.CNPJ) (score.Score, error) {
	var (
		s       = score.Score{CNPJ: cnpj}
		band    string
		refDate string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT value, band, reference_date FROM score WHERE company_id = ?`, cnpj.String(),
	).Scan(&s.Value, &band, &refDate)
	if errors.Is(err, sql.ErrNoRows) {
		return score.Score{}, fmt.Errorf("%w: score for %s", sentinel.ErrNotFound, cnpj)
	}
	if err != nil {
		return score.Score{}, fmt.Errorf("get score: %w", err)
	}
	s.Band = score.Band(band)
	if s.ReferenceDate, err = time.Parse(time.DateOnly, refDate); err != nil {
		return score.Score{}, fmt.Errorf("parse score reference date: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT indicator, weight, description, evidence
		FROM score_detail
		WHERE company_id = ?
		ORDER BY rowid`, cnpj.String())
	if err != nil {
		return score.Score{}, fmt.Errorf("query score detail: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ind score.Indicator
			typ string
		)
		if err := rows.Scan(&typ, &ind.Weight, &ind.Description, &ind.Evidence); err != nil {
			return score.Score{}, fmt.Errorf("scan score detail: %w", err)
		}
		ind.Type = score.IndicatorType(typ)
		s.Indicators = append(s.Indicators, ind)
	}
	if err := rows.Err(); err != nil {
		return score.Score{}, fmt.Errorf("iterate score detail: %w", err)
	}
	return s, nil
}

// Alerts returns every stored alert of cnpj.
func (r *Reader) Alerts(ctx context.Context, cnpj id.CNPJ) ([]alert.Alert, error) {
	return r.alerts(ctx, cnpj, func(alert.Type) bool { return true })
}

// PopulationAlerts returns the stored alerts that only the batch can detect.
func (r *Reader) PopulationAlerts(ctx context.Context, cnpj id.CNPJ) ([]alert.Alert, error) {
	return r.alerts(ctx, cnpj, alert.Type.PopulationOnly)
}

func (r *Reader) alerts(ctx context.Context, cnpj id.CNPJ, keep func(alert.Type) bool) ([]alert.Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT type, severity, description, evidence, detected_at
		FROM alert
		WHERE company_id = ?
		ORDER BY type, evidence`, cnpj.String())
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []alert.Alert
	for rows.Next() {
		var (
			a              = alert.Alert{CNPJ: cnpj}
			typ, sev, when string
		)
		if err := rows.Scan(&typ, &sev, &a.Description, &a.Evidence, &when); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Type = alert.Type(typ)
		a.Severity = alert.Severity(sev)
		if a.DetectedAt, err = time.Parse(time.RFC3339, when); err != nil {
			return nil, fmt.Errorf("parse alert timestamp: %w", err)
		}
		if keep(a.Type) {
			out = append(out, a)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

// Neighborhood returns the graph nodes within two hops of cnpj and the edges
// among them. The requested company is always the first node; the rest are
// ordered by hop distance and then by identifier. It has the shape of a
// cache.Loader.
func (r *Reader) Neighborhood(ctx context.Context, cnpj id.CNPJ) ([]graph.Node, []graph.Edge, error) {
	start := graph.CompanyNodeID(cnpj)
	var startNode graph.Node
	var kind string
	err := r.db.QueryRowContext(ctx, `SELECT id, kind, label FROM graph_node WHERE id = ?`, start).
		Scan(&startNode.ID, &kind, &startNode.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: graph node for %s", sentinel.ErrNotFound, cnpj)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get graph node: %w", err)
	}
	startNode.Kind = graph.NodeKind(kind)

	nodes := []graph.Node{startNode}
	seen := map[string]bool{start: true}
	edgeSeen := map[graph.Edge]bool{}
	var edges []graph.Edge
	addEdge := func(e graph.Edge) {
		if !edgeSeen[e] {
			edgeSeen[e] = true
			edges = append(edges, e)
		}
	}
	frontier := []string{start}
	for hop := 0; hop < 2 && len(frontier) > 0; hop++ {
		var next []string
		for _, nodeID := range frontier {
			touching, err := r.edgesOf(ctx, nodeID)
			if err != nil {
				return nil, nil, err
			}
			for _, e := range touching {
				addEdge(e)
				other := e.Target
				if other == nodeID {
					other = e.Source
				}
				if !seen[other] {
					seen[other] = true
					next = append(next, other)
				}
			}
		}
		sort.Strings(next)
		for _, nodeID := range next {
			n, err := r.node(ctx, nodeID)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)
		}
		frontier = next
	}
	// Edges among the outermost nodes.
	for _, nodeID := range frontier {
		touching, err := r.edgesOf(ctx, nodeID)
		if err != nil {
			return nil, nil, err
		}
		for _, e := range touching {
			if seen[e.Source] && seen[e.Target] {
				addEdge(e)
			}
		}
	}

	kept := edges[:0]
	for _, e := range edges {
		if seen[e.Source] && seen[e.Target] {
			kept = append(kept, e)
		}
	}
	return nodes, kept, nil
}

func (r *Reader) node(ctx context.Context, nodeID string) (graph.Node, error) {
	var (
		n    graph.Node
		kind string
	)
	if err := r.db.QueryRowContext(ctx, `SELECT id, kind, label FROM graph_node WHERE id = ?`, nodeID).
		Scan(&n.ID, &kind, &n.Label); err != nil {
		return graph.Node{}, fmt.Errorf("get graph node: %w", err)
	}
	n.Kind = graph.NodeKind(kind)
	return n, nil
}

func (r *Reader) edgesOf(ctx context.Context, nodeID string) ([]graph.Edge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source, target, level, label FROM graph_edge WHERE source = ?1
		UNION
		SELECT source, target, level, label FROM graph_edge WHERE target = ?1
		ORDER BY level, source, target`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("query graph edges: %w", err)
	}
	defer rows.Close()
	var out []graph.Edge
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Level, &e.Label); err != nil {
			return nil, fmt.Errorf("scan graph edge: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graph edges: %w", err)
	}
	return out, nil
}

// CompanyInput loads what the per-entity alert rules need for cnpj: the
// company, the enriched partners of its root and its resolved facts.
func (r *Reader) CompanyInput(ctx context.Context, cnpj id.CNPJ) (alert.CompanyInput, error) {
	c, err := r.company(ctx, cnpj)
	if err != nil {
		return alert.CompanyInput{}, err
	}
	in := alert.CompanyInput{Company: c}
	if in.Partners, err = r.partners(ctx, cnpj.Root()); err != nil {
		return alert.CompanyInput{}, err
	}
	if in.Contracts, err = r.contracts(ctx, cnpj); err != nil {
		return alert.CompanyInput{}, err
	}
	if in.Sanctions, err = r.sanctions(ctx, cnpj); err != nil {
		return alert.CompanyInput{}, err
	}
	if in.Donations, err = r.donations(ctx, cnpj); err != nil {
		return alert.CompanyInput{}, err
	}
	return in, nil
}

// RealtimeAlerts evaluates the per-entity rules for cnpj on ref and merges
// in the batch-only alerts stored in this artifact.
func (r *Reader) RealtimeAlerts(ctx context.Context, cnpj id.CNPJ, ref, now time.Time, cfg alert.Config) ([]alert.Alert, error) {
	in, err := r.CompanyInput(ctx, cnpj)
	if err != nil {
		return nil, err
	}
	population, err := r.PopulationAlerts(ctx, cnpj)
	if err != nil {
		return nil, err
	}
	return alert.Merge(cnpj, alert.EvaluateCompany(in, ref, now, cfg), population), nil
}
