// Package postgres reads staged tables from the ingestion Postgres database.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"radar/internal/staging"
	"radar/pkg/platform/sentinel"
)

// Source reads staged tables from one schema.
type Source struct {
	pool   *pgxpool.Pool
	schema string
}

type Option func(*Source)

// WithSchema reads tables from schema instead of "public".
func WithSchema(schema string) Option {
	return func(s *Source) {
		s.schema = schema
	}
}

// Connect opens a pool against url.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse staging url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open staging pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping staging: %v", sentinel.ErrUnavailable, err)
	}
	return pool, nil
}

// New wraps an open pool. The pool lifecycle stays with the caller.
func New(pool *pgxpool.Pool, opts ...Option) *Source {
	s := &Source{pool: pool, schema: "public"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) ident(table staging.Table) string {
	return pgx.Identifier{s.schema, string(table)}.Sanitize()
}

func allTables() []staging.Table {
	return append(append([]staging.Table{}, staging.RequiredTables...), staging.OptionalTables...)
}

// Inventory counts rows of every known table that exists in the schema.
func (s *Source) Inventory(ctx context.Context) (staging.Inventory, error) {
	inv := staging.Inventory{}
	for _, table := range allTables() {
		var exists bool
		err := s.pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = $1 AND table_name = $2
			)`, s.schema, string(table)).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("inspect staging table %s: %w", table, err)
		}
		if !exists {
			continue
		}
		var n int
		if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+s.ident(table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("count staging table %s: %w", table, err)
		}
		inv[table] = n
	}
	return inv, nil
}

// Load reads every staged table in full. Columns are read as text; NULL
// becomes "".
func (s *Source) Load(ctx context.Context) (*staging.Snapshot, error) {
	inv, err := s.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	snap := &staging.Snapshot{Inventory: inv}

	if snap.Companies, err = collect[staging.CompanyRecord](ctx, s, inv, staging.TableCompanies,
		"cnpj", "legal_name", "status", "opened_at", "capital", "primary_activity", "address"); err != nil {
		return nil, err
	}
	if snap.Partners, err = collect[staging.PartnerRecord](ctx, s, inv, staging.TablePartners,
		"company", "identifier", "name", "role"); err != nil {
		return nil, err
	}
	if snap.Contracts, err = collect[staging.ContractRecord](ctx, s, inv, staging.TableContracts,
		"id", "company_identifier", "agency_code", "value", "signed_at", "object", "tender_number"); err != nil {
		return nil, err
	}
	if snap.Sanctions, err = collect[staging.SanctionRecord](ctx, s, inv, staging.TableSanctions,
		"id", "target_identifier", "target_name", "type", "body", "start_date", "end_date"); err != nil {
		return nil, err
	}
	if snap.Donations, err = collect[staging.DonationRecord](ctx, s, inv, staging.TableDonations,
		"id", "donor_identifier", "donor_name", "recipient", "value", "election_year"); err != nil {
		return nil, err
	}
	if snap.Servants, err = collect[staging.ServantRecord](ctx, s, inv, staging.TableServants,
		"name", "masked_identifier", "organization"); err != nil {
		return nil, err
	}
	if snap.EmployeeCounts, err = collect[staging.EmployeeCountRecord](ctx, s, inv, staging.TableEmployeeCounts,
		"cnpj", "count"); err != nil {
		return nil, err
	}
	return snap, nil
}

// collect reads table into T by column name. Absent tables yield nil.
func collect[T any](ctx context.Context, s *Source, inv staging.Inventory, table staging.Table, columns ...string) ([]T, error) {
	if _, ok := inv[table]; !ok {
		return nil, nil
	}
	selects := make([]string, len(columns))
	for i, c := range columns {
		col := pgx.Identifier{c}.Sanitize()
		selects[i] = "COALESCE(" + col + "::text, '') AS " + col
	}
	query := "SELECT " + strings.Join(selects, ", ") + " FROM " + s.ident(table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read staging table %s: %w", table, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scan staging table %s: %w", table, err)
	}
	return out, nil
}
