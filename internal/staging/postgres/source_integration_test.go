//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"radar/internal/staging"
	"radar/internal/staging/postgres"
	"radar/pkg/testutil/containers"
)

type SourceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	source   *postgres.Source
}

func TestSourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SourceSuite))
}

func (s *SourceSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.source = postgres.New(s.postgres.Pool)
}

func (s *SourceSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.DropTables(ctx,
		"companies", "partners", "contracts", "sanctions", "donations", "civil_servants", "employee_counts"))
	s.Require().NoError(s.postgres.Exec(ctx, `
		CREATE TABLE companies (
			cnpj text NOT NULL, legal_name text, status text, opened_at date,
			capital numeric(18,2), primary_activity text, address text
		);
		CREATE TABLE partners (company text, identifier text, name text, role text);
		CREATE TABLE contracts (
			id text, company_identifier text, agency_code text, value numeric(18,2),
			signed_at date, object text, tender_number text
		);
	`))
}

func (s *SourceSuite) TestInventorySkipsAbsentTables() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Exec(ctx,
		`INSERT INTO companies (cnpj, legal_name) VALUES ('11.222.333/0001-81', 'ALFA'), ('11444777000161', 'BETA')`))

	inv, err := s.source.Inventory(ctx)
	s.Require().NoError(err)
	s.Equal(staging.Inventory{
		staging.TableCompanies: 2,
		staging.TablePartners:  0,
		staging.TableContracts: 0,
	}, inv)
}

func (s *SourceSuite) TestLoadReadsTextAndNulls() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Exec(ctx, `
		INSERT INTO companies (cnpj, legal_name, opened_at, capital) VALUES ('11222333000181', 'ALFA', '2023-01-15', 800.00);
		INSERT INTO contracts (id, company_identifier, agency_code, value, signed_at, tender_number)
			VALUES ('C1', '11.222.333/0001-81', '26000', 150000.00, '2023-03-01', NULL);
	`))

	snap, err := s.source.Load(ctx)
	s.Require().NoError(err)

	s.Require().Len(snap.Companies, 1)
	s.Equal("2023-01-15", snap.Companies[0].OpenedAt)
	s.Equal("800.00", snap.Companies[0].Capital)
	s.Equal("", snap.Companies[0].Address)

	s.Require().Len(snap.Contracts, 1)
	s.Equal("150000.00", snap.Contracts[0].Value)
	s.Equal("", snap.Contracts[0].TenderNumber)

	s.False(snap.Has(staging.TableSanctions))
	s.Nil(snap.Sanctions)
}
