package build

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"radar/internal/alert"
	"radar/internal/build/metrics"
	"radar/internal/domain"
	"radar/internal/enrichment"
	"radar/internal/graph"
	"radar/internal/score"
	"radar/internal/staging"
	"radar/internal/staging/memory"
	id "radar/pkg/domain"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/sentinel"
)

var (
	ref   = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cnpjA = id.MustParseCNPJ("11222333000181")
	cnpjB = id.MustParseCNPJ("11444777000161")
	ghost = id.MustParseCNPJ("98765432000198")
)

// ============================================================================
// Completeness gate
// ============================================================================

func fullInventory() staging.Inventory {
	inv := staging.Inventory{}
	for _, t := range staging.RequiredTables {
		inv[t] = 1
	}
	return inv
}

func TestCheckCompleteness(t *testing.T) {
	t.Run("all required present, optional absent", func(t *testing.T) {
		missing, err := CheckCompleteness(fullInventory())
		require.NoError(t, err)
		assert.Equal(t, []staging.Table{staging.TableEmployeeCounts}, missing)
	})

	t.Run("missing required table", func(t *testing.T) {
		inv := fullInventory()
		delete(inv, staging.TableServants)
		_, err := CheckCompleteness(inv)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeIncomplete))
		assert.ErrorIs(t, err, sentinel.ErrMissingTable)
		assert.Contains(t, err.Error(), "civil_servants")
	})

	t.Run("empty required table", func(t *testing.T) {
		inv := fullInventory()
		inv[staging.TableDonations] = 0
		_, err := CheckCompleteness(inv)
		assert.ErrorIs(t, err, sentinel.ErrEmptyTable)
		assert.Contains(t, err.Error(), "donations")
	})

	t.Run("empty optional table is fine", func(t *testing.T) {
		inv := fullInventory()
		inv[staging.TableEmployeeCounts] = 0
		missing, err := CheckCompleteness(inv)
		require.NoError(t, err)
		assert.Empty(t, missing)
	})
}

func TestGate_NeverTouchesArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radar.db")
	b, err := New(path)
	require.NoError(t, err)

	src := memory.New().Stage(staging.TableCompanies, []staging.CompanyRecord{{CNPJ: cnpjA.String()}})
	err = b.Gate(context.Background(), src)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeIncomplete))

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

// ============================================================================
// Foreign-key resolution
// ============================================================================

func TestResolveForeignKeys(t *testing.T) {
	ds := domain.Dataset{
		Companies: []domain.Company{{CNPJ: cnpjA}},
		Contracts: []domain.Contract{
			{ID: "C1", CompanyIdentifier: "11.222.333/0001-81"},
			{ID: "C2", CompanyIdentifier: ghost.Formatted()},
		},
		Sanctions: []domain.Sanction{
			{ID: "S1", TargetIdentifier: "11222333000181", TargetKind: id.IdentifierCompany},
			{ID: "S2", TargetIdentifier: "ab12", TargetKind: id.IdentifierIndividual},
		},
		Donations: []domain.Donation{
			{ID: "D1", DonorIdentifier: "11.222.333/0001-81", DonorKind: id.IdentifierCompany},
			{ID: "D2", DonorIdentifier: "11222333000181", DonorKind: id.IdentifierIndividual},
		},
	}

	out, res := ResolveForeignKeys(ds)

	assert.Equal(t, cnpjA, out.Contracts[0].CompanyRef)
	assert.True(t, out.Contracts[1].CompanyRef.IsNil())
	assert.Equal(t, cnpjA, out.Sanctions[0].CompanyRef)
	assert.True(t, out.Sanctions[1].CompanyRef.IsNil(), "individual sanctions stay unresolved")
	assert.Equal(t, cnpjA, out.Donations[0].CompanyRef)
	assert.True(t, out.Donations[1].CompanyRef.IsNil(), "individual donors are never resolved")
	assert.Equal(t, Resolution{
		Contracts: 1, ContractsUnresolved: 1,
		Sanctions: 1, SanctionsUnresolved: 1,
		Donations: 1, DonationsUnresolved: 1,
	}, res)
	assert.True(t, ds.Contracts[0].CompanyRef.IsNil(), "input is not modified")
}

// ============================================================================
// Atomic build
// ============================================================================

type BuildSuite struct {
	suite.Suite
	dir     string
	path    string
	reg     *prometheus.Registry
	builder *Builder
}

func TestBuildSuite(t *testing.T) {
	suite.Run(t, new(BuildSuite))
}

func (s *BuildSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.path = filepath.Join(s.dir, "radar.db")
	s.reg = prometheus.NewRegistry()
	b, err := New(s.path, WithMetrics(metrics.New(s.reg)))
	s.Require().NoError(err)
	s.builder = b
}

func validArtifact() Artifact {
	capital := id.MustMoney("800")
	opened := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	ds := domain.Dataset{
		Companies: []domain.Company{
			{CNPJ: cnpjA, LegalName: "ALFA", Capital: &capital, OpenedAt: &opened},
			{CNPJ: cnpjB, LegalName: "BETA"},
		},
		Partners: []domain.Partner{{CompanyRoot: cnpjA.Root(), IdentifierHash: "ab", Name: "ANA"}},
		Contracts: []domain.Contract{
			{ID: "C1", CompanyIdentifier: cnpjA.Formatted(), AgencyCode: "26000", Value: id.MustMoney("150000"), SignedAt: ref},
			{ID: "C2", CompanyIdentifier: ghost.String(), AgencyCode: "26000", Value: id.MustMoney("1"), SignedAt: ref},
		},
		EmployeeCounts:      []domain.EmployeeCount{{CNPJ: cnpjB, Count: 3}},
		HasEmployeeRegistry: true,
	}
	ds, _ = ResolveForeignKeys(ds)
	return Artifact{
		Dataset:   ds,
		Suppliers: map[string]bool{cnpjA.String(): true},
		Scores: []score.Score{{
			CNPJ: cnpjA, Value: 15, Band: score.BandLow, ReferenceDate: ref,
			Indicators: []score.Indicator{{Type: score.IndicatorLowCapital, Weight: 15, Description: "d", Evidence: "e"}},
		}},
		Alerts: []alert.Alert{{
			CNPJ: cnpjA, Type: alert.TypeFrontCompany, Severity: alert.SeverityGravissimo,
			Description: "d", Evidence: "capital_social=800.00", DetectedAt: ref,
		}},
		SharedAddresses: []enrichment.SharedAddress{{A: cnpjA, B: cnpjB, Key: enrichment.AddressKey{Street: "RUA A", Number: "1"}}},
		Graph: graph.Graph{
			Nodes: []graph.Node{{ID: "PJ:" + cnpjA.String(), Kind: graph.NodeCompany}, {ID: "PF:ab|ANA", Kind: graph.NodePartner}},
			Edges: []graph.Edge{{Source: "PF:ab|ANA", Target: "PJ:" + cnpjA.String()}},
		},
		ReferenceDate: ref,
	}
}

func (s *BuildSuite) count(table string) int {
	db, err := sql.Open("sqlite", "file:"+s.path+"?mode=ro")
	s.Require().NoError(err)
	defer db.Close()
	var n int
	s.Require().NoError(db.QueryRow("SELECT count(*) FROM " + table).Scan(&n))
	return n
}

func (s *BuildSuite) entries() []string {
	es, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	var names []string
	for _, e := range es {
		names = append(names, e.Name())
	}
	return names
}

func (s *BuildSuite) TestBuildWritesEveryTable() {
	info, err := s.builder.Build(context.Background(), validArtifact())
	s.Require().NoError(err)

	s.Equal(s.path, info.Path)
	s.Equal([]string{"radar.db"}, s.entries())
	s.Equal(2, s.count("company"))
	s.Equal(2, s.count("contract"))
	s.Equal(1, s.count("score_detail"))
	s.Equal(1, s.count("alert"))
	s.Equal(1, s.count("graph_edge"))
	s.Equal(5, s.count("build_info"))
	s.Equal(2, info.Rows["contract"])

	db, err := sql.Open("sqlite", "file:"+s.path+"?mode=ro")
	s.Require().NoError(err)
	defer db.Close()
	var unresolved int
	s.Require().NoError(db.QueryRow("SELECT count(*) FROM contract WHERE company_id IS NULL").Scan(&unresolved))
	s.Equal(1, unresolved, "contract of an unknown company keeps a NULL reference")
}

// TestFailedBuildLeavesPreviousArtifact covers the crash-safety contract: an
// integrity violation removes the temporary file and the existing artifact
// keeps its content and modification time.
func (s *BuildSuite) TestFailedBuildLeavesPreviousArtifact() {
	ctx := context.Background()
	_, err := s.builder.Build(ctx, validArtifact())
	s.Require().NoError(err)

	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	s.Require().NoError(os.Chtimes(s.path, old, old))

	broken := validArtifact()
	broken.Scores = append(broken.Scores, score.Score{CNPJ: ghost, Value: 10, Band: score.BandLow, ReferenceDate: ref})

	_, err = s.builder.Build(ctx, broken)
	s.Require().Error(err)
	s.Contains(err.Error(), "FOREIGN KEY")

	s.Equal([]string{"radar.db"}, s.entries(), "no temporary artifact left")
	st, err := os.Stat(s.path)
	s.Require().NoError(err)
	s.True(st.ModTime().Equal(old))
	s.Equal(1, s.count("score"))

	expected := `
# HELP radar_build_total Total artifact builds by result
# TYPE radar_build_total counter
radar_build_total{result="failure"} 1
radar_build_total{result="success"} 1
`
	s.NoError(promtest.GatherAndCompare(s.reg, strings.NewReader(expected), "radar_build_total"))
}

func (s *BuildSuite) TestFailedFirstBuildLeavesNothing() {
	broken := validArtifact()
	broken.Alerts[0].CNPJ = ghost

	_, err := s.builder.Build(context.Background(), broken)
	s.Require().Error(err)
	s.Empty(s.entries())
}

func (s *BuildSuite) TestRebuildReplacesArtifact() {
	ctx := context.Background()
	first, err := s.builder.Build(ctx, validArtifact())
	s.Require().NoError(err)

	next := validArtifact()
	next.Alerts = nil
	second, err := s.builder.Build(ctx, next)
	s.Require().NoError(err)

	s.NotEqual(first.BuildID, second.BuildID)
	s.Equal(0, s.count("alert"))
}
