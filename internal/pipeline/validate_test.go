package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar/internal/staging"
	id "radar/pkg/domain"
)

func TestValidate(t *testing.T) {
	snap, err := stagedSource().Load(context.Background())
	require.NoError(t, err)

	v, report := Validate(snap)

	t.Run("companies", func(t *testing.T) {
		require.Len(t, v.Companies, 2)
		assert.Equal(t, id.MustParseCNPJ(alfa), v.Companies[0].CNPJ)
		assert.Equal(t, "800.00", v.Companies[0].Capital.String())
		assert.Nil(t, v.Companies[0].OpenedAt)
		assert.Equal(t, map[string]int{
			ReasonInvalidIdentifier: 1,
			ReasonDuplicate:         1,
			ReasonMissingField:      1,
			ReasonInvalidDate:       1,
		}, report.Tables[staging.TableCompanies].Dropped)
	})

	t.Run("partners accept a root or a full identifier", func(t *testing.T) {
		require.Len(t, v.Partners, 2)
		assert.Equal(t, "11222333", v.Partners[0].CompanyRoot)
		assert.Equal(t, "11444777", v.Partners[1].CompanyRoot)
		assert.Equal(t, 1, report.Tables[staging.TablePartners].Dropped[ReasonInvalidIdentifier])
	})

	t.Run("contracts", func(t *testing.T) {
		require.Len(t, v.Contracts, 4)
		assert.Equal(t, "50000.00", v.Contracts[1].Value.String())
		assert.Equal(t, time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), v.Contracts[1].SignedAt)
		assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), v.Contracts[2].SignedAt)
		assert.Equal(t, ghost, v.Contracts[3].CompanyIdentifier, "unknown suppliers are kept for resolution")
		assert.Equal(t, map[string]int{ReasonInvalidAmount: 1, ReasonDuplicate: 1},
			report.Tables[staging.TableContracts].Dropped)
	})

	t.Run("masked individuals are classified", func(t *testing.T) {
		require.Len(t, v.Sanctions, 1)
		assert.Equal(t, id.IdentifierIndividual, v.Sanctions[0].TargetKind)
		assert.Equal(t, 1, report.Tables[staging.TableSanctions].Dropped[ReasonInvalidDate])

		require.Len(t, v.Donations, 1)
		assert.Equal(t, id.IdentifierIndividual, v.Donations[0].DonorKind)
	})

	t.Run("servants without a name are dropped", func(t *testing.T) {
		require.Len(t, v.Servants, 1)
		assert.Equal(t, 1, report.Tables[staging.TableServants].Dropped[ReasonMissingField])
	})

	assert.False(t, v.HasEmployeeRegistry)
	assert.Equal(t, 10, report.Dropped())
}

func TestValidate_EmployeeCounts(t *testing.T) {
	src := stagedSource().Stage(staging.TableEmployeeCounts, []staging.EmployeeCountRecord{
		{CNPJ: alfa, Count: "0"},
		{CNPJ: alfa, Count: "3"},
		{CNPJ: ghost, Count: "12"},
		{CNPJ: beta, Count: "-1"},
	})
	snap, err := src.Load(context.Background())
	require.NoError(t, err)

	v, report := Validate(snap)

	assert.True(t, v.HasEmployeeRegistry)
	require.Len(t, v.EmployeeCounts, 1)
	assert.Equal(t, 0, v.EmployeeCounts[0].Count)
	assert.Equal(t, map[string]int{
		ReasonDuplicate:      1,
		ReasonUnknownCompany: 1,
		ReasonInvalidAmount:  1,
	}, report.Tables[staging.TableEmployeeCounts].Dropped)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2022-05-01", true, time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"01/05/2022", true, time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"20220501", true, time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)},
		{" 2022-05-01 ", true, time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2022-13-01", false, time.Time{}},
		{"", false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	unknown, ok := optionalDate("00000000")
	assert.True(t, ok)
	assert.Nil(t, unknown)
}

func FuzzValidateCompany(f *testing.F) {
	f.Add("11222333000181", "ALFA", "2020-01-01", "1.000,00")
	f.Add("", "", "", "")
	f.Add("11222333000182", "X", "31/02/2020", "-1")
	f.Fuzz(func(t *testing.T, cnpj, name, opened, capital string) {
		c, reason := validateCompany(staging.CompanyRecord{CNPJ: cnpj, LegalName: name, OpenedAt: opened, Capital: capital})
		if reason != "" {
			return
		}
		if c.CNPJ.IsNil() || c.LegalName == "" {
			t.Fatalf("accepted company without identity: %+v", c)
		}
		if c.Capital != nil && c.Capital.Decimal().IsNegative() {
			t.Fatalf("accepted negative capital %s", c.Capital)
		}
	})
}
