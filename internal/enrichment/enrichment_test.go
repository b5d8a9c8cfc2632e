package enrichment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radar/internal/domain"
	id "radar/pkg/domain"
)

var (
	cnpjA = id.MustParseCNPJ("11222333000181")
	cnpjB = id.MustParseCNPJ("11444777000161")
	cnpjC = id.MustParseCNPJ("12345678000195")
	cnpjD = id.MustParseCNPJ("98765432000198")
)

func company(cnpj id.CNPJ, name, address string) domain.Company {
	return domain.Company{CNPJ: cnpj, LegalName: name, Address: address}
}

func partner(root, hash, name string) domain.Partner {
	return domain.Partner{CompanyRoot: root, IdentifierHash: hash, Name: name}
}

func contract(cnpj id.CNPJ) domain.Contract {
	return domain.Contract{CompanyIdentifier: cnpj.Formatted(), Value: id.MustMoney("1000"), SignedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestPropagateSanctions(t *testing.T) {
	end := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	companies := []domain.Company{
		company(cnpjA, "ALFA LTDA", ""),
		company(cnpjB, "BETA LTDA", ""),
	}
	sanctions := []domain.Sanction{
		// Expired long ago: propagation tracks history, not active status.
		{TargetIdentifier: "11.444.777/0001-61", TargetKind: id.IdentifierCompany, StartDate: end.AddDate(-2, 0, 0), EndDate: &end},
		{TargetIdentifier: "hash-of-person", TargetKind: id.IdentifierIndividual, StartDate: end},
	}
	partners := []domain.Partner{
		partner(cnpjA.Root(), "h1", "Joao"),
		partner(cnpjB.Root(), "h1", "Joao"),
		partner(cnpjA.Root(), "h2", "Ana"),
	}

	roots := SanctionedRoots(companies, sanctions)
	require.Len(t, roots, 1)

	got := PropagateSanctions(partners, roots)

	t.Run("flags every row of the affiliated person", func(t *testing.T) {
		assert.True(t, got[0].IsSanctioned)
		assert.True(t, got[1].IsSanctioned)
		assert.Equal(t, []domain.CompanyRef{{CNPJ: cnpjB, Name: "BETA LTDA"}}, got[0].SanctionedVia)
	})

	t.Run("leaves unaffiliated people clean", func(t *testing.T) {
		assert.False(t, got[2].IsSanctioned)
		assert.Empty(t, got[2].SanctionedVia)
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		assert.False(t, partners[0].IsSanctioned)
	})

	t.Run("unknown sanctioned company keeps published name", func(t *testing.T) {
		roots := SanctionedRoots(nil, []domain.Sanction{{TargetIdentifier: "12345678000195", TargetKind: id.IdentifierCompany, TargetName: "GAMA SA"}})
		assert.Equal(t, []domain.CompanyRef{{CNPJ: cnpjC, Name: "GAMA SA"}}, roots[cnpjC.Root()])
	})
}

func TestCountGovernmentCompanies(t *testing.T) {
	ds := domain.Dataset{
		Companies: []domain.Company{company(cnpjA, "A", ""), company(cnpjB, "B", ""), company(cnpjC, "C", ""), company(cnpjD, "D", "")},
		Contracts: []domain.Contract{contract(cnpjA), contract(cnpjB), contract(cnpjC)},
	}
	ix := domain.NewIndex(ds)
	partners := []domain.Partner{
		partner(cnpjA.Root(), "x1", "Carlos Souza"),
		partner(cnpjB.Root(), "x2", " carlos souza "),
		partner(cnpjC.Root(), "x3", "CARLOS SOUZA"),
		partner(cnpjD.Root(), "x4", "Carlos Souza"), // not a supplier
		partner(cnpjA.Root(), "x5", "Carlos Souza"), // same company twice
		partner(cnpjA.Root(), "x6", "Outra Pessoa"),
		partner(cnpjD.Root(), "x7", ""),
	}

	got := CountGovernmentCompanies(partners, SupplierRoots(ix))

	for i := 0; i < 5; i++ {
		assert.Equal(t, 3, got[i].GovernmentCompanyCount, "row %d", i)
	}
	assert.Equal(t, 1, got[5].GovernmentCompanyCount)
	assert.Equal(t, 0, got[6].GovernmentCompanyCount)
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		input string
		want  AddressKey
		ok    bool
	}{
		{"Rua das Flores, 100", AddressKey{"RUA DAS FLORES", "100"}, true},
		{"RUA DAS FLORES 100 SALA 2", AddressKey{"RUA DAS FLORES", "100"}, true},
		{"rua das flores, nº 100, 3º andar", AddressKey{"RUA DAS FLORES", "100"}, true},
		{"Av. São João, N. 55 - Conj 12", AddressKey{"AV. SAO JOAO", "55"}, true},
		{"Rua Joan 9", AddressKey{"RUA JOAN", "9"}, true},
		{"Rua 7 de Setembro, 100", AddressKey{"RUA 7 DE SETEMBRO", "100"}, true},
		{"Rua 7 de Setembro, nº 250, loja 3", AddressKey{"RUA 7 DE SETEMBRO", "250"}, true},
		{"Rua 7 de Setembro, Centro, 100", AddressKey{"RUA 7 DE SETEMBRO, CENTRO", "100"}, true},
		{"Rua 7 de Setembro 100", AddressKey{"RUA", "7"}, true},
		{"Rua sem numero", AddressKey{}, false},
		{"123", AddressKey{}, false},
		{"", AddressKey{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeAddress(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSharedAddresses(t *testing.T) {
	companies := []domain.Company{
		company(cnpjC, "C", "Rua das Flores, 100, sala 1"),
		company(cnpjA, "A", "RUA DAS FLORES 100 SALA 9"),
		company(cnpjB, "B", "rua das flores, nº 100"),
		company(cnpjD, "D", "Rua das Flores, 101"),
		company(cnpjA, "A duplicate", "Rua das Flores, 100"),
	}

	got := SharedAddresses(companies)

	key := AddressKey{Street: "RUA DAS FLORES", Number: "100"}
	assert.Equal(t, []SharedAddress{
		{A: cnpjA, B: cnpjB, Key: key},
		{A: cnpjA, B: cnpjC, Key: key},
		{A: cnpjB, B: cnpjC, Key: key},
	}, got)
	for _, p := range got {
		assert.Less(t, p.A.String(), p.B.String())
	}
	assert.Equal(t, cnpjB, got[0].Other(cnpjA))
}

func TestEnrich(t *testing.T) {
	ds := domain.Dataset{
		Companies: []domain.Company{
			company(cnpjA, "A", "Rua X, 1"),
			company(cnpjB, "B", "Rua X, 1"),
			company(cnpjC, "C", "Rua X, 1"), // not a supplier
		},
		Contracts: []domain.Contract{contract(cnpjA), contract(cnpjB)},
		Partners:  []domain.Partner{partner(cnpjA.Root(), "h", "P"), partner(cnpjB.Root(), "h", "P")},
	}
	res := Enrich(ds, domain.NewIndex(ds))

	require.Len(t, res.SharedAddresses, 1)
	assert.Len(t, res.SharedWith[cnpjA], 1)
	assert.Len(t, res.SharedWith[cnpjB], 1)
	assert.Empty(t, res.SharedWith[cnpjC])
	assert.Equal(t, 2, res.Partners[0].GovernmentCompanyCount)
}
