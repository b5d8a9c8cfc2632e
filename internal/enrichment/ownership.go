package enrichment

import (
	"radar/internal/domain"
)

// SupplierRoots returns the CNPJ roots of companies holding at least one
// contract.
func SupplierRoots(ix *domain.Index) map[string]bool {
	roots := make(map[string]bool, len(ix.Suppliers))
	for cnpj := range ix.Suppliers {
		roots[cnpj.Root()] = true
	}
	return roots
}

// CountGovernmentCompanies sets GovernmentCompanyCount on every partner row:
// the number of distinct supplier companies (by CNPJ root) affiliated with a
// partner of the same normalized name. The input slice is not modified.
func CountGovernmentCompanies(partners []domain.Partner, supplierRoots map[string]bool) []domain.Partner {
	companies := make(map[string]map[string]bool)
	for _, p := range partners {
		if !supplierRoots[p.CompanyRoot] {
			continue
		}
		name := p.NormalizedName()
		if name == "" {
			continue
		}
		if companies[name] == nil {
			companies[name] = make(map[string]bool)
		}
		companies[name][p.CompanyRoot] = true
	}

	out := make([]domain.Partner, len(partners))
	for i, p := range partners {
		p.GovernmentCompanyCount = len(companies[p.NormalizedName()])
		if p.NormalizedName() == "" {
			p.GovernmentCompanyCount = 0
		}
		out[i] = p
	}
	return out
}
