package enrichment

import (
	"radar/internal/domain"
	id "radar/pkg/domain"
)

// Result is the enrichment output consumed by scoring, alerting and the graph.
type Result struct {
	Partners        []domain.Partner
	PartnersByRoot  map[string][]domain.Partner
	SharedAddresses []SharedAddress
	// SharedWith lists, per supplier, the other suppliers at its address.
	SharedWith map[id.CNPJ][]SharedAddress
}

// Enrich runs sanction propagation, ownership concentration and shared-address
// detection over ds. Shared addresses are searched among suppliers only, since
// only supplier pairs feed the score.
func Enrich(ds domain.Dataset, ix *domain.Index) Result {
	partners := PropagateSanctions(ds.Partners, SanctionedRoots(ds.Companies, ds.Sanctions))
	partners = CountGovernmentCompanies(partners, SupplierRoots(ix))

	suppliers := make([]domain.Company, 0, len(ix.Suppliers))
	for _, cnpj := range ix.CompanyIDs() {
		if ix.Suppliers[cnpj] {
			suppliers = append(suppliers, ix.Companies[cnpj])
		}
	}
	pairs := SharedAddresses(suppliers)
	shared := make(map[id.CNPJ][]SharedAddress)
	for _, p := range pairs {
		shared[p.A] = append(shared[p.A], p)
		shared[p.B] = append(shared[p.B], p)
	}

	byRoot := make(map[string][]domain.Partner)
	for _, p := range partners {
		byRoot[p.CompanyRoot] = append(byRoot[p.CompanyRoot], p)
	}

	return Result{
		Partners:        partners,
		PartnersByRoot:  byRoot,
		SharedAddresses: pairs,
		SharedWith:      shared,
	}
}

// Other returns the counterpart of cnpj in the pair.
func (s SharedAddress) Other(cnpj id.CNPJ) id.CNPJ {
	if s.A == cnpj {
		return s.B
	}
	return s.A
}

// PartnersOf returns the enriched partner rows of the company's root.
func (r Result) PartnersOf(cnpj id.CNPJ) []domain.Partner {
	return r.PartnersByRoot[cnpj.Root()]
}
