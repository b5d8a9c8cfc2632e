package domain

import (
	"sort"

	id "radar/pkg/domain"
)

// Dataset is the validated, anonymized input to enrichment and the build.
type Dataset struct {
	Companies      []Company
	Partners       []Partner
	Contracts      []Contract
	Sanctions      []Sanction
	Donations      []Donation
	EmployeeCounts []EmployeeCount

	// HasEmployeeRegistry is false when the optional registry was not staged.
	HasEmployeeRegistry bool
}

// Index groups a Dataset by company for per-entity computation. Building it is
// O(rows); it never mutates the Dataset.
type Index struct {
	Companies  map[id.CNPJ]Company
	Roots      map[string][]id.CNPJ
	Contracts  map[id.CNPJ][]Contract
	Partners   map[string][]Partner // by CNPJ root
	Sanctions  map[id.CNPJ][]Sanction
	Donations  map[id.CNPJ][]Donation
	Employees  map[id.CNPJ]int
	Suppliers  map[id.CNPJ]bool
	HasRoster  bool
	companyIDs []id.CNPJ
}

// NewIndex builds the per-company view of ds. Facts whose identifier matches no
// company are left out of the per-company maps.
func NewIndex(ds Dataset) *Index {
	ix := &Index{
		Companies: make(map[id.CNPJ]Company, len(ds.Companies)),
		Roots:     make(map[string][]id.CNPJ),
		Contracts: make(map[id.CNPJ][]Contract),
		Partners:  make(map[string][]Partner),
		Sanctions: make(map[id.CNPJ][]Sanction),
		Donations: make(map[id.CNPJ][]Donation),
		Employees: make(map[id.CNPJ]int, len(ds.EmployeeCounts)),
		Suppliers: make(map[id.CNPJ]bool),
		HasRoster: ds.HasEmployeeRegistry,
	}
	byDigits := make(map[string]id.CNPJ, len(ds.Companies))
	for _, c := range ds.Companies {
		if _, dup := ix.Companies[c.CNPJ]; dup {
			continue
		}
		ix.Companies[c.CNPJ] = c
		ix.Roots[c.CNPJ.Root()] = append(ix.Roots[c.CNPJ.Root()], c.CNPJ)
		ix.companyIDs = append(ix.companyIDs, c.CNPJ)
		byDigits[c.CNPJ.String()] = c.CNPJ
	}
	sort.Slice(ix.companyIDs, func(i, j int) bool {
		return ix.companyIDs[i].String() < ix.companyIDs[j].String()
	})

	for _, ct := range ds.Contracts {
		if cnpj, ok := byDigits[ct.CompanyDigits()]; ok {
			ix.Contracts[cnpj] = append(ix.Contracts[cnpj], ct)
			ix.Suppliers[cnpj] = true
		}
	}
	for _, p := range ds.Partners {
		ix.Partners[p.CompanyRoot] = append(ix.Partners[p.CompanyRoot], p)
	}
	for _, s := range ds.Sanctions {
		if cnpj, ok := byDigits[s.TargetDigits()]; ok {
			ix.Sanctions[cnpj] = append(ix.Sanctions[cnpj], s)
		}
	}
	for _, d := range ds.Donations {
		if cnpj, ok := byDigits[d.DonorDigits()]; ok {
			ix.Donations[cnpj] = append(ix.Donations[cnpj], d)
		}
	}
	for _, e := range ds.EmployeeCounts {
		ix.Employees[e.CNPJ] = e.Count
	}
	return ix
}

// CompanyIDs returns every company identifier in ascending order.
func (ix *Index) CompanyIDs() []id.CNPJ {
	return ix.companyIDs
}

// PartnersOf returns the partner rows of the company's root.
func (ix *Index) PartnersOf(cnpj id.CNPJ) []Partner {
	return ix.Partners[cnpj.Root()]
}

// EmployeeCountOf returns the registry count and whether the registry covers c.
// When the registry was not staged the second value is always false.
func (ix *Index) EmployeeCountOf(cnpj id.CNPJ) (int, bool) {
	if !ix.HasRoster {
		return 0, false
	}
	n, ok := ix.Employees[cnpj]
	return n, ok
}
