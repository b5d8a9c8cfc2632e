package build

import (
	"radar/internal/domain"
	id "radar/pkg/domain"
)

// Resolution counts how many fact rows found their company.
type Resolution struct {
	Contracts, ContractsUnresolved int
	Sanctions, SanctionsUnresolved int
	Donations, DonationsUnresolved int
}

// ResolveForeignKeys fills CompanyRef on contracts, sanctions and donations by
// matching digits-only identifiers against the company registry. Sanctions on
// individuals and donations by individuals stay unresolved. Inputs are not
// modified.
func ResolveForeignKeys(ds domain.Dataset) (domain.Dataset, Resolution) {
	known := make(map[string]id.CNPJ, len(ds.Companies))
	for _, c := range ds.Companies {
		known[c.CNPJ.String()] = c.CNPJ
	}

	var res Resolution
	out := ds

	out.Contracts = make([]domain.Contract, len(ds.Contracts))
	for i, c := range ds.Contracts {
		c.CompanyRef = id.CNPJ{}
		if cnpj, ok := known[c.CompanyDigits()]; ok {
			c.CompanyRef = cnpj
			res.Contracts++
		} else {
			res.ContractsUnresolved++
		}
		out.Contracts[i] = c
	}

	out.Sanctions = make([]domain.Sanction, len(ds.Sanctions))
	for i, s := range ds.Sanctions {
		s.CompanyRef = id.CNPJ{}
		if cnpj, ok := known[s.TargetDigits()]; ok {
			s.CompanyRef = cnpj
			res.Sanctions++
		} else {
			res.SanctionsUnresolved++
		}
		out.Sanctions[i] = s
	}

	out.Donations = make([]domain.Donation, len(ds.Donations))
	for i, d := range ds.Donations {
		d.CompanyRef = id.CNPJ{}
		if cnpj, ok := known[d.DonorDigits()]; ok {
			d.CompanyRef = cnpj
			res.Donations++
		} else {
			res.DonationsUnresolved++
		}
		out.Donations[i] = d
	}

	return out, res
}
