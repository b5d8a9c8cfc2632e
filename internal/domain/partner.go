package domain

import (
	platformstrings "radar/pkg/platform/strings"
)

// Partner links an individual to a company (by CNPJ root). The individual is
// known only by IdentifierHash; the raw identifier is gone by the time a
// Partner exists.
type Partner struct {
	CompanyRoot    string
	IdentifierHash string
	Name           string
	Role           string

	// Derived by identity linking and enrichment.
	IsCivilServant         bool
	ServantOrganization    string
	IsSanctioned           bool
	SanctionedVia          []CompanyRef
	GovernmentCompanyCount int
}

// NormalizedName is the name key used for ownership and collusion joins.
func (p Partner) NormalizedName() string {
	return platformstrings.NormalizeName(p.Name)
}

// PersonKey identifies the person behind partner rows across companies.
func (p Partner) PersonKey() string {
	return p.IdentifierHash + "|" + p.NormalizedName()
}
