package pipeline

import (
	"radar/internal/domain"
	"radar/internal/identity"
	id "radar/pkg/domain"
)

// Link matches partners against the civil-servant roster and then replaces
// every individual identifier with its keyed hash. The order is fixed: the
// roster match needs the visible digits that hashing destroys. The returned
// Dataset holds no raw individual identifier.
func Link(v Validated, anon *identity.Anonymizer) domain.Dataset {
	people := make([]identity.Person, len(v.Partners))
	for i, p := range v.Partners {
		people[i] = identity.Person{Name: p.Name, MaskedID: p.Identifier}
	}
	matches := identity.MatchServants(people, v.Servants)

	partners := make([]domain.Partner, len(v.Partners))
	for i, p := range v.Partners {
		partners[i] = domain.Partner{
			CompanyRoot:         p.CompanyRoot,
			IdentifierHash:      anon.Hash(id.DigitsOnly(p.Identifier)),
			Name:                p.Name,
			Role:                p.Role,
			IsCivilServant:      matches[i].IsCivilServant,
			ServantOrganization: matches[i].Organization,
		}
	}

	sanctions := make([]domain.Sanction, len(v.Sanctions))
	for i, s := range v.Sanctions {
		if s.TargetKind == id.IdentifierIndividual {
			s.TargetIdentifier = anon.Hash(id.DigitsOnly(s.TargetIdentifier))
		}
		sanctions[i] = s
	}

	donations := make([]domain.Donation, len(v.Donations))
	for i, d := range v.Donations {
		if d.DonorKind == id.IdentifierIndividual {
			d.DonorIdentifier = anon.Hash(id.DigitsOnly(d.DonorIdentifier))
		}
		donations[i] = d
	}

	return domain.Dataset{
		Companies:           v.Companies,
		Partners:            partners,
		Contracts:           v.Contracts,
		Sanctions:           sanctions,
		Donations:           donations,
		EmployeeCounts:      v.EmployeeCounts,
		HasEmployeeRegistry: v.HasEmployeeRegistry,
	}
}
