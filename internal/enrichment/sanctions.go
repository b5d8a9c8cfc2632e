// Package enrichment derives cross-source facts from the validated tables:
// sanction propagation to partners, ownership concentration and shared
// addresses. Every function here is pure.
package enrichment

import (
	"sort"

	"radar/internal/domain"
	id "radar/pkg/domain"
)

// SanctionedRoots maps each sanctioned CNPJ root to the companies behind it.
// Sanction history counts whether or not the sanction is still in force.
func SanctionedRoots(companies []domain.Company, sanctions []domain.Sanction) map[string][]domain.CompanyRef {
	registry := make(map[string]domain.Company, len(companies))
	for _, c := range companies {
		registry[c.CNPJ.String()] = c
	}

	roots := make(map[string][]domain.CompanyRef)
	seen := make(map[string]bool)
	for _, s := range sanctions {
		digits := s.TargetDigits()
		if len(digits) != 14 || seen[digits] {
			continue
		}
		seen[digits] = true

		ref := domain.CompanyRef{Name: s.TargetName}
		if c, ok := registry[digits]; ok {
			ref = c.Ref()
		} else if cnpj, err := id.ParseCNPJ(digits); err == nil {
			ref.CNPJ = cnpj
		}
		root := digits[:8]
		roots[root] = append(roots[root], ref)
	}
	for root := range roots {
		refs := roots[root]
		sort.Slice(refs, func(i, j int) bool { return refs[i].CNPJ.String() < refs[j].CNPJ.String() })
	}
	return roots
}

// PropagateSanctions flags every partner row of a person who is affiliated with
// at least one sanctioned company root. SanctionedVia lists those companies.
// The input slice is not modified.
func PropagateSanctions(partners []domain.Partner, sanctionedRoots map[string][]domain.CompanyRef) []domain.Partner {
	via := make(map[string][]domain.CompanyRef)
	visited := make(map[string]map[string]bool)
	for _, p := range partners {
		refs, ok := sanctionedRoots[p.CompanyRoot]
		if !ok {
			continue
		}
		key := p.PersonKey()
		if visited[key] == nil {
			visited[key] = make(map[string]bool)
		}
		if visited[key][p.CompanyRoot] {
			continue
		}
		visited[key][p.CompanyRoot] = true
		via[key] = append(via[key], refs...)
	}

	out := make([]domain.Partner, len(partners))
	for i, p := range partners {
		if refs, ok := via[p.PersonKey()]; ok {
			p.IsSanctioned = true
			p.SanctionedVia = append([]domain.CompanyRef(nil), refs...)
		} else {
			p.IsSanctioned = false
			p.SanctionedVia = nil
		}
		out[i] = p
	}
	return out
}
