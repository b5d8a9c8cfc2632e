package domain

import (
	"time"

	id "radar/pkg/domain"
)

// Company is a registered legal entity as published by the company registry.
// Immutable once validated; derived data (score, alerts) lives elsewhere.
type Company struct {
	CNPJ            id.CNPJ
	LegalName       string
	Status          string
	OpenedAt        *time.Time
	Capital         *id.Money
	PrimaryActivity string // CNAE code, digits only
	Address         string
}

// CompanyRef names a company inside evidence text and graph nodes.
type CompanyRef struct {
	CNPJ id.CNPJ
	Name string
}

// Ref returns the reference form of c.
func (c Company) Ref() CompanyRef {
	return CompanyRef{CNPJ: c.CNPJ, Name: c.LegalName}
}

// EmployeeCount is one row of the optional employee registry.
type EmployeeCount struct {
	CNPJ  id.CNPJ
	Count int
}
