package domain

import (
	"time"

	id "radar/pkg/domain"
)

// Contract is a public procurement contract. CompanyRef stays zero until the
// build stage resolves CompanyIdentifier against the company table.
type Contract struct {
	ID                string
	CompanyIdentifier string
	CompanyRef        id.CNPJ
	AgencyCode        string
	Value             id.Money
	SignedAt          time.Time
	Object            string
	TenderNumber      string // empty when the contract had no tender
}

// CompanyDigits is the punctuation-free supplier identifier used for joins
// before resolution.
func (c Contract) CompanyDigits() string {
	return id.DigitsOnly(c.CompanyIdentifier)
}

func (c Contract) HasTender() bool {
	return c.TenderNumber != ""
}

// Sanction is a debarment or penalty. EndDate nil means indefinite.
type Sanction struct {
	ID               string
	TargetIdentifier string // company identifier as published, or the keyed hash of an individual
	TargetKind       id.IdentifierKind
	TargetName       string
	CompanyRef       id.CNPJ
	Type             string
	Body             string
	StartDate        time.Time
	EndDate          *time.Time
}

// ActiveAt reports whether the sanction is in force on ref.
func (s Sanction) ActiveAt(ref time.Time) bool {
	return s.EndDate == nil || s.EndDate.After(ref)
}

// ExpiredBy reports whether the sanction ended on or before ref.
func (s Sanction) ExpiredBy(ref time.Time) bool {
	return s.EndDate != nil && !s.EndDate.After(ref)
}

// TargetDigits is the punctuation-free target identifier; empty for hashed
// individuals.
func (s Sanction) TargetDigits() string {
	if s.TargetKind != id.IdentifierCompany {
		return ""
	}
	return id.DigitsOnly(s.TargetIdentifier)
}

// Donation is an electoral donation. DonorIdentifier is the company identifier
// for company donors and the keyed hash for individuals.
type Donation struct {
	ID              string
	DonorIdentifier string
	DonorKind       id.IdentifierKind
	DonorName       string
	CompanyRef      id.CNPJ
	Recipient       string
	Value           id.Money
	ElectionYear    int
}

// DonorDigits is the punctuation-free donor identifier for company donors.
func (d Donation) DonorDigits() string {
	if d.DonorKind != id.IdentifierCompany {
		return ""
	}
	return id.DigitsOnly(d.DonorIdentifier)
}
