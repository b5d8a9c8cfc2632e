// Package staging describes the raw tables the ingestion stage leaves behind
// and the Source contract used to read them. Values are the source text,
// before any validation.
package staging

import "context"

type Table string

const (
	TableCompanies      Table = "companies"
	TablePartners       Table = "partners"
	TableContracts      Table = "contracts"
	TableSanctions      Table = "sanctions"
	TableDonations      Table = "donations"
	TableServants       Table = "civil_servants"
	TableEmployeeCounts Table = "employee_counts"
)

// RequiredTables must be staged and non-empty for a build to start.
var RequiredTables = []Table{
	TableCompanies,
	TablePartners,
	TableContracts,
	TableSanctions,
	TableDonations,
	TableServants,
}

// OptionalTables may be absent; dependent outputs are skipped.
var OptionalTables = []Table{
	TableEmployeeCounts,
}

// Inventory maps each staged table to its row count. A table missing from the
// map was not staged at all.
type Inventory map[Table]int

type CompanyRecord struct {
	CNPJ            string `db:"cnpj"`
	LegalName       string `db:"legal_name"`
	Status          string `db:"status"`
	OpenedAt        string `db:"opened_at"`
	Capital         string `db:"capital"`
	PrimaryActivity string `db:"primary_activity"`
	Address         string `db:"address"`
}

// PartnerRecord links an individual to a company. Company is the 8-digit root
// or a full CNPJ; Identifier is usually masked by the publisher.
type PartnerRecord struct {
	Company    string `db:"company"`
	Identifier string `db:"identifier"`
	Name       string `db:"name"`
	Role       string `db:"role"`
}

type ContractRecord struct {
	ID                string `db:"id"`
	CompanyIdentifier string `db:"company_identifier"`
	AgencyCode        string `db:"agency_code"`
	Value             string `db:"value"`
	SignedAt          string `db:"signed_at"`
	Object            string `db:"object"`
	TenderNumber      string `db:"tender_number"`
}

type SanctionRecord struct {
	ID               string `db:"id"`
	TargetIdentifier string `db:"target_identifier"`
	TargetName       string `db:"target_name"`
	Type             string `db:"type"`
	Body             string `db:"body"`
	StartDate        string `db:"start_date"`
	EndDate          string `db:"end_date"`
}

type DonationRecord struct {
	ID              string `db:"id"`
	DonorIdentifier string `db:"donor_identifier"`
	DonorName       string `db:"donor_name"`
	Recipient       string `db:"recipient"`
	Value           string `db:"value"`
	ElectionYear    string `db:"election_year"`
}

// ServantRecord is one civil-servant roster row. The identifier is masked at
// the source.
type ServantRecord struct {
	Name             string `db:"name"`
	MaskedIdentifier string `db:"masked_identifier"`
	Organization     string `db:"organization"`
}

type EmployeeCountRecord struct {
	CNPJ  string `db:"cnpj"`
	Count string `db:"count"`
}

// Snapshot is every staged table read in full.
type Snapshot struct {
	Inventory      Inventory
	Companies      []CompanyRecord
	Partners       []PartnerRecord
	Contracts      []ContractRecord
	Sanctions      []SanctionRecord
	Donations      []DonationRecord
	Servants       []ServantRecord
	EmployeeCounts []EmployeeCountRecord
}

// Has reports whether table was staged.
func (s *Snapshot) Has(table Table) bool {
	_, ok := s.Inventory[table]
	return ok
}

// Source reads staged tables. Implementations: memory (tests, fixtures) and
// postgres (production staging database).
type Source interface {
	// Inventory lists staged tables and their row counts without reading rows.
	Inventory(ctx context.Context) (Inventory, error)
	// Load reads every staged table.
	Load(ctx context.Context) (*Snapshot, error)
}
