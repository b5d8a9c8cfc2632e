package pipeline

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"radar/internal/domain"
	"radar/internal/identity"
	"radar/internal/staging"
	id "radar/pkg/domain"
)

// Drop reasons.
const (
	ReasonInvalidIdentifier = "invalid_identifier"
	ReasonMissingField      = "missing_field"
	ReasonInvalidDate       = "invalid_date"
	ReasonInvalidAmount     = "invalid_amount"
	ReasonDuplicate         = "duplicate"
	ReasonUnknownCompany    = "unknown_company"
)

// Drop is one rejected staged row. Row is the zero-based position in the
// staged table; the row content is never kept.
type Drop struct {
	Table  staging.Table
	Row    int
	Reason string
}

// TableReport is the validation outcome of one table.
type TableReport struct {
	Accepted int
	Dropped  map[string]int
}

// DropReport collects validation outcomes for every table.
type DropReport struct {
	Tables map[staging.Table]*TableReport
	Drops  []Drop
}

func newDropReport() *DropReport {
	return &DropReport{Tables: map[staging.Table]*TableReport{}}
}

func (r *DropReport) table(t staging.Table) *TableReport {
	tr, ok := r.Tables[t]
	if !ok {
		tr = &TableReport{Dropped: map[string]int{}}
		r.Tables[t] = tr
	}
	return tr
}

func (r *DropReport) accept(t staging.Table) {
	r.table(t).Accepted++
}

func (r *DropReport) drop(t staging.Table, row int, reason string) {
	r.table(t).Dropped[reason]++
	r.Drops = append(r.Drops, Drop{Table: t, Row: row, Reason: reason})
}

// Dropped is the total number of dropped rows.
func (r *DropReport) Dropped() int {
	return len(r.Drops)
}

// RawPartner is a validated partner row whose identifier is still as
// published. It only lives until Link.
type RawPartner struct {
	CompanyRoot string
	Identifier  string
	Name        string
	Role        string
}

// Validated holds the staged tables converted into domain values. Individual
// identifiers on partners, sanctions and donations are still raw.
type Validated struct {
	Companies           []domain.Company
	Partners            []RawPartner
	Contracts           []domain.Contract
	Sanctions           []domain.Sanction
	Donations           []domain.Donation
	Servants            []identity.Servant
	EmployeeCounts      []domain.EmployeeCount
	HasEmployeeRegistry bool
}

var dateLayouts = []string{time.DateOnly, "02/01/2006", "20060102"}

// parseDate accepts ISO, Brazilian day-first and compact registry dates.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// optionalDate treats empty and all-zero registry dates as unknown.
func optionalDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Trim(s, "0-/") == "" {
		return nil, true
	}
	t, ok := parseDate(s)
	if !ok {
		return nil, false
	}
	return &t, true
}

// Validate converts snap into domain values. A row that fails value-object
// validation is dropped and counted; it never fails the run.
func Validate(snap *staging.Snapshot) (Validated, *DropReport) {
	r := newDropReport()
	v := Validated{HasEmployeeRegistry: snap.Has(staging.TableEmployeeCounts)}

	known := make(map[id.CNPJ]bool, len(snap.Companies))
	for i, rec := range snap.Companies {
		c, reason := validateCompany(rec)
		if reason == "" && known[c.CNPJ] {
			reason = ReasonDuplicate
		}
		if reason != "" {
			r.drop(staging.TableCompanies, i, reason)
			continue
		}
		known[c.CNPJ] = true
		v.Companies = append(v.Companies, c)
		r.accept(staging.TableCompanies)
	}

	for i, rec := range snap.Partners {
		p, reason := validatePartner(rec)
		if reason != "" {
			r.drop(staging.TablePartners, i, reason)
			continue
		}
		v.Partners = append(v.Partners, p)
		r.accept(staging.TablePartners)
	}

	seen := map[string]bool{}
	for i, rec := range snap.Contracts {
		c, reason := validateContract(rec)
		if reason == "" && seen[c.ID] {
			reason = ReasonDuplicate
		}
		if reason != "" {
			r.drop(staging.TableContracts, i, reason)
			continue
		}
		seen[c.ID] = true
		v.Contracts = append(v.Contracts, c)
		r.accept(staging.TableContracts)
	}

	seen = map[string]bool{}
	for i, rec := range snap.Sanctions {
		s, reason := validateSanction(rec)
		if reason == "" && seen[s.ID] {
			reason = ReasonDuplicate
		}
		if reason != "" {
			r.drop(staging.TableSanctions, i, reason)
			continue
		}
		seen[s.ID] = true
		v.Sanctions = append(v.Sanctions, s)
		r.accept(staging.TableSanctions)
	}

	seen = map[string]bool{}
	for i, rec := range snap.Donations {
		d, reason := validateDonation(rec)
		if reason == "" && seen[d.ID] {
			reason = ReasonDuplicate
		}
		if reason != "" {
			r.drop(staging.TableDonations, i, reason)
			continue
		}
		seen[d.ID] = true
		v.Donations = append(v.Donations, d)
		r.accept(staging.TableDonations)
	}

	for i, rec := range snap.Servants {
		if strings.TrimSpace(rec.Name) == "" {
			r.drop(staging.TableServants, i, ReasonMissingField)
			continue
		}
		v.Servants = append(v.Servants, identity.Servant{
			Name:         rec.Name,
			MaskedID:     rec.MaskedIdentifier,
			Organization: strings.TrimSpace(rec.Organization),
		})
		r.accept(staging.TableServants)
	}

	counted := map[id.CNPJ]bool{}
	for i, rec := range snap.EmployeeCounts {
		e, reason := validateEmployeeCount(rec)
		switch {
		case reason != "":
		case !known[e.CNPJ]:
			reason = ReasonUnknownCompany
		case counted[e.CNPJ]:
			reason = ReasonDuplicate
		}
		if reason != "" {
			r.drop(staging.TableEmployeeCounts, i, reason)
			continue
		}
		counted[e.CNPJ] = true
		v.EmployeeCounts = append(v.EmployeeCounts, e)
		r.accept(staging.TableEmployeeCounts)
	}

	return v, r
}

func validateCompany(rec staging.CompanyRecord) (domain.Company, string) {
	cnpj, err := id.ParseCNPJ(rec.CNPJ)
	if err != nil {
		return domain.Company{}, ReasonInvalidIdentifier
	}
	name := strings.TrimSpace(rec.LegalName)
	if name == "" {
		return domain.Company{}, ReasonMissingField
	}
	opened, ok := optionalDate(rec.OpenedAt)
	if !ok {
		return domain.Company{}, ReasonInvalidDate
	}
	var capital *id.Money
	if strings.TrimSpace(rec.Capital) != "" {
		m, err := id.ParseMoney(rec.Capital)
		if err != nil {
			return domain.Company{}, ReasonInvalidAmount
		}
		capital = &m
	}
	return domain.Company{
		CNPJ:            cnpj,
		LegalName:       name,
		Status:          strings.TrimSpace(rec.Status),
		OpenedAt:        opened,
		Capital:         capital,
		PrimaryActivity: id.DigitsOnly(rec.PrimaryActivity),
		Address:         strings.TrimSpace(rec.Address),
	}, ""
}

// validatePartner accepts the company as an 8-digit root or a full CNPJ.
func validatePartner(rec staging.PartnerRecord) (RawPartner, string) {
	var root string
	switch digits := id.DigitsOnly(rec.Company); len(digits) {
	case 8:
		root = digits
	case 14:
		cnpj, err := id.ParseCNPJ(digits)
		if err != nil {
			return RawPartner{}, ReasonInvalidIdentifier
		}
		root = cnpj.Root()
	default:
		return RawPartner{}, ReasonInvalidIdentifier
	}
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return RawPartner{}, ReasonMissingField
	}
	return RawPartner{
		CompanyRoot: root,
		Identifier:  strings.TrimSpace(rec.Identifier),
		Name:        name,
		Role:        strings.TrimSpace(rec.Role),
	}, ""
}

func validateContract(rec staging.ContractRecord) (domain.Contract, string) {
	cid := strings.TrimSpace(rec.ID)
	if cid == "" || strings.TrimSpace(rec.CompanyIdentifier) == "" {
		return domain.Contract{}, ReasonMissingField
	}
	value, err := id.ParseMoney(rec.Value)
	if err != nil {
		return domain.Contract{}, ReasonInvalidAmount
	}
	signed, ok := parseDate(rec.SignedAt)
	if !ok {
		return domain.Contract{}, ReasonInvalidDate
	}
	return domain.Contract{
		ID:                cid,
		CompanyIdentifier: strings.TrimSpace(rec.CompanyIdentifier),
		AgencyCode:        strings.TrimSpace(rec.AgencyCode),
		Value:             value,
		SignedAt:          signed,
		Object:            strings.TrimSpace(rec.Object),
		TenderNumber:      strings.TrimSpace(rec.TenderNumber),
	}, ""
}

// classifyTarget returns the kind of a published identifier. Company
// identifiers must pass the check digits; individual ones are usually masked
// and are only checked for length.
func classifyTarget(raw string) (id.IdentifierKind, string) {
	kind := id.ClassifyIdentifier(raw)
	switch kind {
	case id.IdentifierCompany:
		if _, err := id.ParseCNPJ(raw); err != nil {
			return kind, ReasonInvalidIdentifier
		}
	case id.IdentifierUnknown:
		if isMaskedIndividual(raw) {
			return id.IdentifierIndividual, ""
		}
		return kind, ReasonInvalidIdentifier
	}
	return kind, ""
}

// isMaskedIndividual reports whether s is an 11-position individual
// identifier with some positions masked.
func isMaskedIndividual(s string) bool {
	return identity.VisibleDigits(s) != "" && strings.Contains(s, "*")
}

func validateSanction(rec staging.SanctionRecord) (domain.Sanction, string) {
	sid := strings.TrimSpace(rec.ID)
	if sid == "" {
		return domain.Sanction{}, ReasonMissingField
	}
	kind, reason := classifyTarget(rec.TargetIdentifier)
	if reason != "" {
		return domain.Sanction{}, reason
	}
	start, ok := parseDate(rec.StartDate)
	if !ok {
		return domain.Sanction{}, ReasonInvalidDate
	}
	end, ok := optionalDate(rec.EndDate)
	if !ok || (end != nil && end.Before(start)) {
		return domain.Sanction{}, ReasonInvalidDate
	}
	return domain.Sanction{
		ID:               sid,
		TargetIdentifier: strings.TrimSpace(rec.TargetIdentifier),
		TargetKind:       kind,
		TargetName:       strings.TrimSpace(rec.TargetName),
		Type:             strings.TrimSpace(rec.Type),
		Body:             strings.TrimSpace(rec.Body),
		StartDate:        start,
		EndDate:          end,
	}, ""
}

func validateDonation(rec staging.DonationRecord) (domain.Donation, string) {
	did := strings.TrimSpace(rec.ID)
	if did == "" {
		return domain.Donation{}, ReasonMissingField
	}
	kind, reason := classifyTarget(rec.DonorIdentifier)
	if reason != "" {
		return domain.Donation{}, reason
	}
	value, err := id.ParseMoney(rec.Value)
	if err != nil {
		return domain.Donation{}, ReasonInvalidAmount
	}
	year, err := strconv.Atoi(strings.TrimSpace(rec.ElectionYear))
	if err != nil || year < 1900 {
		return domain.Donation{}, ReasonInvalidDate
	}
	return domain.Donation{
		ID:              did,
		DonorIdentifier: strings.TrimSpace(rec.DonorIdentifier),
		DonorKind:       kind,
		DonorName:       strings.TrimSpace(rec.DonorName),
		Recipient:       strings.TrimSpace(rec.Recipient),
		Value:           value,
		ElectionYear:    year,
	}, ""
}

func validateEmployeeCount(rec staging.EmployeeCountRecord) (domain.EmployeeCount, string) {
	cnpj, err := id.ParseCNPJ(rec.CNPJ)
	if err != nil {
		return domain.EmployeeCount{}, ReasonInvalidIdentifier
	}
	n, err := strconv.Atoi(strings.TrimSpace(rec.Count))
	if err != nil || n < 0 {
		return domain.EmployeeCount{}, ReasonInvalidAmount
	}
	return domain.EmployeeCount{CNPJ: cnpj, Count: n}, ""
}

// sortedTables returns the report tables in a stable order for logging.
func (r *DropReport) sortedTables() []staging.Table {
	out := make([]staging.Table, 0, len(r.Tables))
	for t := range r.Tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
