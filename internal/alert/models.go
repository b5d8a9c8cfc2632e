package alert

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	id "radar/pkg/domain"
)

// Severity grades an alert. There is no numeric scale; both levels are binary
// findings.
type Severity string

const (
	SeverityGrave      Severity = "GRAVE"
	SeverityGravissimo Severity = "GRAVISSIMO"
)

// Type names one alert rule.
type Type string

const (
	TypeCivilServantPartner Type = "civil_servant_partner"
	TypeActiveSanction      Type = "active_sanction_with_contract"
	TypeDonationWithBigDeal Type = "donation_with_contract"
	TypeSanctionedPartner   Type = "sanctioned_partner"
	TypeBidRotation         Type = "bid_rotation"
	TypeFrontCompany        Type = "front_company"
)

// PopulationOnly reports whether the rule needs the whole supplier
// population and so only runs in batch.
func (t Type) PopulationOnly() bool {
	return t == TypeBidRotation || t == TypeFrontCompany
}

// Alert is one critical finding about a company. Evidence is never empty.
type Alert struct {
	CNPJ        id.CNPJ
	Type        Type
	Severity    Severity
	Description string
	Evidence    string
	DetectedAt  time.Time
}

// Config carries alert thresholds.
type Config struct {
	DonationAbove            decimal.Decimal
	ContractTotalAbove       decimal.Decimal
	FrontCapitalBelow        decimal.Decimal
	FrontOpeningDays         float64
	BidRotationMinTenders    int
	PartnerMultipleSuppliers int
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		DonationAbove:            decimal.NewFromInt(10_000),
		ContractTotalAbove:       decimal.NewFromInt(500_000),
		FrontCapitalBelow:        decimal.NewFromInt(10_000),
		FrontOpeningDays:         365,
		BidRotationMinTenders:    3,
		PartnerMultipleSuppliers: 3,
	}
}

// sortAlerts orders alerts by company, type and evidence so that batch and
// real-time output compare equal.
func sortAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.CNPJ != b.CNPJ {
			return a.CNPJ.String() < b.CNPJ.String()
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Evidence < b.Evidence
	})
}
