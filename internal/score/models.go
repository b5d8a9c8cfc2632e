package score

import (
	"time"

	"github.com/shopspring/decimal"

	id "radar/pkg/domain"
)

// IndicatorType names one independent risk indicator.
type IndicatorType string

const (
	IndicatorLowCapital                 IndicatorType = "low_capital"
	IndicatorRecentlyOpened             IndicatorType = "recently_opened"
	IndicatorIncompatibleActivity       IndicatorType = "incompatible_activity"
	IndicatorPartnerInMultipleSuppliers IndicatorType = "partner_in_multiple_suppliers"
	IndicatorSharedAddress              IndicatorType = "shared_address"
	IndicatorSingleClient               IndicatorType = "single_client"
	IndicatorNoEmployees                IndicatorType = "no_employees"
	IndicatorSuddenGrowth               IndicatorType = "sudden_growth"
	IndicatorHistoricalSanction         IndicatorType = "historical_sanction"
)

// Band is the coarse classification of a score value.
type Band string

const (
	BandLow      Band = "low"
	BandModerate Band = "moderate"
	BandHigh     Band = "high"
	BandCritical Band = "critical"
)

// MaxValue caps the reported score. The weights add up to more than this on
// purpose.
const MaxValue = 100

// Indicator is one active indicator with its fixed weight and the figures that
// triggered it.
type Indicator struct {
	Type        IndicatorType
	Weight      int
	Description string
	Evidence    string
}

// Score is the cumulative risk score of one company on a reference date.
// Invariant: 0 <= Value <= MaxValue.
type Score struct {
	CNPJ          id.CNPJ
	Value         int
	Band          Band
	Indicators    []Indicator
	ReferenceDate time.Time
}

// RawSum is the uncapped sum of active weights.
func (s Score) RawSum() int {
	sum := 0
	for _, ind := range s.Indicators {
		sum += ind.Weight
	}
	return sum
}

// Weights holds the fixed weight of every indicator.
type Weights map[IndicatorType]int

// Config carries weights and thresholds. The engine never reads them from the
// environment; callers pass DefaultConfig or an override.
type Config struct {
	Weights Weights

	LowCapitalBelow      decimal.Decimal
	LowCapitalContracted decimal.Decimal
	RecentOpeningDays    float64
	GrowthFactor         decimal.Decimal
}

// DefaultConfig returns the production weights and thresholds.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			IndicatorLowCapital:                 15,
			IndicatorRecentlyOpened:             10,
			IndicatorIncompatibleActivity:       10,
			IndicatorPartnerInMultipleSuppliers: 20,
			IndicatorSharedAddress:              15,
			IndicatorSingleClient:               10,
			IndicatorNoEmployees:                10,
			IndicatorSuddenGrowth:               10,
			IndicatorHistoricalSanction:         5,
		},
		LowCapitalBelow:      decimal.NewFromInt(10_000),
		LowCapitalContracted: decimal.NewFromInt(100_000),
		RecentOpeningDays:    182.6,
		GrowthFactor:         decimal.NewFromInt(5),
	}
}

// PartnerMultipleSuppliersMin is the government-company count from which a
// partner counts as spread across suppliers.
const PartnerMultipleSuppliersMin = 3

// BandOf classifies a score value.
func BandOf(value int) Band {
	switch {
	case value <= 20:
		return BandLow
	case value <= 40:
		return BandModerate
	case value <= 65:
		return BandHigh
	default:
		return BandCritical
	}
}
