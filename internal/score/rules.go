package score

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"radar/internal/domain"
	"radar/internal/enrichment"
	"radar/internal/enrichment/activity"
	id "radar/pkg/domain"
)

// Input is everything the engine needs for one company. It is assembled from
// enrichment output; the engine performs no lookups of its own.
type Input struct {
	Company         domain.Company
	Partners        []domain.Partner
	Sanctions       []domain.Sanction
	Contracts       []domain.Contract
	SharedAddresses []enrichment.SharedAddress
	// EmployeeCount is nil when the employee registry was not staged or does
	// not cover the company; the indicator is then skipped.
	EmployeeCount *int
	Activities    *activity.Table
}

type rule func(in Input, ref time.Time, cfg Config) (Indicator, bool)

// indicatorRules lists every indicator. Each rule is independent of the others.
var indicatorRules = []rule{
	lowCapital,
	recentlyOpened,
	incompatibleActivity,
	partnerInMultipleSuppliers,
	sharedAddress,
	singleClient,
	noEmployees,
	suddenGrowth,
	historicalSanction,
}

// Evaluate computes the score of one company on ref.
// This is pure domain logic - no I/O, no clock reads.
func Evaluate(in Input, ref time.Time, cfg Config) Score {
	s := Score{CNPJ: in.Company.CNPJ, ReferenceDate: ref}
	for _, r := range indicatorRules {
		ind, ok := r(in, ref, cfg)
		if !ok {
			continue
		}
		ind.Weight = cfg.Weights[ind.Type]
		s.Indicators = append(s.Indicators, ind)
	}
	s.Value = min(MaxValue, s.RawSum())
	s.Band = BandOf(s.Value)
	return s
}

func totalValue(contracts []domain.Contract) id.Money {
	total := id.ZeroMoney
	for _, c := range contracts {
		total = total.Add(c.Value)
	}
	return total
}

func firstContract(contracts []domain.Contract) (time.Time, bool) {
	if len(contracts) == 0 {
		return time.Time{}, false
	}
	first := contracts[0].SignedAt
	for _, c := range contracts[1:] {
		if c.SignedAt.Before(first) {
			first = c.SignedAt
		}
	}
	return first, true
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

func lowCapital(in Input, _ time.Time, cfg Config) (Indicator, bool) {
	if in.Company.Capital == nil {
		return Indicator{}, false
	}
	capital := in.Company.Capital.Decimal()
	total := totalValue(in.Contracts)
	if !capital.LessThan(cfg.LowCapitalBelow) || !total.Decimal().GreaterThan(cfg.LowCapitalContracted) {
		return Indicator{}, false
	}
	return Indicator{
		Type:        IndicatorLowCapital,
		Description: "Capital social baixo em relação ao valor contratado",
		Evidence:    fmt.Sprintf("capital_social=%s; valor_total_contratos=%s", in.Company.Capital, total),
	}, true
}

func recentlyOpened(in Input, _ time.Time, cfg Config) (Indicator, bool) {
	if in.Company.OpenedAt == nil {
		return Indicator{}, false
	}
	first, ok := firstContract(in.Contracts)
	if !ok {
		return Indicator{}, false
	}
	gap := daysBetween(*in.Company.OpenedAt, first)
	if gap < 0 || gap >= cfg.RecentOpeningDays {
		return Indicator{}, false
	}
	return Indicator{
		Type:        IndicatorRecentlyOpened,
		Description: "Empresa aberta pouco antes do primeiro contrato",
		Evidence: fmt.Sprintf("data_abertura=%s; primeiro_contrato=%s; dias=%.0f",
			in.Company.OpenedAt.Format(time.DateOnly), first.Format(time.DateOnly), gap),
	}, true
}

func incompatibleActivity(in Input, _ time.Time, _ Config) (Indicator, bool) {
	table := in.Activities
	if table == nil {
		table = activity.Default
	}
	actCat := table.CategoryOf(in.Company.PrimaryActivity)
	if actCat == activity.Unmapped {
		return Indicator{}, false
	}
	var objects []string
	seen := make(map[activity.Category]bool)
	for _, c := range in.Contracts {
		objCat := table.ClassifyObject(c.Object)
		if !table.Incompatible(actCat, objCat) || seen[objCat] {
			continue
		}
		seen[objCat] = true
		objects = append(objects, string(objCat))
	}
	if len(objects) == 0 {
		return Indicator{}, false
	}
	sort.Strings(objects)
	return Indicator{
		Type:        IndicatorIncompatibleActivity,
		Description: "Atividade econômica incompatível com o objeto contratado",
		Evidence: fmt.Sprintf("cnae=%s; categoria_cnae=%s; categorias_objeto=%s",
			in.Company.PrimaryActivity, actCat, strings.Join(objects, ",")),
	}, true
}

func partnerInMultipleSuppliers(in Input, _ time.Time, _ Config) (Indicator, bool) {
	var hits []string
	seen := make(map[string]bool)
	for _, p := range in.Partners {
		if p.GovernmentCompanyCount < PartnerMultipleSuppliersMin || seen[p.NormalizedName()] {
			continue
		}
		seen[p.NormalizedName()] = true
		hits = append(hits, fmt.Sprintf("%s (%d empresas)", p.NormalizedName(), p.GovernmentCompanyCount))
	}
	if len(hits) == 0 {
		return Indicator{}, false
	}
	sort.Strings(hits)
	return Indicator{
		Type:        IndicatorPartnerInMultipleSuppliers,
		Description: "Sócio presente em várias empresas fornecedoras do governo",
		Evidence:    "socios=" + strings.Join(hits, "; "),
	}, true
}

func sharedAddress(in Input, _ time.Time, _ Config) (Indicator, bool) {
	if len(in.SharedAddresses) == 0 {
		return Indicator{}, false
	}
	others := make([]string, 0, len(in.SharedAddresses))
	for _, p := range in.SharedAddresses {
		others = append(others, p.Other(in.Company.CNPJ).String())
	}
	sort.Strings(others)
	return Indicator{
		Type:        IndicatorSharedAddress,
		Description: "Endereço compartilhado com outra fornecedora",
		Evidence:    fmt.Sprintf("endereco=%s; empresas=%s", in.SharedAddresses[0].Key, strings.Join(others, ",")),
	}, true
}

func singleClient(in Input, _ time.Time, _ Config) (Indicator, bool) {
	if len(in.Contracts) == 0 {
		return Indicator{}, false
	}
	agencies := make(map[string]bool)
	for _, c := range in.Contracts {
		agencies[c.AgencyCode] = true
	}
	if len(agencies) != 1 {
		return Indicator{}, false
	}
	return Indicator{
		Type:        IndicatorSingleClient,
		Description: "Todos os contratos com um único órgão",
		Evidence:    fmt.Sprintf("orgao=%s; contratos=%d", in.Contracts[0].AgencyCode, len(in.Contracts)),
	}, true
}

func noEmployees(in Input, _ time.Time, _ Config) (Indicator, bool) {
	if in.EmployeeCount == nil || *in.EmployeeCount != 0 {
		return Indicator{}, false
	}
	return Indicator{
		Type:        IndicatorNoEmployees,
		Description: "Empresa sem empregados registrados",
		Evidence:    "funcionarios=0",
	}, true
}

func suddenGrowth(in Input, _ time.Time, cfg Config) (Indicator, bool) {
	byYear := make(map[int]id.Money)
	for _, c := range in.Contracts {
		y := c.SignedAt.Year()
		byYear[y] = byYear[y].Add(c.Value)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		prev, ok := byYear[y-1]
		if !ok || !prev.Decimal().IsPositive() {
			continue
		}
		cur := byYear[y]
		if cur.Decimal().GreaterThanOrEqual(prev.Decimal().Mul(cfg.GrowthFactor)) {
			return Indicator{
				Type:        IndicatorSuddenGrowth,
				Description: "Crescimento súbito do valor contratado",
				Evidence:    fmt.Sprintf("ano_%d=%s; ano_%d=%s", y-1, prev, y, cur),
			}, true
		}
	}
	return Indicator{}, false
}

func historicalSanction(in Input, ref time.Time, _ Config) (Indicator, bool) {
	var expired []string
	for _, s := range in.Sanctions {
		if s.ExpiredBy(ref) {
			expired = append(expired, fmt.Sprintf("%s/%s ate %s", s.Type, s.Body, s.EndDate.Format(time.DateOnly)))
		}
	}
	if len(expired) == 0 {
		return Indicator{}, false
	}
	sort.Strings(expired)
	return Indicator{
		Type:        IndicatorHistoricalSanction,
		Description: "Sanção encerrada no histórico",
		Evidence:    "sancoes=" + strings.Join(expired, "; "),
	}, true
}
