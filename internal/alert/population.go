package alert

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"radar/internal/domain"
	id "radar/pkg/domain"
	platformstrings "radar/pkg/platform/strings"
)

// Population is the batch view: every company and fact at once. Partners must
// already carry servant, sanction and government-company enrichment.
type Population struct {
	Companies []domain.Company
	Partners  []domain.Partner
	Contracts []domain.Contract
	Sanctions []domain.Sanction
	Donations []domain.Donation
}

// batch holds the set-based groupings the batch rules work from.
type batch struct {
	companies  []domain.Company
	byDigits   map[string]id.CNPJ
	contracts  map[id.CNPJ][]domain.Contract
	totals     map[id.CNPJ]id.Money
	sanctions  map[id.CNPJ][]domain.Sanction
	donations  map[id.CNPJ][]domain.Donation
	partners   map[string][]domain.Partner // by root
	detectedAt time.Time
}

func newBatch(pop Population, detectedAt time.Time) *batch {
	b := &batch{
		byDigits:   make(map[string]id.CNPJ, len(pop.Companies)),
		contracts:  make(map[id.CNPJ][]domain.Contract),
		totals:     make(map[id.CNPJ]id.Money),
		sanctions:  make(map[id.CNPJ][]domain.Sanction),
		donations:  make(map[id.CNPJ][]domain.Donation),
		partners:   make(map[string][]domain.Partner),
		detectedAt: detectedAt,
	}
	for _, c := range pop.Companies {
		if _, dup := b.byDigits[c.CNPJ.String()]; dup {
			continue
		}
		b.byDigits[c.CNPJ.String()] = c.CNPJ
		b.companies = append(b.companies, c)
	}
	sort.Slice(b.companies, func(i, j int) bool {
		return b.companies[i].CNPJ.String() < b.companies[j].CNPJ.String()
	})
	for _, ct := range pop.Contracts {
		if cnpj, ok := b.byDigits[ct.CompanyDigits()]; ok {
			b.contracts[cnpj] = append(b.contracts[cnpj], ct)
			b.totals[cnpj] = b.totals[cnpj].Add(ct.Value)
		}
	}
	for _, s := range pop.Sanctions {
		if cnpj, ok := b.byDigits[s.TargetDigits()]; ok {
			b.sanctions[cnpj] = append(b.sanctions[cnpj], s)
		}
	}
	for _, d := range pop.Donations {
		if cnpj, ok := b.byDigits[d.DonorDigits()]; ok {
			b.donations[cnpj] = append(b.donations[cnpj], d)
		}
	}
	for _, p := range pop.Partners {
		b.partners[p.CompanyRoot] = append(b.partners[p.CompanyRoot], p)
	}
	return b
}

func (b *batch) alert(cnpj id.CNPJ, t Type, sev Severity, desc, evidence string) Alert {
	return Alert{CNPJ: cnpj, Type: t, Severity: sev, Description: desc, Evidence: evidence, DetectedAt: b.detectedAt}
}

// DetectPopulation runs every rule, per-entity and population-only, over the
// whole population in one pass per rule.
// This is pure domain logic - no I/O, no clock reads.
func DetectPopulation(pop Population, ref, detectedAt time.Time, cfg Config) []Alert {
	b := newBatch(pop, detectedAt)

	var out []Alert
	out = append(out, b.servantPartners()...)
	out = append(out, b.activeSanctions(ref)...)
	out = append(out, b.donationAlerts(cfg)...)
	out = append(out, b.sanctionedPartners()...)
	out = append(out, b.bidRotation(cfg)...)
	out = append(out, b.frontCompanies(cfg)...)

	sortAlerts(out)
	return out
}

func (b *batch) servantPartners() []Alert {
	var out []Alert
	for _, c := range b.companies {
		for _, p := range uniquePersons(b.partners[c.CNPJ.Root()], func(p domain.Partner) bool { return p.IsCivilServant }) {
			out = append(out, b.alert(c.CNPJ, TypeCivilServantPartner, SeverityGravissimo,
				"Sócio é servidor público",
				fmt.Sprintf("socio=%s; orgao=%s; cnpj=%s", p.NormalizedName(), p.ServantOrganization, c.CNPJ)))
		}
	}
	return out
}

func (b *batch) activeSanctions(ref time.Time) []Alert {
	var out []Alert
	for cnpj, sanctions := range b.sanctions {
		n := len(b.contracts[cnpj])
		if n == 0 {
			continue
		}
		var active []string
		for _, s := range sanctions {
			if s.EndDate == nil || s.EndDate.After(ref) {
				active = append(active, describeSanction(s))
			}
		}
		if len(active) == 0 {
			continue
		}
		sort.Strings(active)
		out = append(out, b.alert(cnpj, TypeActiveSanction, SeverityGravissimo,
			"Empresa com sanção vigente possui contratos",
			fmt.Sprintf("cnpj=%s; contratos=%d; sancoes=%s", cnpj, n, strings.Join(active, "; "))))
	}
	return out
}

func (b *batch) donationAlerts(cfg Config) []Alert {
	var out []Alert
	for cnpj, donations := range b.donations {
		total := b.totals[cnpj]
		if !total.Decimal().GreaterThan(cfg.ContractTotalAbove) {
			continue
		}
		material := make([]domain.Donation, 0, len(donations))
		for _, d := range donations {
			if d.Value.Decimal().GreaterThan(cfg.DonationAbove) {
				material = append(material, d)
			}
		}
		if len(material) == 0 {
			continue
		}
		// Largest first; ties keep input order.
		sort.SliceStable(material, func(i, j int) bool { return material[i].Value.GreaterThan(material[j].Value) })
		top := material[0]
		out = append(out, b.alert(cnpj, TypeDonationWithBigDeal, SeverityGrave,
			"Doação eleitoral relevante e contratos de alto valor",
			fmt.Sprintf("cnpj=%s; doacao=%s; ano=%d; destinatario=%s; total_contratos=%s",
				cnpj, top.Value, top.ElectionYear, top.Recipient, total)))
	}
	return out
}

func (b *batch) sanctionedPartners() []Alert {
	var out []Alert
	for _, c := range b.companies {
		for _, p := range uniquePersons(b.partners[c.CNPJ.Root()], func(p domain.Partner) bool { return p.IsSanctioned }) {
			out = append(out, b.alert(c.CNPJ, TypeSanctionedPartner, SeverityGrave,
				"Sócio ligado a empresa sancionada",
				fmt.Sprintf("socio=%s; empresas_sancionadas=%s", p.NormalizedName(), describeRefs(p.SanctionedVia))))
		}
	}
	return out
}

// rotationPair is one qualifying pair; a is the lower identifier.
type rotationPair struct {
	a, b    id.CNPJ
	partner string
	tenders []string
}

// bidRotation flags companies of different roots that share a named partner
// and bid under at least BidRotationMinTenders identical tender numbers. A
// company is flagged once, with the evidence of its first qualifying pair.
func (b *batch) bidRotation(cfg Config) []Alert {
	tenders := make(map[id.CNPJ]map[string]bool)
	for cnpj, contracts := range b.contracts {
		numbers := make([]string, 0, len(contracts))
		for _, ct := range contracts {
			if ct.HasTender() {
				numbers = append(numbers, ct.TenderNumber)
			}
		}
		numbers = platformstrings.DedupeAndTrim(numbers)
		if len(numbers) == 0 {
			continue
		}
		set := make(map[string]bool, len(numbers))
		for _, n := range numbers {
			set[n] = true
		}
		tenders[cnpj] = set
	}

	byName := make(map[string][]id.CNPJ)
	for _, c := range b.companies {
		if len(tenders[c.CNPJ]) == 0 {
			continue
		}
		names := make(map[string]bool)
		for _, p := range b.partners[c.CNPJ.Root()] {
			if n := p.NormalizedName(); n != "" {
				names[n] = true
			}
		}
		for n := range names {
			byName[n] = append(byName[n], c.CNPJ)
		}
	}

	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)

	var pairs []rotationPair
	checked := make(map[[2]id.CNPJ]bool)
	for _, name := range names {
		members := byName[name]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, c := members[i], members[j]
				if a.Root() == c.Root() || checked[[2]id.CNPJ{a, c}] {
					continue
				}
				checked[[2]id.CNPJ{a, c}] = true
				shared := intersect(tenders[a], tenders[c])
				if len(shared) >= cfg.BidRotationMinTenders {
					pairs = append(pairs, rotationPair{a: a, b: c, partner: name, tenders: shared})
				}
			}
		}
	}

	flagged := make(map[id.CNPJ]bool)
	var out []Alert
	emit := func(self, other id.CNPJ, p rotationPair) {
		if flagged[self] {
			return
		}
		flagged[self] = true
		out = append(out, b.alert(self, TypeBidRotation, SeverityGravissimo,
			"Indício de rodízio em licitações entre empresas com sócio em comum",
			fmt.Sprintf("socio=%s; empresa_parceira=%s; licitacoes=%s", p.partner, other, strings.Join(p.tenders, ","))))
	}
	for _, p := range pairs {
		emit(p.a, p.b, p)
		emit(p.b, p.a, p)
	}
	return out
}

// frontCompanies flags companies meeting all four front-company conditions.
func (b *batch) frontCompanies(cfg Config) []Alert {
	var out []Alert
	for _, c := range b.companies {
		contracts := b.contracts[c.CNPJ]
		if c.Capital == nil || c.OpenedAt == nil || len(contracts) == 0 {
			continue
		}
		if !c.Capital.Decimal().LessThan(cfg.FrontCapitalBelow) {
			continue
		}
		first := contracts[0].SignedAt
		agencies := make(map[string]bool)
		for _, ct := range contracts {
			agencies[ct.AgencyCode] = true
			if ct.SignedAt.Before(first) {
				first = ct.SignedAt
			}
		}
		gap := first.Sub(*c.OpenedAt).Hours() / 24
		if gap < 0 || gap >= cfg.FrontOpeningDays || len(agencies) != 1 {
			continue
		}
		var links []string
		for _, p := range uniquePersons(b.partners[c.CNPJ.Root()], func(p domain.Partner) bool {
			return p.IsCivilServant || p.GovernmentCompanyCount >= cfg.PartnerMultipleSuppliers
		}) {
			switch {
			case p.IsCivilServant:
				links = append(links, fmt.Sprintf("%s (servidor %s)", p.NormalizedName(), p.ServantOrganization))
			default:
				links = append(links, fmt.Sprintf("%s (%d empresas)", p.NormalizedName(), p.GovernmentCompanyCount))
			}
		}
		if len(links) == 0 {
			continue
		}
		sort.Strings(links)
		out = append(out, b.alert(c.CNPJ, TypeFrontCompany, SeverityGravissimo,
			"Indício de empresa de fachada",
			fmt.Sprintf("capital_social=%s; data_abertura=%s; primeiro_contrato=%s; orgao=%s; socios=%s",
				c.Capital, c.OpenedAt.Format(time.DateOnly), first.Format(time.DateOnly),
				contracts[0].AgencyCode, strings.Join(links, "; "))))
	}
	return out
}

// uniquePersons keeps the first row per person among partners matching keep.
func uniquePersons(partners []domain.Partner, keep func(domain.Partner) bool) []domain.Partner {
	seen := make(map[string]bool)
	var out []domain.Partner
	for _, p := range partners {
		if !keep(p) || seen[p.PersonKey()] {
			continue
		}
		seen[p.PersonKey()] = true
		out = append(out, p)
	}
	return out
}

func intersect(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
