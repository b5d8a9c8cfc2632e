package alert

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"radar/internal/domain"
	id "radar/pkg/domain"
)

// CompanyInput is what the real-time path knows about one company.
// Partners must already carry servant and sanction flags.
type CompanyInput struct {
	Company   domain.Company
	Partners  []domain.Partner
	Contracts []domain.Contract
	Sanctions []domain.Sanction
	Donations []domain.Donation
}

// EvaluateCompany applies the per-entity rules to one company.
// This is pure domain logic - no I/O, no clock reads. Population-only rules
// are not evaluated here; see Merge.
func EvaluateCompany(in CompanyInput, ref, detectedAt time.Time, cfg Config) []Alert {
	c := in.Company
	var out []Alert
	emit := func(t Type, sev Severity, desc, evidence string) {
		out = append(out, Alert{
			CNPJ: c.CNPJ, Type: t, Severity: sev,
			Description: desc, Evidence: evidence, DetectedAt: detectedAt,
		})
	}

	seen := make(map[string]bool)
	for _, p := range in.Partners {
		if !p.IsCivilServant || seen[p.PersonKey()] {
			continue
		}
		seen[p.PersonKey()] = true
		emit(TypeCivilServantPartner, SeverityGravissimo,
			"Sócio é servidor público",
			fmt.Sprintf("socio=%s; orgao=%s; cnpj=%s", p.NormalizedName(), p.ServantOrganization, c.CNPJ))
	}

	if len(in.Contracts) > 0 {
		var active []string
		for _, s := range in.Sanctions {
			if s.ActiveAt(ref) {
				active = append(active, describeSanction(s))
			}
		}
		if len(active) > 0 {
			sort.Strings(active)
			emit(TypeActiveSanction, SeverityGravissimo,
				"Empresa com sanção vigente possui contratos",
				fmt.Sprintf("cnpj=%s; contratos=%d; sancoes=%s", c.CNPJ, len(in.Contracts), strings.Join(active, "; ")))
		}
	}

	total := id.ZeroMoney
	for _, ct := range in.Contracts {
		total = total.Add(ct.Value)
	}
	if total.Decimal().GreaterThan(cfg.ContractTotalAbove) {
		var largest *domain.Donation
		for i := range in.Donations {
			d := &in.Donations[i]
			if !d.Value.Decimal().GreaterThan(cfg.DonationAbove) {
				continue
			}
			if largest == nil || d.Value.GreaterThan(largest.Value) {
				largest = d
			}
		}
		if largest != nil {
			emit(TypeDonationWithBigDeal, SeverityGrave,
				"Doação eleitoral relevante e contratos de alto valor",
				fmt.Sprintf("cnpj=%s; doacao=%s; ano=%d; destinatario=%s; total_contratos=%s",
					c.CNPJ, largest.Value, largest.ElectionYear, largest.Recipient, total))
		}
	}

	seen = make(map[string]bool)
	for _, p := range in.Partners {
		if !p.IsSanctioned || seen[p.PersonKey()] {
			continue
		}
		seen[p.PersonKey()] = true
		emit(TypeSanctionedPartner, SeverityGrave,
			"Sócio ligado a empresa sancionada",
			fmt.Sprintf("socio=%s; empresas_sancionadas=%s", p.NormalizedName(), describeRefs(p.SanctionedVia)))
	}

	sortAlerts(out)
	return out
}

func describeSanction(s domain.Sanction) string {
	end := "indeterminado"
	if s.EndDate != nil {
		end = s.EndDate.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s/%s %s a %s", s.Type, s.Body, s.StartDate.Format(time.DateOnly), end)
}

func describeRefs(refs []domain.CompanyRef) string {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		parts = append(parts, fmt.Sprintf("%s (%s)", r.CNPJ, r.Name))
	}
	return strings.Join(parts, ", ")
}
