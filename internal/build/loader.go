package build

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"

	"radar/internal/domain"
	id "radar/pkg/domain"
	"radar/pkg/platform/tx"
)

// loader writes artifact tables through the build transaction in context.
// Errors are returned as the driver reported them.
type loader struct {
	db   *sql.DB
	rows map[string]int
}

func (l *loader) insert(ctx context.Context, table, query string, n int, args func(i int) []any) error {
	stmt, err := tx.ExecerFrom(ctx, l.db).PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	l.rows[table] += n
	return nil
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.DateOnly)
}

func nullMoney(m *id.Money) any {
	if m == nil {
		return nil
	}
	return m.String()
}

func nullCNPJ(c id.CNPJ) any {
	if c.IsNil() {
		return nil
	}
	return c.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (l *loader) companies(ctx context.Context, a Artifact) error {
	cs := a.Dataset.Companies
	return l.insert(ctx, "company", `
		INSERT INTO company (cnpj, root, legal_name, status, opened_at, capital, primary_activity, address, is_supplier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(cs), func(i int) []any {
		c := cs[i]
		return []any{
			c.CNPJ.String(), c.CNPJ.Root(), c.LegalName, c.Status, nullDate(c.OpenedAt),
			nullMoney(c.Capital), c.PrimaryActivity, c.Address, boolInt(a.Suppliers[c.CNPJ.String()]),
		}
	})
}

func (l *loader) partners(ctx context.Context, a Artifact) error {
	ps := a.Dataset.Partners
	return l.insert(ctx, "partner", `
		INSERT INTO partner (id, company_root, identifier_hash, name, role, is_civil_servant, servant_organization,
			is_sanctioned, government_company_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(ps), func(i int) []any {
		p := ps[i]
		return []any{
			i + 1, p.CompanyRoot, p.IdentifierHash, p.Name, p.Role, boolInt(p.IsCivilServant), p.ServantOrganization,
			boolInt(p.IsSanctioned), p.GovernmentCompanyCount,
		}
	})
}

// partnerSanctions stores each partner's sanctioning companies with the name
// known at enrichment time, so readers never depend on the company registry.
func (l *loader) partnerSanctions(ctx context.Context, a Artifact) error {
	type row struct {
		partner  int
		position int
		ref      domain.CompanyRef
	}
	var rows []row
	for i, p := range a.Dataset.Partners {
		for j, ref := range p.SanctionedVia {
			rows = append(rows, row{partner: i + 1, position: j, ref: ref})
		}
	}
	return l.insert(ctx, "partner_sanction", `
		INSERT INTO partner_sanction (partner_id, position, cnpj, name) VALUES (?, ?, ?, ?)`,
		len(rows), func(i int) []any {
			r := rows[i]
			return []any{r.partner, r.position, r.ref.CNPJ.String(), r.ref.Name}
		})
}

func (l *loader) contracts(ctx context.Context, a Artifact) error {
	cs := a.Dataset.Contracts
	return l.insert(ctx, "contract", `
		INSERT INTO contract (id, company_identifier, company_id, agency_code, value, signed_at, object, tender_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, len(cs), func(i int) []any {
		c := cs[i]
		return []any{
			c.ID, c.CompanyIdentifier, nullCNPJ(c.CompanyRef), c.AgencyCode, c.Value.String(),
			c.SignedAt.Format(time.DateOnly), c.Object, c.TenderNumber,
		}
	})
}

func (l *loader) sanctions(ctx context.Context, a Artifact) error {
	ss := a.Dataset.Sanctions
	return l.insert(ctx, "sanction", `
		INSERT INTO sanction (id, target_identifier, target_kind, target_name, company_id, type, body, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(ss), func(i int) []any {
		s := ss[i]
		return []any{
			s.ID, s.TargetIdentifier, string(s.TargetKind), s.TargetName, nullCNPJ(s.CompanyRef), s.Type, s.Body,
			s.StartDate.Format(time.DateOnly), nullDate(s.EndDate),
		}
	})
}

func (l *loader) donations(ctx context.Context, a Artifact) error {
	ds := a.Dataset.Donations
	return l.insert(ctx, "donation", `
		INSERT INTO donation (id, donor_identifier, donor_kind, donor_name, company_id, recipient, value, election_year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, len(ds), func(i int) []any {
		d := ds[i]
		return []any{
			d.ID, d.DonorIdentifier, string(d.DonorKind), d.DonorName, nullCNPJ(d.CompanyRef), d.Recipient,
			d.Value.String(), d.ElectionYear,
		}
	})
}

func (l *loader) employeeCounts(ctx context.Context, a Artifact) error {
	es := a.Dataset.EmployeeCounts
	return l.insert(ctx, "employee_count", `
		INSERT INTO employee_count (company_id, count) VALUES (?, ?)`, len(es), func(i int) []any {
		return []any{es[i].CNPJ.String(), es[i].Count}
	})
}

func (l *loader) scores(ctx context.Context, a Artifact) error {
	ss := a.Scores
	return l.insert(ctx, "score", `
		INSERT INTO score (company_id, value, band, reference_date) VALUES (?, ?, ?, ?)`, len(ss), func(i int) []any {
		s := ss[i]
		return []any{s.CNPJ.String(), s.Value, string(s.Band), s.ReferenceDate.Format(time.DateOnly)}
	})
}

func (l *loader) scoreDetails(ctx context.Context, a Artifact) error {
	type row struct {
		cnpj id.CNPJ
		ind  int
		si   int
	}
	var rows []row
	for si, s := range a.Scores {
		for ind := range s.Indicators {
			rows = append(rows, row{cnpj: s.CNPJ, ind: ind, si: si})
		}
	}
	return l.insert(ctx, "score_detail", `
		INSERT INTO score_detail (company_id, indicator, weight, description, evidence) VALUES (?, ?, ?, ?, ?)`,
		len(rows), func(i int) []any {
			ind := a.Scores[rows[i].si].Indicators[rows[i].ind]
			return []any{rows[i].cnpj.String(), string(ind.Type), ind.Weight, ind.Description, ind.Evidence}
		})
}

func (l *loader) alerts(ctx context.Context, a Artifact) error {
	as := a.Alerts
	return l.insert(ctx, "alert", `
		INSERT INTO alert (id, company_id, type, severity, description, evidence, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, len(as), func(i int) []any {
		al := as[i]
		return []any{
			uuid.NewString(), al.CNPJ.String(), string(al.Type), string(al.Severity), al.Description, al.Evidence,
			al.DetectedAt.UTC().Format(time.RFC3339),
		}
	})
}

func (l *loader) sharedAddresses(ctx context.Context, a Artifact) error {
	ps := a.SharedAddresses
	return l.insert(ctx, "shared_address", `
		INSERT INTO shared_address (company_a, company_b, street, number) VALUES (?, ?, ?, ?)`,
		len(ps), func(i int) []any {
			p := ps[i]
			return []any{p.A.String(), p.B.String(), p.Key.Street, p.Key.Number}
		})
}

func (l *loader) graphNodes(ctx context.Context, a Artifact) error {
	ns := a.Graph.Nodes
	return l.insert(ctx, "graph_node", `
		INSERT INTO graph_node (id, kind, label) VALUES (?, ?, ?)`, len(ns), func(i int) []any {
		return []any{ns[i].ID, string(ns[i].Kind), ns[i].Label}
	})
}

func (l *loader) graphEdges(ctx context.Context, a Artifact) error {
	es := a.Graph.Edges
	return l.insert(ctx, "graph_edge", `
		INSERT INTO graph_edge (source, target, level, label) VALUES (?, ?, ?, ?)`, len(es), func(i int) []any {
		return []any{es[i].Source, es[i].Target, es[i].Level, es[i].Label}
	})
}

// Build info keys.
const (
	InfoBuildID          = "build_id"
	InfoBuiltAt          = "built_at"
	InfoReferenceDate    = "reference_date"
	InfoGraphCapped      = "graph_capped"
	InfoEmployeeRegistry = "employee_registry"
)

func (l *loader) buildInfo(ctx context.Context, a Artifact, buildID uuid.UUID, builtAt time.Time) error {
	kv := [][2]string{
		{InfoBuildID, buildID.String()},
		{InfoBuiltAt, builtAt.UTC().Format(time.RFC3339)},
		{InfoReferenceDate, a.ReferenceDate.Format(time.DateOnly)},
		{InfoGraphCapped, strconv.FormatBool(a.Graph.Capped)},
		{InfoEmployeeRegistry, strconv.FormatBool(a.Dataset.HasEmployeeRegistry)},
	}
	return l.insert(ctx, "build_info", `INSERT INTO build_info (key, value) VALUES (?, ?)`, len(kv), func(i int) []any {
		return []any{kv[i][0], kv[i][1]}
	})
}
