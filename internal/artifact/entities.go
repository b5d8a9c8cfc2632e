package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"radar/internal/domain"
	id "radar/pkg/domain"
	"radar/pkg/platform/sentinel"
)

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseNullCNPJ(s sql.NullString) (id.CNPJ, error) {
	if !s.Valid {
		return id.CNPJ{}, nil
	}
	return id.ParseCNPJ(s.String)
}

func (r *Reader) company(ctx context.Context, cnpj id.CNPJ) (domain.Company, error) {
	var (
		c               = domain.Company{CNPJ: cnpj}
		opened, capital sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT legal_name, status, opened_at, capital, primary_activity, address
		FROM company
		WHERE cnpj = ?`, cnpj.String(),
	).Scan(&c.LegalName, &c.Status, &opened, &capital, &c.PrimaryActivity, &c.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Company{}, fmt.Errorf("%w: company %s", sentinel.ErrNotFound, cnpj)
	}
	if err != nil {
		return domain.Company{}, fmt.Errorf("get company: %w", err)
	}
	if c.OpenedAt, err = parseNullDate(opened); err != nil {
		return domain.Company{}, fmt.Errorf("parse opening date: %w", err)
	}
	if capital.Valid {
		m, err := id.ParseMoney(capital.String)
		if err != nil {
			return domain.Company{}, fmt.Errorf("parse capital: %w", err)
		}
		c.Capital = &m
	}
	return c, nil
}

// partners returns the enriched partner rows of root with their sanctioning
// companies as stored at build time.
func (r *Reader) partners(ctx context.Context, root string) ([]domain.Partner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, identifier_hash, name, role, is_civil_servant, servant_organization,
			is_sanctioned, government_company_count
		FROM partner
		WHERE company_root = ?
		ORDER BY id`, root)
	if err != nil {
		return nil, fmt.Errorf("query partners: %w", err)
	}
	defer rows.Close()

	var (
		out []domain.Partner
		ids = make(map[int64]int)
	)
	for rows.Next() {
		var (
			p        = domain.Partner{CompanyRoot: root}
			rowID    int64
			servant  int
			sanction int
		)
		if err := rows.Scan(&rowID, &p.IdentifierHash, &p.Name, &p.Role, &servant, &p.ServantOrganization,
			&sanction, &p.GovernmentCompanyCount); err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		p.IsCivilServant = servant == 1
		p.IsSanctioned = sanction == 1
		ids[rowID] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partners: %w", err)
	}
	rows.Close()

	if len(out) == 0 {
		return out, nil
	}
	return out, r.sanctionedVia(ctx, root, out, ids)
}

func (r *Reader) sanctionedVia(ctx context.Context, root string, partners []domain.Partner, ids map[int64]int) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ps.partner_id, ps.cnpj, ps.name
		FROM partner_sanction ps
		JOIN partner p ON p.id = ps.partner_id
		WHERE p.company_root = ?
		ORDER BY ps.partner_id, ps.position`, root)
	if err != nil {
		return fmt.Errorf("query partner sanctions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			partnerID int64
			digits    string
			ref       domain.CompanyRef
		)
		if err := rows.Scan(&partnerID, &digits, &ref.Name); err != nil {
			return fmt.Errorf("scan partner sanction: %w", err)
		}
		if ref.CNPJ, err = id.ParseCNPJ(digits); err != nil {
			return fmt.Errorf("parse sanctioning company: %w", err)
		}
		i, ok := ids[partnerID]
		if !ok {
			continue
		}
		partners[i].SanctionedVia = append(partners[i].SanctionedVia, ref)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate partner sanctions: %w", err)
	}
	return nil
}

func (r *Reader) contracts(ctx context.Context, cnpj id.CNPJ) ([]domain.Contract, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, company_identifier, agency_code, value, signed_at, object, tender_number
		FROM contract
		WHERE company_id = ?
		ORDER BY rowid`, cnpj.String())
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contract
	for rows.Next() {
		var (
			c             = domain.Contract{CompanyRef: cnpj}
			value, signed string
		)
		if err := rows.Scan(&c.ID, &c.CompanyIdentifier, &c.AgencyCode, &value, &signed, &c.Object, &c.TenderNumber); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		if c.Value, err = id.ParseMoney(value); err != nil {
			return nil, fmt.Errorf("parse contract value: %w", err)
		}
		if c.SignedAt, err = time.Parse(time.DateOnly, signed); err != nil {
			return nil, fmt.Errorf("parse contract date: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}
	return out, nil
}

func (r *Reader) sanctions(ctx context.Context, cnpj id.CNPJ) ([]domain.Sanction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, target_identifier, target_kind, target_name, type, body, start_date, end_date
		FROM sanction
		WHERE company_id = ?
		ORDER BY rowid`, cnpj.String())
	if err != nil {
		return nil, fmt.Errorf("query sanctions: %w", err)
	}
	defer rows.Close()

	var out []domain.Sanction
	for rows.Next() {
		var (
			s           = domain.Sanction{CompanyRef: cnpj}
			kind, start string
			end         sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.TargetIdentifier, &kind, &s.TargetName, &s.Type, &s.Body, &start, &end); err != nil {
			return nil, fmt.Errorf("scan sanction: %w", err)
		}
		s.TargetKind = id.IdentifierKind(kind)
		if s.StartDate, err = time.Parse(time.DateOnly, start); err != nil {
			return nil, fmt.Errorf("parse sanction start: %w", err)
		}
		if s.EndDate, err = parseNullDate(end); err != nil {
			return nil, fmt.Errorf("parse sanction end: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sanctions: %w", err)
	}
	return out, nil
}

func (r *Reader) donations(ctx context.Context, cnpj id.CNPJ) ([]domain.Donation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, donor_identifier, donor_kind, donor_name, company_id, recipient, value, election_year
		FROM donation
		WHERE company_id = ?
		ORDER BY rowid`, cnpj.String())
	if err != nil {
		return nil, fmt.Errorf("query donations: %w", err)
	}
	defer rows.Close()

	var out []domain.Donation
	for rows.Next() {
		var (
			d           domain.Donation
			kind, value string
			companyID   sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.DonorIdentifier, &kind, &d.DonorName, &companyID, &d.Recipient, &value, &d.ElectionYear); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		d.DonorKind = id.IdentifierKind(kind)
		if d.CompanyRef, err = parseNullCNPJ(companyID); err != nil {
			return nil, fmt.Errorf("parse donor company: %w", err)
		}
		if d.Value, err = id.ParseMoney(value); err != nil {
			return nil, fmt.Errorf("parse donation value: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return out, nil
}
