package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, first_name, last_name, email, phone, job_title, function_group, company_id,
	city, state, country, is_active, total_times_contacted, last_global_contact_at, added_at, lead_score, version`

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrLeadNotFound
	}

	lead, err := scanLead(r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to query lead: %w", err)
	}
	return lead, nil
}

// ListActive returns active leads already in priority order, so a bounded
// scan keeps the best candidates.
func (r *LeadRepository) ListActive(ctx context.Context, limit int) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE is_active = TRUE
		ORDER BY total_times_contacted ASC, added_at DESC, lead_score DESC
		LIMIT $1`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ConvertedLeadIDs returns every lead that any client already owns.
func (r *LeadRepository) ConvertedLeadIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT lead_id FROM contacts`)
	if err != nil {
		return nil, fmt.Errorf("failed to list converted leads: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Convert creates the client's contact snapshot and bumps the lead's contact
// counters in one transaction. The lead row stays locked until commit, so two
// clients racing for the same lead are serialized and the loser sees
// ErrAlreadyConverted.
func (r *LeadRepository) Convert(ctx context.Context, clientID, leadID string, now time.Time) (*entity.Contact, error) {
	if _, err := uuid.Parse(leadID); err != nil {
		return nil, entity.ErrLeadNotFound
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin conversion: %w", err)
	}
	defer tx.Rollback()

	lead, err := scanLead(tx.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, leadID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to lock lead: %w", err)
	}

	var taken bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM contacts WHERE lead_id = $1)`, leadID).Scan(&taken); err != nil {
		return nil, fmt.Errorf("failed to check contacts: %w", err)
	}
	if taken {
		return nil, entity.ErrAlreadyConverted
	}

	if lead.CompanyID == "" {
		return nil, entity.ErrCompanyNotEnriched
	}
	company, err := scanCompany(tx.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, lead.CompanyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrCompanyNotEnriched
		}
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	if !company.FullEnrichment {
		return nil, entity.ErrCompanyNotEnriched
	}

	contact := entity.NewContactSnapshot(clientID, lead, company, now)
	if err := insertContact(ctx, tx, contact); err != nil {
		if isUniqueViolation(err) {
			return nil, entity.ErrAlreadyConverted
		}
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE leads
		SET total_times_contacted = total_times_contacted + 1,
			last_global_contact_at = $2,
			version = version + 1
		WHERE id = $1 AND version = $3`,
		leadID, now, lead.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, fmt.Errorf("lead %s changed during conversion", leadID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit conversion: %w", err)
	}
	return contact, nil
}

func insertContact(ctx context.Context, tx *sql.Tx, c *entity.Contact) error {
	var employees sql.NullInt64
	if c.EmployeeCount != nil {
		employees = sql.NullInt64{Int64: int64(*c.EmployeeCount), Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO contacts (
			id, lead_id, client_id, first_name, last_name, email, phone, job_title, function_group,
			city, state, country, lead_score, company_id, company_name, company_domain, industry,
			employee_count, converted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		c.ID, c.LeadID, c.ClientID, c.FirstName, c.LastName, c.Email, c.Phone, c.JobTitle, c.FunctionGroup,
		c.City, c.State, c.Country, c.LeadScore, c.CompanyID, c.CompanyName, c.CompanyDomain, c.Industry,
		employees, c.ConvertedAt,
	)
	return err
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l           entity.Lead
		companyID   sql.NullString
		lastContact sql.NullTime
	)
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.JobTitle, &l.FunctionGroup, &companyID,
		&l.City, &l.State, &l.Country, &l.IsActive, &l.TotalTimesContacted, &lastContact, &l.AddedAt,
		&l.LeadScore, &l.Version,
	)
	if err != nil {
		return nil, err
	}
	l.CompanyID = companyID.String
	if lastContact.Valid {
		t := lastContact.Time
		l.LastGlobalContactAt = &t
	}
	return &l, nil
}
