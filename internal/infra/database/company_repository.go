package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type CompanyRepository struct {
	DB *sql.DB
}

func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{DB: db}
}

const companyColumns = `id, name, domain, industry, employee_count, full_enrichment`

// FindByIDs loads companies in one round trip. Unknown ids are simply absent
// from the result.
func (r *CompanyRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*entity.Company, error) {
	out := make(map[string]*entity.Company, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = ANY($1::uuid[])`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

func scanCompany(row rowScanner) (*entity.Company, error) {
	var (
		c         entity.Company
		employees sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Domain, &c.Industry, &employees, &c.FullEnrichment); err != nil {
		return nil, err
	}
	if employees.Valid {
		n := int(employees.Int64)
		c.EmployeeCount = &n
	}
	return &c, nil
}
