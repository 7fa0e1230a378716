package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type ClientRepository struct {
	DB *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{DB: db}
}

const clientColumns = `id, name, domain, email, created_at`

func (r *ClientRepository) FindByID(ctx context.Context, id string) (*entity.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrClientNotFound
	}
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// FindByDomain and FindByEmail compare case-insensitively.
func (r *ClientRepository) FindByDomain(ctx context.Context, domain string) (*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE domain <> '' AND lower(domain) = lower($1) ORDER BY created_at LIMIT 1`
	return r.findOne(ctx, query, domain)
}

func (r *ClientRepository) FindByEmail(ctx context.Context, email string) (*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE email <> '' AND lower(email) = lower($1) ORDER BY created_at LIMIT 1`
	return r.findOne(ctx, query, email)
}

func (r *ClientRepository) findOne(ctx context.Context, query string, arg string) (*entity.Client, error) {
	var c entity.Client
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Domain, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to query client: %w", err)
	}
	return &c, nil
}
