package entity

import (
	"context"
	"time"
)

// Client is a tenant. Credit balances live in MonthlyAllocation, not here.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientRepositoryInterface lookups return ErrClientNotFound on a miss.
type ClientRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Client, error)
	FindByDomain(ctx context.Context, domain string) (*Client, error)
	FindByEmail(ctx context.Context, email string) (*Client, error)
}
