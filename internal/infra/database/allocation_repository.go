package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type AllocationRepository struct {
	DB *sql.DB
}

func NewAllocationRepository(db *sql.DB) *AllocationRepository {
	return &AllocationRepository{DB: db}
}

// poolColumns maps a credit type to its column prefix. Only these values are
// ever spliced into SQL.
var poolColumns = map[entity.CreditType]string{
	entity.CreditLeads:    "lead",
	entity.CreditEmails:   "email",
	entity.CreditLinkedIn: "linkedin",
	entity.CreditABM:      "abm",
}

const allocationColumns = `id, client_id, subscription_id, month,
	lead_base, lead_addon, lead_rollover_in, lead_total, lead_used,
	email_base, email_addon, email_rollover_in, email_total, email_used,
	linkedin_base, linkedin_addon, linkedin_rollover_in, linkedin_total, linkedin_used,
	abm_base, abm_addon, abm_rollover_in, abm_total, abm_used,
	period_start, period_end, status, created_at, updated_at`

func (r *AllocationRepository) Create(ctx context.Context, a *entity.MonthlyAllocation) error {
	query := `INSERT INTO monthly_allocations (` + allocationColumns + `) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8, $9,
		$10, $11, $12, $13, $14,
		$15, $16, $17, $18, $19,
		$20, $21, $22, $23, $24,
		$25, $26, $27, $28, $29)`

	args := []any{a.ID, a.ClientID, a.SubscriptionID, string(a.Month)}
	for _, ct := range entity.CreditTypes {
		p := a.Pool(ct)
		args = append(args, p.Base, p.AddOn, p.RolloverIn, p.Total, p.Used)
	}
	args = append(args, a.PeriodStart, a.PeriodEnd, a.Status, a.CreatedAt, a.UpdatedAt)

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return entity.ErrAllocationAlreadyExists
		}
		return fmt.Errorf("failed to create allocation: %w", err)
	}
	return nil
}

func (r *AllocationRepository) FindByClientAndMonth(ctx context.Context, clientID string, month entity.Month) (*entity.MonthlyAllocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM monthly_allocations WHERE client_id = $1 AND month = $2`

	var (
		a     entity.MonthlyAllocation
		m     string
		dests = []any{&a.ID, &a.ClientID, &a.SubscriptionID, &m}
	)
	for _, ct := range entity.CreditTypes {
		p := a.Pool(ct)
		dests = append(dests, &p.Base, &p.AddOn, &p.RolloverIn, &p.Total, &p.Used)
	}
	dests = append(dests, &a.PeriodStart, &a.PeriodEnd, &a.Status, &a.CreatedAt, &a.UpdatedAt)

	if err := r.DB.QueryRowContext(ctx, query, clientID, string(month)).Scan(dests...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrAllocationNotFound
		}
		return nil, fmt.Errorf("failed to query allocation: %w", err)
	}
	a.Month = entity.Month(m)
	return &a, nil
}

// Debit checks and increments in a single statement, so concurrent debits can
// never push used past total. It returns what is left after the debit.
func (r *AllocationRepository) Debit(ctx context.Context, clientID string, month entity.Month, ct entity.CreditType, amount int) (int, error) {
	col, ok := poolColumns[ct]
	if !ok {
		return 0, fmt.Errorf("unknown credit type %q", ct)
	}

	query := fmt.Sprintf(`
		UPDATE monthly_allocations
		SET %[1]s_used = %[1]s_used + $1, updated_at = NOW()
		WHERE client_id = $2 AND month = $3 AND %[1]s_total - %[1]s_used >= $1
		RETURNING %[1]s_total - %[1]s_used`, col)

	var remaining int
	err := r.DB.QueryRowContext(ctx, query, amount, clientID, string(month)).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to debit %s credits: %w", ct, err)
	}

	// Nothing updated: either there is no row or the pool is too small.
	query = fmt.Sprintf(`SELECT %[1]s_total - %[1]s_used FROM monthly_allocations WHERE client_id = $1 AND month = $2`, col)
	if err := r.DB.QueryRowContext(ctx, query, clientID, string(month)).Scan(&remaining); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, entity.ErrAllocationNotFound
		}
		return 0, fmt.Errorf("failed to read %s balance: %w", ct, err)
	}
	return 0, &entity.InsufficientCreditsError{CreditType: ct, Remaining: remaining, Requested: amount}
}

// Refund returns credits to the pool; used is floored at zero.
func (r *AllocationRepository) Refund(ctx context.Context, clientID string, month entity.Month, ct entity.CreditType, amount int) (int, error) {
	col, ok := poolColumns[ct]
	if !ok {
		return 0, fmt.Errorf("unknown credit type %q", ct)
	}

	query := fmt.Sprintf(`
		UPDATE monthly_allocations
		SET %[1]s_used = GREATEST(%[1]s_used - $1, 0), updated_at = NOW()
		WHERE client_id = $2 AND month = $3
		RETURNING %[1]s_total - %[1]s_used`, col)

	var remaining int
	if err := r.DB.QueryRowContext(ctx, query, amount, clientID, string(month)).Scan(&remaining); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, entity.ErrAllocationNotFound
		}
		return 0, fmt.Errorf("failed to refund %s credits: %w", ct, err)
	}
	return remaining, nil
}
