package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type SubscriptionRepository struct {
	DB *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

const subscriptionColumns = `id, client_id, tier_id, status, current_period_start, current_period_end,
	external_id, created_at, updated_at`

func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*entity.Subscription, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrSubscriptionNotFound
	}

	sub, err := scanSubscription(r.DB.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return sub, nil
}

func (r *SubscriptionRepository) FindTierByID(ctx context.Context, id string) (*entity.SubscriptionTier, error) {
	query := `
		SELECT id, name, base_lead_credits, base_email_credits, base_linkedin_credits, base_abm_credits, monthly_price_cents
		FROM subscription_tiers WHERE id = $1`

	var t entity.SubscriptionTier
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.BaseLeadCredits, &t.BaseEmailCredits, &t.BaseLinkedInCredits, &t.BaseABMCredits, &t.MonthlyPriceCents,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrTierNotFound
		}
		return nil, fmt.Errorf("failed to query tier: %w", err)
	}
	return &t, nil
}

// ListAddOns returns every add-on line of the subscription with its catalog
// entry; the caller decides which statuses count.
func (r *SubscriptionRepository) ListAddOns(ctx context.Context, subscriptionID string) ([]*entity.SubscriptionAddOn, error) {
	query := `
		SELECT sa.id, sa.subscription_id, sa.add_on_id, sa.quantity, sa.status,
			a.id, a.name, a.credit_type, a.credit_amount, a.unit_price_cents
		FROM subscription_add_ons sa
		JOIN add_ons a ON a.id = sa.add_on_id
		WHERE sa.subscription_id = $1
		ORDER BY sa.id`

	rows, err := r.DB.QueryContext(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list add-ons: %w", err)
	}
	defer rows.Close()

	var out []*entity.SubscriptionAddOn
	for rows.Next() {
		var (
			sa         entity.SubscriptionAddOn
			creditType string
		)
		err := rows.Scan(
			&sa.ID, &sa.SubscriptionID, &sa.AddOnID, &sa.Quantity, &sa.Status,
			&sa.AddOn.ID, &sa.AddOn.Name, &creditType, &sa.AddOn.CreditAmount, &sa.AddOn.UnitPriceCents,
		)
		if err != nil {
			return nil, err
		}
		sa.AddOn.CreditType = entity.CreditType(creditType)
		out = append(out, &sa)
	}
	return out, rows.Err()
}

func (r *SubscriptionRepository) ListActive(ctx context.Context) ([]*entity.Subscription, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE status = $1 ORDER BY created_at`,
		entity.SubscriptionStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*entity.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubscription(row rowScanner) (*entity.Subscription, error) {
	var s entity.Subscription
	err := row.Scan(
		&s.ID, &s.ClientID, &s.TierID, &s.Status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd,
		&s.ExternalID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
