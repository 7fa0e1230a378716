package entity

import (
	"context"
	"time"
)

const (
	SubscriptionStatusActive   = "ACTIVE"
	SubscriptionStatusPending  = "PENDING"
	SubscriptionStatusCanceled = "CANCELED"

	AddOnStatusActive = "ACTIVE"
)

// SubscriptionTier is the template of base monthly credits.
type SubscriptionTier struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	BaseLeadCredits     int    `json:"base_lead_credits"`
	BaseEmailCredits    int    `json:"base_email_credits"`
	BaseLinkedInCredits int    `json:"base_linkedin_credits"`
	BaseABMCredits      int    `json:"base_abm_credits"`
	MonthlyPriceCents   int    `json:"monthly_price_cents"`
}

func (t *SubscriptionTier) BaseCredits(ct CreditType) int {
	switch ct {
	case CreditLeads:
		return t.BaseLeadCredits
	case CreditEmails:
		return t.BaseEmailCredits
	case CreditLinkedIn:
		return t.BaseLinkedInCredits
	case CreditABM:
		return t.BaseABMCredits
	}
	return 0
}

// AddOn is a purchasable increment of a single credit type.
type AddOn struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	CreditType     CreditType `json:"credit_type"`
	CreditAmount   int        `json:"credit_amount"`
	UnitPriceCents int        `json:"unit_price_cents"`
}

type Subscription struct {
	ID                 string    `json:"id"`
	ClientID           string    `json:"client_id"`
	TierID             string    `json:"tier_id"`
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	ExternalID         string    `json:"external_id,omitempty"` // payment provider reference, stored only
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// SubscriptionAddOn is a purchased add-on attached to a subscription. AddOn is
// loaded alongside it.
type SubscriptionAddOn struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id"`
	AddOnID        string `json:"add_on_id"`
	Quantity       int    `json:"quantity"`
	Status         string `json:"status"`
	AddOn          AddOn  `json:"add_on"`
}

func (a *SubscriptionAddOn) Credits() int {
	return a.AddOn.CreditAmount * a.Quantity
}

type SubscriptionRepository interface {
	FindByID(ctx context.Context, id string) (*Subscription, error)
	FindTierByID(ctx context.Context, id string) (*SubscriptionTier, error)
	ListAddOns(ctx context.Context, subscriptionID string) ([]*SubscriptionAddOn, error)
	ListActive(ctx context.Context) ([]*Subscription, error)
}
