package entity

import (
	"context"
	"fmt"
	"time"
)

type CreditType string

const (
	CreditLeads    CreditType = "leads"
	CreditEmails   CreditType = "emails"
	CreditLinkedIn CreditType = "linkedin"
	CreditABM      CreditType = "abm"
)

var CreditTypes = []CreditType{CreditLeads, CreditEmails, CreditLinkedIn, CreditABM}

func ParseCreditType(s string) (CreditType, error) {
	for _, ct := range CreditTypes {
		if string(ct) == s {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown credit type %q", s)
}

// RollsOver reports whether unused credits carry into the next month.
// LinkedIn and ABM credits expire at period end.
func (c CreditType) RollsOver() bool {
	return c == CreditLeads || c == CreditEmails
}

const monthLayout = "2006-01"

// Month is a calendar month in YYYY-MM form.
type Month string

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return Month(t.Format(monthLayout)), nil
}

func MonthOf(t time.Time) Month {
	return Month(t.UTC().Format(monthLayout))
}

// Start is the first instant of the month in UTC. Month must be valid.
func (m Month) Start() time.Time {
	t, _ := time.Parse(monthLayout, string(m))
	return t
}

func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

func (m Month) Previous() Month {
	return MonthOf(m.Start().AddDate(0, -1, 0))
}

func (m Month) String() string { return string(m) }

const (
	AllocationStatusActive = "ACTIVE"
)

// CreditPool is one credit type inside an allocation.
// Total = Base + AddOn + RolloverIn and 0 <= Used <= Total.
type CreditPool struct {
	Base       int `json:"base"`
	AddOn      int `json:"addon"`
	RolloverIn int `json:"rollover_in"`
	Total      int `json:"total"`
	Used       int `json:"used"`
}

func (p CreditPool) Remaining() int {
	return p.Total - p.Used
}

// MonthlyAllocation is the credit ledger row for one (client, month).
type MonthlyAllocation struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	SubscriptionID string     `json:"subscription_id"`
	Month          Month      `json:"month"`
	Leads          CreditPool `json:"leads"`
	Emails         CreditPool `json:"emails"`
	LinkedIn       CreditPool `json:"linkedin"`
	ABM            CreditPool `json:"abm"`
	PeriodStart    time.Time  `json:"period_start"`
	PeriodEnd      time.Time  `json:"period_end"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (a *MonthlyAllocation) Pool(ct CreditType) *CreditPool {
	switch ct {
	case CreditLeads:
		return &a.Leads
	case CreditEmails:
		return &a.Emails
	case CreditLinkedIn:
		return &a.LinkedIn
	case CreditABM:
		return &a.ABM
	}
	return nil
}

type AllocationRepositoryInterface interface {
	// Create fails with ErrAllocationAlreadyExists when (client, month) is taken.
	Create(ctx context.Context, a *MonthlyAllocation) error
	FindByClientAndMonth(ctx context.Context, clientID string, month Month) (*MonthlyAllocation, error)
	// Debit is a single atomic read-modify-write; on refusal nothing changes.
	Debit(ctx context.Context, clientID string, month Month, ct CreditType, amount int) (int, error)
	Refund(ctx context.Context, clientID string, month Month, ct CreditType, amount int) (int, error)
}
