package entity

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"
)

// Lead is a marketplace-wide prospect. Any client may convert it, but only
// the conversion flow mutates it (contact counters + version).
type Lead struct {
	ID                  string     `json:"id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone,omitempty"`
	JobTitle            string     `json:"job_title,omitempty"`
	FunctionGroup       string     `json:"function_group,omitempty"`
	CompanyID           string     `json:"company_id,omitempty"`
	City                string     `json:"city,omitempty"`
	State               string     `json:"state,omitempty"`
	Country             string     `json:"country,omitempty"`
	IsActive            bool       `json:"is_active"`
	TotalTimesContacted int        `json:"total_times_contacted"`
	LastGlobalContactAt *time.Time `json:"last_global_contact_at,omitempty"`
	AddedAt             time.Time  `json:"added_at"`
	LeadScore           float64    `json:"lead_score"`
	Version             int        `json:"version"`
}

func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Company is read-only here; enrichment happens elsewhere.
type Company struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Domain         string `json:"domain,omitempty"`
	Industry       string `json:"industry,omitempty"`
	EmployeeCount  *int   `json:"employee_count,omitempty"`
	FullEnrichment bool   `json:"full_enrichment"`
}

const (
	DefaultMinEmployeeCount = 1
	DefaultMaxEmployeeCount = 100000
)

// LeadFilters are the targeting constraints of a search. Every supplied
// filter is required; an empty one imposes nothing.
type LeadFilters struct {
	FunctionGroups   []string `json:"function_groups,omitempty"`
	Industries       []string `json:"industries,omitempty"`
	Countries        []string `json:"countries,omitempty"`
	MinEmployeeCount *int     `json:"min_employee_count,omitempty"`
	MaxEmployeeCount *int     `json:"max_employee_count,omitempty"`
}

// EmployeeRange reports the effective bounds and whether the filter is in use.
// Each bound falls back to its default independently.
func (f LeadFilters) EmployeeRange() (lo, hi int, ok bool) {
	if f.MinEmployeeCount == nil && f.MaxEmployeeCount == nil {
		return 0, 0, false
	}
	lo, hi = DefaultMinEmployeeCount, DefaultMaxEmployeeCount
	if f.MinEmployeeCount != nil {
		lo = *f.MinEmployeeCount
	}
	if f.MaxEmployeeCount != nil {
		hi = *f.MaxEmployeeCount
	}
	return lo, hi, true
}

// Matches is the exact-match predicate. A lead without a fully enriched
// company never matches, whatever the filters say.
func (f LeadFilters) Matches(lead *Lead, company *Company) bool {
	if lead == nil || company == nil || !company.FullEnrichment {
		return false
	}
	if len(f.FunctionGroups) > 0 && !containsValue(f.FunctionGroups, lead.FunctionGroup) {
		return false
	}
	if len(f.Countries) > 0 && !containsValue(f.Countries, lead.Country) {
		return false
	}
	if len(f.Industries) > 0 && !containsValue(f.Industries, company.Industry) {
		return false
	}
	if lo, hi, ok := f.EmployeeRange(); ok {
		if company.EmployeeCount == nil {
			return false
		}
		if n := *company.EmployeeCount; n < lo || n > hi {
			return false
		}
	}
	return true
}

// containsValue treats an empty attribute as absent, which never matches.
func containsValue(set []string, v string) bool {
	if v == "" {
		return false
	}
	return slices.Contains(set, v)
}

// CompareLeadPriority orders leads least-contacted first, then newest, then
// highest score.
func CompareLeadPriority(a, b *Lead) int {
	if c := cmp.Compare(a.TotalTimesContacted, b.TotalTimesContacted); c != 0 {
		return c
	}
	if c := b.AddedAt.Compare(a.AddedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.LeadScore, a.LeadScore)
}

func SortLeadsByPriority(leads []*Lead) {
	slices.SortFunc(leads, CompareLeadPriority)
}

type LeadRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Lead, error)
	// ListActive returns at most limit active leads, best-ranked first.
	ListActive(ctx context.Context, limit int) ([]*Lead, error)
	// ConvertedLeadIDs is the global exclusion set: every lead owned by any client.
	ConvertedLeadIDs(ctx context.Context) (map[string]struct{}, error)
	// Convert runs the exclusivity check, the contact insert and the counter
	// update as one atomic unit.
	Convert(ctx context.Context, clientID, leadID string, now time.Time) (*Contact, error)
}

type CompanyRepositoryInterface interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]*Company, error)
}
