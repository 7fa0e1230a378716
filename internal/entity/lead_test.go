package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func enrichedCompany(industry string, employees *int) *Company {
	return &Company{ID: "comp-1", Name: "Acme", Industry: industry, EmployeeCount: employees, FullEnrichment: true}
}

// TestLeadFiltersEmptyMatchesEnrichedOnly - filtros vazios ainda exigem empresa enriquecida
func TestLeadFiltersEmptyMatchesEnrichedOnly(t *testing.T) {
	lead := &Lead{ID: "lead-1", CompanyID: "comp-1"}
	var f LeadFilters

	assert.True(t, f.Matches(lead, enrichedCompany("", nil)))
	assert.False(t, f.Matches(lead, nil))
	assert.False(t, f.Matches(lead, &Company{ID: "comp-1", FullEnrichment: false}))
}

func TestLeadFiltersExactMatch(t *testing.T) {
	lead := &Lead{ID: "lead-1", FunctionGroup: "Sales", Country: "BR"}
	company := enrichedCompany("Software", intPtr(250))

	cases := []struct {
		name    string
		filters LeadFilters
		want    bool
	}{
		{"function group hit", LeadFilters{FunctionGroups: []string{"Sales", "Marketing"}}, true},
		{"function group miss", LeadFilters{FunctionGroups: []string{"Engineering"}}, false},
		{"industry hit", LeadFilters{Industries: []string{"Software"}}, true},
		{"industry miss", LeadFilters{Industries: []string{"Retail"}}, false},
		{"country hit", LeadFilters{Countries: []string{"BR"}}, true},
		{"country miss", LeadFilters{Countries: []string{"US"}}, false},
		{"range inside", LeadFilters{MinEmployeeCount: intPtr(100), MaxEmployeeCount: intPtr(500)}, true},
		{"range below", LeadFilters{MinEmployeeCount: intPtr(300)}, false},
		{"range above", LeadFilters{MaxEmployeeCount: intPtr(200)}, false},
		{"all filters", LeadFilters{
			FunctionGroups:   []string{"Sales"},
			Industries:       []string{"Software"},
			Countries:        []string{"BR"},
			MinEmployeeCount: intPtr(1),
			MaxEmployeeCount: intPtr(1000),
		}, true},
		{"one filter fails", LeadFilters{
			FunctionGroups: []string{"Sales"},
			Countries:      []string{"US"},
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filters.Matches(lead, company))
		})
	}
}

// TestLeadFiltersMissingAttributeIsNoMatch - atributo ausente nunca passa no filtro
func TestLeadFiltersMissingAttributeIsNoMatch(t *testing.T) {
	lead := &Lead{ID: "lead-1"}
	company := enrichedCompany("", nil)

	assert.False(t, LeadFilters{FunctionGroups: []string{"Sales"}}.Matches(lead, company))
	assert.False(t, LeadFilters{Countries: []string{"BR"}}.Matches(lead, company))
	assert.False(t, LeadFilters{Industries: []string{"Software"}}.Matches(lead, company))
	assert.False(t, LeadFilters{MaxEmployeeCount: intPtr(10)}.Matches(lead, company))
}

func TestLeadFiltersEmployeeRangeDefaults(t *testing.T) {
	lo, hi, ok := LeadFilters{}.EmployeeRange()
	assert.False(t, ok)
	assert.Zero(t, lo)
	assert.Zero(t, hi)

	lo, hi, ok = LeadFilters{MinEmployeeCount: intPtr(50)}.EmployeeRange()
	assert.True(t, ok)
	assert.Equal(t, 50, lo)
	assert.Equal(t, DefaultMaxEmployeeCount, hi)

	lo, hi, ok = LeadFilters{MaxEmployeeCount: intPtr(50)}.EmployeeRange()
	assert.True(t, ok)
	assert.Equal(t, DefaultMinEmployeeCount, lo)
	assert.Equal(t, 50, hi)
}

// TestSortLeadsByPriority - menos contatado primeiro, depois mais novo, depois maior score
func TestSortLeadsByPriority(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	old := &Lead{ID: "least-contacted-old", TotalTimesContacted: 0, AddedAt: now.Add(-72 * time.Hour)}
	twice := &Lead{ID: "contacted-twice-new", TotalTimesContacted: 2, AddedAt: now}
	newer := &Lead{ID: "least-contacted-new", TotalTimesContacted: 0, AddedAt: now.Add(-time.Hour), LeadScore: 10}
	sameHigh := &Lead{ID: "same-high-score", TotalTimesContacted: 1, AddedAt: now, LeadScore: 90}
	sameLow := &Lead{ID: "same-low-score", TotalTimesContacted: 1, AddedAt: now, LeadScore: 40}

	leads := []*Lead{twice, sameLow, old, sameHigh, newer}
	SortLeadsByPriority(leads)

	var ids []string
	for _, l := range leads {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{
		"least-contacted-new",
		"least-contacted-old",
		"same-high-score",
		"same-low-score",
		"contacted-twice-new",
	}, ids)
}

func TestNewContactSnapshotCopiesFields(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	employees := intPtr(120)
	lead := &Lead{ID: "lead-1", FirstName: "Ana", LastName: "Souza", Email: "ana@acme.io", Country: "BR", LeadScore: 77}
	company := &Company{ID: "comp-1", Name: "Acme", Domain: "acme.io", Industry: "Software", EmployeeCount: employees, FullEnrichment: true}

	contact := NewContactSnapshot("client-1", lead, company, now)

	assert.NotEmpty(t, contact.ID)
	assert.Equal(t, "lead-1", contact.LeadID)
	assert.Equal(t, "client-1", contact.ClientID)
	assert.Equal(t, "Ana", contact.FirstName)
	assert.Equal(t, "Acme", contact.CompanyName)
	assert.Equal(t, 120, *contact.EmployeeCount)
	assert.Equal(t, now, contact.ConvertedAt)

	// snapshot: later edits do not leak into the contact
	lead.Email = "changed@acme.io"
	*employees = 999
	company.Name = "Acme Renamed"
	assert.Equal(t, "ana@acme.io", contact.Email)
	assert.Equal(t, 120, *contact.EmployeeCount)
	assert.Equal(t, "Acme", contact.CompanyName)
}
