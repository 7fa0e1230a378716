package entity

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a client-owned copy of a lead. Fields are frozen at conversion
// time; later lead or company edits are not reflected here.
type Contact struct {
	ID            string    `json:"id"`
	LeadID        string    `json:"lead_id"`
	ClientID      string    `json:"client_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	JobTitle      string    `json:"job_title,omitempty"`
	FunctionGroup string    `json:"function_group,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	Country       string    `json:"country,omitempty"`
	LeadScore     float64   `json:"lead_score"`
	CompanyID     string    `json:"company_id"`
	CompanyName   string    `json:"company_name"`
	CompanyDomain string    `json:"company_domain,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	EmployeeCount *int      `json:"employee_count,omitempty"`
	ConvertedAt   time.Time `json:"converted_at"`
}

func NewContactSnapshot(clientID string, lead *Lead, company *Company, now time.Time) *Contact {
	c := &Contact{
		ID:            uuid.New().String(),
		LeadID:        lead.ID,
		ClientID:      clientID,
		FirstName:     lead.FirstName,
		LastName:      lead.LastName,
		Email:         lead.Email,
		Phone:         lead.Phone,
		JobTitle:      lead.JobTitle,
		FunctionGroup: lead.FunctionGroup,
		City:          lead.City,
		State:         lead.State,
		Country:       lead.Country,
		LeadScore:     lead.LeadScore,
		ConvertedAt:   now,
	}
	if company != nil {
		c.CompanyID = company.ID
		c.CompanyName = company.Name
		c.CompanyDomain = company.Domain
		c.Industry = company.Industry
		if company.EmployeeCount != nil {
			n := *company.EmployeeCount
			c.EmployeeCount = &n
		}
	}
	return c
}
