package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// DefaultScanLimit bounds how many active leads one search evaluates.
const DefaultScanLimit = 5000

type FindCandidatesUseCase struct {
	Resolver    ClientResolverInterface
	LeadRepo    entity.LeadRepositoryInterface
	CompanyRepo entity.CompanyRepositoryInterface
	ScanLimit   int
	Logger      *zap.Logger
}

func NewFindCandidatesUseCase(
	resolver ClientResolverInterface,
	leadRepo entity.LeadRepositoryInterface,
	companyRepo entity.CompanyRepositoryInterface,
	scanLimit int,
	logger *zap.Logger,
) *FindCandidatesUseCase {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FindCandidatesUseCase{
		Resolver:    resolver,
		LeadRepo:    leadRepo,
		CompanyRepo: companyRepo,
		ScanLimit:   scanLimit,
		Logger:      logger,
	}
}

func (uc *FindCandidatesUseCase) Execute(ctx context.Context, input FindCandidatesInput) (*FindCandidatesOutput, error) {
	if errs := ValidateFindCandidatesInput(input); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	client, err := uc.Resolver.Execute(ctx, input.ClientIdentifier)
	if err != nil {
		return nil, err
	}

	limit := input.MaxResults
	if limit == 0 {
		limit = DefaultMaxResults
	}

	excluded, err := uc.LeadRepo.ConvertedLeadIDs(ctx)
	if err != nil {
		return nil, newDatabaseError("failed to load converted leads", err)
	}

	leads, err := uc.LeadRepo.ListActive(ctx, uc.ScanLimit)
	if err != nil {
		return nil, newDatabaseError("failed to scan active leads", err)
	}

	candidates := make([]*entity.Lead, 0, len(leads))
	companyIDs := make([]string, 0, len(leads))
	seen := make(map[string]struct{})
	for _, lead := range leads {
		if !lead.IsActive || lead.CompanyID == "" {
			continue
		}
		if _, taken := excluded[lead.ID]; taken {
			continue
		}
		candidates = append(candidates, lead)
		if _, ok := seen[lead.CompanyID]; !ok {
			seen[lead.CompanyID] = struct{}{}
			companyIDs = append(companyIDs, lead.CompanyID)
		}
	}

	companies := map[string]*entity.Company{}
	if len(companyIDs) > 0 {
		companies, err = uc.CompanyRepo.FindByIDs(ctx, companyIDs)
		if err != nil {
			return nil, newDatabaseError("failed to load companies", err)
		}
	}

	matched := candidates[:0]
	for _, lead := range candidates {
		if input.Filters.Matches(lead, companies[lead.CompanyID]) {
			matched = append(matched, lead)
		}
	}
	entity.SortLeadsByPriority(matched)

	output := &FindCandidatesOutput{
		TotalMatches: len(matched),
		Leads:        make([]LeadSummary, 0, min(limit, len(matched))),
	}
	for _, lead := range matched[:min(limit, len(matched))] {
		output.Leads = append(output.Leads, toLeadSummary(lead, companies[lead.CompanyID]))
	}

	uc.Logger.Info("lead search finished",
		zap.String("client_id", client.ID),
		zap.Int("scanned", len(leads)),
		zap.Int("excluded", len(excluded)),
		zap.Int("matches", output.TotalMatches),
		zap.Int("returned", len(output.Leads)),
	)

	return output, nil
}

func toLeadSummary(lead *entity.Lead, company *entity.Company) LeadSummary {
	return LeadSummary{
		ID:                  lead.ID,
		Name:                lead.FullName(),
		JobTitle:            lead.JobTitle,
		FunctionGroup:       lead.FunctionGroup,
		City:                lead.City,
		State:               lead.State,
		Country:             lead.Country,
		CompanyID:           company.ID,
		CompanyName:         company.Name,
		Industry:            company.Industry,
		EmployeeCount:       company.EmployeeCount,
		TotalTimesContacted: lead.TotalTimesContacted,
		AddedAt:             lead.AddedAt,
		LeadScore:           lead.LeadScore,
	}
}
