package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/clock"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

// LeadCreditCost is what one conversion charges when billing is enabled.
const LeadCreditCost = 1

type ConvertLeadsUseCase struct {
	Resolver  ClientResolverInterface
	LeadRepo  entity.LeadRepositoryInterface
	Charger   CreditCharger       // optional; nil converts for free
	Publisher ConversionPublisher // optional
	Clock     clock.Clock
	Logger    *zap.Logger
}

func NewConvertLeadsUseCase(
	resolver ClientResolverInterface,
	leadRepo entity.LeadRepositoryInterface,
	charger CreditCharger,
	publisher ConversionPublisher,
	clk clock.Clock,
	logger *zap.Logger,
) *ConvertLeadsUseCase {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConvertLeadsUseCase{
		Resolver:  resolver,
		LeadRepo:  leadRepo,
		Charger:   charger,
		Publisher: publisher,
		Clock:     clk,
		Logger:    logger,
	}
}

// Execute converts each lead independently, in the given order. A skipped
// lead never aborts the rest; it only flips Success to false.
func (uc *ConvertLeadsUseCase) Execute(ctx context.Context, input ConvertLeadsInput) (*ConversionReport, error) {
	if errs := ValidateConvertLeadsInput(input); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	client, err := uc.Resolver.Execute(ctx, input.ClientIdentifier)
	if err != nil {
		return nil, err
	}

	report := &ConversionReport{
		Errors:            []string{},
		Outcomes:          make([]LeadOutcome, 0, len(input.LeadIDs)),
		ConvertedContacts: []*entity.Contact{},
	}

	for _, raw := range input.LeadIDs {
		leadID := strings.TrimSpace(raw)
		now := uc.Clock.Now()

		contact, err := uc.convertOne(ctx, client.ID, leadID, now)
		if err != nil {
			reason := skipReasonFor(err)
			report.SkippedCount++
			report.Outcomes = append(report.Outcomes, LeadOutcome{LeadID: leadID, Reason: reason})
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", leadID, describeSkip(reason, err)))

			if reason == SkipConversionFailed {
				uc.Logger.Error("lead conversion failed",
					zap.String("client_id", client.ID),
					zap.String("lead_id", leadID),
					zap.Error(err),
				)
			}
			continue
		}

		report.ConvertedCount++
		report.Outcomes = append(report.Outcomes, LeadOutcome{LeadID: leadID, Converted: true, ContactID: contact.ID})
		report.ConvertedContacts = append(report.ConvertedContacts, contact)
	}
	report.Success = report.SkippedCount == 0

	uc.Logger.Info("lead conversion finished",
		zap.String("client_id", client.ID),
		zap.Int("requested", len(input.LeadIDs)),
		zap.Int("converted", report.ConvertedCount),
		zap.Int("skipped", report.SkippedCount),
	)

	if report.ConvertedCount > 0 {
		uc.publish(ctx, client, report)
	}

	return report, nil
}

// convertOne charges one lead credit first when billing is on, and gives it
// back if the conversion itself is refused.
func (uc *ConvertLeadsUseCase) convertOne(ctx context.Context, clientID, leadID string, now time.Time) (*entity.Contact, error) {
	if uc.Charger == nil {
		return uc.LeadRepo.Convert(ctx, clientID, leadID, now)
	}

	month := entity.MonthOf(now)
	var contact *entity.Contact

	txn := NewTransaction(uc.Logger)
	txn.AddOperation("debit_lead_credit", func(ctx context.Context) error {
		_, err := uc.Charger.Charge(ctx, clientID, entity.CreditLeads, LeadCreditCost, month)
		return err
	})
	txn.AddCompensation("refund_lead_credit", func(ctx context.Context) error {
		_, err := uc.Charger.Refund(ctx, clientID, entity.CreditLeads, LeadCreditCost, month)
		return err
	})
	txn.AddOperation("convert_lead", func(ctx context.Context) error {
		var err error
		contact, err = uc.LeadRepo.Convert(ctx, clientID, leadID, now)
		return err
	})

	if err := txn.Execute(ctx); err != nil {
		return nil, err
	}
	return contact, nil
}

func (uc *ConvertLeadsUseCase) publish(ctx context.Context, client *entity.Client, report *ConversionReport) {
	if uc.Publisher == nil {
		return
	}

	event := queue.ConversionEvent{
		EventID:        uuid.New().String(),
		ClientID:       client.ID,
		ClientName:     client.Name,
		ClientEmail:    client.Email,
		ConvertedCount: report.ConvertedCount,
		SkippedCount:   report.SkippedCount,
		OccurredAt:     uc.Clock.Now(),
	}
	for _, c := range report.ConvertedContacts {
		event.Contacts = append(event.Contacts, queue.ConvertedContact{
			ContactID:   c.ID,
			LeadID:      c.LeadID,
			Name:        strings.TrimSpace(c.FirstName + " " + c.LastName),
			Email:       c.Email,
			JobTitle:    c.JobTitle,
			CompanyName: c.CompanyName,
		})
	}

	if err := uc.Publisher.PublishConversion(ctx, event); err != nil {
		uc.Logger.Warn("conversion committed but event publish failed",
			zap.String("client_id", client.ID),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}

func skipReasonFor(err error) SkipReason {
	switch {
	case errors.Is(err, entity.ErrLeadNotFound):
		return SkipLeadNotFound
	case errors.Is(err, entity.ErrAlreadyConverted):
		return SkipAlreadyConverted
	case errors.Is(err, entity.ErrCompanyNotEnriched):
		return SkipCompanyNotEnriched
	case errors.Is(err, entity.ErrInsufficientCredits):
		return SkipInsufficientCredits
	case errors.Is(err, entity.ErrAllocationNotFound):
		return SkipAllocationNotFound
	}
	return SkipConversionFailed
}

func describeSkip(reason SkipReason, err error) string {
	var insufficient *entity.InsufficientCreditsError
	switch {
	case errors.As(err, &insufficient):
		return fmt.Sprintf("%s (remaining %d, requested %d)", reason, insufficient.Remaining, insufficient.Requested)
	case reason == SkipConversionFailed:
		return fmt.Sprintf("%s (%v)", reason, err)
	}
	return string(reason)
}
