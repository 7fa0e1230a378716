package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/clock"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

type CreateAllocationUseCase struct {
	Resolver  ClientResolverInterface
	SubRepo   entity.SubscriptionRepository
	AllocRepo entity.AllocationRepositoryInterface
	Clock     clock.Clock
	Logger    *zap.Logger
}

func NewCreateAllocationUseCase(
	resolver ClientResolverInterface,
	subRepo entity.SubscriptionRepository,
	allocRepo entity.AllocationRepositoryInterface,
	clk clock.Clock,
	logger *zap.Logger,
) *CreateAllocationUseCase {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreateAllocationUseCase{
		Resolver:  resolver,
		SubRepo:   subRepo,
		AllocRepo: allocRepo,
		Clock:     clk,
		Logger:    logger,
	}
}

func (uc *CreateAllocationUseCase) Execute(ctx context.Context, input CreateAllocationInput) (*entity.MonthlyAllocation, error) {
	if errs := ValidateCreateAllocationInput(input); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	client, err := uc.Resolver.Execute(ctx, input.ClientIdentifier)
	if err != nil {
		return nil, err
	}

	month := entity.MonthOf(uc.Clock.Now())
	if input.Month != "" {
		month, _ = entity.ParseMonth(input.Month)
	}

	return uc.CreateForClient(ctx, client.ID, input.SubscriptionID, month)
}

// CreateForClient builds the month's allocation from the tier, the active
// add-ons and the previous month's leftovers.
func (uc *CreateAllocationUseCase) CreateForClient(ctx context.Context, clientID, subscriptionID string, month entity.Month) (*entity.MonthlyAllocation, error) {
	sub, err := uc.SubRepo.FindByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, entity.ErrSubscriptionNotFound) {
			return nil, err
		}
		return nil, newDatabaseError("failed to load subscription", err)
	}
	if sub.ClientID != clientID {
		return nil, entity.ErrSubscriptionNotFound
	}
	if !sub.IsActive() {
		return nil, entity.ErrSubscriptionInactive
	}

	tier, err := uc.SubRepo.FindTierByID(ctx, sub.TierID)
	if err != nil {
		if errors.Is(err, entity.ErrTierNotFound) {
			return nil, err
		}
		return nil, newDatabaseError("failed to load tier", err)
	}

	if _, err := uc.AllocRepo.FindByClientAndMonth(ctx, clientID, month); err == nil {
		return nil, entity.ErrAllocationAlreadyExists
	} else if !errors.Is(err, entity.ErrAllocationNotFound) {
		return nil, newDatabaseError("failed to check allocation", err)
	}

	addOns, err := uc.SubRepo.ListAddOns(ctx, sub.ID)
	if err != nil {
		return nil, newDatabaseError("failed to load add-ons", err)
	}

	previous, err := uc.AllocRepo.FindByClientAndMonth(ctx, clientID, month.Previous())
	if err != nil {
		if !errors.Is(err, entity.ErrAllocationNotFound) {
			return nil, newDatabaseError("failed to load previous allocation", err)
		}
		previous = nil
	}

	now := uc.Clock.Now()
	allocation := &entity.MonthlyAllocation{
		ID:             uuid.New().String(),
		ClientID:       clientID,
		SubscriptionID: sub.ID,
		Month:          month,
		PeriodStart:    month.Start(),
		PeriodEnd:      month.End(),
		Status:         entity.AllocationStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, ct := range entity.CreditTypes {
		pool := allocation.Pool(ct)
		pool.Base = tier.BaseCredits(ct)
		pool.AddOn = addOnCredits(addOns, ct)
		pool.RolloverIn = rolloverFrom(previous, ct)
		pool.Total = pool.Base + pool.AddOn + pool.RolloverIn
		pool.Used = 0
	}

	if err := uc.AllocRepo.Create(ctx, allocation); err != nil {
		if errors.Is(err, entity.ErrAllocationAlreadyExists) {
			return nil, err
		}
		return nil, newDatabaseError("failed to create allocation", err)
	}

	uc.Logger.Info("monthly allocation created",
		zap.String("client_id", clientID),
		zap.String("month", month.String()),
		zap.String("tier", tier.Name),
		zap.Int("lead_credits", allocation.Leads.Total),
		zap.Int("lead_rollover", allocation.Leads.RolloverIn),
	)

	return allocation, nil
}

func addOnCredits(addOns []*entity.SubscriptionAddOn, ct entity.CreditType) int {
	total := 0
	for _, a := range addOns {
		if a.Status != entity.AddOnStatusActive || a.AddOn.CreditType != ct {
			continue
		}
		total += a.Credits()
	}
	return total
}

// rolloverFrom carries unused lead and email credits; the rest expire.
func rolloverFrom(previous *entity.MonthlyAllocation, ct entity.CreditType) int {
	if previous == nil || !ct.RollsOver() {
		return 0
	}
	return max(0, previous.Pool(ct).Remaining())
}
