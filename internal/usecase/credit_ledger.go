package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/clock"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

// CreditLedgerUseCase reads and debits monthly allocations. It never creates
// one; that is CreateAllocationUseCase's job.
type CreditLedgerUseCase struct {
	Resolver ClientResolverInterface
	Repo     entity.AllocationRepositoryInterface
	Clock    clock.Clock
	Logger   *zap.Logger
}

func NewCreditLedgerUseCase(
	resolver ClientResolverInterface,
	repo entity.AllocationRepositoryInterface,
	clk clock.Clock,
	logger *zap.Logger,
) *CreditLedgerUseCase {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditLedgerUseCase{Resolver: resolver, Repo: repo, Clock: clk, Logger: logger}
}

func (uc *CreditLedgerUseCase) GetBalance(ctx context.Context, input BalanceInput) (*BalanceOutput, error) {
	if errs := ValidateBalanceInput(input); len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	ct, _ := entity.ParseCreditType(input.CreditType)
	month := uc.monthOrCurrent(input.Month)

	client, err := uc.Resolver.Execute(ctx, input.ClientIdentifier)
	if err != nil {
		return nil, err
	}

	allocation, err := uc.find(ctx, client.ID, month)
	if err != nil {
		return nil, err
	}

	pool := allocation.Pool(ct)
	return &BalanceOutput{
		ClientID:   client.ID,
		CreditType: ct,
		Month:      month,
		Used:       pool.Used,
		Total:      pool.Total,
		Remaining:  pool.Remaining(),
	}, nil
}

// GetAllocation returns the whole ledger row for the month.
func (uc *CreditLedgerUseCase) GetAllocation(ctx context.Context, identifier, month string) (*entity.MonthlyAllocation, error) {
	if month != "" {
		if _, err := entity.ParseMonth(month); err != nil {
			return nil, newValidationError([]ValidationError{{"month", "must be YYYY-MM"}})
		}
	}

	client, err := uc.Resolver.Execute(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return uc.find(ctx, client.ID, uc.monthOrCurrent(month))
}

func (uc *CreditLedgerUseCase) Debit(ctx context.Context, input DebitInput) (*DebitOutput, error) {
	if errs := ValidateDebitInput(input); len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	ct, _ := entity.ParseCreditType(input.CreditType)
	month := uc.monthOrCurrent(input.Month)

	client, err := uc.Resolver.Execute(ctx, input.ClientIdentifier)
	if err != nil {
		return nil, err
	}

	remaining, err := uc.Charge(ctx, client.ID, ct, input.Amount, month)
	if err != nil {
		return nil, err
	}

	return &DebitOutput{
		ClientID:   client.ID,
		CreditType: ct,
		Month:      month,
		Debited:    input.Amount,
		Remaining:  remaining,
	}, nil
}

// Charge debits an already-resolved client. The repository performs the
// sufficiency check and the increment as one statement.
func (uc *CreditLedgerUseCase) Charge(ctx context.Context, clientID string, ct entity.CreditType, amount int, month entity.Month) (int, error) {
	if amount < 0 {
		return 0, newValidationError([]ValidationError{{"amount", "must not be negative"}})
	}

	remaining, err := uc.Repo.Debit(ctx, clientID, month, ct, amount)
	if err != nil {
		if errors.Is(err, entity.ErrInsufficientCredits) {
			uc.Logger.Info("debit refused",
				zap.String("client_id", clientID),
				zap.String("credit_type", string(ct)),
				zap.String("month", month.String()),
				zap.Int("requested", amount),
			)
			return 0, err
		}
		if errors.Is(err, entity.ErrAllocationNotFound) {
			return 0, err
		}
		return 0, newDatabaseError("failed to debit credits", err)
	}

	uc.Logger.Debug("credits debited",
		zap.String("client_id", clientID),
		zap.String("credit_type", string(ct)),
		zap.Int("amount", amount),
		zap.Int("remaining", remaining),
	)
	return remaining, nil
}

// Refund gives back a previous debit; used never drops below zero.
func (uc *CreditLedgerUseCase) Refund(ctx context.Context, clientID string, ct entity.CreditType, amount int, month entity.Month) (int, error) {
	if amount < 0 {
		return 0, newValidationError([]ValidationError{{"amount", "must not be negative"}})
	}

	remaining, err := uc.Repo.Refund(ctx, clientID, month, ct, amount)
	if err != nil {
		if errors.Is(err, entity.ErrAllocationNotFound) {
			return 0, err
		}
		return 0, newDatabaseError("failed to refund credits", err)
	}
	return remaining, nil
}

func (uc *CreditLedgerUseCase) find(ctx context.Context, clientID string, month entity.Month) (*entity.MonthlyAllocation, error) {
	allocation, err := uc.Repo.FindByClientAndMonth(ctx, clientID, month)
	if err != nil {
		if errors.Is(err, entity.ErrAllocationNotFound) {
			return nil, err
		}
		return nil, newDatabaseError("failed to load allocation", err)
	}
	return allocation, nil
}

// monthOrCurrent expects a month that already passed validation.
func (uc *CreditLedgerUseCase) monthOrCurrent(month string) entity.Month {
	if month == "" {
		return entity.MonthOf(uc.Clock.Now())
	}
	m, _ := entity.ParseMonth(month)
	return m
}
