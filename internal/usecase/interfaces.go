package usecase

import (
	"context"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

type ClientResolverInterface interface {
	Execute(ctx context.Context, identifier string) (*entity.Client, error)
}

// CreditCharger is the slice of the ledger the conversion flow pays with.
type CreditCharger interface {
	Charge(ctx context.Context, clientID string, ct entity.CreditType, amount int, month entity.Month) (int, error)
	Refund(ctx context.Context, clientID string, ct entity.CreditType, amount int, month entity.Month) (int, error)
}

type ConversionPublisher interface {
	PublishConversion(ctx context.Context, event queue.ConversionEvent) error
}
