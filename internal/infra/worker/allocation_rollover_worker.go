package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/clock"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

type SubscriptionLister interface {
	ListActive(ctx context.Context) ([]*entity.Subscription, error)
}

type AllocationCreator interface {
	CreateForClient(ctx context.Context, clientID, subscriptionID string, month entity.Month) (*entity.MonthlyAllocation, error)
}

// AllocationRolloverWorker makes sure every active subscription has an
// allocation for the current month. Creating it pulls in the previous month's
// leftovers, so this is where rollover actually happens.
type AllocationRolloverWorker struct {
	subs         SubscriptionLister
	creator      AllocationCreator
	clock        clock.Clock
	tickInterval time.Duration
	logger       *zap.Logger

	// OnCreated, if set, is called once per allocation the worker creates.
	OnCreated func()
}

func NewAllocationRolloverWorker(
	subs SubscriptionLister,
	creator AllocationCreator,
	clk clock.Clock,
	tickInterval time.Duration,
	logger *zap.Logger,
) *AllocationRolloverWorker {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if tickInterval <= 0 {
		tickInterval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationRolloverWorker{
		subs:         subs,
		creator:      creator,
		clock:        clk,
		tickInterval: tickInterval,
		logger:       logger,
	}
}

// Start blocks until ctx is cancelled. It runs one pass immediately.
func (w *AllocationRolloverWorker) Start(ctx context.Context) {
	w.logger.Info("allocation rollover worker started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("allocation rollover worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce returns how many allocations it created. Failures for one
// subscription are logged and do not stop the pass.
func (w *AllocationRolloverWorker) RunOnce(ctx context.Context) int {
	subs, err := w.subs.ListActive(ctx)
	if err != nil {
		w.logger.Error("failed to list active subscriptions", zap.Error(err))
		return 0
	}

	month := entity.MonthOf(w.clock.Now())
	created := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			break
		}

		_, err := w.creator.CreateForClient(ctx, sub.ClientID, sub.ID, month)
		switch {
		case err == nil:
			created++
			if w.OnCreated != nil {
				w.OnCreated()
			}
		case errors.Is(err, entity.ErrAllocationAlreadyExists):
		default:
			w.logger.Warn("failed to create monthly allocation",
				zap.String("client_id", sub.ClientID),
				zap.String("subscription_id", sub.ID),
				zap.String("month", month.String()),
				zap.Error(err),
			)
		}
	}

	if created > 0 {
		w.logger.Info("monthly allocations created", zap.String("month", month.String()), zap.Int("count", created))
	}
	return created
}
