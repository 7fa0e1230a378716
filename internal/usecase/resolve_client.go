package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// lookupStrategy returns (nil, nil) when it has no match.
type lookupStrategy struct {
	name   string
	lookup func(ctx context.Context, identifier string) (*entity.Client, error)
}

type ResolveClientUseCase struct {
	Repo       entity.ClientRepositoryInterface
	Logger     *zap.Logger
	strategies []lookupStrategy
}

func NewResolveClientUseCase(repo entity.ClientRepositoryInterface, logger *zap.Logger) *ResolveClientUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &ResolveClientUseCase{Repo: repo, Logger: logger}
	uc.strategies = []lookupStrategy{
		{name: "id", lookup: uc.byID},
		{name: "domain", lookup: missAsNil(repo.FindByDomain)},
		{name: "email", lookup: missAsNil(repo.FindByEmail)},
	}
	return uc
}

// Execute resolves a primary key, domain or email to a client, in that order.
func (uc *ResolveClientUseCase) Execute(ctx context.Context, identifier string) (*entity.Client, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, entity.ErrClientNotFound
	}

	for _, s := range uc.strategies {
		client, err := s.lookup(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("resolve client by %s: %w", s.name, err)
		}
		if client != nil {
			uc.Logger.Debug("client resolved", zap.String("strategy", s.name), zap.String("client_id", client.ID))
			return client, nil
		}
	}

	return nil, entity.ErrClientNotFound
}

// byID skips the store entirely when the identifier cannot be a key.
func (uc *ResolveClientUseCase) byID(ctx context.Context, identifier string) (*entity.Client, error) {
	if _, err := uuid.Parse(identifier); err != nil {
		return nil, nil
	}
	return missAsNil(uc.Repo.FindByID)(ctx, identifier)
}

func missAsNil(find func(context.Context, string) (*entity.Client, error)) func(context.Context, string) (*entity.Client, error) {
	return func(ctx context.Context, identifier string) (*entity.Client, error) {
		client, err := find(ctx, identifier)
		if errors.Is(err, entity.ErrClientNotFound) {
			return nil, nil
		}
		return client, err
	}
}
