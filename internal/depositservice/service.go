// Package depositservice exposes recorded deposits.
package depositservice

import (
	"context"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
)

// Repo provides data access layer interface needed by deposit service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package depositservice
type Repo interface {
	Get(ctx context.Context, txID string) (domain.Deposit, error)
	List(ctx context.Context, arg domain.ListDepositsParams) ([]domain.Deposit, error)
}

// Service facilitates deposit service layer logic.
type Service struct {
	repo Repo
}

// New returns deposit service struct.
func New(dr Repo) *Service {
	return &Service{
		repo: dr,
	}
}

// Get returns the deposit with the given transaction id.
func (s *Service) Get(ctx context.Context, txID string) (domain.Deposit, error) {
	return s.repo.Get(ctx, txID)
}

// List returns deposits matching the filter page by page, newest first.
func (s *Service) List(ctx context.Context, arg domain.ListDepositsParams, pageSize, pageID int32) ([]domain.Deposit, error) {
	if arg.Currency != "" && !currencypkg.IsSupportedCurrency(arg.Currency) {
		return nil, domain.ErrUnsupportedCurrency
	}

	if arg.Network != "" && !arg.Network.IsSupported() {
		return nil, domain.ErrUnsupportedNetwork
	}

	arg.Limit = pageSize
	arg.Offset = (pageID - 1) * pageSize

	return s.repo.List(ctx, arg)
}
