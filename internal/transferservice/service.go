// Package transferservice manages business logic layer of p2p transfers.
package transferservice

import (
	"context"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error)
}

// Service facilitates transfer service layer logic.
type Service struct {
	repo Repo
}

// New return transfer service struct to manage transfer bussines logic.
func New(tr Repo) *Service {
	return &Service{
		repo: tr,
	}
}

func validRequest(ctx context.Context, arg domain.CreateTransferParams) error {
	l := zerolog.Ctx(ctx)

	if !arg.Amount.IsPositive() {
		l.Info().Str("amount", arg.Amount.String()).Msg("transfer rejected")
		return domain.ErrInvalidAmount
	}

	if !currencypkg.IsSupportedCurrency(arg.Currency) {
		l.Info().Str("currency", arg.Currency).Msg("transfer rejected")
		return domain.ErrUnsupportedCurrency
	}

	if arg.FromUsername == arg.ToUsername {
		l.Info().Str("username", arg.FromUsername).Msg("transfer rejected")
		return domain.ErrSelfTransfer
	}

	return nil
}

// Transfer checks if transfer request is valid and then executes transfer.
//
// The debit and the credit share one reference id.
func (s *Service) Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error) {
	if err := validRequest(ctx, arg); err != nil {
		return domain.TransferTxResult{}, err
	}

	if arg.Operation == "" {
		arg.Operation = domain.OperationP2P
	}

	if arg.ReferenceID == "" {
		arg.ReferenceID = uuid.NewString()
	}

	return s.repo.Transfer(ctx, arg)
}
