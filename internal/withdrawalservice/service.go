// Package withdrawalservice manages business logic layer of withdrawals.
package withdrawalservice

import (
	"context"
	"time"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/events"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by withdrawal service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package withdrawalservice
type Repo interface {
	Create(ctx context.Context, arg domain.HoldWithdrawalParams) (domain.Withdrawal, error)
	Settle(ctx context.Context, id uuid.UUID, txHash string) (domain.Withdrawal, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (domain.Withdrawal, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Withdrawal, error)
	List(ctx context.Context, username string, status domain.WithdrawalStatus, limit, offset int32) ([]domain.Withdrawal, error)
}

// UserGetter returns the user to pick the limit tier.
type UserGetter interface {
	Get(ctx context.Context, username string) (domain.User, error)
}

// AddressValidator checks destination addresses per network.
type AddressValidator interface {
	ValidateAddress(network domain.Network, address string) error
}

// Service facilitates withdrawal service layer logic.
type Service struct {
	repo      Repo
	users     UserGetter
	addresses AddressValidator
	publisher events.Publisher
	policy    Policy
	now       func() time.Time
}

// New returns withdrawal service struct to manage withdrawal bussines logic.
func New(wr Repo, ug UserGetter, av AddressValidator, p events.Publisher, policy Policy) *Service {
	if policy.Window <= 0 {
		policy.Window = DefaultWindow
	}

	return &Service{
		repo:      wr,
		users:     ug,
		addresses: av,
		publisher: p,
		policy:    policy,
		now:       time.Now,
	}
}

func (s *Service) validRequest(ctx context.Context, arg domain.CreateWithdrawalParams) (Fee, error) {
	l := zerolog.Ctx(ctx)

	if !arg.Amount.IsPositive() {
		l.Info().Str("amount", arg.Amount.String()).Msg("withdrawal rejected")
		return Fee{}, domain.ErrInvalidAmount
	}

	if !currencypkg.IsSupportedCurrency(arg.Currency) {
		l.Info().Str("currency", arg.Currency).Msg("withdrawal rejected")
		return Fee{}, domain.ErrUnsupportedCurrency
	}

	fee, ok := s.policy.Fees[arg.Network]
	if !arg.Network.IsSupported() || !ok {
		l.Info().Str("network", string(arg.Network)).Msg("withdrawal rejected")
		return Fee{}, domain.ErrUnsupportedNetwork
	}

	if arg.Network.Currency() != arg.Currency {
		l.Info().Str("currency", arg.Currency).Str("network", string(arg.Network)).Msg("withdrawal rejected")
		return Fee{}, domain.ErrCurrencyNetworkMismatch
	}

	if err := s.addresses.ValidateAddress(arg.Network, arg.Address); err != nil {
		l.Info().Err(err).Str("address", arg.Address).Msg("withdrawal rejected")
		return Fee{}, domain.ErrInvalidAddress
	}

	if arg.Amount.LessThan(fee.MinAmount) {
		l.Info().Str("amount", arg.Amount.String()).Str("min", fee.MinAmount.String()).Msg("withdrawal rejected")
		return Fee{}, domain.ErrBelowMinimum
	}

	return fee, nil
}

// Create validates the request and holds amount plus fee.
//
// Every validation failure happens before any mutation. The balance check, the
// rolling limit check, the hold and the row insert run in one transaction.
func (s *Service) Create(ctx context.Context, arg domain.CreateWithdrawalParams) (domain.Withdrawal, error) {
	l := zerolog.Ctx(ctx)

	fee, err := s.validRequest(ctx, arg)
	if err != nil {
		return domain.Withdrawal{}, err
	}

	user, err := s.users.Get(ctx, arg.Username)
	if err != nil {
		return domain.Withdrawal{}, err
	}

	limit, ok := s.policy.Limit(arg.Currency, user.KYCVerified)
	if !ok {
		return domain.Withdrawal{}, domain.ErrUnsupportedCurrency
	}

	w, err := s.repo.Create(ctx, domain.HoldWithdrawalParams{
		ID:          uuid.New(),
		Username:    arg.Username,
		Currency:    arg.Currency,
		Network:     arg.Network,
		Address:     arg.Address,
		Amount:      arg.Amount,
		Fee:         fee.Fee,
		DailyLimit:  limit,
		WindowStart: s.now().Add(-s.policy.Window),
	})
	if err != nil {
		return w, err
	}

	l.Info().Str("withdrawal_id", w.ID.String()).Str("total", w.Total().String()).Msg("withdrawal created")
	events.Emit(ctx, s.publisher, events.New(events.WithdrawalCreated, w.Username, w))

	return w, nil
}

// Settle completes a PENDING withdrawal with the hash of the broadcast transaction.
func (s *Service) Settle(ctx context.Context, id uuid.UUID, txHash string) (domain.Withdrawal, error) {
	l := zerolog.Ctx(ctx)

	if txHash == "" {
		return domain.Withdrawal{}, domain.ErrMissingTxHash
	}

	w, err := s.repo.Settle(ctx, id, txHash)
	if err != nil {
		return w, err
	}

	l.Info().Str("withdrawal_id", w.ID.String()).Str("tx_hash", txHash).Msg("withdrawal completed")
	events.Emit(ctx, s.publisher, events.New(events.WithdrawalCompleted, w.Username, w))

	return w, nil
}

// Reject returns the held funds of a PENDING withdrawal to the user.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (domain.Withdrawal, error) {
	l := zerolog.Ctx(ctx)

	w, err := s.repo.Reject(ctx, id, reason)
	if err != nil {
		return w, err
	}

	l.Info().Str("withdrawal_id", w.ID.String()).Str("reason", reason).Msg("withdrawal rejected")
	events.Emit(ctx, s.publisher, events.New(events.WithdrawalRejected, w.Username, w))

	return w, nil
}

// Get returns the withdrawal.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Withdrawal, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of withdrawals. Empty username or status matches everything.
func (s *Service) List(
	ctx context.Context, username string, status domain.WithdrawalStatus, pageSize, pageID int32,
) ([]domain.Withdrawal, error) {
	return s.repo.List(ctx, username, status, pageSize, (pageID-1)*pageSize)
}
