// Package ledgerservice manages business logic layer of balances and the journal.
package ledgerservice

import (
	"context"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	Apply(ctx context.Context, arg domain.LedgerParams) (domain.LedgerEntry, error)
	GetBalance(ctx context.Context, username, currency string) (domain.Balance, error)
	ListBalances(ctx context.Context, username string) ([]domain.Balance, error)
	ListEntries(ctx context.Context, arg domain.ListEntriesParams) ([]domain.LedgerEntry, error)
}

// Service facilitates ledger service layer logic.
type Service struct {
	repo Repo
}

// New returns ledger service struct to manage balances.
func New(lr Repo) *Service {
	return &Service{
		repo: lr,
	}
}

// Credit increases available funds.
func (s *Service) Credit(ctx context.Context, username, currency string, amount decimal.Decimal, operation, referenceID string) (domain.LedgerEntry, error) {
	return s.apply(ctx, domain.EntryCredit, username, currency, amount, operation, referenceID)
}

// Debit decreases available funds.
func (s *Service) Debit(ctx context.Context, username, currency string, amount decimal.Decimal, operation, referenceID string) (domain.LedgerEntry, error) {
	return s.apply(ctx, domain.EntryDebit, username, currency, amount, operation, referenceID)
}

// Hold moves available funds to held.
func (s *Service) Hold(ctx context.Context, username, currency string, amount decimal.Decimal, operation, referenceID string) (domain.LedgerEntry, error) {
	return s.apply(ctx, domain.EntryHold, username, currency, amount, operation, referenceID)
}

// Release moves held funds back to available.
func (s *Service) Release(ctx context.Context, username, currency string, amount decimal.Decimal, operation, referenceID string) (domain.LedgerEntry, error) {
	return s.apply(ctx, domain.EntryRelease, username, currency, amount, operation, referenceID)
}

func (s *Service) apply(
	ctx context.Context, t domain.EntryType,
	username, currency string, amount decimal.Decimal, operation, referenceID string,
) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	if !currencypkg.IsSupportedCurrency(currency) {
		l.Info().Str("currency", currency).Msg("ledger operation rejected")
		return domain.LedgerEntry{}, domain.ErrUnsupportedCurrency
	}

	if !amount.IsPositive() {
		l.Info().Str("amount", amount.String()).Msg("ledger operation rejected")
		return domain.LedgerEntry{}, domain.ErrInvalidAmount
	}

	return s.repo.Apply(ctx, domain.LedgerParams{
		Username:    username,
		Currency:    currency,
		Amount:      amount,
		Type:        t,
		Operation:   operation,
		ReferenceID: referenceID,
	})
}

// GetBalance returns balance of the user in the currency. A user who never
// held the currency has a zero balance.
func (s *Service) GetBalance(ctx context.Context, username, currency string) (domain.Balance, error) {
	if !currencypkg.IsSupportedCurrency(currency) {
		return domain.Balance{}, domain.ErrUnsupportedCurrency
	}

	return s.repo.GetBalance(ctx, username, currency)
}

// ListBalances returns all balances of the user.
func (s *Service) ListBalances(ctx context.Context, username string) ([]domain.Balance, error) {
	return s.repo.ListBalances(ctx, username)
}

// ListEntries returns a page of the user journal in the currency.
func (s *Service) ListEntries(ctx context.Context, username, currency string, pageSize, pageID int32) ([]domain.LedgerEntry, error) {
	if !currencypkg.IsSupportedCurrency(currency) {
		return nil, domain.ErrUnsupportedCurrency
	}

	return s.repo.ListEntries(ctx, domain.ListEntriesParams{
		Username: username,
		Currency: currency,
		Limit:    pageSize,
		Offset:   (pageID - 1) * pageSize,
	})
}
