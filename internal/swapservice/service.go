// Package swapservice manages business logic layer of currency swaps.
package swapservice

import (
	"context"
	"time"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/events"
	"github.com/go-petr/pet-exchange/internal/rateoracle"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by swap service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package swapservice
type Repo interface {
	Execute(ctx context.Context, s domain.Swap) (domain.SwapTxResult, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Swap, error)
	List(ctx context.Context, username string, limit, offset int32) ([]domain.Swap, error)
}

// RateProvider returns the rate of one unit of from in to.
type RateProvider interface {
	Rate(from, to string) (rateoracle.Quote, error)
}

// Service facilitates swap service layer logic.
type Service struct {
	repo      Repo
	rates     RateProvider
	publisher events.Publisher
	now       func() time.Time
}

// New returns swap service struct to manage swap bussines logic.
func New(sr Repo, rp RateProvider, p events.Publisher) *Service {
	return &Service{
		repo:      sr,
		rates:     rp,
		publisher: p,
		now:       time.Now,
	}
}

// Quote returns what swapping the amount would yield now without moving funds.
//
// The target amount is rounded down to the target currency precision.
func (s *Service) Quote(ctx context.Context, arg domain.CreateSwapParams) (domain.SwapQuote, error) {
	l := zerolog.Ctx(ctx)

	if !arg.FromAmount.IsPositive() {
		l.Info().Str("amount", arg.FromAmount.String()).Msg("swap rejected")
		return domain.SwapQuote{}, domain.ErrInvalidAmount
	}

	rate, err := s.rates.Rate(arg.FromCurrency, arg.ToCurrency)
	if err != nil {
		l.Info().Err(err).Str("from", arg.FromCurrency).Str("to", arg.ToCurrency).Msg("swap rejected")
		return domain.SwapQuote{}, err
	}

	toAmount := arg.FromAmount.Mul(rate.Rate).RoundDown(currencypkg.Precision(arg.ToCurrency))
	if !toAmount.IsPositive() {
		l.Info().Str("amount", arg.FromAmount.String()).Msg("swap yields nothing")
		return domain.SwapQuote{}, domain.ErrInvalidAmount
	}

	return domain.SwapQuote{
		FromCurrency: arg.FromCurrency,
		ToCurrency:   arg.ToCurrency,
		FromAmount:   arg.FromAmount,
		ToAmount:     toAmount,
		Rate:         rate.Rate,
		RateSource:   string(rate.Source),
		QuotedAt:     s.now(),
	}, nil
}

// Swap converts the amount at the current rate.
//
// The debit and the credit share the swap id as reference.
func (s *Service) Swap(ctx context.Context, arg domain.CreateSwapParams) (domain.SwapTxResult, error) {
	l := zerolog.Ctx(ctx)

	q, err := s.Quote(ctx, arg)
	if err != nil {
		return domain.SwapTxResult{}, err
	}

	res, err := s.repo.Execute(ctx, domain.Swap{
		ID:           uuid.New(),
		Username:     arg.Username,
		FromCurrency: q.FromCurrency,
		ToCurrency:   q.ToCurrency,
		FromAmount:   q.FromAmount,
		ToAmount:     q.ToAmount,
		Rate:         q.Rate,
	})
	if err != nil {
		return res, err
	}

	l.Info().
		Str("swap_id", res.Swap.ID.String()).
		Str("from_amount", currencypkg.Display(res.Swap.FromAmount, res.Swap.FromCurrency)+" "+res.Swap.FromCurrency).
		Str("to_amount", currencypkg.Display(res.Swap.ToAmount, res.Swap.ToCurrency)+" "+res.Swap.ToCurrency).
		Str("rate_source", q.RateSource).
		Msg("swap executed")
	events.Emit(ctx, s.publisher, events.New(events.SwapExecuted, res.Swap.Username, res.Swap))

	return res, nil
}

// Get returns the swap with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Swap, error) {
	return s.repo.Get(ctx, id)
}

// List returns swaps of the user, newest first.
func (s *Service) List(ctx context.Context, username string, pageSize, pageID int32) ([]domain.Swap, error) {
	return s.repo.List(ctx, username, pageSize, (pageID-1)*pageSize)
}
