// Package addressservice provisions deposit addresses.
package addressservice

import (
	"context"
	"errors"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/rs/zerolog"
)

// Repo provides data access layer interface needed by address service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package addressservice
type Repo interface {
	Create(ctx context.Context, network domain.Network, address, username string) (domain.DepositAddress, error)
	Get(ctx context.Context, network domain.Network, username string) (domain.DepositAddress, error)
}

// Generator allocates a fresh address on the network.
type Generator interface {
	GenerateAddress(ctx context.Context, network domain.Network, username string) (string, error)
}

// Service facilitates address service layer logic.
type Service struct {
	repo      Repo
	generator Generator
}

// New returns address service struct.
func New(ar Repo, g Generator) *Service {
	return &Service{
		repo:      ar,
		generator: g,
	}
}

// GetOrCreate returns the deposit address of the user on the network,
// allocating one on first request. A user has one address per network.
func (s *Service) GetOrCreate(ctx context.Context, username string, network domain.Network) (domain.DepositAddress, error) {
	l := zerolog.Ctx(ctx)

	if !network.IsSupported() {
		return domain.DepositAddress{}, domain.ErrUnsupportedNetwork
	}

	a, err := s.repo.Get(ctx, network, username)
	if !errors.Is(err, domain.ErrAddressNotFound) {
		return a, err
	}

	address, err := s.generator.GenerateAddress(ctx, network, username)
	if err != nil {
		l.Warn().Err(err).Str("network", string(network)).Msg("generate address")
		return domain.DepositAddress{}, err
	}

	a, err = s.repo.Create(ctx, network, address, username)
	if errors.Is(err, domain.ErrAddressTaken) {
		// A concurrent request assigned the user slot first.
		l.Info().Str("network", string(network)).Str("unused_address", address).Msg("address already assigned")
		return s.repo.Get(ctx, network, username)
	}

	if err != nil {
		return a, err
	}

	l.Info().Str("network", string(network)).Str("address", a.Address).Msg("deposit address assigned")

	return a, nil
}
