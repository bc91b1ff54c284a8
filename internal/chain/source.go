// Package chain defines the uniform polling contract every network adapter implements.
package chain

import (
	"context"
	"fmt"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/shopspring/decimal"
)

// Transfer is an incoming transfer to a watched address.
type Transfer struct {
	TxID          string
	Address       string
	Username      string
	Amount        decimal.Decimal
	Confirmations int64
	// BlockNumber is zero for transfers not yet included in a block.
	BlockNumber int64
}

// Cursor is what the reconciler knows before a scan.
type Cursor struct {
	// Watched maps deposit address to its owner.
	Watched map[string]string
	// LastBlock is the persisted watermark, used by block range scanners only.
	LastBlock int64
}

// Batch is the result of a scan.
type Batch struct {
	Transfers []Transfer
	// LastBlock is the new watermark. Sources without block ranges return the cursor value.
	LastBlock int64
}

// Source translates one network query surface into the polling contract.
//
//go:generate mockgen -source source.go -destination source_mock.go -package chain
type Source interface {
	Network() domain.Network
	Currency() string
	RequiredConfirmations() int64
	// Scan returns incoming transfers to watched addresses. Errors for single
	// addresses or transactions are logged by the source and skipped.
	Scan(ctx context.Context, c Cursor) (Batch, error)
	Confirmations(ctx context.Context, txID string) (int64, error)
	GenerateAddress(ctx context.Context, username string) (string, error)
	ValidateAddress(address string) error
}

// Registry holds one source per network.
type Registry map[domain.Network]Source

// NewRegistry indexes the sources by their network.
func NewRegistry(sources ...Source) Registry {
	r := make(Registry, len(sources))
	for _, s := range sources {
		r[s.Network()] = s
	}

	return r
}

// ValidateAddress checks the address format of the network.
func (r Registry) ValidateAddress(network domain.Network, address string) error {
	s, ok := r[network]
	if !ok {
		return domain.ErrUnsupportedNetwork
	}

	if err := s.ValidateAddress(address); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidAddress, err)
	}

	return nil
}

// GenerateAddress provisions a new deposit address of the network for the user.
func (r Registry) GenerateAddress(ctx context.Context, network domain.Network, username string) (string, error) {
	s, ok := r[network]
	if !ok {
		return "", domain.ErrUnsupportedNetwork
	}

	return s.GenerateAddress(ctx, username)
}
