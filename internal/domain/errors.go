// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the family of errors raised before any mutation happens.
	ErrValidation = errors.New("validation")
	// ErrInvalidAmount indicates invalid or non positive amount.
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrValidation)
	// ErrUnsupportedCurrency indicates that the currency is not supported.
	ErrUnsupportedCurrency = fmt.Errorf("%w: unsupported currency", ErrValidation)
	// ErrUnsupportedNetwork indicates that the network is not supported.
	ErrUnsupportedNetwork = fmt.Errorf("%w: unsupported network", ErrValidation)
	// ErrCurrencyNetworkMismatch indicates that the currency is not carried by the network.
	ErrCurrencyNetworkMismatch = fmt.Errorf("%w: currency is not supported on network", ErrValidation)
	// ErrInvalidAddress indicates malformed destination address.
	ErrInvalidAddress = fmt.Errorf("%w: invalid address", ErrValidation)

	// ErrInsufficientBalance indicates that the available balance cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientHeld indicates release of more than is held.
	//
	// Workflows never release more than they hold, so seeing it is a bug.
	ErrInsufficientHeld = errors.New("insufficient held balance")
	// ErrInvariantViolation indicates that a balance would become negative outside the guarded paths.
	ErrInvariantViolation = errors.New("balance invariant violation")
	// ErrExternalUnavailable indicates that a chain node, indexer or price feed failed.
	ErrExternalUnavailable = errors.New("external service unavailable")
)

// IsValidation reports whether err belongs to the validation family.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
