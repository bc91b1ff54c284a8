package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrSameCurrency indicates a swap between identical currencies.
	ErrSameCurrency = fmt.Errorf("%w: cannot swap a currency to itself", ErrValidation)
	// ErrRateUnavailable indicates that no rate is known for the pair.
	ErrRateUnavailable = errors.New("rate unavailable")
	// ErrSwapNotFound indicates that the swap does not exist.
	ErrSwapNotFound = errors.New("swap not found")
)

// Swap holds an executed currency conversion.
type Swap struct {
	ID           uuid.UUID       `json:"id"`
	Username     string          `json:"username"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	FromAmount   decimal.Decimal `json:"from_amount"`
	ToAmount     decimal.Decimal `json:"to_amount"`
	Rate         decimal.Decimal `json:"rate"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SwapTxResult is the result of the swap transaction.
type SwapTxResult struct {
	Swap      Swap        `json:"swap"`
	FromEntry LedgerEntry `json:"from_entry"`
	ToEntry   LedgerEntry `json:"to_entry"`
}

// CreateSwapParams holds a request to convert FromAmount of FromCurrency.
type CreateSwapParams struct {
	Username     string          `json:"username"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	FromAmount   decimal.Decimal `json:"from_amount"`
}

// SwapQuote is the amount a swap would yield at the current rate.
type SwapQuote struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	FromAmount   decimal.Decimal `json:"from_amount"`
	ToAmount     decimal.Decimal `json:"to_amount"`
	Rate         decimal.Decimal `json:"rate"`
	RateSource   string          `json:"rate_source"`
	QuotedAt     time.Time       `json:"quoted_at"`
}
