package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrSelfTransfer indicates a transfer to the sender itself.
var ErrSelfTransfer = fmt.Errorf("%w: cannot transfer to yourself", ErrValidation)

// CreateTransferParams is the input data for the transfer transaction.
type CreateTransferParams struct {
	FromUsername string          `json:"from_username"`
	ToUsername   string          `json:"to_username"`
	Currency     string          `json:"currency"`
	Amount       decimal.Decimal `json:"amount"`
	Operation    string          `json:"operation"`
	ReferenceID  string          `json:"reference_id"`
}

// TransferTxResult is the result of the transfer transaction.
type TransferTxResult struct {
	FromEntry LedgerEntry `json:"from_entry"`
	ToEntry   LedgerEntry `json:"to_entry"`
}
