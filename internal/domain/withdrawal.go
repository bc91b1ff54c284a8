package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrBelowMinimum indicates that the amount is below the network minimum.
	ErrBelowMinimum = fmt.Errorf("%w: amount below network minimum", ErrValidation)
	// ErrLimitExceeded indicates that the request exceeds the rolling 24h limit of the user tier.
	ErrLimitExceeded = errors.New("daily withdrawal limit exceeded")
	// ErrWithdrawalNotFound indicates that the withdrawal is not found.
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	// ErrWithdrawalNotPending indicates that the withdrawal already reached a terminal state.
	ErrWithdrawalNotPending = errors.New("withdrawal is not pending")
	// ErrMissingTxHash indicates settlement without the broadcast transaction hash.
	ErrMissingTxHash = fmt.Errorf("%w: tx hash is required", ErrValidation)
)

// WithdrawalStatus is the lifecycle state of a withdrawal.
type WithdrawalStatus string

// Withdrawal statuses. COMPLETED and REJECTED are terminal.
const (
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
	WithdrawalRejected  WithdrawalStatus = "REJECTED"
)

// Withdrawal holds an outbound transfer request.
type Withdrawal struct {
	ID        uuid.UUID        `json:"id"`
	Username  string           `json:"username"`
	Currency  string           `json:"currency"`
	Network   Network          `json:"network"`
	Address   string           `json:"address"`
	Amount    decimal.Decimal  `json:"amount"`
	Fee       decimal.Decimal  `json:"fee"`
	Status    WithdrawalStatus `json:"status"`
	TxHash    string           `json:"tx_hash,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Total is the amount held for the withdrawal.
func (w Withdrawal) Total() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}

// CreateWithdrawalParams is the input data of a withdrawal request.
type CreateWithdrawalParams struct {
	Username string          `json:"username"`
	Currency string          `json:"currency"`
	Network  Network         `json:"network"`
	Address  string          `json:"address"`
	Amount   decimal.Decimal `json:"amount"`
}

// HoldWithdrawalParams is the validated withdrawal the repository holds funds for.
type HoldWithdrawalParams struct {
	ID       uuid.UUID
	Username string
	Currency string
	Network  Network
	Address  string
	Amount   decimal.Decimal
	Fee      decimal.Decimal
	// DailyLimit bounds the sum of PENDING and COMPLETED withdrawals since WindowStart plus Amount.
	DailyLimit  decimal.Decimal
	WindowStart time.Time
}
