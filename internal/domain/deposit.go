package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrDepositNotFound indicates that the deposit is not found.
	ErrDepositNotFound = errors.New("deposit not found")
	// ErrDepositNotPending indicates that the deposit was already confirmed.
	//
	// Reconcilers treat it as a no-op.
	ErrDepositNotPending = errors.New("deposit is not pending")
	// ErrDuplicateDeposit indicates that the transaction was already recorded.
	//
	// It is not a failure: the transaction id is the idempotency key.
	ErrDuplicateDeposit = errors.New("deposit already recorded")
)

// DepositStatus is the lifecycle state of a deposit.
type DepositStatus string

// Deposit statuses.
const (
	DepositPending   DepositStatus = "PENDING"
	DepositConfirmed DepositStatus = "CONFIRMED"
)

// Deposit holds an incoming on-chain transfer credited to a user.
type Deposit struct {
	ID            int64           `json:"id"`
	TxID          string          `json:"tx_id"`
	Username      string          `json:"username"`
	Currency      string          `json:"currency"`
	Network       Network         `json:"network"`
	Address       string          `json:"address"`
	Amount        decimal.Decimal `json:"amount"`
	Confirmations int64           `json:"confirmations"`
	Status        DepositStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RecordDepositParams is the input data to record an observed transfer.
type RecordDepositParams struct {
	TxID          string
	Username      string
	Currency      string
	Network       Network
	Address       string
	Amount        decimal.Decimal
	Confirmations int64
	// Required is the confirmation threshold at which the deposit is credited.
	Required int64
}

// ListDepositsParams filters deposits. Empty fields match everything.
type ListDepositsParams struct {
	Username string
	Currency string
	Network  Network
	Status   DepositStatus
	Limit    int32
	Offset   int32
}

// DepositAddress maps a watched on-chain address to its owner.
type DepositAddress struct {
	Network   Network   `json:"network"`
	Address   string    `json:"address"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrAddressNotFound indicates that the user has no address on the network yet.
	ErrAddressNotFound = errors.New("deposit address not found")
	// ErrAddressTaken indicates that the address or the user slot on the network is already assigned.
	ErrAddressTaken = errors.New("deposit address already assigned")
)
