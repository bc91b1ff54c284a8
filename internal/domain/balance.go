package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidEntryType indicates an unknown ledger entry type.
	ErrInvalidEntryType = errors.New("invalid entry type")
	// ErrEntryNotFound indicates that the ledger entry does not exist.
	ErrEntryNotFound = errors.New("entry not found")
)

// EntryType is the kind of balance mutation a ledger entry records.
type EntryType string

// Ledger entry types.
const (
	EntryCredit  EntryType = "CREDIT"
	EntryDebit   EntryType = "DEBIT"
	EntryHold    EntryType = "HOLD"
	EntryRelease EntryType = "RELEASE"
)

// Ledger operation tags.
const (
	OperationDeposit    = "deposit"
	OperationWithdrawal = "withdrawal"
	OperationSwap       = "swap"
	OperationP2P        = "p2p"
)

// Balance holds user funds of one currency.
type Balance struct {
	Username  string          `json:"username"`
	Currency  string          `json:"currency"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Apply returns the balance after the mutation of the given type.
//
// CREDIT and RELEASE increase available, DEBIT and HOLD decrease it.
// HOLD moves funds into held, RELEASE moves them back out.
func (b Balance) Apply(t EntryType, amount decimal.Decimal) (Balance, error) {
	if !amount.IsPositive() {
		return b, ErrInvalidAmount
	}

	next := b

	switch t {
	case EntryCredit:
		next.Available = b.Available.Add(amount)
	case EntryDebit:
		if b.Available.LessThan(amount) {
			return b, ErrInsufficientBalance
		}

		next.Available = b.Available.Sub(amount)
	case EntryHold:
		if b.Available.LessThan(amount) {
			return b, ErrInsufficientBalance
		}

		next.Available = b.Available.Sub(amount)
		next.Held = b.Held.Add(amount)
	case EntryRelease:
		if b.Held.LessThan(amount) {
			return b, ErrInsufficientHeld
		}

		next.Held = b.Held.Sub(amount)
		next.Available = b.Available.Add(amount)
	default:
		return b, ErrInvalidEntryType
	}

	if next.Available.IsNegative() || next.Held.IsNegative() {
		return b, ErrInvariantViolation
	}

	return next, nil
}

// LedgerEntry is an immutable record of one balance mutation.
//
// BalanceBefore and BalanceAfter snapshot the available funds.
type LedgerEntry struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	Type          EntryType       `json:"type"`
	Operation     string          `json:"operation"`
	ReferenceID   string          `json:"reference_id"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LedgerParams is the input data for a single ledger operation.
type LedgerParams struct {
	Username    string
	Currency    string
	Amount      decimal.Decimal
	Type        EntryType
	Operation   string
	ReferenceID string
}

// ListEntriesParams is the input data to page through an account journal.
type ListEntriesParams struct {
	Username string
	Currency string
	Limit    int32
	Offset   int32
}
