// Package ledgerrepo manages the atomic balance and journal operations.
//
// Every mutation of available or held funds in the system goes through Post.
package ledgerrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-exchange/internal/balancerepo"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/entryrepo"
	"github.com/go-petr/pet-exchange/pkg/dbpkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates ledger repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns ledger RepoPGS bound to a running transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns ledger RepoPGS wiht connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

// Post locks the account row, applies the mutation and appends the journal entry.
//
// Post must run inside a transaction so that the balance update and the entry
// become visible together.
func (r *RepoPGS) Post(ctx context.Context, arg domain.LedgerParams) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	balanceRepo := balancerepo.NewRepoPGS(r.db)
	entryRepo := entryrepo.NewRepoPGS(r.db)

	before, err := balanceRepo.Lock(ctx, arg.Username, arg.Currency)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	after, err := before.Apply(arg.Type, arg.Amount)
	if err != nil {
		if err == domain.ErrInsufficientHeld || err == domain.ErrInvariantViolation {
			l.Error().Err(err).Interface("params", arg).Msg("ledger invariant guard")
		}

		return domain.LedgerEntry{}, err
	}

	if _, err := balanceRepo.Update(ctx, after); err != nil {
		return domain.LedgerEntry{}, err
	}

	return entryRepo.Create(ctx, domain.LedgerEntry{
		Username:      arg.Username,
		Currency:      arg.Currency,
		Amount:        arg.Amount,
		Type:          arg.Type,
		Operation:     arg.Operation,
		ReferenceID:   arg.ReferenceID,
		BalanceBefore: before.Available,
		BalanceAfter:  after.Available,
	})
}

// Apply executes a single ledger operation in its own transaction.
func (r *RepoPGS) Apply(ctx context.Context, arg domain.LedgerParams) (domain.LedgerEntry, error) {
	var entry domain.LedgerEntry

	err := dbpkg.RunTx(ctx, r.conn, func(tx *sql.Tx) error {
		var err error
		entry, err = NewTxRepoPGS(tx).Post(ctx, arg)
		return err
	})

	return entry, err
}

// Transfer moves funds between two users of the same currency.
//
// It debits the sender and credits the receiver within a single db transaction.
// Nothing is written when the sender cannot cover the amount.
func (r *RepoPGS) Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error) {
	var result domain.TransferTxResult

	err := dbpkg.RunTx(ctx, r.conn, func(tx *sql.Tx) error {
		var err error
		result, err = NewTxRepoPGS(tx).transfer(ctx, arg)
		return err
	})

	return result, err
}

func (r *RepoPGS) transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error) {
	var result domain.TransferTxResult

	// To avoid deadlocks lock rows in consistent username order
	balanceRepo := balancerepo.NewRepoPGS(r.db)
	first, second := arg.FromUsername, arg.ToUsername
	if second < first {
		first, second = second, first
	}

	if _, err := balanceRepo.Lock(ctx, first, arg.Currency); err != nil {
		return result, err
	}

	if _, err := balanceRepo.Lock(ctx, second, arg.Currency); err != nil {
		return result, err
	}

	var err error

	result.FromEntry, err = r.Post(ctx, domain.LedgerParams{
		Username:    arg.FromUsername,
		Currency:    arg.Currency,
		Amount:      arg.Amount,
		Type:        domain.EntryDebit,
		Operation:   arg.Operation,
		ReferenceID: arg.ReferenceID,
	})
	if err != nil {
		return result, err
	}

	result.ToEntry, err = r.Post(ctx, domain.LedgerParams{
		Username:    arg.ToUsername,
		Currency:    arg.Currency,
		Amount:      arg.Amount,
		Type:        domain.EntryCredit,
		Operation:   arg.Operation,
		ReferenceID: arg.ReferenceID,
	})
	if err != nil {
		return result, err
	}

	return result, nil
}

// GetBalance returns the current balance of the account.
func (r *RepoPGS) GetBalance(ctx context.Context, username, currency string) (domain.Balance, error) {
	return balancerepo.NewRepoPGS(r.db).Get(ctx, username, currency)
}

// ListBalances returns all balances of the user.
func (r *RepoPGS) ListBalances(ctx context.Context, username string) ([]domain.Balance, error) {
	return balancerepo.NewRepoPGS(r.db).List(ctx, username)
}

// ListEntries returns the journal of the account in creation order.
func (r *RepoPGS) ListEntries(ctx context.Context, arg domain.ListEntriesParams) ([]domain.LedgerEntry, error) {
	return entryrepo.NewRepoPGS(r.db).List(ctx, arg)
}
