// Package withdrawalrepo manages repository layer of withdrawals.
package withdrawalrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-petr/pet-exchange/internal/balancerepo"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/ledgerrepo"
	"github.com/go-petr/pet-exchange/pkg/dbpkg"
	"github.com/go-petr/pet-exchange/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates withdrawal repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewRepoPGS returns withdrawal RepoPGS wiht connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const withdrawalColumns = `id, username, currency, network, address, amount, fee, status,
    COALESCE(tx_hash, ''), COALESCE(reason, ''), created_at, updated_at`

const sumSinceQuery = `
SELECT COALESCE(SUM(amount), 0)
FROM withdrawals
WHERE username = $1 AND currency = $2 AND status IN ('PENDING', 'COMPLETED') AND created_at >= $3
`

const createQuery = `
INSERT INTO withdrawals (
    id, username, currency, network, address, amount, fee, status
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, 'PENDING'
)
RETURNING ` + withdrawalColumns

// Create holds amount plus fee and stores the PENDING withdrawal in one transaction.
//
// The balance row is locked before the rolling sum is read, so concurrent requests
// of the same user and currency cannot both pass the limit check.
func (r *RepoPGS) Create(ctx context.Context, arg domain.HoldWithdrawalParams) (domain.Withdrawal, error) {
	l := zerolog.Ctx(ctx)

	var w domain.Withdrawal

	err := dbpkg.RunTx(ctx, r.conn, func(tx *sql.Tx) error {
		total := arg.Amount.Add(arg.Fee)

		b, err := balancerepo.NewRepoPGS(tx).Lock(ctx, arg.Username, arg.Currency)
		if err != nil {
			return err
		}

		if b.Available.LessThan(total) {
			return domain.ErrInsufficientBalance
		}

		used, err := sumSince(ctx, tx, arg.Username, arg.Currency, arg.WindowStart)
		if err != nil {
			return err
		}

		if used.Add(arg.Amount).GreaterThan(arg.DailyLimit) {
			return domain.ErrLimitExceeded
		}

		_, err = ledgerrepo.NewTxRepoPGS(tx).Post(ctx, domain.LedgerParams{
			Username:    arg.Username,
			Currency:    arg.Currency,
			Amount:      total,
			Type:        domain.EntryHold,
			Operation:   domain.OperationWithdrawal,
			ReferenceID: arg.ID.String(),
		})
		if err != nil {
			return err
		}

		w, err = scanWithdrawal(tx.QueryRowContext(ctx, createQuery,
			arg.ID,
			arg.Username,
			arg.Currency,
			arg.Network,
			arg.Address,
			arg.Amount,
			arg.Fee,
		))
		if err != nil {
			l.Error().Err(err).Send()

			if pqErr, ok := err.(*pq.Error); ok {
				if pqErr.Constraint == "withdrawals_amount_check" {
					return domain.ErrInvalidAmount
				}
			}

			return errorspkg.ErrInternal
		}

		return nil
	})

	return w, err
}

// SumSince returns the sum of PENDING and COMPLETED withdrawals of the user since the given time.
func (r *RepoPGS) SumSince(ctx context.Context, username, currency string, since time.Time) (decimal.Decimal, error) {
	return sumSince(ctx, r.db, username, currency, since)
}

func sumSince(ctx context.Context, db dbpkg.SQLInterface, username, currency string, since time.Time) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	var sum decimal.Decimal

	if err := db.QueryRowContext(ctx, sumSinceQuery, username, currency, since).Scan(&sum); err != nil {
		l.Error().Err(err).Send()
		return sum, errorspkg.ErrInternal
	}

	return sum, nil
}

const lockQuery = `
SELECT ` + withdrawalColumns + `
FROM withdrawals
WHERE id = $1
FOR UPDATE
`

const completeQuery = `
UPDATE withdrawals
SET status = 'COMPLETED', tx_hash = $2, updated_at = now()
WHERE id = $1
RETURNING ` + withdrawalColumns

// Settle releases the hold, debits the total and marks the withdrawal COMPLETED.
func (r *RepoPGS) Settle(ctx context.Context, id uuid.UUID, txHash string) (domain.Withdrawal, error) {
	return r.finish(ctx, id, func(tx *sql.Tx, w domain.Withdrawal) (domain.Withdrawal, error) {
		ledgerRepo := ledgerrepo.NewTxRepoPGS(tx)

		if _, err := ledgerRepo.Post(ctx, withdrawalEntry(w, domain.EntryRelease)); err != nil {
			return w, err
		}

		if _, err := ledgerRepo.Post(ctx, withdrawalEntry(w, domain.EntryDebit)); err != nil {
			return w, err
		}

		return scanWithdrawal(tx.QueryRowContext(ctx, completeQuery, w.ID, txHash))
	})
}

const rejectQuery = `
UPDATE withdrawals
SET status = 'REJECTED', reason = $2, updated_at = now()
WHERE id = $1
RETURNING ` + withdrawalColumns

// Reject releases the hold back to available funds and marks the withdrawal REJECTED.
func (r *RepoPGS) Reject(ctx context.Context, id uuid.UUID, reason string) (domain.Withdrawal, error) {
	return r.finish(ctx, id, func(tx *sql.Tx, w domain.Withdrawal) (domain.Withdrawal, error) {
		if _, err := ledgerrepo.NewTxRepoPGS(tx).Post(ctx, withdrawalEntry(w, domain.EntryRelease)); err != nil {
			return w, err
		}

		return scanWithdrawal(tx.QueryRowContext(ctx, rejectQuery, w.ID, reason))
	})
}

// finish locks the withdrawal and runs fn only while it is still PENDING.
func (r *RepoPGS) finish(
	ctx context.Context, id uuid.UUID,
	fn func(tx *sql.Tx, w domain.Withdrawal) (domain.Withdrawal, error),
) (domain.Withdrawal, error) {
	l := zerolog.Ctx(ctx)

	var w domain.Withdrawal

	err := dbpkg.RunTx(ctx, r.conn, func(tx *sql.Tx) error {
		locked, err := scanWithdrawal(tx.QueryRowContext(ctx, lockQuery, id))
		if err != nil {
			if err == sql.ErrNoRows {
				return domain.ErrWithdrawalNotFound
			}

			l.Error().Err(err).Send()

			return errorspkg.ErrInternal
		}

		if locked.Status != domain.WithdrawalPending {
			w = locked
			return domain.ErrWithdrawalNotPending
		}

		w, err = fn(tx, locked)
		if err != nil {
			if err == sql.ErrNoRows {
				return errorspkg.ErrInternal
			}

			return err
		}

		return nil
	})

	return w, err
}

func withdrawalEntry(w domain.Withdrawal, t domain.EntryType) domain.LedgerParams {
	return domain.LedgerParams{
		Username:    w.Username,
		Currency:    w.Currency,
		Amount:      w.Total(),
		Type:        t,
		Operation:   domain.OperationWithdrawal,
		ReferenceID: w.ID.String(),
	}
}

const getQuery = `
SELECT ` + withdrawalColumns + `
FROM withdrawals
WHERE id = $1
`

// Get returns the withdrawal with the given id.
func (r *RepoPGS) Get(ctx context.Context, id uuid.UUID) (domain.Withdrawal, error) {
	l := zerolog.Ctx(ctx)

	w, err := scanWithdrawal(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return w, domain.ErrWithdrawalNotFound
		}

		l.Error().Err(err).Send()

		return w, errorspkg.ErrInternal
	}

	return w, nil
}

const listQuery = `
SELECT ` + withdrawalColumns + `
FROM withdrawals
WHERE
    ($1 = '' OR username = $1) AND
    ($2 = '' OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

// List returns withdrawals of the user with the given status, newest first.
//
// Empty username or status matches everything.
func (r *RepoPGS) List(
	ctx context.Context, username string, status domain.WithdrawalStatus, limit, offset int32,
) ([]domain.Withdrawal, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, username, string(status), limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Withdrawal{}

	for rows.Next() {
		var w domain.Withdrawal
		if err := rows.Scan(
			&w.ID,
			&w.Username,
			&w.Currency,
			&w.Network,
			&w.Address,
			&w.Amount,
			&w.Fee,
			&w.Status,
			&w.TxHash,
			&w.Reason,
			&w.CreatedAt,
			&w.UpdatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, w)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

func scanWithdrawal(row *sql.Row) (domain.Withdrawal, error) {
	var w domain.Withdrawal

	err := row.Scan(
		&w.ID,
		&w.Username,
		&w.Currency,
		&w.Network,
		&w.Address,
		&w.Amount,
		&w.Fee,
		&w.Status,
		&w.TxHash,
		&w.Reason,
		&w.CreatedAt,
		&w.UpdatedAt,
	)

	return w, err
}
