// Package depositrepo manages repository layer of deposits and scan watermarks.
package depositrepo

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/ledgerrepo"
	"github.com/go-petr/pet-exchange/pkg/dbpkg"
	"github.com/go-petr/pet-exchange/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates deposit repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewRepoPGS returns deposit RepoPGS wiht connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const depositColumns = `id, tx_id, username, currency, network, address, amount, confirmations, status, created_at, updated_at`

const createQuery = `
INSERT INTO deposits (
    tx_id, username, currency, network, address, amount, confirmations, status
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, 'PENDING'
)
ON CONFLICT (tx_id) DO NOTHING
RETURNING ` + depositColumns

// Record stores a newly observed transfer as a PENDING deposit.
//
// A transfer that already meets the confirmation threshold is confirmed and
// credited in the same transaction. Recording a known transaction id again
// returns the stored deposit with domain.ErrDuplicateDeposit and changes nothing.
func (r *RepoPGS) Record(ctx context.Context, arg domain.RecordDepositParams) (domain.Deposit, error) {
	l := zerolog.Ctx(ctx)

	var d domain.Deposit

	err := dbpkg.RunTx(ctx, r.conn, func(tx *sql.Tx) error {
		var err error

		d, err = scanDeposit(tx.QueryRowContext(ctx, createQuery,
			arg.TxID,
			arg.Username,
			arg.Currency,
			arg.Network,
			arg.Address,
			arg.Amount,
			arg.Confirmations,
		))
		if err != nil {
			if err == sql.ErrNoRows {
				return domain.ErrDuplicateDeposit
			}

			l.Error().Err(err).Str("tx_id", arg.TxID).Send()

			if pqErr, ok := err.(*pq.Error); ok {
				switch pqErr.Constraint {
				case "deposits_username_fkey":
					return domain.ErrUserNotFound
				case "deposits_amount_check":
					return domain.ErrInvalidAmount
				}
			}

			return errorspkg.ErrInternal
		}

		if arg.Confirmations < arg.Required {
			return nil
		}

		d, err = confirm(ctx, tx, d, arg.Confirmations)

		return err
	})

	if err == domain.ErrDuplicateDeposit {
		existing, getErr := r.Get(ctx, arg.TxID)
		if getErr != nil {
			return existing, getErr
		}

		return existing, domain.ErrDuplicateDeposit
	}

	return d, err
}

const lockQuery = `
SELECT ` + depositColumns + `
FROM deposits
WHERE tx_id = $1
FOR UPDATE
`

// Confirm marks the PENDING deposit as CONFIRMED and credits its owner.
//
// The status is checked under a row lock right before crediting, so a retried
// or concurrent call returns domain.ErrDepositNotPending and credits nothing.
func (r *RepoPGS) Confirm(ctx context.Context, txID string, confirmations int64) (domain.Deposit, error) {
	l := zerolog.Ctx(ctx)

	var d domain.Deposit

	err := dbpkg.RunTx(ctx, r.conn, func(tx *sql.Tx) error {
		var err error

		d, err = scanDeposit(tx.QueryRowContext(ctx, lockQuery, txID))
		if err != nil {
			if err == sql.ErrNoRows {
				return domain.ErrDepositNotFound
			}

			l.Error().Err(err).Str("tx_id", txID).Send()

			return errorspkg.ErrInternal
		}

		if d.Status != domain.DepositPending {
			return domain.ErrDepositNotPending
		}

		d, err = confirm(ctx, tx, d, confirmations)

		return err
	})

	return d, err
}

const confirmQuery = `
UPDATE deposits
SET status = 'CONFIRMED', confirmations = GREATEST(confirmations, $2), updated_at = now()
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + depositColumns

func confirm(ctx context.Context, tx *sql.Tx, d domain.Deposit, confirmations int64) (domain.Deposit, error) {
	l := zerolog.Ctx(ctx)

	confirmed, err := scanDeposit(tx.QueryRowContext(ctx, confirmQuery, d.ID, confirmations))
	if err != nil {
		if err == sql.ErrNoRows {
			return d, domain.ErrDepositNotPending
		}

		l.Error().Err(err).Str("tx_id", d.TxID).Send()

		return d, errorspkg.ErrInternal
	}

	_, err = ledgerrepo.NewTxRepoPGS(tx).Post(ctx, domain.LedgerParams{
		Username:    confirmed.Username,
		Currency:    confirmed.Currency,
		Amount:      confirmed.Amount,
		Type:        domain.EntryCredit,
		Operation:   domain.OperationDeposit,
		ReferenceID: strconv.FormatInt(confirmed.ID, 10),
	})
	if err != nil {
		return d, err
	}

	return confirmed, nil
}

const updateConfirmationsQuery = `
UPDATE deposits
SET confirmations = GREATEST(confirmations, $2), updated_at = now()
WHERE tx_id = $1 AND status = 'PENDING'
RETURNING ` + depositColumns

// UpdateConfirmations raises the confirmation count of a PENDING deposit.
//
// The count never decreases.
func (r *RepoPGS) UpdateConfirmations(ctx context.Context, txID string, confirmations int64) (domain.Deposit, error) {
	l := zerolog.Ctx(ctx)

	d, err := scanDeposit(r.db.QueryRowContext(ctx, updateConfirmationsQuery, txID, confirmations))
	if err != nil {
		if err == sql.ErrNoRows {
			return d, domain.ErrDepositNotPending
		}

		l.Error().Err(err).Str("tx_id", txID).Send()

		return d, errorspkg.ErrInternal
	}

	return d, nil
}

const getQuery = `
SELECT ` + depositColumns + `
FROM deposits
WHERE tx_id = $1
`

// Get returns the deposit with the given transaction id.
func (r *RepoPGS) Get(ctx context.Context, txID string) (domain.Deposit, error) {
	l := zerolog.Ctx(ctx)

	d, err := scanDeposit(r.db.QueryRowContext(ctx, getQuery, txID))
	if err != nil {
		if err == sql.ErrNoRows {
			return d, domain.ErrDepositNotFound
		}

		l.Error().Err(err).Send()

		return d, errorspkg.ErrInternal
	}

	return d, nil
}

const listPendingQuery = `
SELECT ` + depositColumns + `
FROM deposits
WHERE network = $1 AND status = 'PENDING'
ORDER BY id
`

// ListPending returns all PENDING deposits of the network.
func (r *RepoPGS) ListPending(ctx context.Context, network domain.Network) ([]domain.Deposit, error) {
	return r.list(ctx, listPendingQuery, network)
}

const listQuery = `
SELECT ` + depositColumns + `
FROM deposits
WHERE
    ($1 = '' OR username = $1) AND
    ($2 = '' OR currency = $2) AND
    ($3 = '' OR network = $3) AND
    ($4 = '' OR status = $4)
ORDER BY id DESC
LIMIT $5 OFFSET $6
`

// List returns deposits matching the filter, newest first.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListDepositsParams) ([]domain.Deposit, error) {
	return r.list(ctx, listQuery,
		arg.Username,
		arg.Currency,
		string(arg.Network),
		string(arg.Status),
		arg.Limit,
		arg.Offset,
	)
}

func (r *RepoPGS) list(ctx context.Context, query string, args ...interface{}) ([]domain.Deposit, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Deposit{}

	for rows.Next() {
		var d domain.Deposit
		if err := rows.Scan(
			&d.ID,
			&d.TxID,
			&d.Username,
			&d.Currency,
			&d.Network,
			&d.Address,
			&d.Amount,
			&d.Confirmations,
			&d.Status,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, d)
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

const getWatermarkQuery = `
SELECT last_block FROM scan_watermarks WHERE network = $1
`

// GetWatermark returns the last processed block of the network, 0 if none.
func (r *RepoPGS) GetWatermark(ctx context.Context, network domain.Network) (int64, error) {
	l := zerolog.Ctx(ctx)

	var block int64

	err := r.db.QueryRowContext(ctx, getWatermarkQuery, network).Scan(&block)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}

		l.Error().Err(err).Send()

		return 0, errorspkg.ErrInternal
	}

	return block, nil
}

const setWatermarkQuery = `
INSERT INTO scan_watermarks (network, last_block)
VALUES ($1, $2)
ON CONFLICT (network) DO UPDATE
SET last_block = GREATEST(scan_watermarks.last_block, EXCLUDED.last_block), updated_at = now()
`

// SetWatermark advances the last processed block of the network. It never moves backwards.
func (r *RepoPGS) SetWatermark(ctx context.Context, network domain.Network, block int64) error {
	l := zerolog.Ctx(ctx)

	if _, err := r.db.ExecContext(ctx, setWatermarkQuery, network, block); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}

func scanDeposit(row *sql.Row) (domain.Deposit, error) {
	var d domain.Deposit

	err := row.Scan(
		&d.ID,
		&d.TxID,
		&d.Username,
		&d.Currency,
		&d.Network,
		&d.Address,
		&d.Amount,
		&d.Confirmations,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
	)

	return d, err
}
