// Package swaprepo manages repository layer of currency swaps.
package swaprepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-exchange/internal/balancerepo"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/ledgerrepo"
	"github.com/go-petr/pet-exchange/pkg/dbpkg"
	"github.com/go-petr/pet-exchange/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates swap repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewRepoPGS returns swap RepoPGS wiht connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const swapColumns = `id, username, from_currency, to_currency, from_amount, to_amount, rate, created_at`

const createQuery = `
INSERT INTO swaps (
    id, username, from_currency, to_currency, from_amount, to_amount, rate
) VALUES (
    $1, $2, $3, $4, $5, $6, $7
)
RETURNING ` + swapColumns

// Execute debits the source currency, credits the target currency and stores
// the swap within a single db transaction.
func (r *RepoPGS) Execute(ctx context.Context, s domain.Swap) (domain.SwapTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.SwapTxResult

	err := dbpkg.RunTx(ctx, r.conn, func(tx *sql.Tx) error {
		balanceRepo := balancerepo.NewRepoPGS(tx)
		ledgerRepo := ledgerrepo.NewTxRepoPGS(tx)

		// Both rows belong to one user, lock them in currency order
		first, second := s.FromCurrency, s.ToCurrency
		if second < first {
			first, second = second, first
		}

		if _, err := balanceRepo.Lock(ctx, s.Username, first); err != nil {
			return err
		}

		if _, err := balanceRepo.Lock(ctx, s.Username, second); err != nil {
			return err
		}

		var err error

		result.FromEntry, err = ledgerRepo.Post(ctx, domain.LedgerParams{
			Username:    s.Username,
			Currency:    s.FromCurrency,
			Amount:      s.FromAmount,
			Type:        domain.EntryDebit,
			Operation:   domain.OperationSwap,
			ReferenceID: s.ID.String(),
		})
		if err != nil {
			return err
		}

		result.ToEntry, err = ledgerRepo.Post(ctx, domain.LedgerParams{
			Username:    s.Username,
			Currency:    s.ToCurrency,
			Amount:      s.ToAmount,
			Type:        domain.EntryCredit,
			Operation:   domain.OperationSwap,
			ReferenceID: s.ID.String(),
		})
		if err != nil {
			return err
		}

		result.Swap, err = scanSwap(tx.QueryRowContext(ctx, createQuery,
			s.ID,
			s.Username,
			s.FromCurrency,
			s.ToCurrency,
			s.FromAmount,
			s.ToAmount,
			s.Rate,
		))
		if err != nil {
			l.Error().Err(err).Send()
			return errorspkg.ErrInternal
		}

		return nil
	})

	return result, err
}

const getQuery = `
SELECT ` + swapColumns + `
FROM swaps
WHERE id = $1
`

// Get returns the swap with the given id.
func (r *RepoPGS) Get(ctx context.Context, id uuid.UUID) (domain.Swap, error) {
	l := zerolog.Ctx(ctx)

	s, err := scanSwap(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return s, domain.ErrSwapNotFound
		}

		l.Error().Err(err).Send()

		return s, errorspkg.ErrInternal
	}

	return s, nil
}

const listQuery = `
SELECT ` + swapColumns + `
FROM swaps
WHERE username = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

// List returns swaps of the user, newest first.
func (r *RepoPGS) List(ctx context.Context, username string, limit, offset int32) ([]domain.Swap, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, username, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Swap{}

	for rows.Next() {
		var s domain.Swap
		if err := rows.Scan(
			&s.ID,
			&s.Username,
			&s.FromCurrency,
			&s.ToCurrency,
			&s.FromAmount,
			&s.ToAmount,
			&s.Rate,
			&s.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, s)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

func scanSwap(row *sql.Row) (domain.Swap, error) {
	var s domain.Swap

	err := row.Scan(
		&s.ID,
		&s.Username,
		&s.FromCurrency,
		&s.ToCurrency,
		&s.FromAmount,
		&s.ToAmount,
		&s.Rate,
		&s.CreatedAt,
	)

	return s, err
}
