// Package balancerepo manages repository layer of balances.
package balancerepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/dbpkg"
	"github.com/go-petr/pet-exchange/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates balance repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns balance RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const ensureQuery = `
INSERT INTO balances (username, currency)
VALUES ($1, $2)
ON CONFLICT (username, currency) DO NOTHING
`

const lockQuery = `
SELECT username, currency, available, held, updated_at
FROM balances
WHERE username = $1 AND currency = $2
FOR UPDATE
`

// Lock creates the balance row if it is missing and locks it until the end of the
// surrounding transaction.
//
// It must be called on a transaction, otherwise the lock is released immediately.
func (r *RepoPGS) Lock(ctx context.Context, username, currency string) (domain.Balance, error) {
	l := zerolog.Ctx(ctx)

	var b domain.Balance

	if _, err := r.db.ExecContext(ctx, ensureQuery, username, currency); err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "balances_username_fkey" {
				return b, domain.ErrUserNotFound
			}
		}

		return b, errorspkg.ErrInternal
	}

	b, err := scanBalance(r.db.QueryRowContext(ctx, lockQuery, username, currency))
	if err != nil {
		l.Error().Err(err).Send()
		return b, errorspkg.ErrInternal
	}

	return b, nil
}

const updateQuery = `
UPDATE balances
SET available = $3, held = $4, updated_at = now()
WHERE username = $1 AND currency = $2
RETURNING username, currency, available, held, updated_at
`

// Update stores new available and held amounts of the balance.
func (r *RepoPGS) Update(ctx context.Context, b domain.Balance) (domain.Balance, error) {
	l := zerolog.Ctx(ctx)

	updated, err := scanBalance(r.db.QueryRowContext(ctx, updateQuery, b.Username, b.Currency, b.Available, b.Held))
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "balances_available_check", "balances_held_check":
				return updated, domain.ErrInvariantViolation
			}
		}

		return updated, errorspkg.ErrInternal
	}

	return updated, nil
}

const getQuery = `
SELECT username, currency, available, held, updated_at
FROM balances
WHERE username = $1 AND currency = $2
`

// Get returns the balance of the given user and currency.
//
// A balance that was never touched is returned as zero without creating the row.
func (r *RepoPGS) Get(ctx context.Context, username, currency string) (domain.Balance, error) {
	l := zerolog.Ctx(ctx)

	b, err := scanBalance(r.db.QueryRowContext(ctx, getQuery, username, currency))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Balance{
				Username:  username,
				Currency:  currency,
				Available: decimal.Zero,
				Held:      decimal.Zero,
			}, nil
		}

		l.Error().Err(err).Send()

		return b, errorspkg.ErrInternal
	}

	return b, nil
}

const listQuery = `
SELECT username, currency, available, held, updated_at
FROM balances
WHERE username = $1
ORDER BY currency
`

// List returns all balances of the user.
func (r *RepoPGS) List(ctx context.Context, username string) ([]domain.Balance, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, username)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Balance{}

	for rows.Next() {
		var b domain.Balance
		if err := rows.Scan(&b.Username, &b.Currency, &b.Available, &b.Held, &b.UpdatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, b)
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

func scanBalance(row *sql.Row) (domain.Balance, error) {
	var b domain.Balance

	err := row.Scan(
		&b.Username,
		&b.Currency,
		&b.Available,
		&b.Held,
		&b.UpdatedAt,
	)

	return b, err
}
