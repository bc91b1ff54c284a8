// Package entryrepo manages repository layer of ledger entries.
//
// Entries are append-only: the package has no update or delete statement.
package entryrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/dbpkg"
	"github.com/go-petr/pet-exchange/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates entry repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns entry RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const createQuery = `
INSERT INTO entries (
    username, currency, amount, type, operation, reference_id, balance_before, balance_after
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
RETURNING id, username, currency, amount, type, operation, reference_id, balance_before, balance_after, created_at
`

// Create appends the entry to the journal and then returns it.
func (r *RepoPGS) Create(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		e.Username,
		e.Currency,
		e.Amount,
		e.Type,
		e.Operation,
		e.ReferenceID,
		e.BalanceBefore,
		e.BalanceAfter,
	)

	created, err := scanEntry(row)
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "entries_amount_check":
				return created, domain.ErrInvalidAmount
			case "entries_type_check":
				return created, domain.ErrInvalidEntryType
			}
		}

		return created, errorspkg.ErrInternal
	}

	return created, nil
}

const getQuery = `
SELECT id, username, currency, amount, type, operation, reference_id, balance_before, balance_after, created_at
FROM entries
WHERE id = $1
`

// Get returns the entry with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	e, err := scanEntry(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return e, domain.ErrEntryNotFound
		}

		l.Error().Err(err).Send()
		return e, errorspkg.ErrInternal
	}

	return e, nil
}

const listQuery = `
SELECT id, username, currency, amount, type, operation, reference_id, balance_before, balance_after, created_at
FROM entries
WHERE username = $1 AND currency = $2
ORDER BY id
LIMIT $3 OFFSET $4
`

// List returns the journal of the given account in creation order.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListEntriesParams) ([]domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, arg.Username, arg.Currency, arg.Limit, arg.Offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.LedgerEntry{}

	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(
			&e.ID,
			&e.Username,
			&e.Currency,
			&e.Amount,
			&e.Type,
			&e.Operation,
			&e.ReferenceID,
			&e.BalanceBefore,
			&e.BalanceAfter,
			&e.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, e)
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

func scanEntry(row *sql.Row) (domain.LedgerEntry, error) {
	var e domain.LedgerEntry

	err := row.Scan(
		&e.ID,
		&e.Username,
		&e.Currency,
		&e.Amount,
		&e.Type,
		&e.Operation,
		&e.ReferenceID,
		&e.BalanceBefore,
		&e.BalanceAfter,
		&e.CreatedAt,
	)

	return e, err
}
