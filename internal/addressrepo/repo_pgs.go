// Package addressrepo manages repository layer of watched deposit addresses.
package addressrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/dbpkg"
	"github.com/go-petr/pet-exchange/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates deposit address repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns deposit address RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const createQuery = `
INSERT INTO deposit_addresses (network, address, username)
VALUES ($1, $2, $3)
RETURNING network, address, username, created_at
`

// Create assigns the address to the user.
func (r *RepoPGS) Create(ctx context.Context, network domain.Network, address, username string) (domain.DepositAddress, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAddress(r.db.QueryRowContext(ctx, createQuery, network, address, username))
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "deposit_addresses_username_fkey":
				return a, domain.ErrUserNotFound
			case "deposit_addresses_pkey", "deposit_addresses_network_username_key":
				return a, domain.ErrAddressTaken
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getQuery = `
SELECT network, address, username, created_at
FROM deposit_addresses
WHERE network = $1 AND username = $2
`

// Get returns the address of the user on the network.
func (r *RepoPGS) Get(ctx context.Context, network domain.Network, username string) (domain.DepositAddress, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAddress(r.db.QueryRowContext(ctx, getQuery, network, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAddressNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const listByNetworkQuery = `
SELECT address, username
FROM deposit_addresses
WHERE network = $1
`

// ListByNetwork returns the watched address index of the network: address to username.
func (r *RepoPGS) ListByNetwork(ctx context.Context, network domain.Network) (map[string]string, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByNetworkQuery, network)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	watched := make(map[string]string)

	for rows.Next() {
		var address, username string
		if err := rows.Scan(&address, &username); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		watched[address] = username
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return watched, nil
}

func scanAddress(row *sql.Row) (domain.DepositAddress, error) {
	var a domain.DepositAddress

	err := row.Scan(
		&a.Network,
		&a.Address,
		&a.Username,
		&a.CreatedAt,
	)

	return a, err
}
