// Package helpers provides seed data for integration tests.
package helpers

import (
	"context"
	"testing"

	"github.com/go-petr/pet-exchange/internal/addressrepo"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/ledgerrepo"
	"github.com/go-petr/pet-exchange/internal/userrepo"
	"github.com/go-petr/pet-exchange/pkg/dbpkg"
	"github.com/go-petr/pet-exchange/pkg/randompkg"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeedUser creates random User.
func SeedUser(t *testing.T, db dbpkg.SQLInterface) domain.User {
	t.Helper()

	arg := domain.CreateUserParams{
		Username: randompkg.Owner(),
		FullName: randompkg.String(10),
		Email:    randompkg.Email(),
	}

	user, err := userrepo.NewRepoPGS(db).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedVerifiedUser creates random User with passed KYC.
func SeedVerifiedUser(t *testing.T, db dbpkg.SQLInterface) domain.User {
	t.Helper()

	user := SeedUser(t, db)

	user, err := userrepo.NewRepoPGS(db).SetKYCVerified(context.Background(), user.Username, true)
	if err != nil {
		t.Fatalf("userRepo.SetKYCVerified(context.Background(), %v, true) returned error: %v", user.Username, err)
	}

	return user
}

// SeedCredit credits the user balance with the amount.
//
// db must be a transaction or a connection in autocommit mode.
func SeedCredit(t *testing.T, db dbpkg.SQLInterface, username, currency, amount string) domain.LedgerEntry {
	t.Helper()

	arg := domain.LedgerParams{
		Username:    username,
		Currency:    currency,
		Amount:      decimal.RequireFromString(amount),
		Type:        domain.EntryCredit,
		Operation:   domain.OperationDeposit,
		ReferenceID: uuid.NewString(),
	}

	entry, err := ledgerrepo.NewTxRepoPGS(db).Post(context.Background(), arg)
	if err != nil {
		t.Fatalf("ledgerRepo.Post(context.Background(), %+v) returned error: %v", arg, err)
	}

	return entry
}

// SeedAddress assigns a random deposit address of the network to the user.
func SeedAddress(t *testing.T, db dbpkg.SQLInterface, network domain.Network, username string) domain.DepositAddress {
	t.Helper()

	address := randompkg.Address()

	a, err := addressrepo.NewRepoPGS(db).Create(context.Background(), network, address, username)
	if err != nil {
		t.Fatalf("addressRepo.Create(context.Background(), %v, %v, %v) returned error: %v", network, address, username, err)
	}

	return a
}
