//go:build integration

package ledgerrepo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/integrationtest"
	"github.com/go-petr/pet-exchange/internal/integrationtest/helpers"
	"github.com/go-petr/pet-exchange/internal/ledgerrepo"
	"github.com/go-petr/pet-exchange/internal/middleware"
	"github.com/go-petr/pet-exchange/pkg/configpkg"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/lib/pq"
)

var (
	dbDriver string
	dbSource string
	ctx      context.Context
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	logger := middleware.CreateLogger(config)
	ctx = logger.WithContext(context.Background())

	os.Exit(m.Run())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPostSequence(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := ledgerrepo.NewTxRepoPGS(tx)

	user := helpers.SeedUser(t, tx)

	steps := []struct {
		entryType     domain.EntryType
		amount        string
		wantAvailable string
		wantHeld      string
		wantErr       error
	}{
		{entryType: domain.EntryCredit, amount: "10", wantAvailable: "10", wantHeld: "0"},
		{entryType: domain.EntryHold, amount: "4", wantAvailable: "6", wantHeld: "4"},
		{entryType: domain.EntryDebit, amount: "7", wantAvailable: "6", wantHeld: "4", wantErr: domain.ErrInsufficientBalance},
		{entryType: domain.EntryRelease, amount: "5", wantAvailable: "6", wantHeld: "4", wantErr: domain.ErrInsufficientHeld},
		{entryType: domain.EntryRelease, amount: "4", wantAvailable: "10", wantHeld: "0"},
		{entryType: domain.EntryDebit, amount: "10", wantAvailable: "0", wantHeld: "0"},
	}

	var lastAfter decimal.Decimal

	for i, s := range steps {
		entry, err := repo.Post(ctx, domain.LedgerParams{
			Username:    user.Username,
			Currency:    currencypkg.USDT,
			Amount:      dec(s.amount),
			Type:        s.entryType,
			Operation:   domain.OperationWithdrawal,
			ReferenceID: "ref",
		})
		if s.wantErr != nil {
			require.ErrorIs(t, err, s.wantErr, "step %d", i)
		} else {
			require.NoError(t, err, "step %d", i)
			require.True(t, entry.BalanceBefore.Equal(lastAfter), "step %d: balance_before %v, want %v", i, entry.BalanceBefore, lastAfter)
			lastAfter = entry.BalanceAfter
		}

		b, err := repo.GetBalance(ctx, user.Username, currencypkg.USDT)
		require.NoError(t, err)
		require.True(t, b.Available.Equal(dec(s.wantAvailable)), "step %d: available %v, want %v", i, b.Available, s.wantAvailable)
		require.True(t, b.Held.Equal(dec(s.wantHeld)), "step %d: held %v, want %v", i, b.Held, s.wantHeld)
	}

	entries, err := repo.ListEntries(ctx, domain.ListEntriesParams{
		Username: user.Username,
		Currency: currencypkg.USDT,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, entries, 4)
}

func TestPostUnknownUser(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)

	_, err := ledgerrepo.NewTxRepoPGS(tx).Post(ctx, domain.LedgerParams{
		Username:  "nonexistent",
		Currency:  currencypkg.BTC,
		Amount:    dec("1"),
		Type:      domain.EntryCredit,
		Operation: domain.OperationDeposit,
	})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestApplyRollsBackOnError(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := ledgerrepo.NewRepoPGS(db)

	user := helpers.SeedUser(t, db)

	_, err := repo.Apply(ctx, domain.LedgerParams{
		Username:  user.Username,
		Currency:  currencypkg.LTC,
		Amount:    dec("1"),
		Type:      domain.EntryDebit,
		Operation: domain.OperationWithdrawal,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	balances, err := repo.ListBalances(ctx, user.Username)
	require.NoError(t, err)
	require.Empty(t, balances)
}

func TestTransfer(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := ledgerrepo.NewRepoPGS(db)

	user1 := helpers.SeedUser(t, db)
	user2 := helpers.SeedUser(t, db)
	helpers.SeedCredit(t, db, user1.Username, currencypkg.BTC, "1")

	arg := domain.CreateTransferParams{
		FromUsername: user1.Username,
		ToUsername:   user2.Username,
		Currency:     currencypkg.BTC,
		Amount:       dec("0.3"),
		Operation:    domain.OperationP2P,
	}

	result, err := repo.Transfer(ctx, arg)
	require.NoError(t, err)
	require.Equal(t, domain.EntryDebit, result.FromEntry.Type)
	require.Equal(t, domain.EntryCredit, result.ToEntry.Type)
	require.True(t, result.FromEntry.BalanceAfter.Equal(dec("0.7")))
	require.True(t, result.ToEntry.BalanceAfter.Equal(dec("0.3")))

	// Overdraft writes nothing on either side.
	arg.Amount = dec("5")
	_, err = repo.Transfer(ctx, arg)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	b, err := repo.GetBalance(ctx, user2.Username, currencypkg.BTC)
	require.NoError(t, err)
	require.True(t, b.Available.Equal(dec("0.3")))
}

func TestTransferDeadlock(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := ledgerrepo.NewRepoPGS(db)

	user1 := helpers.SeedUser(t, db)
	user2 := helpers.SeedUser(t, db)
	helpers.SeedCredit(t, db, user1.Username, currencypkg.USDT, "1000")
	helpers.SeedCredit(t, db, user2.Username, currencypkg.USDT, "1000")

	// run n concurrent transfer transactions
	n := 30

	errs := make(chan error)

	for i := 0; i < n; i++ {
		from, to := user1.Username, user2.Username
		// Change transfer direction
		if i%2 == 0 {
			from, to = to, from
		}

		arg := domain.CreateTransferParams{
			FromUsername: from,
			ToUsername:   to,
			Currency:     currencypkg.USDT,
			Amount:       dec("10"),
			Operation:    domain.OperationP2P,
		}

		go func() {
			_, err := repo.Transfer(ctx, arg)
			errs <- err
		}()
	}

	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Errorf("repo.Transfer(ctx, arg) returned error: %v", err)
		}
	}

	for _, username := range []string{user1.Username, user2.Username} {
		b, err := repo.GetBalance(ctx, username, currencypkg.USDT)
		require.NoError(t, err)
		require.True(t, b.Available.Equal(dec("1000")), "%s available = %v, want 1000", username, b.Available)
	}
}
