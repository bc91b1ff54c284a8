//go:build integration

package swaprepo_test

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
	"github.com/go-petr/pet-exchange/internal/swaprepo"
	"github.com/go-petr/pet-exchange/pkg/configpkg"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/google/uuid"
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

func newSwap(username, fromAmount, toAmount string) domain.Swap {
	return domain.Swap{
		ID:           uuid.New(),
		Username:     username,
		FromCurrency: currencypkg.LTC,
		ToCurrency:   currencypkg.BTC,
		FromAmount:   decimal.RequireFromString(fromAmount),
		ToAmount:     decimal.RequireFromString(toAmount),
		Rate:         decimal.RequireFromString("0.00133333"),
	}
}

func TestExecute(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := swaprepo.NewRepoPGS(db)
	ledger := ledgerrepo.NewRepoPGS(db)

	user := helpers.SeedUser(t, db)
	helpers.SeedCredit(t, db, user.Username, currencypkg.LTC, "10")

	s := newSwap(user.Username, "6", "0.00799998")

	got, err := repo.Execute(ctx, s)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.Swap.ID)
	require.Equal(t, s.ID.String(), got.FromEntry.ReferenceID)
	require.Equal(t, s.ID.String(), got.ToEntry.ReferenceID)
	require.Equal(t, domain.OperationSwap, got.FromEntry.Operation)

	ltc, err := ledger.GetBalance(ctx, user.Username, currencypkg.LTC)
	require.NoError(t, err)
	require.True(t, ltc.Available.Equal(decimal.NewFromInt(4)))

	btc, err := ledger.GetBalance(ctx, user.Username, currencypkg.BTC)
	require.NoError(t, err)
	require.True(t, btc.Available.Equal(s.ToAmount))

	// Overdraft leaves both balances and the swap table untouched.
	failed := newSwap(user.Username, "5", "0.00666665")

	_, err = repo.Execute(ctx, failed)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = repo.Get(ctx, failed.ID)
	require.ErrorIs(t, err, domain.ErrSwapNotFound)

	btc, err = ledger.GetBalance(ctx, user.Username, currencypkg.BTC)
	require.NoError(t, err)
	require.True(t, btc.Available.Equal(s.ToAmount))
}

func TestGetAndList(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := swaprepo.NewRepoPGS(db)

	user := helpers.SeedUser(t, db)
	helpers.SeedCredit(t, db, user.Username, currencypkg.LTC, "10")

	var ids []uuid.UUID

	for i := 0; i < 3; i++ {
		res, err := repo.Execute(ctx, newSwap(user.Username, "1", "0.00133333"))
		require.NoError(t, err)

		ids = append(ids, res.Swap.ID)
	}

	got, err := repo.Get(ctx, ids[0])
	require.NoError(t, err)
	require.Equal(t, user.Username, got.Username)
	require.True(t, got.Rate.Equal(decimal.RequireFromString("0.00133333")))

	list, err := repo.List(ctx, user.Username, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	list, err = repo.List(ctx, user.Username, 10, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
