//go:build integration

package depositrepo_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/go-petr/pet-exchange/internal/depositrepo"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/integrationtest"
	"github.com/go-petr/pet-exchange/internal/integrationtest/helpers"
	"github.com/go-petr/pet-exchange/internal/ledgerrepo"
	"github.com/go-petr/pet-exchange/internal/middleware"
	"github.com/go-petr/pet-exchange/pkg/configpkg"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/go-petr/pet-exchange/pkg/randompkg"
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

func recordParams(username string, confirmations int64) domain.RecordDepositParams {
	return domain.RecordDepositParams{
		TxID:          randompkg.TxID(),
		Username:      username,
		Currency:      currencypkg.BTC,
		Network:       domain.NetworkBTC,
		Address:       randompkg.Address(),
		Amount:        decimal.RequireFromString("0.5"),
		Confirmations: confirmations,
		Required:      domain.NetworkBTC.RequiredConfirmations(),
	}
}

func available(t *testing.T, username string, repo *ledgerrepo.RepoPGS) decimal.Decimal {
	t.Helper()

	b, err := repo.GetBalance(ctx, username, currencypkg.BTC)
	require.NoError(t, err)

	return b.Available
}

func TestRecord(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := depositrepo.NewRepoPGS(db)
	ledger := ledgerrepo.NewRepoPGS(db)

	testCases := []struct {
		name          string
		confirmations int64
		wantStatus    domain.DepositStatus
		wantCredit    string
	}{
		{name: "BelowThreshold", confirmations: 1, wantStatus: domain.DepositPending, wantCredit: "0"},
		{name: "AtThreshold", confirmations: 3, wantStatus: domain.DepositConfirmed, wantCredit: "0.5"},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			user := helpers.SeedUser(t, db)
			arg := recordParams(user.Username, tc.confirmations)

			d, err := repo.Record(ctx, arg)
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, d.Status)
			require.Equal(t, arg.TxID, d.TxID)
			require.True(t, available(t, user.Username, ledger).Equal(decimal.RequireFromString(tc.wantCredit)))

			// Recording the same transaction again changes nothing.
			again, err := repo.Record(ctx, arg)
			require.ErrorIs(t, err, domain.ErrDuplicateDeposit)
			require.Equal(t, d.ID, again.ID)
			require.True(t, available(t, user.Username, ledger).Equal(decimal.RequireFromString(tc.wantCredit)))
		})
	}
}

func TestRecordUnknownUser(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)

	_, err := depositrepo.NewRepoPGS(db).Record(ctx, recordParams("nonexistent", 0))
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestConfirmExactlyOnce(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := depositrepo.NewRepoPGS(db)
	ledger := ledgerrepo.NewRepoPGS(db)

	user := helpers.SeedUser(t, db)
	d, err := repo.Record(ctx, recordParams(user.Username, 0))
	require.NoError(t, err)

	n := 10
	errs := make(chan error)

	for i := 0; i < n; i++ {
		go func() {
			_, err := repo.Confirm(ctx, d.TxID, 3)
			errs <- err
		}()
	}

	confirmed := 0

	for i := 0; i < n; i++ {
		err := <-errs

		switch {
		case err == nil:
			confirmed++
		case errors.Is(err, domain.ErrDepositNotPending):
		default:
			t.Errorf("repo.Confirm(ctx, %v, 3) returned error: %v", d.TxID, err)
		}
	}

	require.Equal(t, 1, confirmed)
	require.True(t, available(t, user.Username, ledger).Equal(decimal.RequireFromString("0.5")))

	_, err = repo.Confirm(ctx, "unknown", 3)
	require.ErrorIs(t, err, domain.ErrDepositNotFound)
}

func TestUpdateConfirmations(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := depositrepo.NewRepoPGS(db)

	user := helpers.SeedUser(t, db)
	d, err := repo.Record(ctx, recordParams(user.Username, 1))
	require.NoError(t, err)

	got, err := repo.UpdateConfirmations(ctx, d.TxID, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.Confirmations)

	// The count never decreases.
	got, err = repo.UpdateConfirmations(ctx, d.TxID, 1)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.Confirmations)

	pending, err := repo.ListPending(ctx, domain.NetworkBTC)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = repo.Confirm(ctx, d.TxID, 3)
	require.NoError(t, err)

	_, err = repo.UpdateConfirmations(ctx, d.TxID, 4)
	require.ErrorIs(t, err, domain.ErrDepositNotPending)

	pending, err = repo.ListPending(ctx, domain.NetworkBTC)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestList(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := depositrepo.NewRepoPGS(db)

	user1 := helpers.SeedUser(t, db)
	user2 := helpers.SeedUser(t, db)

	for i := 0; i < 3; i++ {
		_, err := repo.Record(ctx, recordParams(user1.Username, 0))
		require.NoError(t, err)
	}

	_, err := repo.Record(ctx, recordParams(user1.Username, 3))
	require.NoError(t, err)

	_, err = repo.Record(ctx, recordParams(user2.Username, 0))
	require.NoError(t, err)

	got, err := repo.List(ctx, domain.ListDepositsParams{
		Username: user1.Username,
		Status:   domain.DepositPending,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i := 1; i < len(got); i++ {
		require.Greater(t, got[i-1].ID, got[i].ID, "newest first")
	}

	got, err = repo.List(ctx, domain.ListDepositsParams{Network: domain.NetworkBTC, Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestWatermark(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := depositrepo.NewRepoPGS(db)

	block, err := repo.GetWatermark(ctx, domain.NetworkERC20)
	require.NoError(t, err)
	require.Zero(t, block)

	require.NoError(t, repo.SetWatermark(ctx, domain.NetworkERC20, 100))
	require.NoError(t, repo.SetWatermark(ctx, domain.NetworkERC20, 90))

	block, err = repo.GetWatermark(ctx, domain.NetworkERC20)
	require.NoError(t, err)
	require.EqualValues(t, 100, block)
}
