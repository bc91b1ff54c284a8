//go:build integration

package withdrawalrepo_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/integrationtest"
	"github.com/go-petr/pet-exchange/internal/integrationtest/helpers"
	"github.com/go-petr/pet-exchange/internal/ledgerrepo"
	"github.com/go-petr/pet-exchange/internal/middleware"
	"github.com/go-petr/pet-exchange/internal/withdrawalrepo"
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

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func holdParams(username, amount, limit string) domain.HoldWithdrawalParams {
	return domain.HoldWithdrawalParams{
		ID:          uuid.New(),
		Username:    username,
		Currency:    currencypkg.USDT,
		Network:     domain.NetworkTRC20,
		Address:     "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
		Amount:      dec(amount),
		Fee:         dec("1"),
		DailyLimit:  dec(limit),
		WindowStart: time.Now().Add(-24 * time.Hour),
	}
}

func requireBalance(t *testing.T, ledger *ledgerrepo.RepoPGS, username, available, held string) {
	t.Helper()

	b, err := ledger.GetBalance(ctx, username, currencypkg.USDT)
	require.NoError(t, err)
	require.True(t, b.Available.Equal(dec(available)), "available = %v, want %v", b.Available, available)
	require.True(t, b.Held.Equal(dec(held)), "held = %v, want %v", b.Held, held)
}

func TestCreate(t *testing.T) {
	testCases := []struct {
		name          string
		amount        string
		limit         string
		wantErr       error
		wantAvailable string
		wantHeld      string
	}{
		{name: "OK", amount: "50", limit: "1000", wantAvailable: "49", wantHeld: "51"},
		{name: "InsufficientBalance", amount: "100", limit: "1000", wantErr: domain.ErrInsufficientBalance, wantAvailable: "100", wantHeld: "0"},
		{name: "LimitExceeded", amount: "50", limit: "40", wantErr: domain.ErrLimitExceeded, wantAvailable: "100", wantHeld: "0"},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			db := integrationtest.SetupDB(t, dbDriver, dbSource)
			repo := withdrawalrepo.NewRepoPGS(db)
			ledger := ledgerrepo.NewRepoPGS(db)

			user := helpers.SeedUser(t, db)
			helpers.SeedCredit(t, db, user.Username, currencypkg.USDT, "100")

			arg := holdParams(user.Username, tc.amount, tc.limit)

			w, err := repo.Create(ctx, arg)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, arg.ID, w.ID)
				require.Equal(t, domain.WithdrawalPending, w.Status)
				require.True(t, w.Total().Equal(dec(tc.amount).Add(arg.Fee)))
			}

			requireBalance(t, ledger, user.Username, tc.wantAvailable, tc.wantHeld)
		})
	}
}

func TestCreateCountsRollingWindow(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := withdrawalrepo.NewRepoPGS(db)

	user := helpers.SeedUser(t, db)
	helpers.SeedCredit(t, db, user.Username, currencypkg.USDT, "100")

	_, err := repo.Create(ctx, holdParams(user.Username, "30", "50"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, holdParams(user.Username, "30", "50"))
	require.ErrorIs(t, err, domain.ErrLimitExceeded)

	// Reaching the limit exactly is allowed.
	_, err = repo.Create(ctx, holdParams(user.Username, "20", "50"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, holdParams(user.Username, "0.01", "50"))
	require.ErrorIs(t, err, domain.ErrLimitExceeded)

	used, err := repo.SumSince(ctx, user.Username, currencypkg.USDT, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, used.Equal(dec("50")))
}

func TestSettle(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := withdrawalrepo.NewRepoPGS(db)
	ledger := ledgerrepo.NewRepoPGS(db)

	user := helpers.SeedUser(t, db)
	helpers.SeedCredit(t, db, user.Username, currencypkg.USDT, "100")

	w, err := repo.Create(ctx, holdParams(user.Username, "50", "1000"))
	require.NoError(t, err)

	got, err := repo.Settle(ctx, w.ID, "0xhash")
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalCompleted, got.Status)
	require.Equal(t, "0xhash", got.TxHash)
	requireBalance(t, ledger, user.Username, "49", "0")

	// Terminal state accepts no further transition.
	_, err = repo.Settle(ctx, w.ID, "0xhash")
	require.ErrorIs(t, err, domain.ErrWithdrawalNotPending)

	_, err = repo.Reject(ctx, w.ID, "late")
	require.ErrorIs(t, err, domain.ErrWithdrawalNotPending)
	requireBalance(t, ledger, user.Username, "49", "0")
}

func TestSettleRejectRace(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := withdrawalrepo.NewRepoPGS(db)
	ledger := ledgerrepo.NewRepoPGS(db)

	user := helpers.SeedUser(t, db)
	helpers.SeedCredit(t, db, user.Username, currencypkg.USDT, "100")

	w, err := repo.Create(ctx, holdParams(user.Username, "50", "1000"))
	require.NoError(t, err)

	type outcome struct {
		status domain.WithdrawalStatus
		err    error
	}

	n := 10
	results := make(chan outcome)

	for i := 0; i < n; i++ {
		settle := i%2 == 0

		go func() {
			if settle {
				_, err := repo.Settle(ctx, w.ID, "0xhash")
				results <- outcome{domain.WithdrawalCompleted, err}
				return
			}

			_, err := repo.Reject(ctx, w.ID, "duplicate request")
			results <- outcome{domain.WithdrawalRejected, err}
		}()
	}

	var winners []domain.WithdrawalStatus

	for i := 0; i < n; i++ {
		res := <-results

		switch {
		case res.err == nil:
			winners = append(winners, res.status)
		case errors.Is(res.err, domain.ErrWithdrawalNotPending):
		default:
			t.Errorf("concurrent %v of %v returned error: %v", res.status, w.ID, res.err)
		}
	}

	require.Len(t, winners, 1)

	got, err := repo.Get(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, winners[0], got.Status)

	if got.Status == domain.WithdrawalCompleted {
		requireBalance(t, ledger, user.Username, "49", "0")
	} else {
		requireBalance(t, ledger, user.Username, "100", "0")
	}
}

func TestReject(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := withdrawalrepo.NewRepoPGS(db)
	ledger := ledgerrepo.NewRepoPGS(db)

	user := helpers.SeedUser(t, db)
	helpers.SeedCredit(t, db, user.Username, currencypkg.USDT, "100")

	w, err := repo.Create(ctx, holdParams(user.Username, "50", "1000"))
	require.NoError(t, err)

	got, err := repo.Reject(ctx, w.ID, "sanctioned address")
	require.NoError(t, err)
	require.Equal(t, domain.WithdrawalRejected, got.Status)
	require.Equal(t, "sanctioned address", got.Reason)
	requireBalance(t, ledger, user.Username, "100", "0")

	// Rejected withdrawals no longer count against the limit.
	used, err := repo.SumSince(ctx, user.Username, currencypkg.USDT, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, used.IsZero())

	_, err = repo.Reject(ctx, uuid.New(), "")
	require.ErrorIs(t, err, domain.ErrWithdrawalNotFound)
}

func TestGetAndList(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)
	repo := withdrawalrepo.NewRepoPGS(db)

	user := helpers.SeedUser(t, db)
	helpers.SeedCredit(t, db, user.Username, currencypkg.USDT, "100")

	var ids []uuid.UUID

	for i := 0; i < 3; i++ {
		w, err := repo.Create(ctx, holdParams(user.Username, "10", "1000"))
		require.NoError(t, err)

		ids = append(ids, w.ID)
	}

	_, err := repo.Reject(ctx, ids[0], "")
	require.NoError(t, err)

	got, err := repo.Get(ctx, ids[1])
	require.NoError(t, err)
	require.Equal(t, ids[1], got.ID)

	_, err = repo.Get(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrWithdrawalNotFound)

	pending, err := repo.List(ctx, user.Username, domain.WithdrawalPending, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	all, err := repo.List(ctx, user.Username, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}
