//go:build integration

package entryrepo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/entryrepo"
	"github.com/go-petr/pet-exchange/internal/integrationtest"
	"github.com/go-petr/pet-exchange/internal/integrationtest/helpers"
	"github.com/go-petr/pet-exchange/internal/middleware"
	"github.com/go-petr/pet-exchange/pkg/configpkg"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
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

var equateDecimal = cmp.Comparer(func(x, y decimal.Decimal) bool { return x.Equal(y) })

func TestCreate(t *testing.T) {
	testCases := []struct {
		name    string
		entry   func(username string) domain.LedgerEntry
		wantErr error
	}{
		{
			name: "OK",
			entry: func(username string) domain.LedgerEntry {
				return domain.LedgerEntry{
					Username:      username,
					Currency:      currencypkg.USDT,
					Amount:        decimal.NewFromInt(5),
					Type:          domain.EntryHold,
					Operation:     domain.OperationWithdrawal,
					ReferenceID:   "ref",
					BalanceBefore: decimal.NewFromInt(10),
					BalanceAfter:  decimal.NewFromInt(5),
				}
			},
		},
		{
			name: "NonPositiveAmount",
			entry: func(username string) domain.LedgerEntry {
				return domain.LedgerEntry{
					Username:    username,
					Currency:    currencypkg.USDT,
					Amount:      decimal.Zero,
					Type:        domain.EntryCredit,
					Operation:   domain.OperationDeposit,
					ReferenceID: "ref",
				}
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			tx := integrationtest.SetupTX(t, dbDriver, dbSource)

			user := helpers.SeedUser(t, tx)
			helpers.SeedCredit(t, tx, user.Username, currencypkg.USDT, "10")

			want := tc.entry(user.Username)

			got, err := entryrepo.NewRepoPGS(tx).Create(ctx, want)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotZero(t, got.ID)
			require.NotZero(t, got.CreatedAt)

			ignore := cmpopts.IgnoreFields(domain.LedgerEntry{}, "ID", "CreatedAt")
			if diff := cmp.Diff(want, got, ignore, equateDecimal); diff != "" {
				t.Errorf("Create() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGet(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := entryrepo.NewRepoPGS(tx)

	user := helpers.SeedUser(t, tx)
	want := helpers.SeedCredit(t, tx, user.Username, currencypkg.BTC, "0.25")

	got, err := repo.Get(ctx, want.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, equateDecimal, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	_, err = repo.Get(ctx, -1)
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestList(t *testing.T) {
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := entryrepo.NewRepoPGS(tx)

	user := helpers.SeedUser(t, tx)

	var want []domain.LedgerEntry
	for i := 0; i < 5; i++ {
		want = append(want, helpers.SeedCredit(t, tx, user.Username, currencypkg.LTC, "1"))
	}

	// Another currency of the same user stays out of the page.
	helpers.SeedCredit(t, tx, user.Username, currencypkg.BTC, "1")

	got, err := repo.List(ctx, domain.ListEntriesParams{
		Username: user.Username,
		Currency: currencypkg.LTC,
		Limit:    3,
		Offset:   1,
	})
	require.NoError(t, err)

	if diff := cmp.Diff(want[1:4], got, equateDecimal, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	// Journal is a running chain of available balances.
	for i, e := range got {
		require.True(t, e.BalanceAfter.Equal(decimal.NewFromInt(int64(i+2))), "entry %d balance_after = %v", i, e.BalanceAfter)
	}
}
