package rateoracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestOracle(t *testing.T, margin string) (*Oracle, *MockFetcher, *time.Time) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	fetcher := NewMockFetcher(ctrl)
	o := New(fetcher, Config{
		Interval: time.Minute,
		Margin:   decimal.RequireFromString(margin),
		Fallback: map[string]decimal.Decimal{
			currencypkg.BTC: decimal.NewFromInt(50000),
			currencypkg.LTC: decimal.NewFromInt(100),
		},
	}, zerolog.Nop())

	now := testNow
	o.now = func() time.Time { return now }

	return o, fetcher, &now
}

func prices(btc, ltc string) map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		currencypkg.BTC: decimal.RequireFromString(btc),
		currencypkg.LTC: decimal.RequireFromString(ltc),
	}
}

func TestRateLive(t *testing.T) {
	o, fetcher, _ := newTestOracle(t, "0.01")

	fetcher.EXPECT().Fetch(gomock.Any()).Times(1).Return(prices("60000", "80"), nil)
	require.NoError(t, o.Refresh(context.Background()))

	testCases := []struct {
		from, to string
		want     string
	}{
		{currencypkg.BTC, currencypkg.USDT, "59400"},
		{currencypkg.USDT, currencypkg.BTC, "0.0000165"},
		{currencypkg.BTC, currencypkg.LTC, "742.5"},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.from+"_"+tc.to, func(t *testing.T) {
			q, err := o.Rate(tc.from, tc.to)
			require.NoError(t, err)
			require.Equal(t, SourceLive, q.Source)
			require.True(t, decimal.RequireFromString(tc.want).Equal(q.Rate.Round(12)), "rate %s, want %s", q.Rate, tc.want)
			require.Equal(t, testNow, q.AsOf)
		})
	}
}

func TestRateValidation(t *testing.T) {
	o, _, _ := newTestOracle(t, "0")

	_, err := o.Rate(currencypkg.BTC, currencypkg.BTC)
	require.ErrorIs(t, err, domain.ErrSameCurrency)

	_, err = o.Rate("DOGE", currencypkg.BTC)
	require.ErrorIs(t, err, domain.ErrUnsupportedCurrency)

	_, err = o.Rate(currencypkg.BTC, "")
	require.ErrorIs(t, err, domain.ErrUnsupportedCurrency)
}

func TestRateFallsBack(t *testing.T) {
	o, fetcher, now := newTestOracle(t, "0")

	q, err := o.Rate(currencypkg.BTC, currencypkg.USDT)
	require.NoError(t, err)
	require.Equal(t, SourceFallback, q.Source)
	require.True(t, decimal.NewFromInt(50000).Equal(q.Rate))

	fetcher.EXPECT().Fetch(gomock.Any()).Times(1).Return(prices("60000", "80"), nil)
	require.NoError(t, o.Refresh(context.Background()))

	*now = now.Add(2 * time.Minute)

	q, err = o.Rate(currencypkg.BTC, currencypkg.USDT)
	require.NoError(t, err)
	require.Equal(t, SourceLive, q.Source)

	fetchErr := errors.New("connection refused")
	fetcher.EXPECT().Fetch(gomock.Any()).Times(1).Return(nil, fetchErr)
	require.ErrorIs(t, o.Refresh(context.Background()), fetchErr)

	*now = now.Add(time.Second)

	q, err = o.Rate(currencypkg.BTC, currencypkg.USDT)
	require.NoError(t, err)
	require.Equal(t, SourceStale, q.Source)
	require.True(t, decimal.NewFromInt(60000).Equal(q.Rate), "last known price is kept")
	require.Equal(t, testNow, q.AsOf)
}

func TestRefreshKeepsMissingPrices(t *testing.T) {
	o, fetcher, _ := newTestOracle(t, "0")

	fetcher.EXPECT().Fetch(gomock.Any()).Times(1).Return(prices("60000", "80"), nil)
	require.NoError(t, o.Refresh(context.Background()))

	fetcher.EXPECT().Fetch(gomock.Any()).Times(1).Return(map[string]decimal.Decimal{
		currencypkg.BTC: decimal.NewFromInt(61000),
		currencypkg.LTC: decimal.Zero,
	}, nil)
	require.NoError(t, o.Refresh(context.Background()))

	q, err := o.Rate(currencypkg.LTC, currencypkg.USDT)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(80).Equal(q.Rate))

	q, err = o.Rate(currencypkg.BTC, currencypkg.USDT)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(61000).Equal(q.Rate))
}

func TestMissingPriceAgesToStale(t *testing.T) {
	o, fetcher, now := newTestOracle(t, "0")

	fetcher.EXPECT().Fetch(gomock.Any()).Times(1).Return(prices("60000", "80"), nil)
	require.NoError(t, o.Refresh(context.Background()))

	// The feed stops returning LTC while BTC keeps refreshing every minute.
	btcOnly := map[string]decimal.Decimal{currencypkg.BTC: decimal.NewFromInt(61000)}
	fetcher.EXPECT().Fetch(gomock.Any()).Times(3).Return(btcOnly, nil)

	for i := 0; i < 3; i++ {
		*now = now.Add(time.Minute)
		require.NoError(t, o.Refresh(context.Background()))
	}

	q, err := o.Rate(currencypkg.BTC, currencypkg.USDT)
	require.NoError(t, err)
	require.Equal(t, SourceLive, q.Source)

	q, err = o.Rate(currencypkg.LTC, currencypkg.USDT)
	require.NoError(t, err)
	require.Equal(t, SourceStale, q.Source)
	require.Equal(t, testNow, q.AsOf)
	require.True(t, decimal.NewFromInt(80).Equal(q.Rate))

	q, err = o.Rate(currencypkg.BTC, currencypkg.LTC)
	require.NoError(t, err)
	require.Equal(t, SourceStale, q.Source)
}

func TestRateUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	o := New(NewMockFetcher(ctrl), Config{Fallback: map[string]decimal.Decimal{}}, zerolog.Nop())

	_, err := o.Rate(currencypkg.BTC, currencypkg.USDT)
	require.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestStartStop(t *testing.T) {
	o, fetcher, _ := newTestOracle(t, "0")

	fetched := make(chan struct{}, 1)
	fetcher.EXPECT().Fetch(gomock.Any()).MinTimes(1).DoAndReturn(func(ctx context.Context) (map[string]decimal.Decimal, error) {
		select {
		case fetched <- struct{}{}:
		default:
		}

		return prices("60000", "80"), nil
	})

	o.Start(context.Background())
	o.Start(context.Background())

	select {
	case <-fetched:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not refresh")
	}

	o.Stop()
	o.Stop()

	q, err := o.Rate(currencypkg.BTC, currencypkg.USDT)
	require.NoError(t, err)
	require.Equal(t, SourceLive, q.Source)
}
