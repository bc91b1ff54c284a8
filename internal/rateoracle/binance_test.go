package rateoracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBinanceFetcher(t *testing.T) {
	var gotSymbols string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		gotSymbols = r.URL.Query().Get("symbols")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","price":"64012.51000000"},
			{"symbol":"LTCUSDT","price":"83.12000000"},
			{"symbol":"ETHUSDT","price":"3100.00000000"}
		]`))
	}))
	defer srv.Close()

	got, err := NewBinanceFetcher(srv.URL+"/", srv.Client()).Fetch(context.Background())
	require.NoError(t, err)

	require.Equal(t, `["BTCUSDT","LTCUSDT"]`, gotSymbols)
	require.Len(t, got, 2)
	require.True(t, decimal.RequireFromString("64012.51").Equal(got[currencypkg.BTC]))
	require.True(t, decimal.RequireFromString("83.12").Equal(got[currencypkg.LTC]))
}

func TestBinanceFetcherFailure(t *testing.T) {
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewBinanceFetcher(srv.URL, srv.Client())

	for i := 0; i < 5; i++ {
		_, err := f.Fetch(context.Background())
		require.ErrorIs(t, err, domain.ErrExternalUnavailable)
	}

	require.Equal(t, 3, calls, "breaker opens after three consecutive failures")
}
