package rateoracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

// BinanceFetcher reads spot prices from GET /api/v3/ticker/price.
type BinanceFetcher struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewBinanceFetcher returns fetcher of the exchange API at baseURL.
func NewBinanceFetcher(baseURL string, client *http.Client) *BinanceFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &BinanceFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "rates",
			Timeout: time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

type tickerPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// Fetch returns prices of every supported currency in QuoteCurrency.
func (f *BinanceFetcher) Fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	symbols := make(map[string]string)
	names := make([]string, 0, len(currencypkg.SupportedCurrencies))

	for _, c := range currencypkg.SupportedCurrencies {
		if c == QuoteCurrency {
			continue
		}

		symbol := c + QuoteCurrency
		symbols[symbol] = c
		names = append(names, `"`+symbol+`"`)
	}

	endpoint := f.baseURL + "/api/v3/ticker/price?symbols=" + url.QueryEscape("["+strings.Join(names, ",")+"]")

	res, err := f.breaker.Execute(func() (interface{}, error) {
		return f.get(ctx, endpoint)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: rates: %v", domain.ErrExternalUnavailable, err)
	}

	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, t := range res.([]tickerPrice) {
		if c, ok := symbols[t.Symbol]; ok && t.Price.IsPositive() {
			prices[c] = t.Price
		}
	}

	return prices, nil
}

func (f *BinanceFetcher) get(ctx context.Context, endpoint string) ([]tickerPrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}

	var out []tickerPrice
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}

	return out, nil
}
