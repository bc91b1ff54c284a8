// Package rateoracle keeps cross-currency prices fresh for the swap path.
package rateoracle

import (
	"context"
	"sync"
	"time"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// QuoteCurrency is the currency every price is expressed in.
const QuoteCurrency = currencypkg.USDT

// Fetcher returns prices of currencies in QuoteCurrency.
//
//go:generate mockgen -source oracle.go -destination oracle_mock.go -package rateoracle
type Fetcher interface {
	Fetch(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Source tells how current a quote is.
type Source string

// Quote sources.
const (
	SourceLive     Source = "live"
	SourceStale    Source = "stale"
	SourceFallback Source = "fallback"
)

// Quote is a rate with margin applied.
type Quote struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Rate   decimal.Decimal `json:"rate"`
	Source Source          `json:"source"`
	AsOf   time.Time       `json:"as_of"`
}

// Config holds refresh and pricing settings.
type Config struct {
	Interval time.Duration
	// Margin is taken from every rate, 0.005 keeps half a percent.
	Margin decimal.Decimal
	// Fallback prices are used until the first successful refresh.
	Fallback map[string]decimal.Decimal
}

// DefaultFallback returns rough prices used when the feed never answered.
func DefaultFallback() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		currencypkg.BTC: decimal.NewFromInt(60000),
		currencypkg.LTC: decimal.NewFromInt(80),
	}
}

// Oracle caches prices and refreshes them on a ticker.
type Oracle struct {
	fetcher  Fetcher
	interval time.Duration
	margin   decimal.Decimal
	fallback map[string]decimal.Decimal
	logger   zerolog.Logger
	now      func() time.Time

	mu     sync.RWMutex
	prices map[string]pricePoint

	lifecycle sync.Mutex
	stop      chan struct{}
	done      chan struct{}
}

// pricePoint is a price and the refresh that last returned it.
type pricePoint struct {
	value     decimal.Decimal
	fetchedAt time.Time
}

// New returns oracle with an empty cache.
func New(f Fetcher, c Config, logger zerolog.Logger) *Oracle {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}

	if c.Fallback == nil {
		c.Fallback = DefaultFallback()
	}

	return &Oracle{
		fetcher:  f,
		interval: c.Interval,
		margin:   c.Margin,
		fallback: c.Fallback,
		logger:   logger.With().Str("component", "rateoracle").Logger(),
		now:      time.Now,
	}
}

// Refresh fetches prices. On failure the last known prices stay in place.
//
// Currencies missing from the answer keep their previous price and age.
func (o *Oracle) Refresh(ctx context.Context) error {
	prices, err := o.fetcher.Fetch(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("refresh rates, keeping last known")
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()

	next := make(map[string]pricePoint, len(prices))
	for c, p := range o.prices {
		next[c] = p
	}

	for c, p := range prices {
		if p.IsPositive() {
			next[c] = pricePoint{value: p, fetchedAt: now}
		}
	}

	o.prices = next

	return nil
}

// Start refreshes right away and then on every tick until Stop.
func (o *Oracle) Start(ctx context.Context) {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	if o.stop != nil {
		return
	}

	o.stop = make(chan struct{})
	o.done = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)

		ticker := time.NewTicker(o.interval)
		defer ticker.Stop()

		_ = o.Refresh(ctx)

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = o.Refresh(ctx)
			}
		}
	}(o.stop, o.done)
}

// Stop stops the ticker and waits for the running refresh.
func (o *Oracle) Stop() {
	o.lifecycle.Lock()
	stop, done := o.stop, o.done
	o.stop, o.done = nil, nil
	o.lifecycle.Unlock()

	if stop == nil {
		return
	}

	close(stop)
	<-done
}

// price returns the price of the currency and where it came from.
func (o *Oracle) price(currency string) (decimal.Decimal, Source, time.Time, bool) {
	if currency == QuoteCurrency {
		return decimal.NewFromInt(1), SourceLive, o.now(), true
	}

	o.mu.RLock()
	pp, ok := o.prices[currency]
	o.mu.RUnlock()

	if ok {
		if o.now().Sub(pp.fetchedAt) <= 2*o.interval {
			return pp.value, SourceLive, pp.fetchedAt, true
		}

		return pp.value, SourceStale, pp.fetchedAt, true
	}

	p, ok := o.fallback[currency]

	return p, SourceFallback, time.Time{}, ok
}

// Rate returns the price of one unit of from in to, reduced by the margin.
//
// Prices are crossed through QuoteCurrency. Stale or missing feed data falls
// back to last known, then hardcoded prices, instead of failing.
func (o *Oracle) Rate(from, to string) (Quote, error) {
	if !currencypkg.IsSupportedCurrency(from) || !currencypkg.IsSupportedCurrency(to) {
		return Quote{}, domain.ErrUnsupportedCurrency
	}

	if from == to {
		return Quote{}, domain.ErrSameCurrency
	}

	fromPrice, fromSource, fromAsOf, ok := o.price(from)
	if !ok {
		return Quote{}, domain.ErrRateUnavailable
	}

	toPrice, toSource, toAsOf, ok := o.price(to)
	if !ok || toPrice.IsZero() {
		return Quote{}, domain.ErrRateUnavailable
	}

	q := Quote{
		From:   from,
		To:     to,
		Rate:   fromPrice.Div(toPrice).Mul(decimal.NewFromInt(1).Sub(o.margin)),
		Source: worse(fromSource, toSource),
		AsOf:   fromAsOf,
	}

	if toAsOf.Before(fromAsOf) {
		q.AsOf = toAsOf
	}

	if q.Source != SourceLive {
		o.logger.Warn().Str("from", from).Str("to", to).Str("source", string(q.Source)).Msg("serving non live rate")
	}

	return q, nil
}

func worse(a, b Source) Source {
	rank := map[Source]int{SourceLive: 0, SourceStale: 1, SourceFallback: 2}
	if rank[b] > rank[a] {
		return b
	}

	return a
}
