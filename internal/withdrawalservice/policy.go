package withdrawalservice

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/configpkg"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/shopspring/decimal"
)

// DefaultWindow is the length of the rolling limit window.
const DefaultWindow = 24 * time.Hour

// Fee holds the flat withdrawal fee and minimal amount of a network.
type Fee struct {
	Fee       decimal.Decimal
	MinAmount decimal.Decimal
}

// Limit holds rolling window limits of a currency per verification tier.
type Limit struct {
	Unverified decimal.Decimal
	Verified   decimal.Decimal
}

// Policy is the fee and limit tables the service is constructed with.
type Policy struct {
	Fees   map[domain.Network]Fee
	Limits map[string]Limit
	Window time.Duration
}

// NewPolicy parses the configured tables. Every supported network needs a fee
// and every supported currency needs limits.
func NewPolicy(raw configpkg.Policy) (Policy, error) {
	p := Policy{
		Fees:   make(map[domain.Network]Fee, len(raw.Fees)),
		Limits: make(map[string]Limit, len(raw.Limits)),
		Window: DefaultWindow,
	}

	for name, f := range raw.Fees {
		network := domain.Network(strings.ToUpper(name))
		if !network.IsSupported() {
			return p, fmt.Errorf("fee for unsupported network %q", name)
		}

		fee, err := decimal.NewFromString(f.Fee)
		if err != nil {
			return p, fmt.Errorf("fee of %s: %w", network, err)
		}

		min, err := decimal.NewFromString(f.MinAmount)
		if err != nil {
			return p, fmt.Errorf("min amount of %s: %w", network, err)
		}

		if fee.IsNegative() || !min.IsPositive() {
			return p, fmt.Errorf("fee table of %s must be non negative", network)
		}

		p.Fees[network] = Fee{Fee: fee, MinAmount: min}
	}

	for name, lim := range raw.Limits {
		currency := strings.ToUpper(name)
		if !currencypkg.IsSupportedCurrency(currency) {
			return p, fmt.Errorf("limit for unsupported currency %q", name)
		}

		unverified, err := decimal.NewFromString(lim.Unverified)
		if err != nil {
			return p, fmt.Errorf("unverified limit of %s: %w", currency, err)
		}

		verified, err := decimal.NewFromString(lim.Verified)
		if err != nil {
			return p, fmt.Errorf("verified limit of %s: %w", currency, err)
		}

		p.Limits[currency] = Limit{Unverified: unverified, Verified: verified}
	}

	for _, n := range domain.Networks {
		if _, ok := p.Fees[n]; !ok {
			return p, fmt.Errorf("missing fee for network %s", n)
		}
	}

	for _, c := range currencypkg.SupportedCurrencies {
		if _, ok := p.Limits[c]; !ok {
			return p, fmt.Errorf("missing limits for currency %s", c)
		}
	}

	return p, nil
}

// DefaultPolicy returns the tables shipped in configs/policy.yaml.
func DefaultPolicy() Policy {
	d := decimal.RequireFromString

	return Policy{
		Fees: map[domain.Network]Fee{
			domain.NetworkBTC:   {Fee: d("0.0001"), MinAmount: d("0.001")},
			domain.NetworkLTC:   {Fee: d("0.001"), MinAmount: d("0.01")},
			domain.NetworkERC20: {Fee: d("5"), MinAmount: d("10")},
			domain.NetworkTRC20: {Fee: d("1"), MinAmount: d("5")},
		},
		Limits: map[string]Limit{
			currencypkg.BTC:  {Unverified: d("1"), Verified: d("10")},
			currencypkg.LTC:  {Unverified: d("50"), Verified: d("500")},
			currencypkg.USDT: {Unverified: d("10000"), Verified: d("100000")},
		},
		Window: DefaultWindow,
	}
}

// Limit returns the limit of the currency for the tier.
func (p Policy) Limit(currency string, verified bool) (decimal.Decimal, bool) {
	lim, ok := p.Limits[currency]
	if !ok {
		return decimal.Zero, false
	}

	if verified {
		return lim.Verified, true
	}

	return lim.Unverified, true
}
