// Package tron implements the polling contract for TRC20 tokens over the TronGrid API.
package tron

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/go-petr/pet-exchange/internal/chain"
	"github.com/go-petr/pet-exchange/internal/custody"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// addressVersion prefixes every TRON main network address payload.
const addressVersion = 0x41

// Config describes the TronGrid endpoint and the token.
type Config struct {
	URL      string
	APIKey   string
	Contract string
	Currency string
	Decimals int32
	// PageSize is the number of latest transfers read per address.
	PageSize int
}

// Adapter lists token transfers per watched address.
type Adapter struct {
	baseURL   string
	apiKey    string
	contract  string
	currency  string
	decimals  int32
	pageSize  int
	client    *http.Client
	allocator custody.Allocator
	guard     *chain.Guard
}

// New returns TronGrid adapter.
func New(c Config, client *http.Client, a custody.Allocator, g *chain.Guard) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	if c.Decimals <= 0 {
		c.Decimals = 6
	}

	if c.PageSize <= 0 {
		c.PageSize = 50
	}

	return &Adapter{
		baseURL:   strings.TrimRight(c.URL, "/"),
		apiKey:    c.APIKey,
		contract:  c.Contract,
		currency:  c.Currency,
		decimals:  c.Decimals,
		pageSize:  c.PageSize,
		client:    client,
		allocator: a,
		guard:     g,
	}
}

// Network implements chain.Source.
func (a *Adapter) Network() domain.Network { return domain.NetworkTRC20 }

// Currency implements chain.Source.
func (a *Adapter) Currency() string { return a.currency }

// RequiredConfirmations implements chain.Source.
func (a *Adapter) RequiredConfirmations() int64 { return domain.NetworkTRC20.RequiredConfirmations() }

type trc20Transfer struct {
	TransactionID string `json:"transaction_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	Type          string `json:"type"`
	Value         string `json:"value"`
	TokenInfo     struct {
		Address string `json:"address"`
	} `json:"token_info"`
}

type trc20Page struct {
	Success bool            `json:"success"`
	Data    []trc20Transfer `json:"data"`
}

type nowBlock struct {
	BlockHeader struct {
		RawData struct {
			Number int64 `json:"number"`
		} `json:"raw_data"`
	} `json:"block_header"`
}

type txInfo struct {
	ID          string `json:"id"`
	BlockNumber int64  `json:"blockNumber"`
}

// Scan lists incoming transfers of every watched address.
//
// Transfers are returned without confirmations: known ones are dropped by the
// deposit store and new ones are re-queried as pending deposits, so old
// transfers on the page cost no calls. A failing address is logged and
// skipped, the rest of the batch continues.
func (a *Adapter) Scan(ctx context.Context, c chain.Cursor) (chain.Batch, error) {
	l := zerolog.Ctx(ctx)

	batch := chain.Batch{LastBlock: c.LastBlock}

	if len(c.Watched) == 0 {
		return batch, nil
	}

	// A node that cannot report its head is down, skip the address walk.
	if _, err := a.blockNumber(ctx); err != nil {
		return batch, err
	}

	for address, username := range c.Watched {
		transfers, err := a.listTransfers(ctx, address)
		if err != nil {
			l.Warn().Err(err).Str("address", address).Msg("list trc20 transfers")
			continue
		}

		for _, tr := range transfers {
			if tr.To != address || tr.Type != "Transfer" || tr.TokenInfo.Address != a.contract {
				continue
			}

			amount, err := decimal.NewFromString(tr.Value)
			if err != nil || !amount.IsPositive() {
				l.Warn().Str("tx_id", tr.TransactionID).Str("value", tr.Value).Msg("skip malformed trc20 value")
				continue
			}

			batch.Transfers = append(batch.Transfers, chain.Transfer{
				TxID:     tr.TransactionID,
				Address:  address,
				Username: username,
				Amount:   amount.Shift(-a.decimals),
			})
		}
	}

	return batch, nil
}

// Confirmations returns head minus the block of the transaction, zero while unconfirmed.
func (a *Adapter) Confirmations(ctx context.Context, txID string) (int64, error) {
	block, err := a.transactionBlock(ctx, txID)
	if err != nil {
		return 0, err
	}

	if block == 0 {
		return 0, nil
	}

	head, err := a.blockNumber(ctx)
	if err != nil {
		return 0, err
	}

	if head < block {
		return 0, nil
	}

	return head - block, nil
}

// GenerateAddress asks the custody service for a new address.
func (a *Adapter) GenerateAddress(ctx context.Context, username string) (string, error) {
	return a.allocator.Allocate(ctx, domain.NetworkTRC20, username)
}

var errInvalidAddress = errors.New("not a tron base58check address")

// ValidateAddress checks the base58check form with the main network prefix.
func (a *Adapter) ValidateAddress(address string) error {
	payload, version, err := base58.CheckDecode(address)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidAddress, err)
	}

	if version != addressVersion || len(payload) != 20 {
		return errInvalidAddress
	}

	return nil
}

func (a *Adapter) listTransfers(ctx context.Context, address string) ([]trc20Transfer, error) {
	q := url.Values{}
	q.Set("only_to", "true")
	q.Set("only_confirmed", "false")
	q.Set("contract_address", a.contract)
	q.Set("limit", fmt.Sprint(a.pageSize))

	endpoint := a.baseURL + "/v1/accounts/" + url.PathEscape(address) + "/transactions/trc20?" + q.Encode()

	var page trc20Page
	if err := a.call(ctx, http.MethodGet, endpoint, true, nil, &page); err != nil {
		return nil, err
	}

	if !page.Success {
		return nil, fmt.Errorf("%w: trongrid reported failure", domain.ErrExternalUnavailable)
	}

	return page.Data, nil
}

func (a *Adapter) blockNumber(ctx context.Context) (int64, error) {
	var b nowBlock
	if err := a.call(ctx, http.MethodPost, a.baseURL+"/wallet/getnowblock", false, struct{}{}, &b); err != nil {
		return 0, err
	}

	return b.BlockHeader.RawData.Number, nil
}

// transactionBlock returns the block of the transaction, zero when it is not in a block yet.
func (a *Adapter) transactionBlock(ctx context.Context, txID string) (int64, error) {
	var info txInfo

	body := map[string]string{"value": txID}
	if err := a.call(ctx, http.MethodPost, a.baseURL+"/wallet/gettransactioninfobyid", true, body, &info); err != nil {
		return 0, err
	}

	return info.BlockNumber, nil
}

// call sends one request through the guard. For item calls an answer other
// than 200 or 429 concerns that address or transaction only and does not
// trip the breaker.
func (a *Adapter) call(ctx context.Context, method, endpoint string, item bool, in, out interface{}) error {
	return a.guard.Do(ctx, func(ctx context.Context) error {
		var body io.Reader
		if in != nil {
			data, err := json.Marshal(in)
			if err != nil {
				return err
			}

			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return err
		}

		req.Header.Set("Accept", "application/json")
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		if a.apiKey != "" {
			req.Header.Set("TRON-PRO-API-KEY", a.apiKey)
		}

		res, err := a.client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			err := fmt.Errorf("%s %s: status %d", method, req.URL.Path, res.StatusCode)
			if item && res.StatusCode != http.StatusTooManyRequests {
				return chain.ItemFailure(err)
			}

			return err
		}

		return json.NewDecoder(res.Body).Decode(out)
	})
}
