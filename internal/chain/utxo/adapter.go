// Package utxo implements the polling contract for bitcoin-like wallet nodes.
//
// Deposits are found through the node wallet: every user address is created
// with the username as label and incoming payments are read with
// listsinceblock from the last scanned height.
package utxo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/go-petr/pet-exchange/internal/chain"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const categoryReceive = "receive"

// walletClient is the part of the node wallet RPC the adapter uses.
type walletClient interface {
	GetBlockCount() (int64, error)
	GetBlockHash(blockHeight int64) (*chainhash.Hash, error)
	ListSinceBlock(blockHash *chainhash.Hash) (*btcjson.ListSinceBlockResult, error)
	GetTransaction(txHash *chainhash.Hash) (*btcjson.GetTransactionResult, error)
	GetNewAddress(account string) (btcutil.Address, error)
}

// Config describes one wallet node.
type Config struct {
	Network  domain.Network
	Params   *chaincfg.Params
	Host     string
	User     string
	Pass     string
	UseTLS   bool
	Currency string
}

// Adapter polls a wallet node.
type Adapter struct {
	network  domain.Network
	currency string
	params   *chaincfg.Params
	client   walletClient
	guard    *chain.Guard
}

// New connects to the wallet node in HTTP POST mode.
func New(c Config, g *chain.Guard) (*Adapter, error) {
	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         c.Host,
		User:         c.User,
		Pass:         c.Pass,
		HTTPPostMode: true,
		DisableTLS:   !c.UseTLS,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s node: %w", c.Network, err)
	}

	return newAdapter(c, client, g), nil
}

func newAdapter(c Config, client walletClient, g *chain.Guard) *Adapter {
	return &Adapter{
		network:  c.Network,
		currency: c.Currency,
		params:   c.Params,
		client:   client,
		guard:    g,
	}
}

// Network implements chain.Source.
func (a *Adapter) Network() domain.Network { return a.network }

// Currency implements chain.Source.
func (a *Adapter) Currency() string { return a.currency }

// RequiredConfirmations implements chain.Source.
func (a *Adapter) RequiredConfirmations() int64 { return a.network.RequiredConfirmations() }

// Scan returns wallet payments received by watched addresses since the
// watermark height, mempool included.
//
// The tip is read before the listing, so a block found in between is listed
// again on the next scan and deduplicated by the deposit store. One
// transaction can pay several watched addresses, so transfers are keyed by
// outpoint.
func (a *Adapter) Scan(ctx context.Context, c chain.Cursor) (chain.Batch, error) {
	l := zerolog.Ctx(ctx)

	batch := chain.Batch{LastBlock: c.LastBlock}

	var (
		tip   int64
		since *chainhash.Hash
		res   *btcjson.ListSinceBlockResult
	)

	err := a.guard.Do(ctx, func(context.Context) error {
		var err error
		tip, err = a.client.GetBlockCount()
		return err
	})
	if err != nil {
		return batch, err
	}

	if c.LastBlock > 0 && c.LastBlock <= tip {
		err = a.guard.Do(ctx, func(context.Context) error {
			var err error
			since, err = a.client.GetBlockHash(c.LastBlock)
			return err
		})
		if err != nil {
			return batch, err
		}
	}

	err = a.guard.Do(ctx, func(context.Context) error {
		var err error
		res, err = a.client.ListSinceBlock(since)
		return err
	})
	if err != nil {
		return batch, err
	}

	for _, tx := range res.Transactions {
		if tx.Category != categoryReceive {
			continue
		}

		username, ok := c.Watched[tx.Address]
		if !ok {
			continue
		}

		amount := decimal.NewFromFloat(tx.Amount)
		if !amount.IsPositive() {
			l.Warn().Str("tx_id", tx.TxID).Float64("amount", tx.Amount).Msg("skip non positive receive")
			continue
		}

		t := chain.Transfer{
			TxID:          OutpointID(tx.TxID, tx.Vout),
			Address:       tx.Address,
			Username:      username,
			Amount:        amount,
			Confirmations: tx.Confirmations,
		}

		if tx.BlockHeight != nil {
			t.BlockNumber = int64(*tx.BlockHeight)
		}

		batch.Transfers = append(batch.Transfers, t)
	}

	if tip > batch.LastBlock {
		batch.LastBlock = tip
	}

	return batch, nil
}

// Confirmations returns confirmations of the transaction the outpoint belongs to.
func (a *Adapter) Confirmations(ctx context.Context, id string) (int64, error) {
	txID, _, err := ParseOutpointID(id)
	if err != nil {
		return 0, err
	}

	hash, err := chainhash.NewHashFromStr(txID)
	if err != nil {
		return 0, fmt.Errorf("parse tx id %q: %w", txID, err)
	}

	var confirmations int64

	err = a.guard.Do(ctx, func(context.Context) error {
		res, err := a.client.GetTransaction(hash)
		if err != nil {
			return itemFailure(err)
		}

		confirmations = res.Confirmations

		return nil
	})

	return confirmations, err
}

// itemFailure marks errors the node returned for one transaction, such as
// an unknown transaction id, so they do not trip the breaker.
func itemFailure(err error) error {
	var rpcErr *btcjson.RPCError
	if errors.As(err, &rpcErr) {
		return chain.ItemFailure(err)
	}

	return err
}

// GenerateAddress asks the wallet for a new address labelled with the username.
func (a *Adapter) GenerateAddress(ctx context.Context, username string) (string, error) {
	var address string

	err := a.guard.Do(ctx, func(context.Context) error {
		addr, err := a.client.GetNewAddress(username)
		if err != nil {
			return err
		}

		address = addr.EncodeAddress()

		return nil
	})

	return address, err
}

// ValidateAddress checks that the address belongs to the node network.
func (a *Adapter) ValidateAddress(address string) error {
	addr, err := btcutil.DecodeAddress(address, a.params)
	if err != nil {
		return err
	}

	if !addr.IsForNet(a.params) {
		return fmt.Errorf("address %s is not for %s", address, a.params.Name)
	}

	return nil
}

// OutpointID formats the deposit identifier of a transaction output.
func OutpointID(txID string, vout uint32) string {
	return txID + ":" + strconv.FormatUint(uint64(vout), 10)
}

// ParseOutpointID splits the deposit identifier into transaction id and output index.
func ParseOutpointID(id string) (string, uint32, error) {
	i := strings.LastIndexByte(id, ':')
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid outpoint %q", id)
	}

	vout, err := strconv.ParseUint(id[i+1:], 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid outpoint %q: %w", id, err)
	}

	return id[:i], uint32(vout), nil
}
