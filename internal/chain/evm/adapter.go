// Package evm implements the polling contract for ERC20 tokens.
//
// Deposits are found by scanning token Transfer logs to watched addresses over
// a block range that trails the chain head by the confirmation threshold.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/go-petr/pet-exchange/internal/chain"
	"github.com/go-petr/pet-exchange/internal/custody"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransferTopic is the keccak hash of the ERC20 Transfer event signature.
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

type ethClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Config describes the token and the scan bounds.
type Config struct {
	URL      string
	Contract string
	Currency string
	// Decimals of the token, 6 for USDT.
	Decimals int32
	// BatchSize is the number of blocks per log query, MaxBatches bounds the queries per scan.
	BatchSize  int64
	MaxBatches int
	// StartBlock is where the first scan begins. Zero starts one batch behind the head.
	StartBlock int64
}

// Adapter scans token logs through an EVM node.
type Adapter struct {
	contract   common.Address
	currency   string
	decimals   int32
	batchSize  int64
	maxBatches int
	startBlock int64
	client     ethClient
	allocator  custody.Allocator
	guard      *chain.Guard
}

// New dials the node.
func New(ctx context.Context, c Config, a custody.Allocator, g *chain.Guard) (*Adapter, error) {
	if !common.IsHexAddress(c.Contract) {
		return nil, fmt.Errorf("invalid token contract %q", c.Contract)
	}

	client, err := ethclient.DialContext(ctx, c.URL)
	if err != nil {
		return nil, fmt.Errorf("dial evm node: %w", err)
	}

	return newAdapter(c, client, a, g), nil
}

func newAdapter(c Config, client ethClient, a custody.Allocator, g *chain.Guard) *Adapter {
	if c.Decimals <= 0 {
		c.Decimals = 6
	}

	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}

	if c.MaxBatches <= 0 {
		c.MaxBatches = 10
	}

	return &Adapter{
		contract:   common.HexToAddress(c.Contract),
		currency:   c.Currency,
		decimals:   c.Decimals,
		batchSize:  c.BatchSize,
		maxBatches: c.MaxBatches,
		startBlock: c.StartBlock,
		client:     client,
		allocator:  a,
		guard:      g,
	}
}

// Network implements chain.Source.
func (a *Adapter) Network() domain.Network { return domain.NetworkERC20 }

// Currency implements chain.Source.
func (a *Adapter) Currency() string { return a.currency }

// RequiredConfirmations implements chain.Source.
func (a *Adapter) RequiredConfirmations() int64 { return domain.NetworkERC20.RequiredConfirmations() }

func (a *Adapter) currentBlock(ctx context.Context) (int64, error) {
	var n uint64

	err := a.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		n, err = a.client.BlockNumber(ctx)
		return err
	})

	return int64(n), err
}

// Scan queries [LastBlock+1, head-required] in bounded batches.
//
// The returned LastBlock is the end of the last fully scanned batch. A failed
// batch ends the scan and the remaining range is retried on the next one.
func (a *Adapter) Scan(ctx context.Context, c chain.Cursor) (chain.Batch, error) {
	l := zerolog.Ctx(ctx)

	batch := chain.Batch{LastBlock: c.LastBlock}

	head, err := a.currentBlock(ctx)
	if err != nil {
		return batch, err
	}

	target := head - a.RequiredConfirmations()

	from := c.LastBlock + 1
	if c.LastBlock == 0 {
		from = a.startBlock
		if from == 0 {
			from = target - a.batchSize + 1
		}
	}

	if from < 0 {
		from = 0
	}

	if from > target {
		return batch, nil
	}

	watched := lowerKeys(c.Watched)
	if len(watched) == 0 {
		// Nothing can match, move the watermark so new addresses start at the head.
		batch.LastBlock = target
		return batch, nil
	}

	recipients := make([]common.Hash, 0, len(watched))
	for addr := range watched {
		recipients = append(recipients, common.BytesToHash(common.HexToAddress(addr).Bytes()))
	}

	for i := 0; i < a.maxBatches && from <= target; i++ {
		to := from + a.batchSize - 1
		if to > target {
			to = target
		}

		logs, err := a.scanLogs(ctx, from, to, recipients)
		if err != nil {
			if i == 0 {
				return batch, err
			}

			l.Warn().Err(err).Int64("from", from).Int64("to", to).Msg("log batch failed")

			break
		}

		for _, lg := range logs {
			t, ok := decodeTransfer(lg, watched, a.decimals)
			if !ok {
				continue
			}

			t.Confirmations = head - t.BlockNumber
			batch.Transfers = append(batch.Transfers, t)
		}

		batch.LastBlock = to
		from = to + 1
	}

	return batch, nil
}

func (a *Adapter) scanLogs(ctx context.Context, from, to int64, recipients []common.Hash) ([]types.Log, error) {
	var logs []types.Log

	err := a.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		logs, err = a.client.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: big.NewInt(from),
			ToBlock:   big.NewInt(to),
			Addresses: []common.Address{a.contract},
			Topics:    [][]common.Hash{{TransferTopic}, nil, recipients},
		})
		return itemFailure(err)
	})

	return logs, err
}

// decodeTransfer turns a Transfer log to a watched address into a transfer.
//
// watched maps lower-cased hex address to owner. The transfer id is
// txhash:logindex because one transaction may emit several transfers.
func decodeTransfer(lg types.Log, watched map[string]watchedAddress, decimals int32) (chain.Transfer, bool) {
	if lg.Removed || len(lg.Topics) != 3 || lg.Topics[0] != TransferTopic {
		return chain.Transfer{}, false
	}

	to := common.BytesToAddress(lg.Topics[2].Bytes())

	w, ok := watched[strings.ToLower(to.Hex())]
	if !ok {
		return chain.Transfer{}, false
	}

	value := new(big.Int).SetBytes(lg.Data)
	if value.Sign() <= 0 {
		return chain.Transfer{}, false
	}

	return chain.Transfer{
		TxID:        LogID(lg.TxHash, lg.Index),
		Address:     w.address,
		Username:    w.username,
		Amount:      decimal.NewFromBigInt(value, -decimals),
		BlockNumber: int64(lg.BlockNumber),
	}, true
}

// Confirmations returns head minus the block of the transaction.
func (a *Adapter) Confirmations(ctx context.Context, id string) (int64, error) {
	hash, err := ParseLogID(id)
	if err != nil {
		return 0, err
	}

	var receipt *types.Receipt

	err = a.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = a.client.TransactionReceipt(ctx, hash)
		return itemFailure(err)
	})
	if err != nil {
		return 0, err
	}

	if receipt.BlockNumber == nil {
		return 0, nil
	}

	head, err := a.currentBlock(ctx)
	if err != nil {
		return 0, err
	}

	n := head - receipt.BlockNumber.Int64()
	if n < 0 {
		n = 0
	}

	return n, nil
}

// itemFailure marks answers about one receipt or log range, a missing receipt
// or a JSON-RPC error, so they do not trip the breaker.
func itemFailure(err error) error {
	if err == nil {
		return nil
	}

	var rpcErr rpc.Error
	if errors.Is(err, ethereum.NotFound) || errors.As(err, &rpcErr) {
		return chain.ItemFailure(err)
	}

	return err
}

// GenerateAddress asks the custody service for a new address.
func (a *Adapter) GenerateAddress(ctx context.Context, username string) (string, error) {
	return a.allocator.Allocate(ctx, domain.NetworkERC20, username)
}

var errNotHexAddress = errors.New("not a hex address")

// ValidateAddress checks the 0x prefixed hex form.
func (a *Adapter) ValidateAddress(address string) error {
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return errNotHexAddress
	}

	return nil
}

type watchedAddress struct {
	address  string
	username string
}

func lowerKeys(watched map[string]string) map[string]watchedAddress {
	out := make(map[string]watchedAddress, len(watched))
	for addr, username := range watched {
		if !common.IsHexAddress(addr) {
			continue
		}

		out[strings.ToLower(common.HexToAddress(addr).Hex())] = watchedAddress{address: addr, username: username}
	}

	return out
}

// LogID formats the deposit identifier of a token transfer log.
func LogID(txHash common.Hash, index uint) string {
	return txHash.Hex() + ":" + strconv.FormatUint(uint64(index), 10)
}

// ParseLogID returns the transaction hash of the deposit identifier.
func ParseLogID(id string) (common.Hash, error) {
	i := strings.LastIndexByte(id, ':')
	if i <= 0 {
		return common.Hash{}, fmt.Errorf("invalid log id %q", id)
	}

	if _, err := strconv.ParseUint(id[i+1:], 10, 32); err != nil {
		return common.Hash{}, fmt.Errorf("invalid log id %q: %w", id, err)
	}

	return common.HexToHash(id[:i]), nil
}
