// Package reconciler polls a chain source and turns observed transfers into credited deposits.
package reconciler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-petr/pet-exchange/internal/chain"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/events"
	"github.com/rs/zerolog"
)

// Repo provides deposit storage needed by the reconciler.
//
//go:generate mockgen -source reconciler.go -destination reconciler_mock.go -package reconciler
type Repo interface {
	Record(ctx context.Context, arg domain.RecordDepositParams) (domain.Deposit, error)
	ListPending(ctx context.Context, network domain.Network) ([]domain.Deposit, error)
	UpdateConfirmations(ctx context.Context, txID string, confirmations int64) (domain.Deposit, error)
	Confirm(ctx context.Context, txID string, confirmations int64) (domain.Deposit, error)
	GetWatermark(ctx context.Context, network domain.Network) (int64, error)
	SetWatermark(ctx context.Context, network domain.Network, block int64) error
}

// AddressLister returns watched deposit addresses of a network mapped to their owners.
type AddressLister interface {
	ListByNetwork(ctx context.Context, network domain.Network) (map[string]string, error)
}

// Locker excludes cycles of the same network running on other replicas.
type Locker interface {
	TryLock(ctx context.Context, name string) (unlock func(), acquired bool, err error)
}

// Result counts what a cycle did.
type Result struct {
	Skipped    bool
	Recorded   int
	Duplicates int
	Confirmed  int
	Updated    int
	Failed     int
}

// Reconciler runs deposit cycles of one network on a fixed interval.
type Reconciler struct {
	source    chain.Source
	repo      Repo
	addresses AddressLister
	publisher events.Publisher
	locker    Locker
	interval  time.Duration
	logger    zerolog.Logger

	running atomic.Bool

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// Option configures optional collaborators.
type Option func(r *Reconciler)

// WithLocker makes cycles exclusive across replicas.
func WithLocker(l Locker) Option {
	return func(r *Reconciler) { r.locker = l }
}

// WithPublisher emits an event for every credited deposit.
func WithPublisher(p events.Publisher) Option {
	return func(r *Reconciler) { r.publisher = p }
}

// New returns reconciler of the source network.
func New(source chain.Source, repo Repo, addresses AddressLister, interval time.Duration, logger zerolog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		source:    source,
		repo:      repo,
		addresses: addresses,
		interval:  interval,
		logger:    logger.With().Str("network", string(source.Network())).Logger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start runs a cycle right away and then on every tick until Stop.
//
// Cycles get ctx, which should outlive the shutdown signal so that an
// in-flight cycle can finish.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		return
	}

	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.loop(ctx, r.stop, r.done)

	r.logger.Info().Dur("interval", r.interval).Msg("reconciler started")
}

func (r *Reconciler) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunCycle(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.RunCycle(ctx)
		}
	}
}

// Stop stops the ticker and waits for the in-flight cycle. It is safe to call more than once.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop == nil {
		return
	}

	close(stop)
	<-done

	r.logger.Info().Msg("reconciler stopped")
}

// RunCycle runs one reconciliation pass unless one is already running.
func (r *Reconciler) RunCycle(ctx context.Context) Result {
	l := r.logger
	ctx = l.WithContext(ctx)

	if !r.running.CompareAndSwap(false, true) {
		l.Debug().Msg("previous cycle still running, skip")
		return Result{Skipped: true}
	}
	defer r.running.Store(false)

	if r.locker != nil {
		unlock, acquired, err := r.locker.TryLock(ctx, "reconciler:"+string(r.source.Network()))
		if err != nil {
			l.Warn().Err(err).Msg("acquire cycle lock")
			return Result{Skipped: true}
		}

		if !acquired {
			l.Debug().Msg("cycle running on another replica, skip")
			return Result{Skipped: true}
		}
		defer unlock()
	}

	start := time.Now()

	var res Result

	seen := r.scan(ctx, &res)
	r.advancePending(ctx, seen, &res)

	l.Info().
		Int("recorded", res.Recorded).
		Int("duplicates", res.Duplicates).
		Int("confirmed", res.Confirmed).
		Int("updated", res.Updated).
		Int("failed", res.Failed).
		Dur("took", time.Since(start)).
		Msg("cycle finished")

	return res
}

// scan records transfers of watched addresses and returns the transaction ids
// whose confirmations it already knows.
func (r *Reconciler) scan(ctx context.Context, res *Result) map[string]bool {
	l := zerolog.Ctx(ctx)
	network := r.source.Network()
	seen := map[string]bool{}

	watched, err := r.addresses.ListByNetwork(ctx, network)
	if err != nil {
		l.Error().Err(err).Msg("list watched addresses")
		res.Failed++
		return seen
	}

	lastBlock, err := r.repo.GetWatermark(ctx, network)
	if err != nil {
		l.Error().Err(err).Msg("get watermark")
		res.Failed++
		return seen
	}

	batch, err := r.source.Scan(ctx, chain.Cursor{Watched: watched, LastBlock: lastBlock})
	if err != nil {
		l.Warn().Err(err).Msg("scan source")
		res.Failed++
		return seen
	}

	allRecorded := true

	for _, t := range batch.Transfers {
		d, err := r.repo.Record(ctx, domain.RecordDepositParams{
			TxID:          t.TxID,
			Username:      t.Username,
			Currency:      r.source.Currency(),
			Network:       network,
			Address:       t.Address,
			Amount:        t.Amount,
			Confirmations: t.Confirmations,
			Required:      r.source.RequiredConfirmations(),
		})

		switch {
		case errors.Is(err, domain.ErrDuplicateDeposit):
			res.Duplicates++
			continue
		case err != nil:
			l.Error().Err(err).Str("tx_id", t.TxID).Msg("record deposit")
			res.Failed++
			allRecorded = false
			continue
		}

		res.Recorded++

		// Transfers without a block position carry no confirmations yet and
		// are queried with the pending deposits below.
		if t.BlockNumber > 0 {
			seen[t.TxID] = true
		}

		if d.Status == domain.DepositConfirmed {
			res.Confirmed++
			r.credited(ctx, d)
		}
	}

	if allRecorded && batch.LastBlock > lastBlock {
		if err := r.repo.SetWatermark(ctx, network, batch.LastBlock); err != nil {
			l.Error().Err(err).Int64("block", batch.LastBlock).Msg("set watermark")
			res.Failed++
		}
	}

	return seen
}

// advancePending re-queries every PENDING deposit whose confirmations the scan did not report.
func (r *Reconciler) advancePending(ctx context.Context, seen map[string]bool, res *Result) {
	l := zerolog.Ctx(ctx)
	required := r.source.RequiredConfirmations()

	pending, err := r.repo.ListPending(ctx, r.source.Network())
	if err != nil {
		l.Error().Err(err).Msg("list pending deposits")
		res.Failed++
		return
	}

	for _, d := range pending {
		if seen[d.TxID] {
			continue
		}

		confirmations, err := r.source.Confirmations(ctx, d.TxID)
		if err != nil {
			l.Warn().Err(err).Str("tx_id", d.TxID).Msg("get confirmations")
			res.Failed++
			continue
		}

		if confirmations >= required {
			confirmed, err := r.repo.Confirm(ctx, d.TxID, confirmations)

			switch {
			case errors.Is(err, domain.ErrDepositNotPending):
				continue
			case err != nil:
				l.Error().Err(err).Str("tx_id", d.TxID).Msg("confirm deposit")
				res.Failed++
				continue
			}

			res.Confirmed++
			r.credited(ctx, confirmed)

			continue
		}

		if confirmations <= d.Confirmations {
			continue
		}

		_, err = r.repo.UpdateConfirmations(ctx, d.TxID, confirmations)

		switch {
		case errors.Is(err, domain.ErrDepositNotPending):
		case err != nil:
			l.Error().Err(err).Str("tx_id", d.TxID).Msg("update confirmations")
			res.Failed++
		default:
			res.Updated++
		}
	}
}

func (r *Reconciler) credited(ctx context.Context, d domain.Deposit) {
	zerolog.Ctx(ctx).Info().
		Int64("deposit_id", d.ID).
		Str("tx_id", d.TxID).
		Str("username", d.Username).
		Str("amount", d.Amount.String()).
		Msg("deposit credited")

	events.Emit(ctx, r.publisher, events.New(events.DepositConfirmed, d.Username, d))
}
