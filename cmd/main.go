// Package main runs the custodial exchange API together with deposit reconcilers and the rate oracle.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/go-petr/pet-exchange/cmd/httpserver"
	"github.com/go-petr/pet-exchange/internal/addressrepo"
	"github.com/go-petr/pet-exchange/internal/chain"
	"github.com/go-petr/pet-exchange/internal/chain/evm"
	"github.com/go-petr/pet-exchange/internal/chain/tron"
	"github.com/go-petr/pet-exchange/internal/chain/utxo"
	"github.com/go-petr/pet-exchange/internal/custody"
	"github.com/go-petr/pet-exchange/internal/cyclelock"
	"github.com/go-petr/pet-exchange/internal/depositrepo"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/events"
	"github.com/go-petr/pet-exchange/internal/events/kafka"
	"github.com/go-petr/pet-exchange/internal/middleware"
	"github.com/go-petr/pet-exchange/internal/rateoracle"
	"github.com/go-petr/pet-exchange/internal/reconciler"
	"github.com/go-petr/pet-exchange/internal/withdrawalservice"
	"github.com/go-petr/pet-exchange/pkg/configpkg"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/go-petr/pet-exchange/pkg/dbpkg"

	_ "github.com/lib/pq"
)

const shutdownTimeout = 15 * time.Second

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	rawPolicy, err := configpkg.LoadPolicy("./configs")
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot load withdrawal policy")
	}

	policy, err := withdrawalservice.NewPolicy(rawPolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid withdrawal policy")
	}

	margin, err := decimal.NewFromString(config.SwapMargin)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid swap margin")
	}

	db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Workers get a context that survives the signal so in-flight cycles can finish.
	workerCtx := logger.WithContext(context.Background())

	publisher, closePublisher := newPublisher(config, logger)
	defer closePublisher()

	sources := newSources(workerCtx, config, logger)

	var locker reconciler.Locker
	if config.RedisAddress != "" {
		client := goredislib.NewClient(&goredislib.Options{Addr: config.RedisAddress})
		defer client.Close()

		locker = cyclelock.New(client, config.RedisLockTTL)
	}

	depositRepo := depositrepo.NewRepoPGS(db)
	addressRepo := addressrepo.NewRepoPGS(db)

	reconcilers := make([]*reconciler.Reconciler, 0, len(sources))

	for _, s := range sources {
		opts := []reconciler.Option{reconciler.WithPublisher(publisher)}
		if locker != nil {
			opts = append(opts, reconciler.WithLocker(locker))
		}

		r := reconciler.New(s, depositRepo, addressRepo, config.PollInterval, logger, opts...)
		r.Start(workerCtx)

		reconcilers = append(reconcilers, r)
	}

	oracle := rateoracle.New(
		rateoracle.NewBinanceFetcher(config.RatesURL, nil),
		rateoracle.Config{
			Interval: config.RatesRefreshInterval,
			Margin:   margin,
			Fallback: rateoracle.DefaultFallback(),
		},
		logger,
	)
	oracle.Start(workerCtx)

	server, err := httpserver.New(db, logger, config, httpserver.Dependencies{
		Chains:    chain.NewRegistry(sources...),
		Rates:     oracle,
		Publisher: publisher,
		Policy:    policy,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	srv := &http.Server{
		Addr:              config.ServerAddress,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", config.ServerAddress).Msg("EXCHANGE API SERVER HAS STARTED")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info().Msg("shutting down")

		for _, r := range reconcilers {
			r.Stop()
		}

		oracle.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}

	logger.Info().Msg("server stopped")
}

func newPublisher(config configpkg.Config, logger zerolog.Logger) (events.Publisher, func()) {
	if len(config.KafkaBrokers) == 0 || config.KafkaBrokers[0] == "" {
		return events.LogPublisher{}, func() {}
	}

	p := kafka.NewPublisher(config.KafkaBrokers, config.KafkaTopic)

	return p, func() {
		if err := p.Close(); err != nil {
			logger.Error().Err(err).Msg("cannot close event publisher")
		}
	}
}

// newSources connects the configured chain nodes. A node that fails to
// connect is logged and left out so the rest of the exchange keeps working.
func newSources(ctx context.Context, config configpkg.Config, logger zerolog.Logger) []chain.Source {
	guard := func(name string) *chain.Guard {
		return chain.NewGuard(chain.GuardConfig{
			Name:                name,
			RatePerSec:          config.RPCRatePerSec,
			ConsecutiveFailures: 5,
			OpenTimeout:         time.Minute,
			Logger:              logger,
		})
	}

	var sources []chain.Source

	utxoNodes := []utxo.Config{
		{
			Network:  domain.NetworkBTC,
			Params:   &chaincfg.MainNetParams,
			Host:     config.BTCRPCHost,
			User:     config.BTCRPCUser,
			Pass:     config.BTCRPCPass,
			Currency: currencypkg.BTC,
		},
		{
			Network:  domain.NetworkLTC,
			Params:   &utxo.LitecoinMainNetParams,
			Host:     config.LTCRPCHost,
			User:     config.LTCRPCUser,
			Pass:     config.LTCRPCPass,
			Currency: currencypkg.LTC,
		},
	}

	for _, c := range utxoNodes {
		if c.Host == "" {
			continue
		}

		a, err := utxo.New(c, guard(string(c.Network)))
		if err != nil {
			logger.Error().Err(err).Str("network", string(c.Network)).Msg("chain source disabled")
			continue
		}

		sources = append(sources, a)
	}

	if config.CustodyURL == "" {
		return sources
	}

	allocator := custody.NewHTTPAllocator(config.CustodyURL, nil)

	if config.EthRPCURL != "" {
		a, err := evm.New(ctx, evm.Config{
			URL:        config.EthRPCURL,
			Contract:   config.ERC20Contract,
			Currency:   currencypkg.USDT,
			Decimals:   6,
			BatchSize:  config.EVMBatchSize,
			MaxBatches: config.EVMMaxBatches,
		}, allocator, guard(string(domain.NetworkERC20)))
		if err != nil {
			logger.Error().Err(err).Str("network", string(domain.NetworkERC20)).Msg("chain source disabled")
		} else {
			sources = append(sources, a)
		}
	}

	if config.TronAPIURL != "" {
		sources = append(sources, tron.New(tron.Config{
			URL:      config.TronAPIURL,
			APIKey:   config.TronAPIKey,
			Contract: config.TRC20Contract,
			Currency: currencypkg.USDT,
			Decimals: 6,
		}, nil, allocator, guard(string(domain.NetworkTRC20))))
	}

	return sources
}
