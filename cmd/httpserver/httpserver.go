// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-exchange/internal/addressrepo"
	"github.com/go-petr/pet-exchange/internal/addressservice"
	"github.com/go-petr/pet-exchange/internal/chain"
	"github.com/go-petr/pet-exchange/internal/depositdelivery"
	"github.com/go-petr/pet-exchange/internal/depositrepo"
	"github.com/go-petr/pet-exchange/internal/depositservice"
	"github.com/go-petr/pet-exchange/internal/events"
	"github.com/go-petr/pet-exchange/internal/ledgerdelivery"
	"github.com/go-petr/pet-exchange/internal/ledgerrepo"
	"github.com/go-petr/pet-exchange/internal/ledgerservice"
	"github.com/go-petr/pet-exchange/internal/middleware"
	"github.com/go-petr/pet-exchange/internal/swapdelivery"
	"github.com/go-petr/pet-exchange/internal/swaprepo"
	"github.com/go-petr/pet-exchange/internal/swapservice"
	"github.com/go-petr/pet-exchange/internal/transferdelivery"
	"github.com/go-petr/pet-exchange/internal/transferservice"
	"github.com/go-petr/pet-exchange/internal/userdelivery"
	"github.com/go-petr/pet-exchange/internal/userrepo"
	"github.com/go-petr/pet-exchange/internal/userservice"
	"github.com/go-petr/pet-exchange/internal/withdrawaldelivery"
	"github.com/go-petr/pet-exchange/internal/withdrawalrepo"
	"github.com/go-petr/pet-exchange/internal/withdrawalservice"
	"github.com/go-petr/pet-exchange/pkg/configpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// Dependencies holds collaborators with their own lifecycle, owned by the caller.
type Dependencies struct {
	Chains    chain.Registry
	Rates     swapservice.RateProvider
	Publisher events.Publisher
	Policy    withdrawalservice.Policy
}

// New creates Server type with instantiated domains and routes.
//
// The routes are an operator surface and carry no authentication.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config, deps Dependencies) (*Server, error) {
	if deps.Rates == nil {
		return nil, errors.New("rate provider is required")
	}

	if deps.Publisher == nil {
		deps.Publisher = events.LogPublisher{}
	}

	userRepo := userrepo.NewRepoPGS(conn)
	ledgerRepo := ledgerrepo.NewRepoPGS(conn)
	addressRepo := addressrepo.NewRepoPGS(conn)
	depositRepo := depositrepo.NewRepoPGS(conn)
	withdrawalRepo := withdrawalrepo.NewRepoPGS(conn)
	swapRepo := swaprepo.NewRepoPGS(conn)

	userService := userservice.New(userRepo)
	ledgerService := ledgerservice.New(ledgerRepo)
	transferService := transferservice.New(ledgerRepo)
	addressService := addressservice.New(addressRepo, deps.Chains)
	depositService := depositservice.New(depositRepo)
	withdrawalService := withdrawalservice.New(withdrawalRepo, userService, deps.Chains, deps.Publisher, deps.Policy)
	swapService := swapservice.New(swapRepo, deps.Rates, deps.Publisher)

	userHandler := userdelivery.NewHandler(userService)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)
	transferHandler := transferdelivery.NewHandler(transferService)
	depositHandler := depositdelivery.NewHandler(addressService, depositService)
	withdrawalHandler := withdrawaldelivery.NewHandler(withdrawalService)
	swapHandler := swapdelivery.NewHandler(swapService)

	if err := middleware.RegisterValidators(); err != nil {
		return nil, errors.New("cannot register binding validators")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.GET("/users/:username", userHandler.Get)
	engine.PUT("/users/:username/kyc", userHandler.SetKYC)

	engine.GET("/users/:username/balances", ledgerHandler.ListBalances)
	engine.GET("/users/:username/balances/:currency", ledgerHandler.GetBalance)
	engine.GET("/users/:username/balances/:currency/entries", ledgerHandler.ListEntries)
	engine.POST("/ledger/entries", ledgerHandler.Post)

	engine.POST("/transfers", transferHandler.Create)

	engine.GET("/users/:username/addresses/:network", depositHandler.GetAddress)
	engine.GET("/deposits", depositHandler.List)
	engine.GET("/deposits/:tx_id", depositHandler.Get)

	engine.POST("/withdrawals", withdrawalHandler.Create)
	engine.GET("/withdrawals", withdrawalHandler.List)
	engine.GET("/withdrawals/:id", withdrawalHandler.Get)
	engine.POST("/withdrawals/:id/settle", withdrawalHandler.Settle)
	engine.POST("/withdrawals/:id/reject", withdrawalHandler.Reject)

	engine.POST("/swaps/quote", swapHandler.Quote)
	engine.POST("/swaps", swapHandler.Create)
	engine.GET("/swaps", swapHandler.List)
	engine.GET("/swaps/:id", swapHandler.Get)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
