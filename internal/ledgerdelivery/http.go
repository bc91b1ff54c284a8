// Package ledgerdelivery manages delivery layer of balances and journal entries.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/errorspkg"
	"github.com/go-petr/pet-exchange/pkg/web"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Credit(ctx context.Context, username, currency string, amount decimal.Decimal, operation, referenceID string) (domain.LedgerEntry, error)
	Debit(ctx context.Context, username, currency string, amount decimal.Decimal, operation, referenceID string) (domain.LedgerEntry, error)
	Hold(ctx context.Context, username, currency string, amount decimal.Decimal, operation, referenceID string) (domain.LedgerEntry, error)
	Release(ctx context.Context, username, currency string, amount decimal.Decimal, operation, referenceID string) (domain.LedgerEntry, error)
	GetBalance(ctx context.Context, username, currency string) (domain.Balance, error)
	ListBalances(ctx context.Context, username string) ([]domain.Balance, error)
	ListEntries(ctx context.Context, username, currency string, pageSize, pageID int32) ([]domain.LedgerEntry, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) *Handler {
	return &Handler{
		service: ls,
	}
}

func fail(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()

	switch {
	case domain.IsValidation(err):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case errors.Is(err, domain.ErrUserNotFound):
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case errors.Is(err, domain.ErrInsufficientBalance), errors.Is(err, domain.ErrInsufficientHeld):
		gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

type entryRequest struct {
	Username    string `json:"username" binding:"required,alphanum"`
	Currency    string `json:"currency" binding:"required,currency"`
	Amount      string `json:"amount" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=CREDIT DEBIT HOLD RELEASE"`
	Operation   string `json:"operation" binding:"required"`
	ReferenceID string `json:"reference_id" binding:"required"`
}

type entryData struct {
	Entry domain.LedgerEntry `json:"entry"`
}

// Post handles http request to apply a single ledger operation.
func (h *Handler) Post(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req entryRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		fail(gctx, domain.ErrInvalidAmount)
		return
	}

	var apply func(ctx context.Context, username, currency string, amount decimal.Decimal, operation, referenceID string) (domain.LedgerEntry, error)

	switch domain.EntryType(req.Type) {
	case domain.EntryCredit:
		apply = h.service.Credit
	case domain.EntryDebit:
		apply = h.service.Debit
	case domain.EntryHold:
		apply = h.service.Hold
	case domain.EntryRelease:
		apply = h.service.Release
	}

	entry, err := apply(ctx, req.Username, req.Currency, amount, req.Operation, req.ReferenceID)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: entryData{entry}})
}

type balanceURI struct {
	Username string `uri:"username" binding:"required,alphanum"`
	Currency string `uri:"currency" binding:"required,currency"`
}

type balanceData struct {
	Balance domain.Balance `json:"balance"`
}

// GetBalance handles http request to get a balance of one currency.
func (h *Handler) GetBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri balanceURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	b, err := h.service.GetBalance(ctx, uri.Username, uri.Currency)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: balanceData{b}})
}

type userURI struct {
	Username string `uri:"username" binding:"required,alphanum"`
}

type balancesData struct {
	Balances []domain.Balance `json:"balances"`
}

// ListBalances handles http request to list all balances of a user.
func (h *Handler) ListBalances(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri userURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	balances, err := h.service.ListBalances(ctx, uri.Username)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: balancesData{balances}})
}

type listRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

type entriesData struct {
	Entries []domain.LedgerEntry `json:"entries"`
}

// ListEntries handles http request to page through the journal of a balance.
func (h *Handler) ListEntries(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri balanceURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	entries, err := h.service.ListEntries(ctx, uri.Username, uri.Currency, req.PageSize, req.PageID)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: entriesData{entries}})
}
