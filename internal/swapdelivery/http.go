// Package swapdelivery manages delivery layer of currency swaps.
package swapdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/errorspkg"
	"github.com/go-petr/pet-exchange/pkg/web"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Service provides service layer interface needed by swap delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package swapdelivery
type Service interface {
	Quote(ctx context.Context, arg domain.CreateSwapParams) (domain.SwapQuote, error)
	Swap(ctx context.Context, arg domain.CreateSwapParams) (domain.SwapTxResult, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Swap, error)
	List(ctx context.Context, username string, pageSize, pageID int32) ([]domain.Swap, error)
}

// Handler facilitates swap delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns swap handler.
func NewHandler(ss Service) *Handler {
	return &Handler{
		service: ss,
	}
}

func fail(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()

	switch {
	case domain.IsValidation(err):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case errors.Is(err, domain.ErrSwapNotFound):
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case errors.Is(err, domain.ErrInsufficientBalance):
		gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
	case errors.Is(err, domain.ErrRateUnavailable):
		gctx.JSON(http.StatusServiceUnavailable, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

type swapRequest struct {
	Username     string `json:"username" binding:"required,alphanum"`
	FromCurrency string `json:"from_currency" binding:"required,currency"`
	ToCurrency   string `json:"to_currency" binding:"required,currency"`
	FromAmount   string `json:"from_amount" binding:"required"`
}

func bindSwap(gctx *gin.Context) (domain.CreateSwapParams, bool) {
	var req swapRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return domain.CreateSwapParams{}, false
	}

	amount, err := decimal.NewFromString(req.FromAmount)
	if err != nil {
		fail(gctx, domain.ErrInvalidAmount)
		return domain.CreateSwapParams{}, false
	}

	return domain.CreateSwapParams{
		Username:     req.Username,
		FromCurrency: req.FromCurrency,
		ToCurrency:   req.ToCurrency,
		FromAmount:   amount,
	}, true
}

type quoteData struct {
	Quote domain.SwapQuote `json:"quote"`
}

// Quote handles http request to preview a swap at the current rate.
func (h *Handler) Quote(gctx *gin.Context) {
	arg, ok := bindSwap(gctx)
	if !ok {
		return
	}

	q, err := h.service.Quote(gctx.Request.Context(), arg)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: quoteData{q}})
}

type swapData struct {
	Swap domain.SwapTxResult `json:"swap"`
}

// Create handles http request to execute a swap.
func (h *Handler) Create(gctx *gin.Context) {
	arg, ok := bindSwap(gctx)
	if !ok {
		return
	}

	res, err := h.service.Swap(gctx.Request.Context(), arg)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: swapData{res}})
}

type getURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type getData struct {
	Swap domain.Swap `json:"swap"`
}

// Get handles http request to get a swap.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri getURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	s, err := h.service.Get(ctx, uuid.MustParse(uri.ID))
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: getData{s}})
}

type listRequest struct {
	Username string `form:"username" binding:"required,alphanum"`
	PageID   int32  `form:"page_id" binding:"required,min=1"`
	PageSize int32  `form:"page_size" binding:"required,min=1,max=100"`
}

type listData struct {
	Swaps []domain.Swap `json:"swaps"`
}

// List handles http request to list swaps of a user.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	swaps, err := h.service.List(ctx, req.Username, req.PageSize, req.PageID)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: listData{swaps}})
}
