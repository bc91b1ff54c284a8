// Package withdrawaldelivery manages delivery layer of withdrawals.
package withdrawaldelivery

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

// Service provides service layer interface needed by withdrawal delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package withdrawaldelivery
type Service interface {
	Create(ctx context.Context, arg domain.CreateWithdrawalParams) (domain.Withdrawal, error)
	Settle(ctx context.Context, id uuid.UUID, txHash string) (domain.Withdrawal, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (domain.Withdrawal, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Withdrawal, error)
	List(ctx context.Context, username string, status domain.WithdrawalStatus, pageSize, pageID int32) ([]domain.Withdrawal, error)
}

// Handler facilitates withdrawal delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns withdrawal handler.
func NewHandler(ws Service) *Handler {
	return &Handler{
		service: ws,
	}
}

type data struct {
	Withdrawal domain.Withdrawal `json:"withdrawal"`
}

func (h *Handler) respond(gctx *gin.Context, w domain.Withdrawal, err error) {
	if err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()

		switch {
		case domain.IsValidation(err):
			gctx.JSON(http.StatusBadRequest, web.Error(err))
		case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrWithdrawalNotFound):
			gctx.JSON(http.StatusNotFound, web.Error(err))
		case errors.Is(err, domain.ErrWithdrawalNotPending):
			gctx.JSON(http.StatusConflict, web.Error(err))
		case errors.Is(err, domain.ErrInsufficientBalance), errors.Is(err, domain.ErrLimitExceeded):
			gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{w}})
}

type createRequest struct {
	Username string `json:"username" binding:"required,alphanum"`
	Currency string `json:"currency" binding:"required,currency"`
	Network  string `json:"network" binding:"required,network"`
	Address  string `json:"address" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// Create handles http request to withdraw funds to an external address.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.respond(gctx, domain.Withdrawal{}, domain.ErrInvalidAmount)
		return
	}

	w, err := h.service.Create(ctx, domain.CreateWithdrawalParams{
		Username: req.Username,
		Currency: req.Currency,
		Network:  domain.Network(req.Network),
		Address:  req.Address,
		Amount:   amount,
	})

	h.respond(gctx, w, err)
}

type idURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

func bindID(gctx *gin.Context) (uuid.UUID, bool) {
	var uri idURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return uuid.Nil, false
	}

	return uuid.MustParse(uri.ID), true
}

// Get handles http request to get a withdrawal.
func (h *Handler) Get(gctx *gin.Context) {
	id, ok := bindID(gctx)
	if !ok {
		return
	}

	w, err := h.service.Get(gctx.Request.Context(), id)

	h.respond(gctx, w, err)
}

type settleRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}

// Settle handles http request to complete a withdrawal once it was broadcast.
func (h *Handler) Settle(gctx *gin.Context) {
	id, ok := bindID(gctx)
	if !ok {
		return
	}

	var req settleRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	w, err := h.service.Settle(gctx.Request.Context(), id, req.TxHash)

	h.respond(gctx, w, err)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles http request to reject a withdrawal and return the held funds.
func (h *Handler) Reject(gctx *gin.Context) {
	id, ok := bindID(gctx)
	if !ok {
		return
	}

	var req rejectRequest
	if gctx.Request.ContentLength != 0 {
		if err := gctx.ShouldBindJSON(&req); err != nil {
			zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

			return
		}
	}

	w, err := h.service.Reject(gctx.Request.Context(), id, req.Reason)

	h.respond(gctx, w, err)
}

type listRequest struct {
	Username string `form:"username" binding:"omitempty,alphanum"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING COMPLETED REJECTED"`
	PageID   int32  `form:"page_id" binding:"required,min=1"`
	PageSize int32  `form:"page_size" binding:"required,min=1,max=100"`
}

type listData struct {
	Withdrawals []domain.Withdrawal `json:"withdrawals"`
}

// List handles http request to list withdrawals.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	items, err := h.service.List(ctx, req.Username, domain.WithdrawalStatus(req.Status), req.PageSize, req.PageID)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: listData{items}})
}
