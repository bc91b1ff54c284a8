// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/errorspkg"
	"github.com/go-petr/pet-exchange/pkg/web"
)

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type request struct {
	FromUsername string `json:"from_username" binding:"required,alphanum"`
	ToUsername   string `json:"to_username" binding:"required,alphanum"`
	Currency     string `json:"currency" binding:"required,currency"`
	Amount       string `json:"amount" binding:"required"`
	ReferenceID  string `json:"reference_id"`
}

type data struct {
	Transfer domain.TransferTxResult `json:"transfer"`
}

// Create handles http request to move funds between two users.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(domain.ErrInvalidAmount))

		return
	}

	result, err := h.service.Transfer(ctx, domain.CreateTransferParams{
		FromUsername: req.FromUsername,
		ToUsername:   req.ToUsername,
		Currency:     req.Currency,
		Amount:       amount,
		Operation:    domain.OperationP2P,
		ReferenceID:  req.ReferenceID,
	})
	if err != nil {
		l.Info().Err(err).Send()

		switch {
		case domain.IsValidation(err):
			gctx.JSON(http.StatusBadRequest, web.Error(err))
		case errors.Is(err, domain.ErrInsufficientBalance):
			gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
		case errors.Is(err, domain.ErrUserNotFound):
			gctx.JSON(http.StatusNotFound, web.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: data{result}})
}
