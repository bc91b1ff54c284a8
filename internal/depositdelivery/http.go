// Package depositdelivery manages delivery layer of deposit addresses and deposits.
package depositdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/errorspkg"
	"github.com/go-petr/pet-exchange/pkg/web"
	"github.com/rs/zerolog"
)

// AddressService provides address provisioning needed by deposit delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package depositdelivery
type AddressService interface {
	GetOrCreate(ctx context.Context, username string, network domain.Network) (domain.DepositAddress, error)
}

// Service provides deposit reads needed by deposit delivery layer.
type Service interface {
	Get(ctx context.Context, txID string) (domain.Deposit, error)
	List(ctx context.Context, arg domain.ListDepositsParams, pageSize, pageID int32) ([]domain.Deposit, error)
}

// Handler facilitates deposit delivery layer logic.
type Handler struct {
	addresses AddressService
	service   Service
}

// NewHandler returns deposit handler.
func NewHandler(as AddressService, ds Service) *Handler {
	return &Handler{
		addresses: as,
		service:   ds,
	}
}

func fail(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()

	switch {
	case domain.IsValidation(err):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrDepositNotFound):
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case errors.Is(err, domain.ErrExternalUnavailable):
		gctx.JSON(http.StatusServiceUnavailable, web.Error(domain.ErrExternalUnavailable))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

type addressURI struct {
	Username string `uri:"username" binding:"required,alphanum"`
	Network  string `uri:"network" binding:"required,network"`
}

type addressData struct {
	Address domain.DepositAddress `json:"address"`
}

// GetAddress handles http request to get the deposit address of a user,
// assigning one on first request.
func (h *Handler) GetAddress(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri addressURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	a, err := h.addresses.GetOrCreate(ctx, uri.Username, domain.Network(uri.Network))
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: addressData{a}})
}

type getURI struct {
	TxID string `uri:"tx_id" binding:"required"`
}

type depositData struct {
	Deposit domain.Deposit `json:"deposit"`
}

// Get handles http request to get a deposit by its transaction id.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri getURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	d, err := h.service.Get(ctx, uri.TxID)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: depositData{d}})
}

type listRequest struct {
	Username string `form:"username" binding:"omitempty,alphanum"`
	Currency string `form:"currency" binding:"omitempty,currency"`
	Network  string `form:"network" binding:"omitempty,network"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED"`
	PageID   int32  `form:"page_id" binding:"required,min=1"`
	PageSize int32  `form:"page_size" binding:"required,min=1,max=100"`
}

type depositsData struct {
	Deposits []domain.Deposit `json:"deposits"`
}

// List handles http request to list deposits by filter.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindErrorMsg(err)})

		return
	}

	deposits, err := h.service.List(ctx, domain.ListDepositsParams{
		Username: req.Username,
		Currency: req.Currency,
		Network:  domain.Network(req.Network),
		Status:   domain.DepositStatus(req.Status),
	}, req.PageSize, req.PageID)
	if err != nil {
		fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: depositsData{deposits}})
}
