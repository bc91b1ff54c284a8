package swapdelivery

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/internal/middleware"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/go-petr/pet-exchange/pkg/randompkg"
	"github.com/go-petr/pet-exchange/pkg/web"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal("cannot register validators:", err)
	}

	os.Exit(m.Run())
}

func newServer(service Service) *gin.Engine {
	h := NewHandler(service)

	server := gin.New()
	server.POST("/swaps/quote", h.Quote)
	server.POST("/swaps", h.Create)
	server.GET("/swaps", h.List)
	server.GET("/swaps/:id", h.Get)

	return server
}

func TestCreate(t *testing.T) {
	username := randompkg.Owner()
	arg := domain.CreateSwapParams{
		Username:     username,
		FromCurrency: currencypkg.BTC,
		ToCurrency:   currencypkg.USDT,
		FromAmount:   decimal.RequireFromString("0.01"),
	}

	body := `{"username":"` + username + `","from_currency":"BTC","to_currency":"USDT","from_amount":"0.01"}`

	testCases := []struct {
		name           string
		body           string
		buildStubs     func(service *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			body: body,
			buildStubs: func(service *MockService) {
				service.EXPECT().Swap(gomock.Any(), gomock.Eq(arg)).
					Times(1).
					Return(domain.SwapTxResult{Swap: domain.Swap{ID: uuid.New(), Username: username}}, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "SameCurrency",
			body: `{"username":"` + username + `","from_currency":"BTC","to_currency":"BTC","from_amount":"1"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().Swap(gomock.Any(), gomock.Any()).Times(1).Return(domain.SwapTxResult{}, domain.ErrSameCurrency)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrSameCurrency.Error(),
		},
		{
			name: "UnsupportedCurrency",
			body: `{"username":"` + username + `","from_currency":"BTC","to_currency":"EUR","from_amount":"1"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().Swap(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "ToCurrency is not a supported currency",
		},
		{
			name: "InsufficientBalance",
			body: body,
			buildStubs: func(service *MockService) {
				service.EXPECT().Swap(gomock.Any(), gomock.Any()).Times(1).Return(domain.SwapTxResult{}, domain.ErrInsufficientBalance)
			},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      domain.ErrInsufficientBalance.Error(),
		},
		{
			name: "RateUnavailable",
			body: body,
			buildStubs: func(service *MockService) {
				service.EXPECT().Swap(gomock.Any(), gomock.Any()).Times(1).Return(domain.SwapTxResult{}, domain.ErrRateUnavailable)
			},
			wantStatusCode: http.StatusServiceUnavailable,
			wantError:      domain.ErrRateUnavailable.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			recorder := httptest.NewRecorder()
			newServer(service).ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/swaps", strings.NewReader(tc.body)))

			require.Equal(t, tc.wantStatusCode, recorder.Code)

			got := &swapData{}
			res := web.Response{Data: got}
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))

			if tc.wantStatusCode != http.StatusOK {
				require.Equal(t, tc.wantError, res.Error)
				return
			}

			require.Equal(t, username, got.Swap.Swap.Username)
		})
	}
}

func TestQuote(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := domain.SwapQuote{
		FromCurrency: currencypkg.LTC,
		ToCurrency:   currencypkg.USDT,
		FromAmount:   decimal.NewFromInt(2),
		ToAmount:     decimal.RequireFromString("159.2"),
		Rate:         decimal.RequireFromString("79.6"),
		RateSource:   "live",
	}

	service := NewMockService(ctrl)
	service.EXPECT().Quote(gomock.Any(), gomock.Any()).Times(1).Return(q, nil)
	service.EXPECT().Swap(gomock.Any(), gomock.Any()).Times(0)

	recorder := httptest.NewRecorder()
	body := `{"username":"alice","from_currency":"LTC","to_currency":"USDT","from_amount":"2"}`
	newServer(service).ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/swaps/quote", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, recorder.Code)

	got := &quoteData{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&web.Response{Data: got}))
	require.True(t, q.ToAmount.Equal(got.Quote.ToAmount))
	require.Equal(t, "live", got.Quote.RateSource)
}

func TestGet(t *testing.T) {
	id := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockService(ctrl)
	service.EXPECT().Get(gomock.Any(), id).Times(1).Return(domain.Swap{}, domain.ErrSwapNotFound)

	recorder := httptest.NewRecorder()
	newServer(service).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/swaps/"+id.String(), nil))
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = httptest.NewRecorder()
	newServer(service).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/swaps/not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestList(t *testing.T) {
	username := randompkg.Owner()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockService(ctrl)
	service.EXPECT().List(gomock.Any(), username, int32(10), int32(2)).Times(1).Return([]domain.Swap{}, nil)

	recorder := httptest.NewRecorder()
	url := "/swaps?username=" + username + "&page_id=2&page_size=10"
	newServer(service).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
}
