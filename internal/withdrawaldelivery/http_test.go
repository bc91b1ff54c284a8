package withdrawaldelivery

import (
	"bytes"
	"encoding/json"
	"io"
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
	"github.com/go-petr/pet-exchange/pkg/errorspkg"
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
	server.POST("/withdrawals", h.Create)
	server.GET("/withdrawals", h.List)
	server.GET("/withdrawals/:id", h.Get)
	server.POST("/withdrawals/:id/settle", h.Settle)
	server.POST("/withdrawals/:id/reject", h.Reject)

	return server
}

func randomWithdrawal(username string) domain.Withdrawal {
	return domain.Withdrawal{
		ID:       uuid.New(),
		Username: username,
		Currency: currencypkg.USDT,
		Network:  domain.NetworkTRC20,
		Address:  "TJRyWwFs9wTFGZg3JbrVriFbNfCug5tDeC",
		Amount:   decimal.NewFromInt(100),
		Fee:      decimal.NewFromInt(1),
		Status:   domain.WithdrawalPending,
	}
}

func serve(t *testing.T, service Service, method, url string, body io.Reader) (int, *data, web.Response) {
	t.Helper()

	recorder := httptest.NewRecorder()
	newServer(service).ServeHTTP(recorder, httptest.NewRequest(method, url, body))

	got := &data{}
	res := web.Response{Data: got}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))

	return recorder.Code, got, res
}

func TestCreate(t *testing.T) {
	username := randompkg.Owner()
	w := randomWithdrawal(username)

	type requestBody struct {
		Username string `json:"username"`
		Currency string `json:"currency"`
		Network  string `json:"network"`
		Address  string `json:"address"`
		Amount   string `json:"amount"`
	}

	valid := requestBody{
		Username: username,
		Currency: w.Currency,
		Network:  string(w.Network),
		Address:  w.Address,
		Amount:   "100",
	}

	testCases := []struct {
		name           string
		requestBody    requestBody
		buildStubs     func(service *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name:        "OK",
			requestBody: valid,
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), gomock.Eq(domain.CreateWithdrawalParams{
						Username: username,
						Currency: w.Currency,
						Network:  w.Network,
						Address:  w.Address,
						Amount:   decimal.NewFromInt(100),
					})).
					Times(1).
					Return(w, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "UnsupportedNetwork",
			requestBody: requestBody{
				Username: username, Currency: w.Currency, Network: "SOL", Address: w.Address, Amount: "1",
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Network is not a supported network",
		},
		{
			name:        "BelowMinimum",
			requestBody: valid,
			buildStubs: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), gomock.Any()).Times(1).Return(domain.Withdrawal{}, domain.ErrBelowMinimum)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrBelowMinimum.Error(),
		},
		{
			name:        "LimitExceeded",
			requestBody: valid,
			buildStubs: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), gomock.Any()).Times(1).Return(domain.Withdrawal{}, domain.ErrLimitExceeded)
			},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      domain.ErrLimitExceeded.Error(),
		},
		{
			name:        "InsufficientBalance",
			requestBody: valid,
			buildStubs: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), gomock.Any()).Times(1).Return(domain.Withdrawal{}, domain.ErrInsufficientBalance)
			},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      domain.ErrInsufficientBalance.Error(),
		},
		{
			name:        "InternalServerError",
			requestBody: valid,
			buildStubs: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), gomock.Any()).Times(1).Return(domain.Withdrawal{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			code, got, res := serve(t, service, http.MethodPost, "/withdrawals", bytes.NewReader(body))
			require.Equal(t, tc.wantStatusCode, code)

			if tc.wantStatusCode != http.StatusOK {
				require.Equal(t, tc.wantError, res.Error)
				return
			}

			require.Equal(t, w.ID, got.Withdrawal.ID)
			require.True(t, w.Total().Equal(got.Withdrawal.Total()))
		})
	}
}

func TestSettle(t *testing.T) {
	w := randomWithdrawal(randompkg.Owner())
	completed := w
	completed.Status = domain.WithdrawalCompleted
	completed.TxHash = randompkg.TxID()

	testCases := []struct {
		name           string
		id             string
		body           string
		buildStubs     func(service *MockService)
		wantStatusCode int
	}{
		{
			name: "OK",
			id:   w.ID.String(),
			body: `{"tx_hash":"` + completed.TxHash + `"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().Settle(gomock.Any(), w.ID, completed.TxHash).Times(1).Return(completed, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "AlreadyRejected",
			id:   w.ID.String(),
			body: `{"tx_hash":"` + completed.TxHash + `"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().Settle(gomock.Any(), w.ID, completed.TxHash).Times(1).Return(w, domain.ErrWithdrawalNotPending)
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "NotFound",
			id:   w.ID.String(),
			body: `{"tx_hash":"abc"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().Settle(gomock.Any(), w.ID, "abc").Times(1).Return(domain.Withdrawal{}, domain.ErrWithdrawalNotFound)
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "MissingTxHash",
			id:   w.ID.String(),
			body: `{}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().Settle(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "InvalidID",
			id:   "42",
			body: `{"tx_hash":"abc"}`,
			buildStubs: func(service *MockService) {
				service.EXPECT().Settle(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			code, got, _ := serve(t, service, http.MethodPost, "/withdrawals/"+tc.id+"/settle", strings.NewReader(tc.body))
			require.Equal(t, tc.wantStatusCode, code)

			if code == http.StatusOK {
				require.Equal(t, domain.WithdrawalCompleted, got.Withdrawal.Status)
			}
		})
	}
}

func TestReject(t *testing.T) {
	w := randomWithdrawal(randompkg.Owner())
	rejected := w
	rejected.Status = domain.WithdrawalRejected

	t.Run("WithReason", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service := NewMockService(ctrl)
		service.EXPECT().Reject(gomock.Any(), w.ID, "sanctioned address").Times(1).Return(rejected, nil)

		code, got, _ := serve(t, service, http.MethodPost, "/withdrawals/"+w.ID.String()+"/reject",
			strings.NewReader(`{"reason":"sanctioned address"}`))
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, domain.WithdrawalRejected, got.Withdrawal.Status)
	})

	t.Run("WithoutBody", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		service := NewMockService(ctrl)
		service.EXPECT().Reject(gomock.Any(), w.ID, "").Times(1).Return(rejected, nil)

		code, _, _ := serve(t, service, http.MethodPost, "/withdrawals/"+w.ID.String()+"/reject", nil)
		require.Equal(t, http.StatusOK, code)
	})
}

func TestList(t *testing.T) {
	username := randompkg.Owner()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewMockService(ctrl)
	service.EXPECT().List(gomock.Any(), username, domain.WithdrawalPending, int32(20), int32(1)).
		Times(1).
		Return([]domain.Withdrawal{randomWithdrawal(username)}, nil)

	recorder := httptest.NewRecorder()
	url := "/withdrawals?username=" + username + "&status=PENDING&page_id=1&page_size=20"
	newServer(service).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	got := &listData{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&web.Response{Data: got}))
	require.Len(t, got.Withdrawals, 1)
}
