package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/models"
	"bidding-engine/internal/rounds"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newRoundRouter(t *testing.T) (*gin.Engine, *MockRoundManagerInterface) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := NewMockRoundManagerInterface(ctrl)
	handler := NewRoundHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions/", handler.CreateAuctionHandler)
	router.GET("/auctions/:id/", handler.GetAuctionHandler)
	router.POST("/auctions/:id/activate/", handler.ActivateAuctionHandler)
	router.GET("/auctions/:id/rounds/", handler.ListRoundsHandler)
	router.POST("/auctions/:id/create_next_round/", handler.CreateNextRoundHandler)
	router.POST("/rounds/:id/close/", handler.CloseRoundHandler)
	return router, mockService
}

func TestCreateAuctionHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		mockSetup      func(m *MockRoundManagerInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "created",
			body: `{"title":"Watch","product_type":"auction","base_price":"100","participation_fee":"10","min_pledge":"100","max_pledge":"1000","stock_quantity":1}`,
			mockSetup: func(m *MockRoundManagerInterface) {
				m.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ interface{}, a models.Auction) (models.Auction, error) {
						require.Equal(t, models.ProductAuction, a.ProductType)
						require.True(t, a.MaxPledge.Valid)
						require.True(t, a.MinPledge.Equal(decimal.NewFromInt(100)))
						a.ID = "a1"
						a.Status = models.AuctionDraft
						return a, nil
					})
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name:           "unknown_product_type",
			body:           `{"title":"Watch","product_type":"lease","base_price":"100"}`,
			mockSetup:      func(m *MockRoundManagerInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "service_validation",
			body: `{"title":"Kettle","product_type":"buy_now","base_price":"100"}`,
			mockSetup: func(m *MockRoundManagerInterface) {
				m.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).Return(models.Auction{}, biddingerrors.ErrInvalidAuction)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid auction",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, m := newRoundRouter(t)
			tc.mockSetup(m)

			req := httptest.NewRequest(http.MethodPost, "/auctions/", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, decodeEnvelope(t, w)["message"], tc.expectedMsg)
		})
	}
}

func TestCreateNextRoundHandler(t *testing.T) {
	t.Parallel()

	prev := rounds.RoundParams{
		BasePrice:        decimal.NewFromInt(100),
		ParticipationFee: decimal.NewFromInt(10),
		MinPledge:        decimal.NewFromInt(100),
	}

	t.Run("carries_terms_over", func(t *testing.T) {
		t.Parallel()

		router, m := newRoundRouter(t)
		m.EXPECT().DefaultParams(gomock.Any(), "a1").Return(prev, nil)
		m.EXPECT().Open(gomock.Any(), "a1", prev).Return(models.Round{ID: "r2", AuctionID: "a1", RoundNumber: 2}, nil)

		req := httptest.NewRequest(http.MethodPost, "/auctions/a1/create_next_round/", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		data := decodeEnvelope(t, w)["data"].(map[string]any)
		require.Equal(t, "r2", data["round_id"])
		require.EqualValues(t, 2, data["round_number"])
	})

	t.Run("overrides_fee", func(t *testing.T) {
		t.Parallel()

		router, m := newRoundRouter(t)
		m.EXPECT().DefaultParams(gomock.Any(), "a1").Return(prev, nil)
		m.EXPECT().Open(gomock.Any(), "a1", gomock.Any()).DoAndReturn(
			func(_ interface{}, _ string, p rounds.RoundParams) (models.Round, error) {
				require.True(t, p.ParticipationFee.Equal(decimal.NewFromInt(5)))
				require.True(t, p.MinPledge.Equal(decimal.NewFromInt(100)))
				return models.Round{ID: "r2", RoundNumber: 2}, nil
			})

		req := httptest.NewRequest(http.MethodPost, "/auctions/a1/create_next_round/", bytes.NewBufferString(`{"participation_fee":"5"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("prior_round_open", func(t *testing.T) {
		t.Parallel()

		router, m := newRoundRouter(t)
		m.EXPECT().DefaultParams(gomock.Any(), "a1").Return(prev, nil)
		m.EXPECT().Open(gomock.Any(), "a1", gomock.Any()).Return(models.Round{}, biddingerrors.ErrPriorRoundStillOpen)

		req := httptest.NewRequest(http.MethodPost, "/auctions/a1/create_next_round/", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, "previous round is still open", decodeEnvelope(t, w)["message"])
	})
}

func TestCloseRoundHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		reason         string
		result         rounds.CloseResult
		err            error
		expectedStatus int
	}{
		{
			name:           "default_reason",
			reason:         "",
			result:         rounds.CloseResult{Round: models.Round{ID: "r1", Status: models.RoundClosed}, Outcome: models.OutcomeExhausted},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "with_reason",
			body:           `{"reason":"timer"}`,
			reason:         "timer",
			result:         rounds.CloseResult{Round: models.Round{ID: "r1"}, Outcome: models.OutcomeWon, WinningBid: &models.Bid{ID: "b1"}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "closed_with_other_reason",
			body:           `{"reason":"timer"}`,
			reason:         "timer",
			err:            biddingerrors.ErrRoundAlreadyClosed,
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, m := newRoundRouter(t)
			m.EXPECT().Close(gomock.Any(), "r1", tc.reason).Return(tc.result, tc.err)

			var req *http.Request
			if tc.body == "" {
				req = httptest.NewRequest(http.MethodPost, "/rounds/r1/close/", nil)
			} else {
				req = httptest.NewRequest(http.MethodPost, "/rounds/r1/close/", bytes.NewBufferString(tc.body))
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			if tc.err == nil {
				data := decodeEnvelope(t, w)["data"].(map[string]any)
				require.Equal(t, string(tc.result.Outcome), data["outcome"])
			}
		})
	}
}

func TestActivateAndRoundsHandlers(t *testing.T) {
	t.Parallel()

	router, m := newRoundRouter(t)
	first := models.Round{ID: "r1", AuctionID: "a1", RoundNumber: 1, Status: models.RoundOpen}
	m.EXPECT().Activate(gomock.Any(), "a1").Return(models.Auction{ID: "a1", Status: models.AuctionActive}, &first, nil)
	m.EXPECT().Activate(gomock.Any(), "a1").Return(models.Auction{}, nil, biddingerrors.ErrAuctionNotDraft)
	m.EXPECT().ListRounds(gomock.Any(), "a1").Return(nil, nil)
	m.EXPECT().GetAuction(gomock.Any(), "nope").Return(models.Auction{}, biddingerrors.ErrAuctionNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auctions/a1/activate/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	require.Equal(t, "r1", data["round"].(map[string]any)["id"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auctions/a1/activate/", nil))
	require.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auctions/a1/rounds/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decodeEnvelope(t, w)["data"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auctions/nope/", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
