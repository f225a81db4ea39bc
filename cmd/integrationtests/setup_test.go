package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	bidding "bidding-engine/internal/biddingService"
	"bidding-engine/internal/events"
	"bidding-engine/internal/orders"
	"bidding-engine/internal/participation"
	"bidding-engine/internal/payments"
	"bidding-engine/internal/payments/mpesa"
	"bidding-engine/internal/repository"
	"bidding-engine/internal/rounds"
	"bidding-engine/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const callbackSecret = "test-secret"

// TestEnv is a fully wired engine on the in-memory ledger and the stub gateway.
type TestEnv struct {
	Router     *gin.Engine
	Repo       *repository.MemoryRepo
	Gateway    *mpesa.StubGateway
	Reconciler *payments.Reconciler
}

// SetupTestEnv wires every service the way serve does, with direct joins.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return setupEnv(t, false)
}

// SetupPaidTestEnv wires the engine with participation paid through M-Pesa.
func SetupPaidTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return setupEnv(t, true)
}

func setupEnv(t *testing.T, paidParticipation bool) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	bus := events.NewBus(nil)
	gw := mpesa.NewStubGateway()

	roundManager := rounds.NewManager(repo, bus)
	orderSvc := orders.NewService(repo, bus)

	reconciler := payments.NewReconciler(repo, gw, bus, payments.DefaultOptions())

	router := server.SetupRouter(server.Services{
		Rounds:            roundManager,
		Bidding:           bidding.NewBiddingService(repo),
		Participation:     participation.NewService(repo),
		Orders:            orderSvc,
		Payments:          reconciler,
		CallbackSecret:    callbackSecret,
		PaidParticipation: paidParticipation,
	})
	return &TestEnv{Router: router, Repo: repo, Gateway: gw, Reconciler: reconciler}
}

// Caller identifies who sends a request; the zero value is anonymous.
type Caller struct {
	UserID string
	Admin  bool
}

var admin = Caller{UserID: "ops", Admin: true}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func (e *TestEnv) ExecuteRequest(t *testing.T, who Caller, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	case []byte:
		reqBody = v
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if who.UserID != "" {
		req.Header.Set("X-User-ID", who.UserID)
	}
	if who.Admin {
		req.Header.Set("X-User-Role", "admin")
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request and returns the envelope's
// data (or the whole envelope for errors) with the recorder.
func (e *TestEnv) ExecuteRequestAndParse(t *testing.T, who Caller, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	w := e.ExecuteRequest(t, who, method, url, body)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
		if data, ok := resp["data"].(map[string]any); ok && w.Code < 300 {
			return data, w
		}
	}
	return resp, w
}

// Callback posts a provider callback for a checkout request id.
func (e *TestEnv) Callback(t *testing.T, checkoutID string, resultCode int, receipt string) *httptest.ResponseRecorder {
	t.Helper()

	cb := map[string]any{
		"MerchantRequestID": "stub",
		"CheckoutRequestID": checkoutID,
		"ResultCode":        resultCode,
		"ResultDesc":        "result",
	}
	if receipt != "" {
		cb["CallbackMetadata"] = map[string]any{
			"Item": []map[string]any{
				{"Name": "MpesaReceiptNumber", "Value": receipt},
				{"Name": "PhoneNumber", "Value": 254712345678},
			},
		}
	}
	return e.ExecuteRequest(t, Caller{}, "POST", "/payments/mpesa/callback/?token="+callbackSecret,
		map[string]any{"Body": map[string]any{"stkCallback": cb}})
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
