package mpesa

import (
	"context"
	"fmt"
	"sync"

	"bidding-engine/internal/payments"
	"bidding-engine/utils"
)

// StubGateway accepts every push without calling Daraja. It backs local runs
// (MPESA_ENVIRONMENT=stub) and the integration tests, which then simulate the
// provider by posting callbacks.
type StubGateway struct {
	mu     sync.Mutex
	pushes []payments.PushRequest
	ids    map[string]string
}

var _ payments.Gateway = (*StubGateway)(nil)

// NewStubGateway creates an empty stub
func NewStubGateway() *StubGateway {
	return &StubGateway{ids: make(map[string]string)}
}

func (s *StubGateway) STKPush(ctx context.Context, req payments.PushRequest) (payments.PushResponse, error) {
	if err := ctx.Err(); err != nil {
		return payments.PushResponse{}, err
	}
	checkoutID := "ws_CO_" + utils.GenerateID()

	s.mu.Lock()
	s.pushes = append(s.pushes, req)
	s.ids[req.PaymentID] = checkoutID
	n := len(s.pushes)
	s.mu.Unlock()

	utils.Info("stub stk push", map[string]any{"payment_id": req.PaymentID, "phone": req.Phone, "amount": req.Amount.String()})
	return payments.PushResponse{
		CheckoutRequestID: checkoutID,
		MerchantRequestID: fmt.Sprintf("stub-%d", n),
		CustomerMessage:   "Success. Request accepted for processing",
	}, nil
}

// CheckoutID returns the checkout request id issued for a payment.
func (s *StubGateway) CheckoutID(paymentID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ids[paymentID]
	return id, ok
}

// Pushes returns a copy of every request received.
func (s *StubGateway) Pushes() []payments.PushRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]payments.PushRequest(nil), s.pushes...)
}
