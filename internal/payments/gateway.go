package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=gateway.go -destination=mock_gateway.go -package=payments

// PushRequest asks the gateway to prompt a phone for payment
type PushRequest struct {
	PaymentID   string
	OrderID     string
	Phone       string
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// PushResponse carries the identifiers the gateway assigned to an accepted push
type PushResponse struct {
	CheckoutRequestID string
	MerchantRequestID string
	CustomerMessage   string
}

// Gateway is a mobile-money provider able to push a payment prompt.
//
// Implementations return errors wrapping biddingerrors.ErrGatewayUnavailable
// when the call may be retried and biddingerrors.ErrGatewayDeclined when the
// provider refused the charge.
type Gateway interface {
	STKPush(ctx context.Context, req PushRequest) (PushResponse, error)
}

// CallbackResult is the asynchronous outcome the provider reports for a push
type CallbackResult struct {
	CheckoutRequestID string
	MerchantRequestID string
	ResultCode        int
	ResultDesc        string
	ReceiptNumber     string
	TransactionDate   string
	PhoneNumber       string
}

// ResultCancelledByUser is the result code sent when the customer dismisses the prompt.
const ResultCancelledByUser = 1032
