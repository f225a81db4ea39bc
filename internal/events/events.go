package events

import (
	"time"

	"github.com/shopspring/decimal"

	"bidding-engine/utils"
)

type Type string

const (
	RoundWon          Type = "round.won"
	RoundExhausted    Type = "round.exhausted"
	OrderCreated      Type = "order.created"
	OrderPaid         Type = "order.paid"
	PaymentFailed     Type = "payment.failed"
	PaymentCancelled  Type = "payment.cancelled"
	ParticipationPaid Type = "participation.paid"
)

// Event is the envelope published after a ledger transaction commits.
type Event struct {
	ID          string    `json:"event_id"`
	Type        Type      `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload"`
}

// New stamps a fresh event id.
func New(t Type, aggregateID string, payload any, at time.Time) Event {
	return Event{
		ID:          utils.GenerateID(),
		Type:        t,
		AggregateID: aggregateID,
		OccurredAt:  at,
		Payload:     payload,
	}
}

// RoundWonEvent is emitted when a round closes with a winning bid.
type RoundWonEvent struct {
	AuctionID   string          `json:"auction_id"`
	RoundID     string          `json:"round_id"`
	RoundNumber int             `json:"round_number"`
	BidID       string          `json:"bid_id"`
	WinnerID    string          `json:"winner_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// RoundExhaustedEvent is emitted when a round closes without a valid bid.
type RoundExhaustedEvent struct {
	AuctionID   string `json:"auction_id"`
	RoundID     string `json:"round_id"`
	RoundNumber int    `json:"round_number"`
}

type OrderEvent struct {
	OrderID     string          `json:"order_id"`
	CustomerID  string          `json:"customer_id"`
	Kind        string          `json:"kind"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type PaymentEvent struct {
	PaymentID  string `json:"payment_id"`
	Kind       string `json:"kind"`
	OrderID    string `json:"order_id,omitempty"`
	RoundID    string `json:"round_id,omitempty"`
	Status     string `json:"payment_status"`
	ResultCode *int   `json:"result_code,omitempty"`
	ResultDesc string `json:"result_desc,omitempty"`
}

// ParticipationEvent is emitted when a participation fee is collected through
// the payment gateway.
type ParticipationEvent struct {
	ParticipationID string          `json:"participation_id"`
	PaymentID       string          `json:"payment_id"`
	AuctionID       string          `json:"auction_id"`
	RoundID         string          `json:"round_id"`
	UserID          string          `json:"user_id"`
	FeePaid         decimal.Decimal `json:"fee_paid"`
}
