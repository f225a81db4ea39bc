package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType says how an auction listing can be bought
type ProductType string

const (
	ProductBuyNow  ProductType = "buy_now"
	ProductAuction ProductType = "auction"
	ProductBoth    ProductType = "both"
)

// Purchasable reports whether the product can go through cart checkout.
func (p ProductType) Purchasable() bool {
	return p == ProductBuyNow || p == ProductBoth
}

// Biddable reports whether the product is sold through bidding rounds.
func (p ProductType) Biddable() bool {
	return p == ProductAuction || p == ProductBoth
}

type AuctionStatus string

const (
	AuctionDraft  AuctionStatus = "draft"
	AuctionActive AuctionStatus = "active"
	AuctionClosed AuctionStatus = "closed"
)

// Auction represents a sellable listing, bought outright or through rounds
type Auction struct {
	ID               string              `json:"id" db:"id"`
	Title            string              `json:"title" db:"title"`
	ProductType      ProductType         `json:"product_type" db:"product_type"`
	BasePrice        decimal.Decimal     `json:"base_price" db:"base_price"`
	BuyNowPrice      decimal.NullDecimal `json:"buy_now_price" db:"buy_now_price"`
	ParticipationFee decimal.Decimal     `json:"participation_fee" db:"participation_fee"`
	MinPledge        decimal.Decimal     `json:"min_pledge" db:"min_pledge"`
	MaxPledge        decimal.NullDecimal `json:"max_pledge" db:"max_pledge"`
	StockQuantity    int                 `json:"stock_quantity" db:"stock_quantity"`
	UnitsSold        int                 `json:"units_sold" db:"units_sold"`
	Status           AuctionStatus       `json:"status" db:"status"`
	WinnerID         string              `json:"winner_id,omitempty" db:"winner_id"`
	WinningBidID     string              `json:"winning_bid_id,omitempty" db:"winning_bid_id"`
	WinningAmount    decimal.NullDecimal `json:"winning_amount" db:"winning_amount"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

type RoundStatus string

const (
	RoundOpen   RoundStatus = "open"
	RoundClosed RoundStatus = "closed"
)

type RoundOutcome string

const (
	OutcomeNone      RoundOutcome = ""
	OutcomeWon       RoundOutcome = "won"
	OutcomeExhausted RoundOutcome = "exhausted"
)

// Round is one bidding period of an auction
type Round struct {
	ID               string              `json:"id" db:"id"`
	AuctionID        string              `json:"auction_id" db:"auction_id"`
	RoundNumber      int                 `json:"round_number" db:"round_number"`
	BasePrice        decimal.Decimal     `json:"base_price" db:"base_price"`
	ParticipationFee decimal.Decimal     `json:"participation_fee" db:"participation_fee"`
	MinPledge        decimal.Decimal     `json:"min_pledge" db:"min_pledge"`
	MaxPledge        decimal.NullDecimal `json:"max_pledge" db:"max_pledge"`
	Status           RoundStatus         `json:"status" db:"status"`
	CloseReason      string              `json:"close_reason,omitempty" db:"close_reason"`
	Outcome          RoundOutcome        `json:"outcome,omitempty" db:"outcome"`
	WinningBidID     string              `json:"winning_bid_id,omitempty" db:"winning_bid_id"`
	ParticipantCount int                 `json:"participant_count" db:"participant_count"`
	FeeRevenue       decimal.Decimal     `json:"fee_revenue" db:"fee_revenue"`
	OpenedAt         time.Time           `json:"opened_at" db:"opened_at"`
	ClosedAt         *time.Time          `json:"closed_at,omitempty" db:"closed_at"`
}

// PledgeInRange reports whether amount satisfies the round's pledge window.
func (r Round) PledgeInRange(amount decimal.Decimal) bool {
	if amount.LessThan(r.MinPledge) {
		return false
	}
	if r.MaxPledge.Valid && amount.GreaterThan(r.MaxPledge.Decimal) {
		return false
	}
	return true
}

// FitsCents reports whether amount is representable in the ledger's
// two-decimal money columns.
func FitsCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(2))
}

// Participation proves a user paid the entry fee for a round
type Participation struct {
	ID        string          `json:"id" db:"id"`
	RoundID   string          `json:"round_id" db:"round_id"`
	AuctionID string          `json:"auction_id" db:"auction_id"`
	UserID    string          `json:"user_id" db:"user_id"`
	FeePaid   decimal.Decimal `json:"fee_paid" db:"fee_paid"`
	PaidAt    time.Time       `json:"paid_at" db:"paid_at"`
}

// Bid is a pledge submitted by a participant within a round
type Bid struct {
	ID           string          `json:"id" db:"id"`
	RoundID      string          `json:"round_id" db:"round_id"`
	AuctionID    string          `json:"auction_id" db:"auction_id"`
	UserID       string          `json:"user_id" db:"user_id"`
	PledgeAmount decimal.Decimal `json:"pledge_amount" db:"pledge_amount"`
	SubmittedAt  time.Time       `json:"submitted_at" db:"submitted_at"`
	IsValid      bool            `json:"is_valid" db:"is_valid"`
	IsWinner     bool            `json:"is_winner" db:"is_winner"`
}

// RankedBid is a bid with its 1-based position in a round's ranking
type RankedBid struct {
	Bid
	Position int `json:"position"`
}

type OrderKind string

const (
	OrderBuyNow  OrderKind = "buy_now"
	OrderAuction OrderKind = "auction"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderPaid       OrderStatus = "paid"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderRank = map[OrderStatus]int{
	OrderPending:    0,
	OrderPaid:       1,
	OrderProcessing: 2,
	OrderShipped:    3,
	OrderDelivered:  4,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderRank[s]
	return ok || s == OrderCancelled
}

// CanTransitionTo enforces forward-only progress; cancellation is terminal
// and allowed from any state before delivery.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == OrderCancelled || s == OrderDelivered {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	from, ok := orderRank[s]
	if !ok {
		return false
	}
	to, ok := orderRank[next]
	return ok && to == from+1
}

// Settled reports whether the order has been paid for.
func (s OrderStatus) Settled() bool {
	switch s {
	case OrderPaid, OrderProcessing, OrderShipped, OrderDelivered:
		return true
	}
	return false
}

// Shipping holds the delivery details captured at checkout
type Shipping struct {
	Name    string `json:"shipping_name" db:"shipping_name"`
	Phone   string `json:"shipping_phone" db:"shipping_phone"`
	Address string `json:"shipping_address" db:"shipping_address"`
	City    string `json:"shipping_city" db:"shipping_city"`
}

// Order is a purchase from either the buy-now or the won-auction path
type Order struct {
	ID           string          `json:"id" db:"id"`
	CustomerID   string          `json:"customer_id" db:"customer_id"`
	Kind         OrderKind       `json:"kind" db:"kind"`
	Items        []OrderItem     `json:"items,omitempty" db:"-"`
	WinningBidID string          `json:"winning_bid_id,omitempty" db:"winning_bid_id"`
	AuctionID    string          `json:"auction_id,omitempty" db:"auction_id"`
	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
	TotalAmount  decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status       OrderStatus     `json:"status" db:"status"`
	Shipping
	CustomerNotes  string     `json:"customer_notes,omitempty" db:"customer_notes"`
	IdempotencyKey string     `json:"-" db:"idempotency_key"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	PaidAt         *time.Time `json:"paid_at,omitempty" db:"paid_at"`
}

// OrderItem is one buy-now line of an order
type OrderItem struct {
	OrderID   string          `json:"-" db:"order_id"`
	AuctionID string          `json:"auction_id" db:"auction_id"`
	Title     string          `json:"title" db:"title"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Terminal reports whether the payment can no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentCancelled
}

// PaymentKind says what a payment settles
type PaymentKind string

const (
	PaymentForOrder         PaymentKind = "order"
	PaymentForParticipation PaymentKind = "participation"
)

// Payment is one mobile-money charge attempt. An order payment settles
// OrderID; a participation payment buys entry into RoundID.
type Payment struct {
	ID                    string          `json:"id" db:"id"`
	Kind                  PaymentKind     `json:"kind" db:"kind"`
	OrderID               string          `json:"order_id,omitempty" db:"order_id"`
	RoundID               string          `json:"round_id,omitempty" db:"round_id"`
	AuctionID             string          `json:"auction_id,omitempty" db:"auction_id"`
	CustomerID            string          `json:"customer_id" db:"customer_id"`
	PhoneNumber           string          `json:"phone_number" db:"phone_number"`
	Amount                decimal.Decimal `json:"amount" db:"amount"`
	Status                PaymentStatus   `json:"payment_status" db:"payment_status"`
	ProviderTransactionID *string         `json:"provider_transaction_id" db:"provider_transaction_id"`
	MerchantRequestID     string          `json:"merchant_request_id,omitempty" db:"merchant_request_id"`
	ReceiptNumber         string          `json:"receipt_number,omitempty" db:"receipt_number"`
	ResultCode            *int            `json:"result_code,omitempty" db:"result_code"`
	ResultDesc            string          `json:"result_desc,omitempty" db:"result_desc"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
	ResolvedAt            *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
}

// ForParticipation reports whether the payment buys round entry.
func (p Payment) ForParticipation() bool { return p.Kind == PaymentForParticipation }

// ParkedCallback is a provider result that arrived before the checkout id of
// its payment was recorded. It is applied once the id is stored.
type ParkedCallback struct {
	CheckoutRequestID string    `db:"checkout_request_id"`
	MerchantRequestID string    `db:"merchant_request_id"`
	ResultCode        int       `db:"result_code"`
	ResultDesc        string    `db:"result_desc"`
	ReceiptNumber     string    `db:"receipt_number"`
	ReceivedAt        time.Time `db:"received_at"`
}

// Actor is the caller of an operation, taken from trusted identity headers
type Actor struct {
	UserID string
	Admin  bool
}

// CanAccess reports whether the actor may see a record owned by ownerID.
func (a Actor) CanAccess(ownerID string) bool {
	return a.Admin || (a.UserID != "" && a.UserID == ownerID)
}
