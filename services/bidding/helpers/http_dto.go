package helpers

import (
	"time"

	"github.com/shopspring/decimal"

	"bidding-engine/internal/models"
	"bidding-engine/internal/orders"
	"bidding-engine/internal/rounds"
)

// Request/Response DTOs. Money fields accept JSON strings or numbers.

type CreateAuctionRequest struct {
	Title            string              `json:"title" binding:"required"`
	ProductType      string              `json:"product_type" binding:"required,oneof=buy_now auction both"`
	BasePrice        decimal.Decimal     `json:"base_price"`
	BuyNowPrice      decimal.NullDecimal `json:"buy_now_price"`
	ParticipationFee decimal.Decimal     `json:"participation_fee"`
	MinPledge        decimal.Decimal     `json:"min_pledge"`
	MaxPledge        decimal.NullDecimal `json:"max_pledge"`
	StockQuantity    int                 `json:"stock_quantity" binding:"gte=0"`
}

func (r CreateAuctionRequest) ToModel() models.Auction {
	return models.Auction{
		Title:            r.Title,
		ProductType:      models.ProductType(r.ProductType),
		BasePrice:        r.BasePrice,
		BuyNowPrice:      r.BuyNowPrice,
		ParticipationFee: r.ParticipationFee,
		MinPledge:        r.MinPledge,
		MaxPledge:        r.MaxPledge,
		StockQuantity:    r.StockQuantity,
	}
}

// NextRoundRequest overrides the previous round's terms; omitted fields are carried over
type NextRoundRequest struct {
	BasePrice        decimal.NullDecimal `json:"base_price"`
	ParticipationFee decimal.NullDecimal `json:"participation_fee"`
	MinPledge        decimal.NullDecimal `json:"min_pledge"`
	MaxPledge        decimal.NullDecimal `json:"max_pledge"`
}

// Apply overlays the set fields on p.
func (r NextRoundRequest) Apply(p rounds.RoundParams) rounds.RoundParams {
	if r.BasePrice.Valid {
		p.BasePrice = r.BasePrice.Decimal
	}
	if r.ParticipationFee.Valid {
		p.ParticipationFee = r.ParticipationFee.Decimal
	}
	if r.MinPledge.Valid {
		p.MinPledge = r.MinPledge.Decimal
	}
	if r.MaxPledge.Valid {
		p.MaxPledge = r.MaxPledge
	}
	return p
}

type NextRoundResponse struct {
	RoundID     string       `json:"round_id"`
	RoundNumber int          `json:"round_number"`
	Round       models.Round `json:"round"`
}

type ActivateResponse struct {
	Auction models.Auction `json:"auction"`
	Round   *models.Round  `json:"round,omitempty"`
}

type CloseRoundRequest struct {
	Reason string `json:"reason"`
}

type JoinRoundRequest struct {
	RoundID string              `json:"round_id" binding:"required"`
	FeePaid decimal.NullDecimal `json:"fee_paid"`
	// UserID lets an admin record a fee collected outside M-Pesa
	UserID string `json:"user_id"`
}

type PlaceBidRequest struct {
	RoundID      string          `json:"round_id" binding:"required"`
	PledgeAmount decimal.Decimal `json:"pledge_amount"`
}

type BidResponse struct {
	BidID        string          `json:"bid_id"`
	RoundID      string          `json:"round_id"`
	AuctionID    string          `json:"auction_id"`
	UserID       string          `json:"user_id"`
	PledgeAmount decimal.Decimal `json:"pledge_amount"`
	SubmittedAt  string          `json:"submitted_at"`
}

func NewBidResponse(b models.Bid) BidResponse {
	return BidResponse{
		BidID:        b.ID,
		RoundID:      b.RoundID,
		AuctionID:    b.AuctionID,
		UserID:       b.UserID,
		PledgeAmount: b.PledgeAmount,
		SubmittedAt:  b.SubmittedAt.UTC().Format(time.RFC3339Nano),
	}
}

type CheckoutItem struct {
	AuctionID string `json:"auction_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gte=1"`
}

type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items" binding:"required,min=1,dive"`
	ShippingName    string         `json:"shipping_name" binding:"required"`
	ShippingPhone   string         `json:"shipping_phone" binding:"required"`
	ShippingAddress string         `json:"shipping_address" binding:"required"`
	ShippingCity    string         `json:"shipping_city" binding:"required"`
	CustomerNotes   string         `json:"customer_notes"`
}

func (r CheckoutRequest) ToService(customerID, idempotencyKey string) orders.CheckoutRequest {
	lines := make([]orders.CheckoutLine, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, orders.CheckoutLine{AuctionID: it.AuctionID, Quantity: it.Quantity})
	}
	return orders.CheckoutRequest{
		CustomerID: customerID,
		Lines:      lines,
		Shipping: models.Shipping{
			Name:    r.ShippingName,
			Phone:   r.ShippingPhone,
			Address: r.ShippingAddress,
			City:    r.ShippingCity,
		},
		CustomerNotes:  r.CustomerNotes,
		IdempotencyKey: idempotencyKey,
	}
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type InitiatePaymentRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
}

type InitiateParticipationRequest struct {
	AuctionID   string `json:"auction_id" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
}

type InitiatePaymentResponse struct {
	PaymentID         string `json:"transaction_id"`
	CheckoutRequestID string `json:"checkout_request_id"`
	Message           string `json:"message"`
}
