package repository

import (
	"context"
	"time"

	"bidding-engine/internal/models"
)

// LedgerDB is the durable, transactional store for auctions, rounds,
// participations, bids, orders and payments.
//
// Transact runs fn atomically: every write made through tx is either
// committed as a whole or rolled back when fn returns an error or panics.
// View runs fn against a consistent read snapshot.
type LedgerDB interface {
	Transact(ctx context.Context, fn func(tx LedgerTx) error) error
	View(ctx context.Context, fn func(r LedgerReader) error) error
}

// LedgerReader exposes the read side of the ledger.
type LedgerReader interface {
	GetAuction(ctx context.Context, id string) (models.Auction, error)

	GetRound(ctx context.Context, id string) (models.Round, error)
	LatestRound(ctx context.Context, auctionID string) (models.Round, error)
	ListRounds(ctx context.Context, auctionID string) ([]models.Round, error)

	GetParticipation(ctx context.Context, roundID, userID string) (models.Participation, error)
	ListParticipations(ctx context.Context, roundID string) ([]models.Participation, error)

	ListBids(ctx context.Context, roundID string) ([]models.Bid, error)

	GetOrder(ctx context.Context, id string) (models.Order, error)
	FindOrderByWinningBid(ctx context.Context, bidID string) (models.Order, error)
	FindOrderByIdempotencyKey(ctx context.Context, customerID, key string) (models.Order, error)
	ListOrders(ctx context.Context, customerID string) ([]models.Order, error)

	GetPayment(ctx context.Context, id string) (models.Payment, error)
	GetPaymentByProviderID(ctx context.Context, providerTxnID string) (models.Payment, error)
	ListPayments(ctx context.Context, orderID string) ([]models.Payment, error)
	ListPaymentsByCustomer(ctx context.Context, customerID string, limit int) ([]models.Payment, error)
	ListPendingPaymentsBefore(ctx context.Context, cutoff time.Time) ([]models.Payment, error)
	// ListRoundPayments returns a customer's participation payments for a
	// round, newest first.
	ListRoundPayments(ctx context.Context, roundID, customerID string) ([]models.Payment, error)
}

// LedgerTx is a write transaction. Lock* reads take a row lock held until
// the transaction ends.
type LedgerTx interface {
	LedgerReader

	LockAuction(ctx context.Context, id string) (models.Auction, error)
	LockRound(ctx context.Context, id string) (models.Round, error)
	LockOrder(ctx context.Context, id string) (models.Order, error)
	LockPaymentByProviderID(ctx context.Context, providerTxnID string) (models.Payment, error)

	InsertAuction(ctx context.Context, a models.Auction) error
	UpdateAuction(ctx context.Context, a models.Auction) error

	InsertRound(ctx context.Context, r models.Round) error
	UpdateRound(ctx context.Context, r models.Round) error

	InsertParticipation(ctx context.Context, p models.Participation) error

	InsertBid(ctx context.Context, b models.Bid) error
	MarkWinner(ctx context.Context, bidID string) error

	InsertOrder(ctx context.Context, o models.Order) error
	UpdateOrder(ctx context.Context, o models.Order) error

	InsertPayment(ctx context.Context, p models.Payment) error
	UpdatePayment(ctx context.Context, p models.Payment) error

	// ParkCallback stores an unmatched callback. A second callback for the
	// same checkout id is ignored.
	ParkCallback(ctx context.Context, c models.ParkedCallback) error
	// TakeParkedCallback removes and returns the parked callback for a
	// checkout id, failing with ErrCallbackNotParked when there is none.
	TakeParkedCallback(ctx context.Context, checkoutRequestID string) (models.ParkedCallback, error)
	PurgeParkedCallbacks(ctx context.Context, before time.Time) (int, error)
}
