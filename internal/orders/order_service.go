package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/events"
	"bidding-engine/internal/models"
	"bidding-engine/internal/repository"
	"bidding-engine/utils"
)

// CheckoutLine is one cart entry
type CheckoutLine struct {
	AuctionID string
	Quantity  int
}

// CheckoutRequest converts a cart into an order
type CheckoutRequest struct {
	CustomerID     string
	Lines          []CheckoutLine
	Shipping       models.Shipping
	CustomerNotes  string
	IdempotencyKey string
}

// Stats is the admin overview of orders
type Stats struct {
	TotalOrders int                        `json:"total_orders"`
	ByStatus    map[models.OrderStatus]int `json:"by_status"`
	Revenue     decimal.Decimal            `json:"revenue"`
}

// Service turns carts and won bids into orders and moves them through fulfilment
type Service struct {
	db  repository.LedgerDB
	bus events.Publisher
	now utils.Clock
}

// NewService creates an order Service publishing to bus
func NewService(db repository.LedgerDB, bus events.Publisher) *Service {
	return &Service{db: db, bus: bus, now: utils.SystemClock}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now utils.Clock) { s.now = now }

func validateCheckout(req CheckoutRequest) ([]CheckoutLine, error) {
	if req.CustomerID == "" {
		return nil, fmt.Errorf("%w - missing customer", biddingerrors.ErrInvalidOrder)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w - cart is empty", biddingerrors.ErrInvalidOrder)
	}
	sh := req.Shipping
	if strings.TrimSpace(sh.Name) == "" || strings.TrimSpace(sh.Phone) == "" ||
		strings.TrimSpace(sh.Address) == "" || strings.TrimSpace(sh.City) == "" {
		return nil, fmt.Errorf("%w - shipping name, phone, address and city are required", biddingerrors.ErrInvalidOrder)
	}

	// merge repeated products; a fixed order keeps row locks deadlock free
	qty := make(map[string]int, len(req.Lines))
	for _, l := range req.Lines {
		if l.AuctionID == "" || l.Quantity < 1 {
			return nil, fmt.Errorf("%w - every line needs a product and a quantity of at least 1", biddingerrors.ErrInvalidOrder)
		}
		qty[l.AuctionID] += l.Quantity
	}
	lines := make([]CheckoutLine, 0, len(qty))
	for id, q := range qty {
		lines = append(lines, CheckoutLine{AuctionID: id, Quantity: q})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].AuctionID < lines[j].AuctionID })
	return lines, nil
}

// Checkout validates stock for every line, decrements it and creates a
// pending order, all in one transaction. Reusing an idempotency key returns
// the order created by the first request.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (models.Order, error) {
	lines, err := validateCheckout(req)
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: %w", err)
	}

	var (
		order    models.Order
		replayed bool
	)
	err = s.db.Transact(ctx, func(tx repository.LedgerTx) error {
		replayed = false
		if req.IdempotencyKey != "" {
			existing, err := tx.FindOrderByIdempotencyKey(ctx, req.CustomerID, req.IdempotencyKey)
			if err == nil {
				order, replayed = existing, true
				return nil
			}
			if !errors.Is(err, biddingerrors.ErrOrderNotFound) {
				return err
			}
		}

		now := s.now()
		order = models.Order{
			ID:             utils.GenerateID(),
			CustomerID:     req.CustomerID,
			Kind:           models.OrderBuyNow,
			Status:         models.OrderPending,
			Shipping:       req.Shipping,
			CustomerNotes:  req.CustomerNotes,
			IdempotencyKey: req.IdempotencyKey,
			Subtotal:       decimal.Zero,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		for _, l := range lines {
			a, err := tx.LockAuction(ctx, l.AuctionID)
			if err != nil {
				return err
			}
			if !a.ProductType.Purchasable() || a.Status != models.AuctionActive || !a.BuyNowPrice.Valid {
				return fmt.Errorf("%w - %s", biddingerrors.ErrNotPurchasable, a.Title)
			}
			if l.Quantity > a.StockQuantity {
				return fmt.Errorf("%w - only %d of %s left", biddingerrors.ErrInsufficientStock, a.StockQuantity, a.Title)
			}

			a.StockQuantity -= l.Quantity
			a.UnitsSold += l.Quantity
			a.UpdatedAt = now
			if err := tx.UpdateAuction(ctx, a); err != nil {
				return err
			}

			item := models.OrderItem{
				OrderID:   order.ID,
				AuctionID: a.ID,
				Title:     a.Title,
				UnitPrice: a.BuyNowPrice.Decimal,
				Quantity:  l.Quantity,
				LineTotal: a.BuyNowPrice.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity))),
			}
			order.Items = append(order.Items, item)
			order.Subtotal = order.Subtotal.Add(item.LineTotal)
		}
		order.TotalAmount = order.Subtotal

		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: checkout for customer %s: %w", req.CustomerID, err)
	}

	if replayed {
		utils.Info("checkout replayed", map[string]any{"order_id": order.ID, "customer_id": order.CustomerID})
		return order, nil
	}

	utils.Info("order created", map[string]any{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"kind":        string(order.Kind),
		"total":       order.TotalAmount.String(),
	})
	s.publish(ctx, events.OrderCreated, order)
	return order, nil
}

// EnsureAuctionOrder returns the payable order for a winning bid, inserting
// it through tx when none exists. It runs inside the transaction that decides
// the round so a won round never commits without its order. created reports
// whether the order was inserted by this call.
func EnsureAuctionOrder(ctx context.Context, tx repository.LedgerTx, auctionID string, winner models.Bid, now time.Time) (models.Order, bool, error) {
	existing, err := tx.FindOrderByWinningBid(ctx, winner.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, biddingerrors.ErrOrderNotFound) {
		return models.Order{}, false, err
	}

	order := models.Order{
		ID:           utils.GenerateID(),
		CustomerID:   winner.UserID,
		Kind:         models.OrderAuction,
		WinningBidID: winner.ID,
		AuctionID:    auctionID,
		Subtotal:     winner.PledgeAmount,
		TotalAmount:  winner.PledgeAmount,
		Status:       models.OrderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return models.Order{}, false, fmt.Errorf("orders: order for winning bid %s: %w", winner.ID, err)
	}
	return order, true, nil
}

// Event builds the bus event for an order lifecycle change.
func Event(t events.Type, o models.Order, at time.Time) events.Event {
	return events.New(t, o.ID, events.OrderEvent{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Kind:        string(o.Kind),
		TotalAmount: o.TotalAmount,
	}, at)
}

// Cancel cancels an order before delivery. Customers may cancel only their
// own pending orders. Stock of an unpaid buy-now order is returned and
// pending payment attempts are cancelled with it.
func (s *Service) Cancel(ctx context.Context, orderID string, actor models.Actor) (models.Order, error) {
	var order models.Order
	err := s.db.Transact(ctx, func(tx repository.LedgerTx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(o.CustomerID) {
			return biddingerrors.ErrOrderNotFound
		}
		if o.Status == models.OrderCancelled {
			return biddingerrors.ErrOrderCancelled
		}
		if !o.Status.CanTransitionTo(models.OrderCancelled) || (!actor.Admin && o.Status != models.OrderPending) {
			return fmt.Errorf("%w - cannot cancel a %s order", biddingerrors.ErrInvalidTransition, o.Status)
		}

		now := s.now()
		if o.Status == models.OrderPending && o.Kind == models.OrderBuyNow {
			if err := restock(ctx, tx, o, now); err != nil {
				return err
			}
		}

		payments, err := tx.ListPayments(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, p := range payments {
			if p.Status != models.PaymentPending {
				continue
			}
			p.Status = models.PaymentCancelled
			p.ResultDesc = "Order cancelled"
			p.UpdatedAt, p.ResolvedAt = now, &now
			if err := tx.UpdatePayment(ctx, p); err != nil {
				return err
			}
		}

		o.Status = models.OrderCancelled
		o.UpdatedAt = now
		order = o
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: cancel order %s: %w", orderID, err)
	}

	utils.Info("order cancelled", map[string]any{"order_id": order.ID, "by": actor.UserID, "admin": actor.Admin})
	return order, nil
}

func restock(ctx context.Context, tx repository.LedgerTx, o models.Order, now time.Time) error {
	items := append([]models.OrderItem(nil), o.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].AuctionID < items[j].AuctionID })

	for _, it := range items {
		a, err := tx.LockAuction(ctx, it.AuctionID)
		if err != nil {
			return err
		}
		a.StockQuantity += it.Quantity
		a.UnitsSold -= it.Quantity
		if a.UnitsSold < 0 {
			a.UnitsSold = 0
		}
		a.UpdatedAt = now
		if err := tx.UpdateAuction(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus moves an order along paid→processing→shipped→delivered.
// Paid is reserved for payment reconciliation.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, fmt.Errorf("orders: %w - unknown status %q", biddingerrors.ErrInvalidOrder, status)
	}
	if status == models.OrderCancelled {
		return s.Cancel(ctx, orderID, models.Actor{Admin: true})
	}
	if status == models.OrderPaid {
		return models.Order{}, fmt.Errorf("orders: %w - orders become paid only through a completed payment", biddingerrors.ErrInvalidTransition)
	}

	var order models.Order
	err := s.db.Transact(ctx, func(tx repository.LedgerTx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w - %s to %s", biddingerrors.ErrInvalidTransition, o.Status, status)
		}
		o.Status = status
		o.UpdatedAt = s.now()
		order = o
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: update status of order %s: %w", orderID, err)
	}

	utils.Info("order status updated", map[string]any{"order_id": order.ID, "status": string(order.Status)})
	return order, nil
}

// GetOrder returns an order visible to the actor.
func (s *Service) GetOrder(ctx context.Context, orderID string, actor models.Actor) (models.Order, error) {
	var o models.Order
	err := s.db.View(ctx, func(r repository.LedgerReader) error {
		var err error
		o, err = r.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(o.CustomerID) {
			return biddingerrors.ErrOrderNotFound
		}
		return nil
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: get order %s: %w", orderID, err)
	}
	return o, nil
}

// ListOrders returns a customer's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	if customerID == "" {
		return nil, fmt.Errorf("orders: %w - missing customer", biddingerrors.ErrInvalidOrder)
	}
	var out []models.Order
	err := s.db.View(ctx, func(r repository.LedgerReader) error {
		var err error
		out, err = r.ListOrders(ctx, customerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("orders: list orders of %s: %w", customerID, err)
	}
	return out, nil
}

// Stats counts orders per status and sums revenue of settled orders.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByStatus: make(map[models.OrderStatus]int), Revenue: decimal.Zero}
	err := s.db.View(ctx, func(r repository.LedgerReader) error {
		all, err := r.ListOrders(ctx, "")
		if err != nil {
			return err
		}
		for _, o := range all {
			st.TotalOrders++
			st.ByStatus[o.Status]++
			if o.Status.Settled() {
				st.Revenue = st.Revenue.Add(o.TotalAmount)
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("orders: stats: %w", err)
	}
	return st, nil
}

func (s *Service) publish(ctx context.Context, t events.Type, o models.Order) {
	s.bus.Publish(ctx, Event(t, o, s.now()))
}
