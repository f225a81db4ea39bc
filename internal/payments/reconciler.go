package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/events"
	"bidding-engine/internal/models"
	"bidding-engine/internal/participation"
	"bidding-engine/internal/repository"
	"bidding-engine/utils"
)

// PaymentUnpaid is reported by Status when no payment was ever initiated.
const PaymentUnpaid = "unpaid"

// HistoryLimit bounds ListForCustomer.
const HistoryLimit = 20

var statusMessages = map[string]string{
	string(models.PaymentPending):   "Payment in progress. Please complete the prompt on your phone.",
	string(models.PaymentCompleted): "Payment completed successfully!",
	string(models.PaymentFailed):    "Payment failed. Please try again.",
	string(models.PaymentCancelled): "Payment was cancelled.",
	PaymentUnpaid:                   "No payment initiated",
}

// Options tunes the Reconciler
type Options struct {
	// PendingTimeout is how long a pending payment blocks a new attempt and
	// how old it must be before the sweeper cancels it.
	PendingTimeout time.Duration
	// RequestTimeout bounds each gateway call.
	RequestTimeout time.Duration
	// ParkedRetention is how long a callback without a matching payment is
	// kept before the sweeper drops it.
	ParkedRetention time.Duration
	Retry           utils.RetryPolicy
}

// DefaultOptions returns the production timeouts.
func DefaultOptions() Options {
	return Options{
		PendingTimeout:  5 * time.Minute,
		RequestTimeout:  30 * time.Second,
		ParkedRetention: 24 * time.Hour,
		Retry:           utils.DefaultRetryPolicy,
	}
}

// OrderPaymentStatus is the read-only payment projection of an order
type OrderPaymentStatus struct {
	OrderID       string             `json:"order_id"`
	PaymentID     string             `json:"payment_id,omitempty"`
	PaymentStatus string             `json:"payment_status"`
	OrderStatus   models.OrderStatus `json:"order_status"`
	TotalAmount   string             `json:"total_amount"`
	Message       string             `json:"message"`
	ReceiptNumber string             `json:"mpesa_receipt_number,omitempty"`
	ResultDesc    string             `json:"result_desc,omitempty"`
	UpdatedAt     *time.Time         `json:"updated_at,omitempty"`
}

// ParticipationPaymentStatus is the read-only projection of a user's entry
// fee payment for an auction's latest round
type ParticipationPaymentStatus struct {
	AuctionID        string     `json:"auction_id"`
	RoundID          string     `json:"round_id,omitempty"`
	RoundNumber      int        `json:"round_number,omitempty"`
	ParticipationFee string     `json:"participation_fee"`
	HasPaid          bool       `json:"has_paid"`
	PaymentID        string     `json:"payment_id,omitempty"`
	PaymentStatus    string     `json:"payment_status"`
	Message          string     `json:"message"`
	ReceiptNumber    string     `json:"mpesa_receipt_number,omitempty"`
	ResultDesc       string     `json:"result_desc,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// Reconciler drives mobile-money charges for orders and round entry fees and
// folds the provider's asynchronous callbacks back into the ledger.
type Reconciler struct {
	db   repository.LedgerDB
	gw   Gateway
	bus  events.Publisher
	opts Options
	now  utils.Clock
}

// NewReconciler wires a Reconciler to the ledger and a gateway
func NewReconciler(db repository.LedgerDB, gw Gateway, bus events.Publisher, opts Options) *Reconciler {
	if opts.PendingTimeout <= 0 {
		opts.PendingTimeout = DefaultOptions().PendingTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultOptions().RequestTimeout
	}
	if opts.ParkedRetention <= 0 {
		opts.ParkedRetention = DefaultOptions().ParkedRetention
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = utils.DefaultRetryPolicy
	}
	return &Reconciler{db: db, gw: gw, bus: bus, opts: opts, now: utils.SystemClock}
}

// SetClock replaces the time source.
func (r *Reconciler) SetClock(now utils.Clock) { r.now = now }

// Initiate records a pending payment for the customer's order and pushes the
// prompt to the phone. The gateway is called after the payment row is
// committed, never inside a ledger transaction.
func (r *Reconciler) Initiate(ctx context.Context, orderID, customerID, rawPhone string) (models.Payment, error) {
	phone, err := FormatPhone(rawPhone)
	if err != nil {
		return models.Payment{}, fmt.Errorf("payments: %w", err)
	}

	var (
		payment models.Payment
		expired []models.Payment
	)
	err = r.db.Transact(ctx, func(tx repository.LedgerTx) error {
		expired = expired[:0]
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !(models.Actor{UserID: customerID}).CanAccess(order.CustomerID) {
			return biddingerrors.ErrOrderNotFound
		}
		switch {
		case order.Status == models.OrderCancelled:
			return biddingerrors.ErrOrderCancelled
		case order.Status.Settled():
			return biddingerrors.ErrOrderAlreadyPaid
		}

		existing, err := tx.ListPayments(ctx, order.ID)
		if err != nil {
			return err
		}
		now := r.now()
		if expired, err = r.expirePending(ctx, tx, existing, now); err != nil {
			return err
		}

		payment = models.Payment{
			ID:          utils.GenerateID(),
			Kind:        models.PaymentForOrder,
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			PhoneNumber: phone,
			Amount:      order.TotalAmount,
			Status:      models.PaymentPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.InsertPayment(ctx, payment)
	})
	if err != nil {
		return models.Payment{}, fmt.Errorf("payments: initiate payment for order %s: %w", orderID, err)
	}
	for _, p := range expired {
		r.publishPayment(ctx, p)
	}

	utils.Info("payment initiated", map[string]any{
		"payment_id": payment.ID,
		"order_id":   payment.OrderID,
		"amount":     payment.Amount.String(),
	})

	return r.push(ctx, payment, PushRequest{
		PaymentID:   payment.ID,
		OrderID:     payment.OrderID,
		Phone:       phone,
		Amount:      payment.Amount,
		Reference:   accountReference("ORDER-", payment.OrderID),
		Description: "Payment for order " + payment.OrderID,
	})
}

// InitiateParticipation charges the entry fee of the auction's current round.
// The participation is recorded only when the provider confirms the charge;
// until then the user cannot bid.
func (r *Reconciler) InitiateParticipation(ctx context.Context, auctionID, userID, rawPhone string) (models.Payment, error) {
	if userID == "" {
		return models.Payment{}, fmt.Errorf("payments: %w", biddingerrors.ErrMissingIdentity)
	}
	phone, err := FormatPhone(rawPhone)
	if err != nil {
		return models.Payment{}, fmt.Errorf("payments: %w", err)
	}

	var (
		payment models.Payment
		round   models.Round
		expired []models.Payment
	)
	err = r.db.Transact(ctx, func(tx repository.LedgerTx) error {
		expired = expired[:0]
		if _, err := tx.GetAuction(ctx, auctionID); err != nil {
			return err
		}
		latest, err := tx.LatestRound(ctx, auctionID)
		if err != nil {
			return err
		}
		if round, err = tx.LockRound(ctx, latest.ID); err != nil {
			return err
		}
		if err := participation.CheckJoinable(ctx, tx, round, userID); err != nil {
			return err
		}
		if !round.ParticipationFee.IsPositive() {
			return fmt.Errorf("%w - round %d charges no participation fee", biddingerrors.ErrFeeMismatch, round.RoundNumber)
		}

		existing, err := tx.ListRoundPayments(ctx, round.ID, userID)
		if err != nil {
			return err
		}
		now := r.now()
		if expired, err = r.expirePending(ctx, tx, existing, now); err != nil {
			return err
		}

		payment = models.Payment{
			ID:          utils.GenerateID(),
			Kind:        models.PaymentForParticipation,
			RoundID:     round.ID,
			AuctionID:   round.AuctionID,
			CustomerID:  userID,
			PhoneNumber: phone,
			Amount:      round.ParticipationFee,
			Status:      models.PaymentPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.InsertPayment(ctx, payment)
	})
	if err != nil {
		return models.Payment{}, fmt.Errorf("payments: initiate participation in auction %s by %s: %w", auctionID, userID, err)
	}
	for _, p := range expired {
		r.publishPayment(ctx, p)
	}

	utils.Info("participation payment initiated", map[string]any{
		"payment_id": payment.ID,
		"round_id":   payment.RoundID,
		"user_id":    userID,
		"amount":     payment.Amount.String(),
	})

	return r.push(ctx, payment, PushRequest{
		PaymentID:   payment.ID,
		Phone:       phone,
		Amount:      payment.Amount,
		Reference:   accountReference("AUC-", payment.AuctionID),
		Description: fmt.Sprintf("Participation fee for round %d", round.RoundNumber),
	})
}

// expirePending cancels pending attempts past the timeout. A fresher pending
// attempt or a completed one blocks a new charge.
func (r *Reconciler) expirePending(ctx context.Context, tx repository.LedgerTx, existing []models.Payment, now time.Time) ([]models.Payment, error) {
	var expired []models.Payment
	for _, p := range existing {
		switch p.Status {
		case models.PaymentCompleted:
			if p.ForParticipation() {
				return nil, biddingerrors.ErrDuplicateParticipation
			}
			return nil, biddingerrors.ErrOrderAlreadyPaid
		case models.PaymentPending:
			if now.Sub(p.CreatedAt) < r.opts.PendingTimeout {
				return nil, biddingerrors.ErrPaymentAlreadyPending
			}
			resolve(&p, models.PaymentCancelled, nil, "Payment timed out", now)
			if err := tx.UpdatePayment(ctx, p); err != nil {
				return nil, err
			}
			expired = append(expired, p)
		}
	}
	return expired, nil
}

// push sends the prompt for a committed pending payment, retrying transient
// gateway failures.
func (r *Reconciler) push(ctx context.Context, payment models.Payment, req PushRequest) (models.Payment, error) {
	var resp PushResponse
	err := utils.Retry(ctx, r.opts.Retry, biddingerrors.IsTransient, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, r.opts.RequestTimeout)
		defer cancel()
		var err error
		resp, err = r.gw.STKPush(callCtx, req)
		return err
	})
	if err != nil {
		return r.pushFailed(ctx, payment, err)
	}

	return r.recordAccepted(ctx, payment, resp)
}

// lockOwner takes the row lock every payment write starts with: the order of
// an order payment or the round of a participation payment.
func lockOwner(ctx context.Context, tx repository.LedgerTx, p models.Payment) error {
	if p.ForParticipation() {
		_, err := tx.LockRound(ctx, p.RoundID)
		return err
	}
	_, err := tx.LockOrder(ctx, p.OrderID)
	return err
}

func accountReference(prefix, id string) string {
	if len(id) > 6 {
		id = id[:6]
	}
	return prefix + id
}

// pushFailed leaves the payment pending for transient failures and marks it
// failed when the gateway declined, so a participation attempt no longer
// blocks a retry.
func (r *Reconciler) pushFailed(ctx context.Context, payment models.Payment, cause error) (models.Payment, error) {
	if !errors.Is(cause, biddingerrors.ErrGatewayDeclined) {
		utils.Warn("payment gateway unavailable", map[string]any{"payment_id": payment.ID, "error": cause.Error()})
		if !errors.Is(cause, biddingerrors.ErrGatewayUnavailable) {
			cause = fmt.Errorf("%w: %v", biddingerrors.ErrGatewayUnavailable, cause)
		}
		return payment, fmt.Errorf("payments: push for payment %s: %w", payment.ID, cause)
	}

	var failed bool
	err := r.db.Transact(ctx, func(tx repository.LedgerTx) error {
		failed = false
		if err := lockOwner(ctx, tx, payment); err != nil {
			return err
		}
		p, err := tx.GetPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		if p.Status.Terminal() {
			payment = p
			return nil
		}
		resolve(&p, models.PaymentFailed, nil, cause.Error(), r.now())
		payment, failed = p, true
		return tx.UpdatePayment(ctx, p)
	})
	if err != nil {
		utils.Error("could not mark declined payment failed", map[string]any{"payment_id": payment.ID, "error": err.Error()})
	} else if failed {
		utils.Info("payment declined", map[string]any{"payment_id": payment.ID, "reason": cause.Error()})
		r.publishPayment(ctx, payment)
	}
	return payment, fmt.Errorf("payments: push for payment %s: %w", payment.ID, cause)
}

// recordAccepted stores the checkout id the gateway assigned. A callback that
// raced ahead of it was parked by OnCallback and is applied here, in the same
// transaction.
func (r *Reconciler) recordAccepted(ctx context.Context, payment models.Payment, resp PushResponse) (models.Payment, error) {
	var early *settlement
	err := r.db.Transact(ctx, func(tx repository.LedgerTx) error {
		early = nil
		if err := lockOwner(ctx, tx, payment); err != nil {
			return err
		}
		p, err := tx.GetPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		checkoutID := resp.CheckoutRequestID
		p.ProviderTransactionID = &checkoutID
		p.MerchantRequestID = resp.MerchantRequestID
		p.UpdatedAt = r.now()
		payment = p
		if err := tx.UpdatePayment(ctx, p); err != nil {
			return err
		}

		parked, err := tx.TakeParkedCallback(ctx, checkoutID)
		if errors.Is(err, biddingerrors.ErrCallbackNotParked) {
			return nil
		}
		if err != nil {
			return err
		}
		st, err := r.applyResult(ctx, tx, p, parkedResult(parked))
		if err != nil {
			return err
		}
		early, payment = &st, st.payment
		return nil
	})
	if err != nil {
		return payment, fmt.Errorf("payments: record checkout id for payment %s: %w", payment.ID, err)
	}

	utils.Info("payment prompt sent", map[string]any{
		"payment_id":          payment.ID,
		"checkout_request_id": resp.CheckoutRequestID,
	})
	if early != nil {
		r.announce(ctx, *early, resp.CheckoutRequestID, "parked")
	}
	return payment, nil
}

// settlement is what applying one provider result changed
type settlement struct {
	payment       models.Payment
	resultCode    int
	duplicate     bool
	order         *models.Order
	participation *models.Participation
}

// OnCallback applies a provider callback. It is idempotent on the checkout
// request id: callbacks for an already resolved payment change nothing. A
// callback whose payment has no checkout id yet is parked and applied once
// the id is recorded; OnCallback then reports ErrPaymentNotFound.
func (r *Reconciler) OnCallback(ctx context.Context, res CallbackResult) (models.Payment, error) {
	if res.CheckoutRequestID == "" {
		return models.Payment{}, fmt.Errorf("payments: callback without checkout request id: %w", biddingerrors.ErrPaymentNotFound)
	}

	var (
		st     settlement
		parked bool
	)
	err := r.db.Transact(ctx, func(tx repository.LedgerTx) error {
		st, parked = settlement{}, false
		found, err := tx.GetPaymentByProviderID(ctx, res.CheckoutRequestID)
		if errors.Is(err, biddingerrors.ErrPaymentNotFound) {
			parked = true
			return tx.ParkCallback(ctx, parkedCallback(res, r.now()))
		}
		if err != nil {
			return err
		}
		// owner row first, matching every other payment write
		if err := lockOwner(ctx, tx, found); err != nil {
			return err
		}
		p, err := tx.LockPaymentByProviderID(ctx, res.CheckoutRequestID)
		if err != nil {
			return err
		}
		st, err = r.applyResult(ctx, tx, p, res)
		return err
	})
	if err != nil {
		return models.Payment{}, fmt.Errorf("payments: callback %s: %w", res.CheckoutRequestID, err)
	}
	if parked {
		utils.Warn("callback parked until its payment is recorded", map[string]any{
			"checkout_request_id": res.CheckoutRequestID,
			"result_code":         res.ResultCode,
		})
		return models.Payment{}, fmt.Errorf("payments: callback %s parked: %w", res.CheckoutRequestID, biddingerrors.ErrPaymentNotFound)
	}

	r.announce(ctx, st, res.CheckoutRequestID, "callback")
	return st.payment, nil
}

// applyResult resolves a pending payment whose owner row is locked by tx.
// A successful charge that can no longer be applied, because the order is
// settled or cancelled or the round closed, is kept as cancelled with its
// receipt for refunding.
func (r *Reconciler) applyResult(ctx context.Context, tx repository.LedgerTx, p models.Payment, res CallbackResult) (settlement, error) {
	st := settlement{payment: p, resultCode: res.ResultCode}
	if p.Status.Terminal() {
		st.duplicate = true
		return st, nil
	}

	now := r.now()
	code := res.ResultCode
	switch {
	case code == 0 && p.ForParticipation():
		rd, err := tx.GetRound(ctx, p.RoundID)
		if err != nil {
			return st, err
		}
		p.ReceiptNumber = res.ReceiptNumber
		switch err := participation.CheckJoinable(ctx, tx, rd, p.CustomerID); {
		case errors.Is(err, biddingerrors.ErrRoundClosed):
			resolve(&p, models.PaymentCancelled, &code, "Round closed", now)
		case errors.Is(err, biddingerrors.ErrDuplicateParticipation):
			resolve(&p, models.PaymentCancelled, &code, "Already participating", now)
		case err != nil:
			return st, err
		default:
			part, err := participation.Record(ctx, tx, rd, p.CustomerID, now)
			if err != nil {
				return st, err
			}
			resolve(&p, models.PaymentCompleted, &code, res.ResultDesc, now)
			st.participation = &part
		}
	case code == 0:
		order, err := tx.GetOrder(ctx, p.OrderID)
		if err != nil {
			return st, err
		}
		p.ReceiptNumber = res.ReceiptNumber
		switch {
		case order.Status.Settled():
			resolve(&p, models.PaymentCancelled, &code, "Order already paid", now)
		case order.Status == models.OrderCancelled:
			resolve(&p, models.PaymentCancelled, &code, "Order cancelled", now)
		default:
			resolve(&p, models.PaymentCompleted, &code, res.ResultDesc, now)
			order.Status = models.OrderPaid
			order.PaidAt = &now
			order.UpdatedAt = now
			if err := tx.UpdateOrder(ctx, order); err != nil {
				return st, err
			}
			st.order = &order
		}
	case code == ResultCancelledByUser:
		resolve(&p, models.PaymentCancelled, &code, res.ResultDesc, now)
	default:
		resolve(&p, models.PaymentFailed, &code, res.ResultDesc, now)
	}
	if res.MerchantRequestID != "" {
		p.MerchantRequestID = res.MerchantRequestID
	}
	st.payment = p
	return st, tx.UpdatePayment(ctx, p)
}

// announce logs a committed settlement and publishes its events.
func (r *Reconciler) announce(ctx context.Context, st settlement, checkoutID, source string) {
	payment := st.payment
	fields := map[string]any{
		"payment_id":          payment.ID,
		"kind":                string(payment.Kind),
		"checkout_request_id": checkoutID,
		"result_code":         st.resultCode,
		"status":              string(payment.Status),
		"source":              source,
	}
	if payment.ForParticipation() {
		fields["round_id"] = payment.RoundID
	} else {
		fields["order_id"] = payment.OrderID
	}

	switch {
	case st.duplicate:
		if st.resultCode == 0 && payment.Status != models.PaymentCompleted {
			utils.Warn("success callback for a payment already resolved", fields)
		} else {
			utils.Info("duplicate callback ignored", fields)
		}
	case st.order != nil:
		utils.Info("order paid", fields)
		r.bus.Publish(ctx, events.New(events.OrderPaid, st.order.ID, events.OrderEvent{
			OrderID:     st.order.ID,
			CustomerID:  st.order.CustomerID,
			Kind:        string(st.order.Kind),
			TotalAmount: st.order.TotalAmount,
		}, r.now()))
	case st.participation != nil:
		utils.Info("participation paid", fields)
		r.bus.Publish(ctx, events.New(events.ParticipationPaid, st.participation.AuctionID, events.ParticipationEvent{
			ParticipationID: st.participation.ID,
			PaymentID:       payment.ID,
			AuctionID:       st.participation.AuctionID,
			RoundID:         st.participation.RoundID,
			UserID:          st.participation.UserID,
			FeePaid:         st.participation.FeePaid,
		}, r.now()))
	case st.resultCode == 0:
		fields["receipt_number"] = payment.ReceiptNumber
		fields["reason"] = payment.ResultDesc
		utils.Error("successful charge could not be applied, refund required", fields)
		r.publishPayment(ctx, payment)
	default:
		utils.Info("payment not completed", fields)
		r.publishPayment(ctx, payment)
	}
}

func parkedCallback(res CallbackResult, now time.Time) models.ParkedCallback {
	return models.ParkedCallback{
		CheckoutRequestID: res.CheckoutRequestID,
		MerchantRequestID: res.MerchantRequestID,
		ResultCode:        res.ResultCode,
		ResultDesc:        res.ResultDesc,
		ReceiptNumber:     res.ReceiptNumber,
		ReceivedAt:        now,
	}
}

func parkedResult(c models.ParkedCallback) CallbackResult {
	return CallbackResult{
		CheckoutRequestID: c.CheckoutRequestID,
		MerchantRequestID: c.MerchantRequestID,
		ResultCode:        c.ResultCode,
		ResultDesc:        c.ResultDesc,
		ReceiptNumber:     c.ReceiptNumber,
	}
}

// Status projects the latest payment attempt of a customer's order. It never
// writes: a pending payment past its timeout stays pending until swept.
func (r *Reconciler) Status(ctx context.Context, orderID, customerID string) (OrderPaymentStatus, error) {
	var out OrderPaymentStatus
	err := r.db.View(ctx, func(rd repository.LedgerReader) error {
		order, err := rd.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !(models.Actor{UserID: customerID}).CanAccess(order.CustomerID) {
			return biddingerrors.ErrOrderNotFound
		}
		out = OrderPaymentStatus{
			OrderID:       order.ID,
			PaymentStatus: PaymentUnpaid,
			OrderStatus:   order.Status,
			TotalAmount:   order.TotalAmount.StringFixed(2),
		}

		list, err := rd.ListPayments(ctx, order.ID)
		if err != nil {
			return err
		}
		if len(list) > 0 {
			p := list[0]
			updated := p.UpdatedAt
			out.PaymentID = p.ID
			out.PaymentStatus = string(p.Status)
			out.ReceiptNumber = p.ReceiptNumber
			out.ResultDesc = p.ResultDesc
			out.UpdatedAt = &updated
		}
		out.Message = statusMessages[out.PaymentStatus]
		return nil
	})
	if err != nil {
		return OrderPaymentStatus{}, fmt.Errorf("payments: status of order %s: %w", orderID, err)
	}
	return out, nil
}

// ParticipationStatus projects the user's entry into the auction's latest
// round and the payment attempt behind it.
func (r *Reconciler) ParticipationStatus(ctx context.Context, auctionID, userID string) (ParticipationPaymentStatus, error) {
	out := ParticipationPaymentStatus{AuctionID: auctionID, PaymentStatus: PaymentUnpaid}
	err := r.db.View(ctx, func(rd repository.LedgerReader) error {
		if _, err := rd.GetAuction(ctx, auctionID); err != nil {
			return err
		}
		round, err := rd.LatestRound(ctx, auctionID)
		if errors.Is(err, biddingerrors.ErrNoRounds) {
			return nil
		}
		if err != nil {
			return err
		}
		out.RoundID = round.ID
		out.RoundNumber = round.RoundNumber
		out.ParticipationFee = round.ParticipationFee.StringFixed(2)

		_, err = rd.GetParticipation(ctx, round.ID, userID)
		switch {
		case err == nil:
			out.HasPaid = true
		case !errors.Is(err, biddingerrors.ErrParticipationNotFound):
			return err
		}

		list, err := rd.ListRoundPayments(ctx, round.ID, userID)
		if err != nil {
			return err
		}
		if len(list) > 0 {
			p := list[0]
			updated := p.UpdatedAt
			out.PaymentID = p.ID
			out.PaymentStatus = string(p.Status)
			out.ReceiptNumber = p.ReceiptNumber
			out.ResultDesc = p.ResultDesc
			out.UpdatedAt = &updated
		}
		return nil
	})
	if err != nil {
		return ParticipationPaymentStatus{}, fmt.Errorf("payments: participation status in auction %s: %w", auctionID, err)
	}
	out.Message = statusMessages[out.PaymentStatus]
	if out.HasPaid {
		out.Message = "You are participating in this round."
	}
	return out, nil
}

// CancelPayment cancels a pending payment on behalf of an admin.
func (r *Reconciler) CancelPayment(ctx context.Context, paymentID string) (models.Payment, error) {
	var payment models.Payment
	err := r.db.Transact(ctx, func(tx repository.LedgerTx) error {
		p, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := lockOwner(ctx, tx, p); err != nil {
			return err
		}
		if p, err = tx.GetPayment(ctx, paymentID); err != nil {
			return err
		}
		if p.Status.Terminal() {
			return fmt.Errorf("%w - payment is %s", biddingerrors.ErrPaymentResolved, p.Status)
		}
		resolve(&p, models.PaymentCancelled, nil, "Cancelled by admin", r.now())
		payment = p
		return tx.UpdatePayment(ctx, p)
	})
	if err != nil {
		return models.Payment{}, fmt.Errorf("payments: cancel payment %s: %w", paymentID, err)
	}

	utils.Info("payment cancelled", map[string]any{"payment_id": payment.ID, "kind": string(payment.Kind)})
	r.publishPayment(ctx, payment)
	return payment, nil
}

// SweepExpired cancels pending payments older than the pending timeout and
// returns how many it cancelled. Parked callbacks past their retention are
// dropped.
func (r *Reconciler) SweepExpired(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.opts.PendingTimeout)

	var stale []models.Payment
	err := r.db.View(ctx, func(rd repository.LedgerReader) error {
		var err error
		stale, err = rd.ListPendingPaymentsBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("payments: list expired payments: %w", err)
	}

	swept := 0
	for _, candidate := range stale {
		var (
			payment   models.Payment
			cancelled bool
		)
		err := r.db.Transact(ctx, func(tx repository.LedgerTx) error {
			cancelled = false
			if err := lockOwner(ctx, tx, candidate); err != nil {
				return err
			}
			p, err := tx.GetPayment(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if p.Status != models.PaymentPending || !p.CreatedAt.Before(cutoff) {
				return nil
			}
			resolve(&p, models.PaymentCancelled, nil, "Payment timed out", r.now())
			payment, cancelled = p, true
			return tx.UpdatePayment(ctx, p)
		})
		if err != nil {
			return swept, fmt.Errorf("payments: expire payment %s: %w", candidate.ID, err)
		}
		if cancelled {
			swept++
			r.publishPayment(ctx, payment)
		}
	}

	if swept > 0 {
		utils.Info("expired payments cancelled", map[string]any{"count": swept})
	}

	var purged int
	err = r.db.Transact(ctx, func(tx repository.LedgerTx) error {
		var err error
		purged, err = tx.PurgeParkedCallbacks(ctx, r.now().Add(-r.opts.ParkedRetention))
		return err
	})
	if err != nil {
		return swept, fmt.Errorf("payments: purge parked callbacks: %w", err)
	}
	if purged > 0 {
		utils.Warn("unmatched callbacks dropped", map[string]any{"count": purged})
	}
	return swept, nil
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (r *Reconciler) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.SweepExpired(ctx); err != nil && ctx.Err() == nil {
				utils.Error("payment sweep failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// ListForCustomer returns the customer's most recent payments, newest first.
func (r *Reconciler) ListForCustomer(ctx context.Context, customerID string) ([]models.Payment, error) {
	if customerID == "" {
		return nil, fmt.Errorf("payments: %w", biddingerrors.ErrUnauthorized)
	}
	var out []models.Payment
	err := r.db.View(ctx, func(rd repository.LedgerReader) error {
		var err error
		out, err = rd.ListPaymentsByCustomer(ctx, customerID, HistoryLimit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("payments: list payments of %s: %w", customerID, err)
	}
	return out, nil
}

func resolve(p *models.Payment, status models.PaymentStatus, code *int, desc string, now time.Time) {
	p.Status = status
	p.ResultCode = code
	p.ResultDesc = desc
	p.UpdatedAt = now
	p.ResolvedAt = &now
}

func (r *Reconciler) publishPayment(ctx context.Context, p models.Payment) {
	t := events.PaymentFailed
	if p.Status == models.PaymentCancelled {
		t = events.PaymentCancelled
	}
	r.bus.Publish(ctx, events.New(t, p.ID, events.PaymentEvent{
		PaymentID:  p.ID,
		Kind:       string(p.Kind),
		OrderID:    p.OrderID,
		RoundID:    p.RoundID,
		Status:     string(p.Status),
		ResultCode: p.ResultCode,
		ResultDesc: p.ResultDesc,
	}, r.now()))
}
