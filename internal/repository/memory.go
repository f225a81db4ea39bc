package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/btree"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/models"
	"bidding-engine/internal/ranking"
)

const bidIndexDegree = 16

// MemoryRepo is a concurrency-safe in-memory implementation of LedgerDB.
// Write transactions are serialized under one lock and undone on failure,
// which gives serializable isolation.
type MemoryRepo struct {
	mu sync.RWMutex

	auctions map[string]models.Auction

	rounds          map[string]models.Round
	roundsByAuction map[string][]string // key: auctionID -> round ids by round_number

	participations        map[string]models.Participation
	participationByKey    map[string]string   // key: roundID|userID -> participation id
	participationsByRound map[string][]string // key: roundID -> participation ids

	bids     map[string]models.Bid
	bidIndex map[string]*btree.BTreeG[models.Bid] // key: roundID -> bids in rank order

	orders            map[string]models.Order
	ordersByCustomer  map[string][]string
	orderByWinningBid map[string]string
	orderByIdemKey    map[string]string // key: customerID|idempotencyKey

	payments           map[string]models.Payment
	paymentByProvider  map[string]string
	paymentsByOrder    map[string][]string
	paymentsByCustomer map[string][]string
	paymentsByRound    map[string][]string // key: roundID|customerID

	parked map[string]models.ParkedCallback // key: checkout request id
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:              make(map[string]models.Auction),
		rounds:                make(map[string]models.Round),
		roundsByAuction:       make(map[string][]string),
		participations:        make(map[string]models.Participation),
		participationByKey:    make(map[string]string),
		participationsByRound: make(map[string][]string),
		bids:                  make(map[string]models.Bid),
		bidIndex:              make(map[string]*btree.BTreeG[models.Bid]),
		orders:                make(map[string]models.Order),
		ordersByCustomer:      make(map[string][]string),
		orderByWinningBid:     make(map[string]string),
		orderByIdemKey:        make(map[string]string),
		payments:              make(map[string]models.Payment),
		paymentByProvider:     make(map[string]string),
		paymentsByOrder:       make(map[string][]string),
		paymentsByCustomer:    make(map[string][]string),
		paymentsByRound:       make(map[string][]string),
		parked:                make(map[string]models.ParkedCallback),
	}
}

// Transact runs fn under the write lock and rolls back every write on error.
func (r *MemoryRepo) Transact(ctx context.Context, fn func(tx LedgerTx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memTx{repo: r}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
		if err != nil {
			tx.rollback()
		}
	}()

	return fn(tx)
}

// View runs fn under the read lock.
func (r *MemoryRepo) View(ctx context.Context, fn func(r LedgerReader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return fn(&memTx{repo: r})
}

type memTx struct {
	repo *MemoryRepo
	undo []func()
}

func (tx *memTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func put[V any](tx *memTx, m map[string]V, key string, v V) {
	prev, existed := m[key]
	m[key] = v
	tx.undo = append(tx.undo, func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

func appendIndex(tx *memTx, m map[string][]string, key, id string) {
	prev := m[key]
	m[key] = append(prev[:len(prev):len(prev)], id)
	tx.undo = append(tx.undo, func() {
		if prev == nil {
			delete(m, key)
		} else {
			m[key] = prev
		}
	})
}

func compositeKey(a, b string) string { return a + "|" + b }

// ---- auctions

func (tx *memTx) GetAuction(ctx context.Context, id string) (models.Auction, error) {
	a, ok := tx.repo.auctions[id]
	if !ok {
		return models.Auction{}, fmt.Errorf("get auction %s: %w", id, biddingerrors.ErrAuctionNotFound)
	}
	return a, nil
}

func (tx *memTx) LockAuction(ctx context.Context, id string) (models.Auction, error) {
	return tx.GetAuction(ctx, id)
}

func (tx *memTx) InsertAuction(ctx context.Context, a models.Auction) error {
	if _, ok := tx.repo.auctions[a.ID]; ok {
		return fmt.Errorf("insert auction %s: %w", a.ID, biddingerrors.ErrDuplicateRecord)
	}
	put(tx, tx.repo.auctions, a.ID, a)
	return nil
}

func (tx *memTx) UpdateAuction(ctx context.Context, a models.Auction) error {
	if _, ok := tx.repo.auctions[a.ID]; !ok {
		return fmt.Errorf("update auction %s: %w", a.ID, biddingerrors.ErrAuctionNotFound)
	}
	put(tx, tx.repo.auctions, a.ID, a)
	return nil
}

// ---- rounds

func (tx *memTx) GetRound(ctx context.Context, id string) (models.Round, error) {
	rd, ok := tx.repo.rounds[id]
	if !ok {
		return models.Round{}, fmt.Errorf("get round %s: %w", id, biddingerrors.ErrRoundNotFound)
	}
	return rd, nil
}

func (tx *memTx) LockRound(ctx context.Context, id string) (models.Round, error) {
	return tx.GetRound(ctx, id)
}

func (tx *memTx) LatestRound(ctx context.Context, auctionID string) (models.Round, error) {
	ids := tx.repo.roundsByAuction[auctionID]
	if len(ids) == 0 {
		return models.Round{}, fmt.Errorf("latest round for auction %s: %w", auctionID, biddingerrors.ErrNoRounds)
	}
	return tx.repo.rounds[ids[len(ids)-1]], nil
}

func (tx *memTx) ListRounds(ctx context.Context, auctionID string) ([]models.Round, error) {
	ids := tx.repo.roundsByAuction[auctionID]
	out := make([]models.Round, 0, len(ids))
	for _, id := range ids {
		out = append(out, tx.repo.rounds[id])
	}
	return out, nil
}

func (tx *memTx) InsertRound(ctx context.Context, rd models.Round) error {
	if _, ok := tx.repo.auctions[rd.AuctionID]; !ok {
		return fmt.Errorf("insert round for auction %s: %w", rd.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	if _, ok := tx.repo.rounds[rd.ID]; ok {
		return fmt.Errorf("insert round %s: %w", rd.ID, biddingerrors.ErrDuplicateRecord)
	}

	ids := tx.repo.roundsByAuction[rd.AuctionID]
	if rd.RoundNumber != len(ids)+1 {
		return fmt.Errorf("insert round %d for auction %s: %w - round numbers must be gapless", rd.RoundNumber, rd.AuctionID, biddingerrors.ErrDuplicateRecord)
	}
	if len(ids) > 0 && tx.repo.rounds[ids[len(ids)-1]].Status == models.RoundOpen {
		return fmt.Errorf("insert round for auction %s: %w", rd.AuctionID, biddingerrors.ErrPriorRoundStillOpen)
	}

	put(tx, tx.repo.rounds, rd.ID, rd)
	appendIndex(tx, tx.repo.roundsByAuction, rd.AuctionID, rd.ID)
	return nil
}

func (tx *memTx) UpdateRound(ctx context.Context, rd models.Round) error {
	if _, ok := tx.repo.rounds[rd.ID]; !ok {
		return fmt.Errorf("update round %s: %w", rd.ID, biddingerrors.ErrRoundNotFound)
	}
	put(tx, tx.repo.rounds, rd.ID, rd)
	return nil
}

// ---- participations

func (tx *memTx) GetParticipation(ctx context.Context, roundID, userID string) (models.Participation, error) {
	id, ok := tx.repo.participationByKey[compositeKey(roundID, userID)]
	if !ok {
		return models.Participation{}, fmt.Errorf("get participation of user %s in round %s: %w", userID, roundID, biddingerrors.ErrParticipationNotFound)
	}
	return tx.repo.participations[id], nil
}

func (tx *memTx) ListParticipations(ctx context.Context, roundID string) ([]models.Participation, error) {
	ids := tx.repo.participationsByRound[roundID]
	out := make([]models.Participation, 0, len(ids))
	for _, id := range ids {
		out = append(out, tx.repo.participations[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].PaidAt.Before(out[j].PaidAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (tx *memTx) InsertParticipation(ctx context.Context, p models.Participation) error {
	if _, ok := tx.repo.rounds[p.RoundID]; !ok {
		return fmt.Errorf("insert participation for round %s: %w", p.RoundID, biddingerrors.ErrRoundNotFound)
	}
	key := compositeKey(p.RoundID, p.UserID)
	if _, ok := tx.repo.participationByKey[key]; ok {
		return fmt.Errorf("insert participation of user %s in round %s: %w", p.UserID, p.RoundID, biddingerrors.ErrDuplicateParticipation)
	}

	put(tx, tx.repo.participations, p.ID, p)
	put(tx, tx.repo.participationByKey, key, p.ID)
	appendIndex(tx, tx.repo.participationsByRound, p.RoundID, p.ID)
	return nil
}

// ---- bids

func (tx *memTx) ListBids(ctx context.Context, roundID string) ([]models.Bid, error) {
	idx, ok := tx.repo.bidIndex[roundID]
	if !ok {
		return []models.Bid{}, nil
	}
	out := make([]models.Bid, 0, idx.Len())
	idx.Ascend(func(b models.Bid) bool {
		out = append(out, tx.repo.bids[b.ID])
		return true
	})
	return out, nil
}

func (tx *memTx) InsertBid(ctx context.Context, b models.Bid) error {
	if _, ok := tx.repo.rounds[b.RoundID]; !ok {
		return fmt.Errorf("insert bid for round %s: %w", b.RoundID, biddingerrors.ErrRoundNotFound)
	}
	if _, ok := tx.repo.bids[b.ID]; ok {
		return fmt.Errorf("insert bid %s: %w", b.ID, biddingerrors.ErrDuplicateRecord)
	}

	idx, ok := tx.repo.bidIndex[b.RoundID]
	if !ok {
		idx = btree.NewG[models.Bid](bidIndexDegree, ranking.Less)
		tx.repo.bidIndex[b.RoundID] = idx
	}

	put(tx, tx.repo.bids, b.ID, b)
	idx.ReplaceOrInsert(b)
	tx.undo = append(tx.undo, func() { idx.Delete(b) })
	return nil
}

func (tx *memTx) MarkWinner(ctx context.Context, bidID string) error {
	b, ok := tx.repo.bids[bidID]
	if !ok {
		return fmt.Errorf("mark winner %s: bid not found", bidID)
	}

	var conflict bool
	tx.repo.bidIndex[b.RoundID].Ascend(func(other models.Bid) bool {
		if other.ID != bidID && tx.repo.bids[other.ID].IsWinner {
			conflict = true
			return false
		}
		return true
	})
	if conflict {
		return fmt.Errorf("mark winner %s in round %s: %w", bidID, b.RoundID, biddingerrors.ErrDuplicateRecord)
	}

	b.IsWinner = true
	put(tx, tx.repo.bids, b.ID, b)
	return nil
}

// ---- orders

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

func (tx *memTx) GetOrder(ctx context.Context, id string) (models.Order, error) {
	o, ok := tx.repo.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("get order %s: %w", id, biddingerrors.ErrOrderNotFound)
	}
	return cloneOrder(o), nil
}

func (tx *memTx) LockOrder(ctx context.Context, id string) (models.Order, error) {
	return tx.GetOrder(ctx, id)
}

func (tx *memTx) FindOrderByWinningBid(ctx context.Context, bidID string) (models.Order, error) {
	id, ok := tx.repo.orderByWinningBid[bidID]
	if !ok {
		return models.Order{}, fmt.Errorf("find order for winning bid %s: %w", bidID, biddingerrors.ErrOrderNotFound)
	}
	return cloneOrder(tx.repo.orders[id]), nil
}

func (tx *memTx) FindOrderByIdempotencyKey(ctx context.Context, customerID, key string) (models.Order, error) {
	id, ok := tx.repo.orderByIdemKey[compositeKey(customerID, key)]
	if !ok {
		return models.Order{}, fmt.Errorf("find order by idempotency key: %w", biddingerrors.ErrOrderNotFound)
	}
	return cloneOrder(tx.repo.orders[id]), nil
}

// ListOrders returns the customer's orders, or every order when customerID
// is empty, newest first.
func (tx *memTx) ListOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	var out []models.Order
	if customerID == "" {
		out = make([]models.Order, 0, len(tx.repo.orders))
		for _, o := range tx.repo.orders {
			out = append(out, cloneOrder(o))
		}
	} else {
		ids := tx.repo.ordersByCustomer[customerID]
		out = make([]models.Order, 0, len(ids))
		for _, id := range ids {
			out = append(out, cloneOrder(tx.repo.orders[id]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (tx *memTx) InsertOrder(ctx context.Context, o models.Order) error {
	if _, ok := tx.repo.orders[o.ID]; ok {
		return fmt.Errorf("insert order %s: %w", o.ID, biddingerrors.ErrDuplicateRecord)
	}
	if o.WinningBidID != "" {
		if _, ok := tx.repo.orderByWinningBid[o.WinningBidID]; ok {
			return fmt.Errorf("insert order for winning bid %s: %w", o.WinningBidID, biddingerrors.ErrDuplicateRecord)
		}
	}
	idemKey := compositeKey(o.CustomerID, o.IdempotencyKey)
	if o.IdempotencyKey != "" {
		if _, ok := tx.repo.orderByIdemKey[idemKey]; ok {
			return fmt.Errorf("insert order with idempotency key: %w", biddingerrors.ErrDuplicateRecord)
		}
	}

	put(tx, tx.repo.orders, o.ID, cloneOrder(o))
	appendIndex(tx, tx.repo.ordersByCustomer, o.CustomerID, o.ID)
	if o.WinningBidID != "" {
		put(tx, tx.repo.orderByWinningBid, o.WinningBidID, o.ID)
	}
	if o.IdempotencyKey != "" {
		put(tx, tx.repo.orderByIdemKey, idemKey, o.ID)
	}
	return nil
}

// UpdateOrder replaces the order header; line items are immutable.
func (tx *memTx) UpdateOrder(ctx context.Context, o models.Order) error {
	existing, ok := tx.repo.orders[o.ID]
	if !ok {
		return fmt.Errorf("update order %s: %w", o.ID, biddingerrors.ErrOrderNotFound)
	}
	o.Items = existing.Items
	put(tx, tx.repo.orders, o.ID, o)
	return nil
}

// ---- payments

func (tx *memTx) GetPayment(ctx context.Context, id string) (models.Payment, error) {
	p, ok := tx.repo.payments[id]
	if !ok {
		return models.Payment{}, fmt.Errorf("get payment %s: %w", id, biddingerrors.ErrPaymentNotFound)
	}
	return p, nil
}

func (tx *memTx) GetPaymentByProviderID(ctx context.Context, providerTxnID string) (models.Payment, error) {
	id, ok := tx.repo.paymentByProvider[providerTxnID]
	if !ok {
		return models.Payment{}, fmt.Errorf("get payment by provider id %s: %w", providerTxnID, biddingerrors.ErrPaymentNotFound)
	}
	return tx.repo.payments[id], nil
}

func (tx *memTx) LockPaymentByProviderID(ctx context.Context, providerTxnID string) (models.Payment, error) {
	return tx.GetPaymentByProviderID(ctx, providerTxnID)
}

// newestFirst orders payments by creation time, newest first, falling back
// to reverse insertion order.
func (tx *memTx) newestFirst(ids []string) []models.Payment {
	out := make([]models.Payment, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, tx.repo.payments[ids[i]])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (tx *memTx) ListPayments(ctx context.Context, orderID string) ([]models.Payment, error) {
	return tx.newestFirst(tx.repo.paymentsByOrder[orderID]), nil
}

func (tx *memTx) ListPaymentsByCustomer(ctx context.Context, customerID string, limit int) ([]models.Payment, error) {
	out := tx.newestFirst(tx.repo.paymentsByCustomer[customerID])
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (tx *memTx) ListPendingPaymentsBefore(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range tx.repo.payments {
		if p.Status == models.PaymentPending && p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (tx *memTx) ListRoundPayments(ctx context.Context, roundID, customerID string) ([]models.Payment, error) {
	return tx.newestFirst(tx.repo.paymentsByRound[compositeKey(roundID, customerID)]), nil
}

func (tx *memTx) InsertPayment(ctx context.Context, p models.Payment) error {
	if p.ForParticipation() {
		if _, ok := tx.repo.rounds[p.RoundID]; !ok {
			return fmt.Errorf("insert payment for round %s: %w", p.RoundID, biddingerrors.ErrRoundNotFound)
		}
	} else if _, ok := tx.repo.orders[p.OrderID]; !ok {
		return fmt.Errorf("insert payment for order %s: %w", p.OrderID, biddingerrors.ErrOrderNotFound)
	}
	if _, ok := tx.repo.payments[p.ID]; ok {
		return fmt.Errorf("insert payment %s: %w", p.ID, biddingerrors.ErrDuplicateRecord)
	}
	if err := tx.checkPaymentConstraints(p); err != nil {
		return err
	}

	put(tx, tx.repo.payments, p.ID, p)
	if p.ForParticipation() {
		appendIndex(tx, tx.repo.paymentsByRound, compositeKey(p.RoundID, p.CustomerID), p.ID)
	} else {
		appendIndex(tx, tx.repo.paymentsByOrder, p.OrderID, p.ID)
	}
	appendIndex(tx, tx.repo.paymentsByCustomer, p.CustomerID, p.ID)
	if p.ProviderTransactionID != nil {
		put(tx, tx.repo.paymentByProvider, *p.ProviderTransactionID, p.ID)
	}
	return nil
}

func (tx *memTx) UpdatePayment(ctx context.Context, p models.Payment) error {
	existing, ok := tx.repo.payments[p.ID]
	if !ok {
		return fmt.Errorf("update payment %s: %w", p.ID, biddingerrors.ErrPaymentNotFound)
	}
	if err := tx.checkPaymentConstraints(p); err != nil {
		return err
	}

	put(tx, tx.repo.payments, p.ID, p)
	if existing.ProviderTransactionID == nil && p.ProviderTransactionID != nil {
		put(tx, tx.repo.paymentByProvider, *p.ProviderTransactionID, p.ID)
	}
	return nil
}

// checkPaymentConstraints enforces the unique provider id and the single
// completed payment per order, or per round and customer.
func (tx *memTx) checkPaymentConstraints(p models.Payment) error {
	if p.ProviderTransactionID != nil {
		if id, ok := tx.repo.paymentByProvider[*p.ProviderTransactionID]; ok && id != p.ID {
			return fmt.Errorf("payment provider id %s: %w", *p.ProviderTransactionID, biddingerrors.ErrDuplicateRecord)
		}
	}
	if p.Status != models.PaymentCompleted {
		return nil
	}
	siblings, owner := tx.repo.paymentsByOrder[p.OrderID], "order "+p.OrderID
	if p.ForParticipation() {
		siblings, owner = tx.repo.paymentsByRound[compositeKey(p.RoundID, p.CustomerID)], "round "+p.RoundID
	}
	for _, id := range siblings {
		if id != p.ID && tx.repo.payments[id].Status == models.PaymentCompleted {
			return fmt.Errorf("second completed payment for %s: %w", owner, biddingerrors.ErrDuplicateRecord)
		}
	}
	return nil
}

// ---- parked callbacks

func (tx *memTx) ParkCallback(ctx context.Context, c models.ParkedCallback) error {
	if _, ok := tx.repo.parked[c.CheckoutRequestID]; ok {
		return nil
	}
	put(tx, tx.repo.parked, c.CheckoutRequestID, c)
	return nil
}

func (tx *memTx) TakeParkedCallback(ctx context.Context, checkoutRequestID string) (models.ParkedCallback, error) {
	c, ok := tx.repo.parked[checkoutRequestID]
	if !ok {
		return models.ParkedCallback{}, fmt.Errorf("take parked callback %s: %w", checkoutRequestID, biddingerrors.ErrCallbackNotParked)
	}
	tx.remove(tx.repo.parked, checkoutRequestID)
	return c, nil
}

func (tx *memTx) PurgeParkedCallbacks(ctx context.Context, before time.Time) (int, error) {
	purged := 0
	for id, c := range tx.repo.parked {
		if c.ReceivedAt.Before(before) {
			tx.remove(tx.repo.parked, id)
			purged++
		}
	}
	return purged, nil
}

func (tx *memTx) remove(m map[string]models.ParkedCallback, key string) {
	prev := m[key]
	delete(m, key)
	tx.undo = append(tx.undo, func() { m[key] = prev })
}
