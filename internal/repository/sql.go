package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/models"
	"bidding-engine/utils"
)

// MySQL error numbers the ledger reacts to.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlMissingParent   = 1452
)

// SQLRepo is the durable LedgerDB on MySQL/InnoDB. Writers lock the rows they
// change with SELECT ... FOR UPDATE; the remaining invariants are unique keys.
type SQLRepo struct {
	db    *sqlx.DB
	retry utils.RetryPolicy
}

// NewSQLRepo wraps an open connection pool.
func NewSQLRepo(db *sqlx.DB) *SQLRepo {
	return &SQLRepo{db: db, retry: utils.DefaultRetryPolicy}
}

// OpenSQLRepo connects to MySQL. The DSN is forced to parse DATETIME columns
// as UTC time.Time values.
func OpenSQLRepo(ctx context.Context, dsn string) (*SQLRepo, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true

	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("repository: connect: %w", err)
	}
	return NewSQLRepo(db), nil
}

// Close releases the connection pool.
func (r *SQLRepo) Close() error {
	return r.db.Close()
}

// Transact runs fn in one InnoDB transaction. Deadlocks and lock-wait
// timeouts abort the attempt and the whole fn is retried with backoff.
func (r *SQLRepo) Transact(ctx context.Context, fn func(tx LedgerTx) error) error {
	return utils.Retry(ctx, r.retry, isContention, func(ctx context.Context) error {
		return r.transactOnce(ctx, fn)
	})
}

func (r *SQLRepo) transactOnce(ctx context.Context, fn func(tx LedgerTx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = fn(&sqlTx{tx: tx})
	if err != nil {
		return err
	}
	return classify("commit", tx.Commit())
}

// View runs fn in a read-only transaction, so every read sees one snapshot.
func (r *SQLRepo) View(ctx context.Context, fn func(r LedgerReader) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return classify("begin read transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	return classify("commit read transaction", tx.Commit())
}

func isContention(err error) bool {
	return errors.Is(err, biddingerrors.ErrStoreContention)
}

// classify maps driver errors onto ledger errors.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDeadlock, mysqlLockWaitTimeout:
			return fmt.Errorf("%s: %w: %s", op, biddingerrors.ErrStoreContention, me.Message)
		case mysqlDuplicateEntry:
			switch {
			case strings.Contains(me.Message, "uq_participation_round_user"):
				return fmt.Errorf("%s: %w", op, biddingerrors.ErrDuplicateParticipation)
			case strings.Contains(me.Message, "uq_round_open"):
				return fmt.Errorf("%s: %w", op, biddingerrors.ErrPriorRoundStillOpen)
			}
			return fmt.Errorf("%s: %w: %s", op, biddingerrors.ErrDuplicateRecord, me.Message)
		case mysqlMissingParent:
			return fmt.Errorf("%s: referenced row missing: %w", op, biddingerrors.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// notFound maps sql.ErrNoRows onto the given sentinel.
func notFound(op string, err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, sentinel)
	}
	return classify(op, err)
}

type sqlTx struct {
	tx *sqlx.Tx
}

func (t *sqlTx) exec(ctx context.Context, op, query string, arg any) error {
	_, err := t.tx.NamedExecContext(ctx, query, arg)
	return classify(op, err)
}

// execOne runs a named update and requires it to touch one row.
func (t *sqlTx) execOne(ctx context.Context, op, query string, arg any, missing error) error {
	res, err := t.tx.NamedExecContext(ctx, query, arg)
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, missing)
	}
	return nil
}

// ---- auctions

const auctionColumns = `id, title, product_type, base_price, buy_now_price, participation_fee,
	min_pledge, max_pledge, stock_quantity, units_sold, status, winner_id, winning_bid_id,
	winning_amount, created_at, updated_at`

var getAuctionQuery = "SELECT " + auctionColumns + " FROM auctions WHERE id = ?"

func (t *sqlTx) GetAuction(ctx context.Context, id string) (models.Auction, error) {
	var a models.Auction
	err := t.tx.GetContext(ctx, &a, getAuctionQuery, id)
	return a, notFound("get auction "+id, err, biddingerrors.ErrAuctionNotFound)
}

func (t *sqlTx) LockAuction(ctx context.Context, id string) (models.Auction, error) {
	var a models.Auction
	err := t.tx.GetContext(ctx, &a, getAuctionQuery+" FOR UPDATE", id)
	return a, notFound("lock auction "+id, err, biddingerrors.ErrAuctionNotFound)
}

var insertAuctionQuery = `INSERT INTO auctions (` + auctionColumns + `) VALUES (
	:id, :title, :product_type, :base_price, :buy_now_price, :participation_fee,
	:min_pledge, :max_pledge, :stock_quantity, :units_sold, :status, :winner_id, :winning_bid_id,
	:winning_amount, :created_at, :updated_at)`

func (t *sqlTx) InsertAuction(ctx context.Context, a models.Auction) error {
	return t.exec(ctx, "insert auction "+a.ID, insertAuctionQuery, a)
}

var updateAuctionQuery = `UPDATE auctions SET title = :title, product_type = :product_type,
	base_price = :base_price, buy_now_price = :buy_now_price, participation_fee = :participation_fee,
	min_pledge = :min_pledge, max_pledge = :max_pledge, stock_quantity = :stock_quantity,
	units_sold = :units_sold, status = :status, winner_id = :winner_id, winning_bid_id = :winning_bid_id,
	winning_amount = :winning_amount, updated_at = :updated_at
	WHERE id = :id`

func (t *sqlTx) UpdateAuction(ctx context.Context, a models.Auction) error {
	if _, err := t.GetAuction(ctx, a.ID); err != nil {
		return err
	}
	return t.exec(ctx, "update auction "+a.ID, updateAuctionQuery, a)
}

// ---- rounds

const roundColumns = `id, auction_id, round_number, base_price, participation_fee, min_pledge,
	max_pledge, status, close_reason, outcome, winning_bid_id, participant_count, fee_revenue,
	opened_at, closed_at`

var getRoundQuery = "SELECT " + roundColumns + " FROM rounds WHERE id = ?"

func (t *sqlTx) GetRound(ctx context.Context, id string) (models.Round, error) {
	var rd models.Round
	err := t.tx.GetContext(ctx, &rd, getRoundQuery, id)
	return rd, notFound("get round "+id, err, biddingerrors.ErrRoundNotFound)
}

func (t *sqlTx) LockRound(ctx context.Context, id string) (models.Round, error) {
	var rd models.Round
	err := t.tx.GetContext(ctx, &rd, getRoundQuery+" FOR UPDATE", id)
	return rd, notFound("lock round "+id, err, biddingerrors.ErrRoundNotFound)
}

var latestRoundQuery = "SELECT " + roundColumns + " FROM rounds WHERE auction_id = ? ORDER BY round_number DESC LIMIT 1"

func (t *sqlTx) LatestRound(ctx context.Context, auctionID string) (models.Round, error) {
	var rd models.Round
	err := t.tx.GetContext(ctx, &rd, latestRoundQuery, auctionID)
	return rd, notFound("latest round for auction "+auctionID, err, biddingerrors.ErrNoRounds)
}

var listRoundsQuery = "SELECT " + roundColumns + " FROM rounds WHERE auction_id = ? ORDER BY round_number"

func (t *sqlTx) ListRounds(ctx context.Context, auctionID string) ([]models.Round, error) {
	res := []models.Round{}
	err := t.tx.SelectContext(ctx, &res, listRoundsQuery, auctionID)
	return res, classify("list rounds", err)
}

var insertRoundQuery = `INSERT INTO rounds (` + roundColumns + `) VALUES (
	:id, :auction_id, :round_number, :base_price, :participation_fee, :min_pledge,
	:max_pledge, :status, :close_reason, :outcome, :winning_bid_id, :participant_count, :fee_revenue,
	:opened_at, :closed_at)`

func (t *sqlTx) InsertRound(ctx context.Context, rd models.Round) error {
	return t.exec(ctx, "insert round "+rd.ID, insertRoundQuery, rd)
}

var updateRoundQuery = `UPDATE rounds SET status = :status, close_reason = :close_reason,
	outcome = :outcome, winning_bid_id = :winning_bid_id, participant_count = :participant_count,
	fee_revenue = :fee_revenue, closed_at = :closed_at
	WHERE id = :id`

func (t *sqlTx) UpdateRound(ctx context.Context, rd models.Round) error {
	if _, err := t.GetRound(ctx, rd.ID); err != nil {
		return err
	}
	return t.exec(ctx, "update round "+rd.ID, updateRoundQuery, rd)
}

// ---- participations

const participationColumns = "id, round_id, auction_id, user_id, fee_paid, paid_at"

var getParticipationQuery = "SELECT " + participationColumns + " FROM participations WHERE round_id = ? AND user_id = ?"

func (t *sqlTx) GetParticipation(ctx context.Context, roundID, userID string) (models.Participation, error) {
	var p models.Participation
	err := t.tx.GetContext(ctx, &p, getParticipationQuery, roundID, userID)
	return p, notFound("get participation", err, biddingerrors.ErrParticipationNotFound)
}

var listParticipationsQuery = "SELECT " + participationColumns + " FROM participations WHERE round_id = ? ORDER BY paid_at, id"

func (t *sqlTx) ListParticipations(ctx context.Context, roundID string) ([]models.Participation, error) {
	res := []models.Participation{}
	err := t.tx.SelectContext(ctx, &res, listParticipationsQuery, roundID)
	return res, classify("list participations", err)
}

var insertParticipationQuery = "INSERT INTO participations (" + participationColumns + ") VALUES (:id, :round_id, :auction_id, :user_id, :fee_paid, :paid_at)"

func (t *sqlTx) InsertParticipation(ctx context.Context, p models.Participation) error {
	return t.exec(ctx, "insert participation "+p.ID, insertParticipationQuery, p)
}

// ---- bids

const bidColumns = "id, round_id, auction_id, user_id, pledge_amount, submitted_at, is_valid, is_winner"

var listBidsQuery = "SELECT " + bidColumns + " FROM bids WHERE round_id = ? ORDER BY pledge_amount DESC, submitted_at ASC, id ASC"

func (t *sqlTx) ListBids(ctx context.Context, roundID string) ([]models.Bid, error) {
	res := []models.Bid{}
	err := t.tx.SelectContext(ctx, &res, listBidsQuery, roundID)
	return res, classify("list bids", err)
}

var insertBidQuery = "INSERT INTO bids (" + bidColumns + ") VALUES (:id, :round_id, :auction_id, :user_id, :pledge_amount, :submitted_at, :is_valid, :is_winner)"

func (t *sqlTx) InsertBid(ctx context.Context, b models.Bid) error {
	return t.exec(ctx, "insert bid "+b.ID, insertBidQuery, b)
}

var markWinnerQuery = "UPDATE bids SET is_winner = TRUE WHERE id = :id"

func (t *sqlTx) MarkWinner(ctx context.Context, bidID string) error {
	return t.execOne(ctx, "mark winner "+bidID, markWinnerQuery, map[string]any{"id": bidID}, biddingerrors.ErrNotFound)
}

// ---- orders

const orderColumns = `id, customer_id, kind, winning_bid_id, auction_id, subtotal, total_amount, status,
	shipping_name, shipping_phone, shipping_address, shipping_city, customer_notes, idempotency_key,
	created_at, updated_at, paid_at`

const orderItemColumns = "order_id, auction_id, title, unit_price, quantity, line_total"

var getOrderQuery = "SELECT " + orderColumns + " FROM orders WHERE id = ?"

func (t *sqlTx) getOrder(ctx context.Context, op, query string, args ...any) (models.Order, error) {
	var o models.Order
	if err := t.tx.GetContext(ctx, &o, query, args...); err != nil {
		return models.Order{}, notFound(op, err, biddingerrors.ErrOrderNotFound)
	}
	orders := []models.Order{o}
	if err := t.loadItems(ctx, orders); err != nil {
		return models.Order{}, err
	}
	return orders[0], nil
}

var listItemsQuery = "SELECT " + orderItemColumns + " FROM order_items WHERE order_id IN (?) ORDER BY order_id, auction_id"

// loadItems fills in the line items of buy-now orders.
func (t *sqlTx) loadItems(ctx context.Context, orders []models.Order) error {
	ids := make([]string, 0, len(orders))
	byID := make(map[string]int, len(orders))
	for i, o := range orders {
		if o.Kind == models.OrderBuyNow {
			ids = append(ids, o.ID)
			byID[o.ID] = i
		}
	}
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(listItemsQuery, ids)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	var items []models.OrderItem
	if err := t.tx.SelectContext(ctx, &items, t.tx.Rebind(query), args...); err != nil {
		return classify("list order items", err)
	}
	for _, it := range items {
		i := byID[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return nil
}

func (t *sqlTx) GetOrder(ctx context.Context, id string) (models.Order, error) {
	return t.getOrder(ctx, "get order "+id, getOrderQuery, id)
}

func (t *sqlTx) LockOrder(ctx context.Context, id string) (models.Order, error) {
	return t.getOrder(ctx, "lock order "+id, getOrderQuery+" FOR UPDATE", id)
}

var orderByWinningBidQuery = "SELECT " + orderColumns + " FROM orders WHERE winning_bid_id = ?"

func (t *sqlTx) FindOrderByWinningBid(ctx context.Context, bidID string) (models.Order, error) {
	return t.getOrder(ctx, "find order for winning bid "+bidID, orderByWinningBidQuery, bidID)
}

var orderByIdempotencyKeyQuery = "SELECT " + orderColumns + " FROM orders WHERE customer_id = ? AND idempotency_key = ?"

func (t *sqlTx) FindOrderByIdempotencyKey(ctx context.Context, customerID, key string) (models.Order, error) {
	return t.getOrder(ctx, "find order by idempotency key", orderByIdempotencyKeyQuery, customerID, key)
}

var (
	listOrdersQuery         = "SELECT " + orderColumns + " FROM orders ORDER BY created_at DESC, id DESC"
	listCustomerOrdersQuery = "SELECT " + orderColumns + " FROM orders WHERE customer_id = ? ORDER BY created_at DESC, id DESC"
)

func (t *sqlTx) ListOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	res := []models.Order{}
	var err error
	if customerID == "" {
		err = t.tx.SelectContext(ctx, &res, listOrdersQuery)
	} else {
		err = t.tx.SelectContext(ctx, &res, listCustomerOrdersQuery, customerID)
	}
	if err != nil {
		return nil, classify("list orders", err)
	}
	return res, t.loadItems(ctx, res)
}

var insertOrderQuery = `INSERT INTO orders (` + orderColumns + `) VALUES (
	:id, :customer_id, :kind, :winning_bid_id, :auction_id, :subtotal, :total_amount, :status,
	:shipping_name, :shipping_phone, :shipping_address, :shipping_city, :customer_notes, :idempotency_key,
	:created_at, :updated_at, :paid_at)`

var insertOrderItemQuery = "INSERT INTO order_items (" + orderItemColumns + ") VALUES (:order_id, :auction_id, :title, :unit_price, :quantity, :line_total)"

func (t *sqlTx) InsertOrder(ctx context.Context, o models.Order) error {
	if err := t.exec(ctx, "insert order "+o.ID, insertOrderQuery, o); err != nil {
		return err
	}
	for _, it := range o.Items {
		it.OrderID = o.ID
		if err := t.exec(ctx, "insert order item", insertOrderItemQuery, it); err != nil {
			return err
		}
	}
	return nil
}

var updateOrderQuery = `UPDATE orders SET status = :status, shipping_name = :shipping_name,
	shipping_phone = :shipping_phone, shipping_address = :shipping_address, shipping_city = :shipping_city,
	customer_notes = :customer_notes, updated_at = :updated_at, paid_at = :paid_at
	WHERE id = :id`

func (t *sqlTx) UpdateOrder(ctx context.Context, o models.Order) error {
	if _, err := t.GetOrder(ctx, o.ID); err != nil {
		return err
	}
	return t.exec(ctx, "update order "+o.ID, updateOrderQuery, o)
}

// ---- payments

const paymentColumns = `id, kind, order_id, round_id, auction_id, customer_id, phone_number, amount,
	payment_status, provider_transaction_id, merchant_request_id, receipt_number, result_code,
	result_desc, created_at, updated_at, resolved_at`

// selectPaymentColumns reads the nullable owner columns as empty strings.
const selectPaymentColumns = `id, kind, COALESCE(order_id, '') AS order_id,
	COALESCE(round_id, '') AS round_id, COALESCE(auction_id, '') AS auction_id, customer_id,
	phone_number, amount, payment_status, provider_transaction_id, merchant_request_id,
	receipt_number, result_code, result_desc, created_at, updated_at, resolved_at`

var getPaymentQuery = "SELECT " + selectPaymentColumns + " FROM payments WHERE id = ?"

func (t *sqlTx) GetPayment(ctx context.Context, id string) (models.Payment, error) {
	var p models.Payment
	err := t.tx.GetContext(ctx, &p, getPaymentQuery, id)
	return p, notFound("get payment "+id, err, biddingerrors.ErrPaymentNotFound)
}

var paymentByProviderQuery = "SELECT " + selectPaymentColumns + " FROM payments WHERE provider_transaction_id = ?"

func (t *sqlTx) GetPaymentByProviderID(ctx context.Context, providerTxnID string) (models.Payment, error) {
	var p models.Payment
	err := t.tx.GetContext(ctx, &p, paymentByProviderQuery, providerTxnID)
	return p, notFound("get payment by provider id "+providerTxnID, err, biddingerrors.ErrPaymentNotFound)
}

func (t *sqlTx) LockPaymentByProviderID(ctx context.Context, providerTxnID string) (models.Payment, error) {
	var p models.Payment
	err := t.tx.GetContext(ctx, &p, paymentByProviderQuery+" FOR UPDATE", providerTxnID)
	return p, notFound("lock payment by provider id "+providerTxnID, err, biddingerrors.ErrPaymentNotFound)
}

var listPaymentsQuery = "SELECT " + selectPaymentColumns + " FROM payments WHERE order_id = ? ORDER BY created_at DESC, id DESC"

func (t *sqlTx) ListPayments(ctx context.Context, orderID string) ([]models.Payment, error) {
	res := []models.Payment{}
	err := t.tx.SelectContext(ctx, &res, listPaymentsQuery, orderID)
	return res, classify("list payments", err)
}

var listCustomerPaymentsQuery = "SELECT " + selectPaymentColumns + " FROM payments WHERE customer_id = ? ORDER BY created_at DESC, id DESC LIMIT ?"

func (t *sqlTx) ListPaymentsByCustomer(ctx context.Context, customerID string, limit int) ([]models.Payment, error) {
	res := []models.Payment{}
	err := t.tx.SelectContext(ctx, &res, listCustomerPaymentsQuery, customerID, limit)
	return res, classify("list customer payments", err)
}

var listPendingBeforeQuery = "SELECT " + selectPaymentColumns + " FROM payments WHERE payment_status = ? AND created_at < ? ORDER BY created_at"

func (t *sqlTx) ListPendingPaymentsBefore(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	res := []models.Payment{}
	err := t.tx.SelectContext(ctx, &res, listPendingBeforeQuery, models.PaymentPending, cutoff)
	return res, classify("list expired pending payments", err)
}

var listRoundPaymentsQuery = "SELECT " + selectPaymentColumns + " FROM payments WHERE round_id = ? AND customer_id = ? ORDER BY created_at DESC, id DESC"

func (t *sqlTx) ListRoundPayments(ctx context.Context, roundID, customerID string) ([]models.Payment, error) {
	res := []models.Payment{}
	err := t.tx.SelectContext(ctx, &res, listRoundPaymentsQuery, roundID, customerID)
	return res, classify("list round payments", err)
}

var insertPaymentQuery = `INSERT INTO payments (` + paymentColumns + `) VALUES (
	:id, COALESCE(NULLIF(:kind, ''), 'order'), NULLIF(:order_id, ''), NULLIF(:round_id, ''),
	NULLIF(:auction_id, ''), :customer_id, :phone_number, :amount, :payment_status,
	:provider_transaction_id, :merchant_request_id, :receipt_number, :result_code, :result_desc,
	:created_at, :updated_at, :resolved_at)`

func (t *sqlTx) InsertPayment(ctx context.Context, p models.Payment) error {
	return t.exec(ctx, "insert payment "+p.ID, insertPaymentQuery, p)
}

var updatePaymentQuery = `UPDATE payments SET payment_status = :payment_status,
	provider_transaction_id = :provider_transaction_id, merchant_request_id = :merchant_request_id,
	receipt_number = :receipt_number, result_code = :result_code, result_desc = :result_desc,
	updated_at = :updated_at, resolved_at = :resolved_at
	WHERE id = :id`

func (t *sqlTx) UpdatePayment(ctx context.Context, p models.Payment) error {
	if _, err := t.GetPayment(ctx, p.ID); err != nil {
		return err
	}
	return t.exec(ctx, "update payment "+p.ID, updatePaymentQuery, p)
}

// ---- parked callbacks

const parkedColumns = `checkout_request_id, merchant_request_id, result_code, result_desc,
	receipt_number, received_at`

var parkCallbackQuery = `INSERT IGNORE INTO parked_callbacks (` + parkedColumns + `) VALUES (
	:checkout_request_id, :merchant_request_id, :result_code, :result_desc,
	:receipt_number, :received_at)`

func (t *sqlTx) ParkCallback(ctx context.Context, c models.ParkedCallback) error {
	return t.exec(ctx, "park callback "+c.CheckoutRequestID, parkCallbackQuery, c)
}

var lockParkedQuery = "SELECT " + parkedColumns + " FROM parked_callbacks WHERE checkout_request_id = ? FOR UPDATE"

func (t *sqlTx) TakeParkedCallback(ctx context.Context, checkoutRequestID string) (models.ParkedCallback, error) {
	var c models.ParkedCallback
	err := t.tx.GetContext(ctx, &c, lockParkedQuery, checkoutRequestID)
	if err != nil {
		return c, notFound("take parked callback "+checkoutRequestID, err, biddingerrors.ErrCallbackNotParked)
	}
	_, err = t.tx.ExecContext(ctx, "DELETE FROM parked_callbacks WHERE checkout_request_id = ?", checkoutRequestID)
	return c, classify("delete parked callback "+checkoutRequestID, err)
}

func (t *sqlTx) PurgeParkedCallbacks(ctx context.Context, before time.Time) (int, error) {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM parked_callbacks WHERE received_at < ?", before)
	if err != nil {
		return 0, classify("purge parked callbacks", err)
	}
	n, err := res.RowsAffected()
	return int(n), classify("purge parked callbacks", err)
}
