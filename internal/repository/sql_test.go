package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/models"
	"bidding-engine/utils"
)

func newMockRepo(t *testing.T) (*SQLRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLRepo(sqlx.NewDb(db, "mysql"))
	repo.retry = utils.RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	return repo, mock
}

func q(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

var (
	deadlock     = &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	dupJoin      = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'r1-u1' for key 'uq_participation_round_user'"}
	participated = models.Participation{ID: "p1", RoundID: "r1", AuctionID: "a1", UserID: "u1", FeePaid: decimal.NewFromInt(50), PaidAt: t0}
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "deadlock", err: deadlock, expected: biddingerrors.ErrStoreContention},
		{name: "lock_wait", err: &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, expected: biddingerrors.ErrStoreContention},
		{name: "duplicate_participation", err: dupJoin, expected: biddingerrors.ErrDuplicateParticipation},
		{name: "second_open_round", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a1-1' for key 'uq_round_open'"}, expected: biddingerrors.ErrPriorRoundStillOpen},
		{name: "other_duplicate", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'PRIMARY'"}, expected: biddingerrors.ErrDuplicateRecord},
		{name: "missing_parent", err: &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, expected: biddingerrors.ErrNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, classify("op", tc.err), tc.expected)
		})
	}

	require.NoError(t, classify("op", nil))
	plain := errors.New("connection reset")
	require.ErrorIs(t, classify("op", plain), plain)
	require.NotErrorIs(t, classify("op", plain), biddingerrors.ErrStoreContention)
}

func TestSQLRepo_TransactRetriesDeadlock(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO participations")).WillReturnError(deadlock)
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO participations")).
		WithArgs("p1", "r1", "a1", "u1", sqlmock.AnyArg(), t0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	attempts := 0
	err := repo.Transact(ctx, func(tx LedgerTx) error {
		attempts++
		return tx.InsertParticipation(ctx, participated)
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepo_TransactGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectExec(q("INSERT INTO participations")).WillReturnError(deadlock)
		mock.ExpectRollback()
	}

	err := repo.Transact(ctx, func(tx LedgerTx) error {
		return tx.InsertParticipation(ctx, participated)
	})
	require.ErrorIs(t, err, biddingerrors.ErrStoreContention)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepo_TransactDoesNotRetryConstraint(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO participations")).WillReturnError(dupJoin)
	mock.ExpectRollback()

	err := repo.Transact(ctx, func(tx LedgerTx) error {
		return tx.InsertParticipation(ctx, participated)
	})
	require.ErrorIs(t, err, biddingerrors.ErrDuplicateParticipation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepo_LockRoundNotFound(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM rounds WHERE id = ? FOR UPDATE")).
		WithArgs("r9").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.Transact(ctx, func(tx LedgerTx) error {
		_, err := tx.LockRound(ctx, "r9")
		return err
	})
	require.ErrorIs(t, err, biddingerrors.ErrRoundNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepo_ViewReadsParticipation(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM participations WHERE round_id = ? AND user_id = ?")).
		WithArgs("r1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "round_id", "auction_id", "user_id", "fee_paid", "paid_at"}).
			AddRow("p1", "r1", "a1", "u1", "50.00", t0))
	mock.ExpectQuery(q("FROM participations WHERE round_id = ? AND user_id = ?")).
		WithArgs("r1", "u2").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	err := repo.View(ctx, func(r LedgerReader) error {
		p, err := r.GetParticipation(ctx, "r1", "u1")
		if err != nil {
			return err
		}
		require.Equal(t, "p1", p.ID)
		require.True(t, p.FeePaid.Equal(decimal.NewFromInt(50)))
		require.True(t, p.PaidAt.Equal(t0))

		_, err = r.GetParticipation(ctx, "r1", "u2")
		require.ErrorIs(t, err, biddingerrors.ErrParticipationNotFound)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepo_GetOrderLoadsItems(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	ctx := context.Background()

	orderCols := []string{"id", "customer_id", "kind", "winning_bid_id", "auction_id", "subtotal", "total_amount", "status",
		"shipping_name", "shipping_phone", "shipping_address", "shipping_city", "customer_notes", "idempotency_key",
		"created_at", "updated_at", "paid_at"}

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM orders WHERE id = ?")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow("o1", "c1", "buy_now", "", "", "2000.00", "2000.00", "pending",
				"Jane", "0712345678", "1 Main St", "Nairobi", "", "k1", t0, t0, nil))
	mock.ExpectQuery(q("FROM order_items WHERE order_id IN (?)")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "auction_id", "title", "unit_price", "quantity", "line_total"}).
			AddRow("o1", "a1", "Watch", "1000.00", int64(2), "2000.00"))
	mock.ExpectCommit()

	err := repo.View(ctx, func(r LedgerReader) error {
		o, err := r.GetOrder(ctx, "o1")
		if err != nil {
			return err
		}
		require.Equal(t, models.OrderBuyNow, o.Kind)
		require.Equal(t, "Nairobi", o.City)
		require.Nil(t, o.PaidAt)
		require.Len(t, o.Items, 1)
		require.Equal(t, 2, o.Items[0].Quantity)
		require.True(t, o.Items[0].LineTotal.Equal(decimal.NewFromInt(2000)))
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepo_ListRoundPayments(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	ctx := context.Background()

	cols := []string{"id", "kind", "order_id", "round_id", "auction_id", "customer_id", "phone_number", "amount",
		"payment_status", "provider_transaction_id", "merchant_request_id", "receipt_number", "result_code",
		"result_desc", "created_at", "updated_at", "resolved_at"}

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM payments WHERE round_id = ? AND customer_id = ?")).
		WithArgs("r1", "u1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("pay2", "participation", "", "r1", "a1", "u1", "254712345678", "50.00",
				"completed", "ws_CO_2", "m2", "R9", int64(0), "ok", t0, t0, t0).
			AddRow("pay1", "participation", "", "r1", "a1", "u1", "254712345678", "50.00",
				"cancelled", nil, "", "", nil, "", t0, t0, nil))
	mock.ExpectCommit()

	err := repo.View(ctx, func(r LedgerReader) error {
		list, err := r.ListRoundPayments(ctx, "r1", "u1")
		if err != nil {
			return err
		}
		require.Len(t, list, 2)
		require.True(t, list[0].ForParticipation())
		require.Equal(t, "ws_CO_2", *list[0].ProviderTransactionID)
		require.Equal(t, 0, *list[0].ResultCode)
		require.Empty(t, list[0].OrderID)
		require.Nil(t, list[1].ProviderTransactionID)
		require.Nil(t, list[1].ResolvedAt)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepo_ParkedCallbacks(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	ctx := context.Background()
	cols := []string{"checkout_request_id", "merchant_request_id", "result_code", "result_desc", "receipt_number", "received_at"}

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT IGNORE INTO parked_callbacks")).
		WithArgs("ws_1", "m1", 0, "ok", "R1", t0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FROM parked_callbacks WHERE checkout_request_id = ? FOR UPDATE")).
		WithArgs("ws_1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("ws_1", "m1", int64(0), "ok", "R1", t0))
	mock.ExpectExec(q("DELETE FROM parked_callbacks WHERE checkout_request_id = ?")).
		WithArgs("ws_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FROM parked_callbacks WHERE checkout_request_id = ? FOR UPDATE")).
		WithArgs("ws_2").
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectExec(q("DELETE FROM parked_callbacks WHERE received_at < ?")).
		WithArgs(t0).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.Transact(ctx, func(tx LedgerTx) error {
		if err := tx.ParkCallback(ctx, models.ParkedCallback{
			CheckoutRequestID: "ws_1",
			MerchantRequestID: "m1",
			ResultDesc:        "ok",
			ReceiptNumber:     "R1",
			ReceivedAt:        t0,
		}); err != nil {
			return err
		}

		c, err := tx.TakeParkedCallback(ctx, "ws_1")
		if err != nil {
			return err
		}
		require.Equal(t, "R1", c.ReceiptNumber)
		require.True(t, c.ReceivedAt.Equal(t0))

		_, err = tx.TakeParkedCallback(ctx, "ws_2")
		require.ErrorIs(t, err, biddingerrors.ErrCallbackNotParked)

		n, err := tx.PurgeParkedCallbacks(ctx, t0)
		if err != nil {
			return err
		}
		require.Equal(t, 3, n)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepo_UpdateRoundMissing(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM rounds WHERE id = ?")).
		WithArgs("r9").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.Transact(ctx, func(tx LedgerTx) error {
		return tx.UpdateRound(ctx, models.Round{ID: "r9", Status: models.RoundClosed})
	})
	require.ErrorIs(t, err, biddingerrors.ErrRoundNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
