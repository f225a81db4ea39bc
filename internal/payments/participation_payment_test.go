package payments

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/events"
	"bidding-engine/internal/models"
	"bidding-engine/internal/repository"
)

// seedAuction adds auction a1 with open round r1 (fee 50) where "member"
// already participates, and auction a2 whose only round is closed.
func seedAuction(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.repo.Transact(ctx, func(tx repository.LedgerTx) error {
		for _, a := range []models.Auction{
			{ID: "a1", Title: "Watch", ProductType: models.ProductAuction, Status: models.AuctionActive},
			{ID: "a2", Title: "Lamp", ProductType: models.ProductAuction, Status: models.AuctionActive},
		} {
			if err := tx.InsertAuction(ctx, a); err != nil {
				return err
			}
		}
		rounds := []models.Round{
			{ID: "r1", AuctionID: "a1", RoundNumber: 1, Status: models.RoundOpen, ParticipationFee: decimal.NewFromInt(50), FeeRevenue: decimal.Zero},
			{ID: "r2", AuctionID: "a2", RoundNumber: 1, Status: models.RoundClosed, ParticipationFee: decimal.NewFromInt(50)},
		}
		for _, rd := range rounds {
			if err := tx.InsertRound(ctx, rd); err != nil {
				return err
			}
		}
		return tx.InsertParticipation(ctx, models.Participation{ID: "p-member", RoundID: "r1", AuctionID: "a1", UserID: "member", FeePaid: decimal.NewFromInt(50)})
	}))
}

func (f *fixture) participates(t *testing.T, roundID, userID string) bool {
	t.Helper()
	var ok bool
	require.NoError(t, f.repo.View(context.Background(), func(r repository.LedgerReader) error {
		_, err := r.GetParticipation(context.Background(), roundID, userID)
		ok = err == nil
		return nil
	}))
	return ok
}

func TestReconciler_ParticipationPaid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seedAuction(t, f)
	ctx := context.Background()

	var pushed PushRequest
	f.gw.EXPECT().STKPush(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req PushRequest) (PushResponse, error) {
		pushed = req
		return PushResponse{CheckoutRequestID: "ws_CO_p1"}, nil
	})

	p, err := f.rec.InitiateParticipation(ctx, "a1", "u1", "0712345678")
	require.NoError(t, err)
	require.Equal(t, models.PaymentForParticipation, p.Kind)
	require.Equal(t, "r1", p.RoundID)
	require.Equal(t, models.PaymentPending, p.Status)
	require.True(t, p.Amount.Equal(decimal.NewFromInt(50)))
	require.Equal(t, "AUC-a1", pushed.Reference)
	require.Empty(t, pushed.OrderID)

	// nothing is recorded until the provider confirms
	require.False(t, f.participates(t, "r1", "u1"))
	st, err := f.rec.ParticipationStatus(ctx, "a1", "u1")
	require.NoError(t, err)
	require.False(t, st.HasPaid)
	require.Equal(t, string(models.PaymentPending), st.PaymentStatus)
	require.Equal(t, "50.00", st.ParticipationFee)

	f.bus.EXPECT().Publish(gomock.Any(), eventOfType(events.ParticipationPaid)).
		Do(func(_ context.Context, e events.Event) {
			ev := e.Payload.(events.ParticipationEvent)
			require.Equal(t, "u1", ev.UserID)
			require.Equal(t, p.ID, ev.PaymentID)
		}).Times(1)

	done, err := f.rec.OnCallback(ctx, CallbackResult{CheckoutRequestID: "ws_CO_p1", ResultCode: 0, ReceiptNumber: "R9"})
	require.NoError(t, err)
	require.Equal(t, models.PaymentCompleted, done.Status)
	require.True(t, f.participates(t, "r1", "u1"))

	st, err = f.rec.ParticipationStatus(ctx, "a1", "u1")
	require.NoError(t, err)
	require.True(t, st.HasPaid)
	require.Equal(t, "R9", st.ReceiptNumber)

	var rd models.Round
	require.NoError(t, f.repo.View(ctx, func(r repository.LedgerReader) error {
		var err error
		rd, err = r.GetRound(ctx, "r1")
		return err
	}))
	require.Equal(t, 1, rd.ParticipantCount)
	require.True(t, rd.FeeRevenue.Equal(decimal.NewFromInt(50)))

	_, err = f.rec.InitiateParticipation(ctx, "a1", "u1", "0712345678")
	require.ErrorIs(t, err, biddingerrors.ErrDuplicateParticipation)
}

func TestReconciler_InitiateParticipationRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		auctionID     string
		userID        string
		phone         string
		expectedError error
	}{
		{name: "bad_phone", auctionID: "a1", userID: "u1", phone: "12", expectedError: biddingerrors.ErrInvalidPhone},
		{name: "anonymous", auctionID: "a1", phone: "0712345678", expectedError: biddingerrors.ErrMissingIdentity},
		{name: "missing_auction", auctionID: "aX", userID: "u1", phone: "0712345678", expectedError: biddingerrors.ErrAuctionNotFound},
		{name: "round_closed", auctionID: "a2", userID: "u1", phone: "0712345678", expectedError: biddingerrors.ErrRoundClosed},
		{name: "already_participating", auctionID: "a1", userID: "member", phone: "0712345678", expectedError: biddingerrors.ErrDuplicateParticipation},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			seedAuction(t, f)
			_, err := f.rec.InitiateParticipation(context.Background(), tc.auctionID, tc.userID, tc.phone)
			require.ErrorIs(t, err, tc.expectedError)
		})
	}
}

func TestReconciler_ParticipationPendingThenDeclined(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seedAuction(t, f)
	ctx := context.Background()

	f.accept("ws_CO_p1")
	_, err := f.rec.InitiateParticipation(ctx, "a1", "u1", "0712345678")
	require.NoError(t, err)

	_, err = f.rec.InitiateParticipation(ctx, "a1", "u1", "0712345678")
	require.ErrorIs(t, err, biddingerrors.ErrPaymentAlreadyPending)

	// past the timeout a new attempt expires the old one; the gateway refuses it
	f.clock.Advance(6 * time.Minute)
	f.gw.EXPECT().STKPush(gomock.Any(), gomock.Any()).Return(PushResponse{}, biddingerrors.ErrGatewayDeclined)
	f.bus.EXPECT().Publish(gomock.Any(), eventOfType(events.PaymentCancelled)).Times(1)
	f.bus.EXPECT().Publish(gomock.Any(), eventOfType(events.PaymentFailed)).Times(1)

	p, err := f.rec.InitiateParticipation(ctx, "a1", "u1", "0712345678")
	require.ErrorIs(t, err, biddingerrors.ErrGatewayDeclined)
	require.Equal(t, models.PaymentFailed, p.Status)
	require.False(t, f.participates(t, "r1", "u1"))

	// a failed push does not block the next attempt
	f.accept("ws_CO_p3")
	_, err = f.rec.InitiateParticipation(ctx, "a1", "u1", "0712345678")
	require.NoError(t, err)
}

func TestReconciler_ParticipationPaidAfterRoundClosed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seedAuction(t, f)
	ctx := context.Background()

	f.accept("ws_CO_p1")
	_, err := f.rec.InitiateParticipation(ctx, "a1", "u1", "0712345678")
	require.NoError(t, err)

	require.NoError(t, f.repo.Transact(ctx, func(tx repository.LedgerTx) error {
		rd, err := tx.LockRound(ctx, "r1")
		if err != nil {
			return err
		}
		rd.Status = models.RoundClosed
		return tx.UpdateRound(ctx, rd)
	}))

	f.bus.EXPECT().Publish(gomock.Any(), eventOfType(events.PaymentCancelled)).Times(1)

	p, err := f.rec.OnCallback(ctx, CallbackResult{CheckoutRequestID: "ws_CO_p1", ResultCode: 0, ReceiptNumber: "R9"})
	require.NoError(t, err)
	require.Equal(t, models.PaymentCancelled, p.Status)
	require.Equal(t, "Round closed", p.ResultDesc)
	require.Equal(t, "R9", p.ReceiptNumber)
	require.False(t, f.participates(t, "r1", "u1"))
}

func TestReconciler_ParticipationStatusWithoutRounds(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Transact(ctx, func(tx repository.LedgerTx) error {
		return tx.InsertAuction(ctx, models.Auction{ID: "a3", Status: models.AuctionDraft})
	}))

	st, err := f.rec.ParticipationStatus(ctx, "a3", "u1")
	require.NoError(t, err)
	require.Empty(t, st.RoundID)
	require.Equal(t, PaymentUnpaid, st.PaymentStatus)
	require.False(t, st.HasPaid)

	_, err = f.rec.ParticipationStatus(ctx, "missing", "u1")
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)
}
