package participation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/models"
	"bidding-engine/internal/repository"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newFixture seeds auction a1 with open round r1 (fee 10) and closed round r0.
func newFixture(t *testing.T) (*Service, *repository.MemoryRepo) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()

	err := repo.Transact(ctx, func(tx repository.LedgerTx) error {
		if err := tx.InsertAuction(ctx, models.Auction{ID: "a1", ProductType: models.ProductAuction, Status: models.AuctionActive}); err != nil {
			return err
		}
		if err := tx.InsertRound(ctx, models.Round{ID: "r0", AuctionID: "a1", RoundNumber: 1, Status: models.RoundClosed, ParticipationFee: decimal.NewFromInt(10)}); err != nil {
			return err
		}
		return tx.InsertRound(ctx, models.Round{ID: "r1", AuctionID: "a1", RoundNumber: 2, Status: models.RoundOpen, ParticipationFee: decimal.NewFromInt(10), FeeRevenue: decimal.Zero})
	})
	require.NoError(t, err)

	svc := NewService(repo)
	svc.SetClock(func() time.Time { return t0 })
	return svc, repo
}

func TestService_Join(t *testing.T) {
	t.Parallel()

	svc, _ := newFixture(t)
	ctx := context.Background()

	_, err := svc.Join(ctx, JoinRequest{RoundID: "r1", UserID: "existing"})
	require.NoError(t, err)

	tests := []struct {
		name          string
		req           JoinRequest
		expectedError error
	}{
		{name: "valid_join_default_fee", req: JoinRequest{RoundID: "r1", UserID: "user1"}},
		{name: "valid_join_exact_fee", req: JoinRequest{RoundID: "r1", UserID: "user2", Fee: decimal.NewNullDecimal(decimal.RequireFromString("10.00"))}},
		{name: "fee_mismatch", req: JoinRequest{RoundID: "r1", UserID: "user3", Fee: decimal.NewNullDecimal(decimal.NewFromInt(5))}, expectedError: biddingerrors.ErrFeeMismatch},
		{name: "negative_fee", req: JoinRequest{RoundID: "r1", UserID: "user4", Fee: decimal.NewNullDecimal(decimal.NewFromInt(-10))}, expectedError: biddingerrors.ErrFeeMismatch},
		{name: "duplicate", req: JoinRequest{RoundID: "r1", UserID: "existing"}, expectedError: biddingerrors.ErrDuplicateParticipation},
		{name: "closed_round", req: JoinRequest{RoundID: "r0", UserID: "user5"}, expectedError: biddingerrors.ErrRoundClosed},
		{name: "missing_round", req: JoinRequest{RoundID: "nope", UserID: "user6"}, expectedError: biddingerrors.ErrRoundNotFound},
		{name: "empty_user", req: JoinRequest{RoundID: "r1"}, expectedError: biddingerrors.ErrValidation},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p, err := svc.Join(ctx, tc.req)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.req.UserID, p.UserID)
			require.Equal(t, "a1", p.AuctionID)
			require.True(t, p.FeePaid.Equal(decimal.NewFromInt(10)))
			require.Equal(t, t0, p.PaidAt)
		})
	}
}

func TestService_JoinUpdatesRoundCounters(t *testing.T) {
	t.Parallel()

	svc, repo := newFixture(t)
	ctx := context.Background()

	errs := make(chan error, 20)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			_, err := svc.Join(ctx, JoinRequest{RoundID: "r1", UserID: fmt.Sprintf("user-%d", i)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	err := repo.View(ctx, func(r repository.LedgerReader) error {
		rd, err := r.GetRound(ctx, "r1")
		require.NoError(t, err)
		require.Equal(t, 20, rd.ParticipantCount)
		require.True(t, rd.FeeRevenue.Equal(decimal.NewFromInt(200)))
		return nil
	})
	require.NoError(t, err)
}

func TestService_CurrentRoundParticipants(t *testing.T) {
	t.Parallel()

	svc, repo := newFixture(t)
	ctx := context.Background()

	for _, u := range []string{"userB", "userA"} {
		_, err := svc.Join(ctx, JoinRequest{RoundID: "r1", UserID: u})
		require.NoError(t, err)
	}

	res, err := svc.CurrentRoundParticipants(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "r1", res.RoundID)
	require.Equal(t, 2, res.RoundNumber)
	require.Equal(t, 2, res.TotalParticipants)
	require.True(t, res.TotalRevenue.Equal(decimal.NewFromInt(20)))

	list, err := svc.ListParticipants(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	_, err = svc.ListParticipants(ctx, "missing")
	require.ErrorIs(t, err, biddingerrors.ErrRoundNotFound)

	_, err = svc.CurrentRoundParticipants(ctx, "missing")
	require.ErrorIs(t, err, biddingerrors.ErrAuctionNotFound)

	// an auction without rounds has no participants
	require.NoError(t, repo.Transact(ctx, func(tx repository.LedgerTx) error {
		return tx.InsertAuction(ctx, models.Auction{ID: "a2", Status: models.AuctionDraft})
	}))
	empty, err := svc.CurrentRoundParticipants(ctx, "a2")
	require.NoError(t, err)
	require.Empty(t, empty.Participants)
	require.Zero(t, empty.RoundNumber)
}
