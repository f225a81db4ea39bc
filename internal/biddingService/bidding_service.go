package bidding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/models"
	"bidding-engine/internal/ranking"
	"bidding-engine/internal/repository"
	"bidding-engine/utils"
)

const leaderboardSize = 10

// RoundRanking is the full ranked bid list of an auction's latest round
type RoundRanking struct {
	AuctionID     string             `json:"auction_id"`
	RoundID       string             `json:"round_id,omitempty"`
	RoundNumber   int                `json:"round_number"`
	Bids          []models.RankedBid `json:"bids"`
	HighestAmount decimal.Decimal    `json:"highest_amount"`
	TotalCount    int                `json:"total_count"`
}

// LeaderboardEntry is one public leaderboard row
type LeaderboardEntry struct {
	Position      int             `json:"position"`
	BidID         string          `json:"bid_id"`
	UserID        string          `json:"user_id"`
	PledgeAmount  decimal.Decimal `json:"pledge_amount"`
	SubmittedAt   time.Time       `json:"submitted_at"`
	IsCurrentUser bool            `json:"is_current_user"`
}

// Leaderboard is the top of the ranking as seen by one viewer
type Leaderboard struct {
	AuctionID         string             `json:"auction_id"`
	RoundNumber       int                `json:"round_number"`
	TopBids           []LeaderboardEntry `json:"top_bids"`
	TotalParticipants int                `json:"total_participants"`
	HighestAmount     decimal.Decimal    `json:"highest_amount"`
	TiedAtTopCount    int                `json:"tied_at_top_count"`
	UserPosition      int                `json:"user_position,omitempty"`
	UserBid           *LeaderboardEntry  `json:"user_bid,omitempty"`
}

// BiddingService records pledges and ranks them
type BiddingService struct {
	db  repository.LedgerDB
	now utils.Clock
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(db repository.LedgerDB) *BiddingService {
	return &BiddingService{
		db:  db,
		now: utils.SystemClock,
	}
}

// SetClock replaces the time source.
func (s *BiddingService) SetClock(now utils.Clock) { s.now = now }

// Submit validates and records a participant's pledge. The round is locked
// for the whole check-and-insert, and submitted_at is taken under that lock,
// so arrival order and timestamp order agree.
func (s *BiddingService) Submit(ctx context.Context, roundID, userID string, pledge decimal.Decimal) (models.Bid, error) {
	if roundID == "" || userID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing round or user id", biddingerrors.ErrInvalidBid)
	}
	if !pledge.IsPositive() {
		return models.Bid{}, fmt.Errorf("service: %w - non-positive pledge amount", biddingerrors.ErrInvalidBid)
	}
	if !models.FitsCents(pledge) {
		return models.Bid{}, fmt.Errorf("service: %w - pledge amount has more than two decimal places", biddingerrors.ErrInvalidBid)
	}

	var bid models.Bid
	err := s.db.Transact(ctx, func(tx repository.LedgerTx) error {
		rd, err := tx.LockRound(ctx, roundID)
		if err != nil {
			return err
		}
		if rd.Status != models.RoundOpen {
			return biddingerrors.ErrRoundClosed
		}

		if _, err := tx.GetParticipation(ctx, roundID, userID); err != nil {
			if errors.Is(err, biddingerrors.ErrParticipationNotFound) {
				return biddingerrors.ErrNotParticipant
			}
			return err
		}

		if !rd.PledgeInRange(pledge) {
			return pledgeRangeError(rd)
		}

		bid = models.Bid{
			ID:           utils.GenerateID(),
			RoundID:      rd.ID,
			AuctionID:    rd.AuctionID,
			UserID:       userID,
			PledgeAmount: pledge,
			SubmittedAt:  s.now(),
			IsValid:      true,
		}
		return tx.InsertBid(ctx, bid)
	})
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid in round %s by user %s: %w", roundID, userID, err)
	}

	utils.Info("bid accepted", map[string]any{
		"bid_id":   bid.ID,
		"round_id": bid.RoundID,
		"user_id":  bid.UserID,
		"amount":   bid.PledgeAmount.String(),
	})
	return bid, nil
}

func pledgeRangeError(rd models.Round) error {
	if rd.MaxPledge.Valid {
		return fmt.Errorf("%w - pledge must be between %s and %s",
			biddingerrors.ErrPledgeOutOfRange, rd.MinPledge.StringFixed(2), rd.MaxPledge.Decimal.StringFixed(2))
	}
	return fmt.Errorf("%w - pledge must be at least %s", biddingerrors.ErrPledgeOutOfRange, rd.MinPledge.StringFixed(2))
}

// Rank returns the deduplicated ranking of a round from one snapshot.
func (s *BiddingService) Rank(ctx context.Context, roundID string) ([]models.RankedBid, error) {
	var r *ranking.Ranking
	err := s.db.View(ctx, func(rd repository.LedgerReader) error {
		if _, err := rd.GetRound(ctx, roundID); err != nil {
			return err
		}
		bids, err := rd.ListBids(ctx, roundID)
		if err != nil {
			return err
		}
		r = ranking.Rank(bids)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service: failed to rank round %s: %w", roundID, err)
	}
	return r.Entries, nil
}

// latestRanking ranks the auction's latest round. ok is false when the
// auction has no rounds yet.
func (s *BiddingService) latestRanking(ctx context.Context, auctionID string) (rd models.Round, r *ranking.Ranking, ok bool, err error) {
	err = s.db.View(ctx, func(lr repository.LedgerReader) error {
		if _, err := lr.GetAuction(ctx, auctionID); err != nil {
			return err
		}
		var err error
		rd, err = lr.LatestRound(ctx, auctionID)
		if errors.Is(err, biddingerrors.ErrNoRounds) {
			return nil
		}
		if err != nil {
			return err
		}
		bids, err := lr.ListBids(ctx, rd.ID)
		if err != nil {
			return err
		}
		r, ok = ranking.Rank(bids), true
		return nil
	})
	return rd, r, ok, err
}

// RankedBids returns the full ranking of the auction's latest round.
func (s *BiddingService) RankedBids(ctx context.Context, auctionID string) (RoundRanking, error) {
	rd, r, ok, err := s.latestRanking(ctx, auctionID)
	if err != nil {
		return RoundRanking{}, fmt.Errorf("service: failed to list bids of auction %s: %w", auctionID, err)
	}

	res := RoundRanking{AuctionID: auctionID, Bids: []models.RankedBid{}, HighestAmount: decimal.Zero}
	if !ok {
		return res, nil
	}

	res.RoundID = rd.ID
	res.RoundNumber = rd.RoundNumber
	res.Bids = r.Entries
	res.TotalCount = r.Len()
	if top, found := r.Winner(); found {
		res.HighestAmount = top.PledgeAmount
	}
	return res, nil
}

// Leaderboard returns the top entries of the latest round, marking the
// viewer's row and reporting the viewer's position when outside the top.
func (s *BiddingService) Leaderboard(ctx context.Context, auctionID, viewerID string) (Leaderboard, error) {
	rd, r, ok, err := s.latestRanking(ctx, auctionID)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("service: failed to build leaderboard of auction %s: %w", auctionID, err)
	}

	lb := Leaderboard{AuctionID: auctionID, TopBids: []LeaderboardEntry{}, HighestAmount: decimal.Zero}
	if !ok {
		return lb, nil
	}

	lb.RoundNumber = rd.RoundNumber
	lb.TotalParticipants = r.Len()
	lb.TiedAtTopCount = r.TiedAtTop()
	if top, found := r.Winner(); found {
		lb.HighestAmount = top.PledgeAmount
	}

	for _, e := range r.Top(leaderboardSize) {
		lb.TopBids = append(lb.TopBids, toEntry(e, viewerID))
	}

	if viewerID != "" {
		lb.UserPosition = r.PositionOf(viewerID)
		if lb.UserPosition > leaderboardSize {
			e, _ := r.Entry(viewerID)
			entry := toEntry(e, viewerID)
			lb.UserBid = &entry
		}
	}
	return lb, nil
}

func toEntry(e models.RankedBid, viewerID string) LeaderboardEntry {
	return LeaderboardEntry{
		Position:      e.Position,
		BidID:         e.ID,
		UserID:        e.UserID,
		PledgeAmount:  e.PledgeAmount,
		SubmittedAt:   e.SubmittedAt,
		IsCurrentUser: viewerID != "" && e.UserID == viewerID,
	}
}
