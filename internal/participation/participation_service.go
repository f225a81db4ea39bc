package participation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/models"
	"bidding-engine/internal/repository"
	"bidding-engine/utils"
)

// JoinRequest asks to enter a round. Fee is optional; when present it must
// equal the round's participation fee.
type JoinRequest struct {
	RoundID string
	UserID  string
	Fee     decimal.NullDecimal
}

// RoundParticipants is the admin view of who paid into an auction's latest round
type RoundParticipants struct {
	AuctionID         string                 `json:"auction_id"`
	RoundID           string                 `json:"round_id,omitempty"`
	RoundNumber       int                    `json:"round_number"`
	Participants      []models.Participation `json:"participants"`
	TotalParticipants int                    `json:"total_participants"`
	TotalRevenue      decimal.Decimal        `json:"total_revenue"`
}

// Service records paid entry into rounds
type Service struct {
	db  repository.LedgerDB
	now utils.Clock
}

// NewService creates a new participation Service
func NewService(db repository.LedgerDB) *Service {
	return &Service{db: db, now: utils.SystemClock}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now utils.Clock) { s.now = now }

// Join records the user's fee and participation in one transaction and
// updates the round's admin counters.
func (s *Service) Join(ctx context.Context, req JoinRequest) (models.Participation, error) {
	if req.RoundID == "" || req.UserID == "" {
		return models.Participation{}, fmt.Errorf("participation: %w - missing round or user id", biddingerrors.ErrValidation)
	}
	if req.Fee.Valid && req.Fee.Decimal.IsNegative() {
		return models.Participation{}, fmt.Errorf("participation: %w - negative fee", biddingerrors.ErrFeeMismatch)
	}

	var p models.Participation
	err := s.db.Transact(ctx, func(tx repository.LedgerTx) error {
		rd, err := tx.LockRound(ctx, req.RoundID)
		if err != nil {
			return err
		}
		if err := CheckJoinable(ctx, tx, rd, req.UserID); err != nil {
			return err
		}
		if req.Fee.Valid && !req.Fee.Decimal.Equal(rd.ParticipationFee) {
			return fmt.Errorf("%w - expected %s, got %s", biddingerrors.ErrFeeMismatch, rd.ParticipationFee.StringFixed(2), req.Fee.Decimal.StringFixed(2))
		}
		p, err = Record(ctx, tx, rd, req.UserID, s.now())
		return err
	})
	if err != nil {
		return models.Participation{}, fmt.Errorf("participation: join round %s by user %s: %w", req.RoundID, req.UserID, err)
	}

	utils.Info("participation recorded", map[string]any{
		"participation_id": p.ID,
		"round_id":         p.RoundID,
		"user_id":          p.UserID,
		"fee_paid":         p.FeePaid.String(),
	})
	return p, nil
}

// CheckJoinable reports why userID may not enter rd: the round is closed or
// the user already participates.
func CheckJoinable(ctx context.Context, r repository.LedgerReader, rd models.Round, userID string) error {
	if rd.Status != models.RoundOpen {
		return fmt.Errorf("round %d: %w", rd.RoundNumber, biddingerrors.ErrRoundClosed)
	}
	_, err := r.GetParticipation(ctx, rd.ID, userID)
	if err == nil {
		return biddingerrors.ErrDuplicateParticipation
	}
	if !errors.Is(err, biddingerrors.ErrParticipationNotFound) {
		return err
	}
	return nil
}

// Record inserts userID's paid participation in rd and bumps the round's
// counters. rd must be locked by tx and checked with CheckJoinable.
func Record(ctx context.Context, tx repository.LedgerTx, rd models.Round, userID string, now time.Time) (models.Participation, error) {
	p := models.Participation{
		ID:        utils.GenerateID(),
		RoundID:   rd.ID,
		AuctionID: rd.AuctionID,
		UserID:    userID,
		FeePaid:   rd.ParticipationFee,
		PaidAt:    now,
	}
	if err := tx.InsertParticipation(ctx, p); err != nil {
		return models.Participation{}, err
	}

	rd.ParticipantCount++
	rd.FeeRevenue = rd.FeeRevenue.Add(p.FeePaid)
	if err := tx.UpdateRound(ctx, rd); err != nil {
		return models.Participation{}, err
	}
	return p, nil
}

// ListParticipants returns a round's participants in payment order.
func (s *Service) ListParticipants(ctx context.Context, roundID string) ([]models.Participation, error) {
	var out []models.Participation
	err := s.db.View(ctx, func(r repository.LedgerReader) error {
		if _, err := r.GetRound(ctx, roundID); err != nil {
			return err
		}
		var err error
		out, err = r.ListParticipations(ctx, roundID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("participation: list participants of round %s: %w", roundID, err)
	}
	return out, nil
}

// CurrentRoundParticipants lists the participants of the auction's latest
// round. An auction without rounds yields an empty result.
func (s *Service) CurrentRoundParticipants(ctx context.Context, auctionID string) (RoundParticipants, error) {
	res := RoundParticipants{AuctionID: auctionID, Participants: []models.Participation{}, TotalRevenue: decimal.Zero}

	err := s.db.View(ctx, func(r repository.LedgerReader) error {
		if _, err := r.GetAuction(ctx, auctionID); err != nil {
			return err
		}
		rd, err := r.LatestRound(ctx, auctionID)
		if errors.Is(err, biddingerrors.ErrNoRounds) {
			return nil
		}
		if err != nil {
			return err
		}

		ps, err := r.ListParticipations(ctx, rd.ID)
		if err != nil {
			return err
		}
		res.RoundID = rd.ID
		res.RoundNumber = rd.RoundNumber
		res.Participants = ps
		res.TotalParticipants = len(ps)
		for _, p := range ps {
			res.TotalRevenue = res.TotalRevenue.Add(p.FeePaid)
		}
		return nil
	})
	if err != nil {
		return RoundParticipants{}, fmt.Errorf("participation: participants of auction %s: %w", auctionID, err)
	}
	return res, nil
}
