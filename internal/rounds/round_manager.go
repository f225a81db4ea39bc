package rounds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/events"
	"bidding-engine/internal/models"
	"bidding-engine/internal/orders"
	"bidding-engine/internal/ranking"
	"bidding-engine/internal/repository"
	"bidding-engine/utils"
)

// DefaultCloseReason is recorded when the caller gives none.
const DefaultCloseReason = "manual"

// RoundParams are the terms of one round
type RoundParams struct {
	BasePrice        decimal.Decimal
	ParticipationFee decimal.Decimal
	MinPledge        decimal.Decimal
	MaxPledge        decimal.NullDecimal
}

// Validate checks the terms in isolation.
func (p RoundParams) Validate() error {
	switch {
	case !p.BasePrice.IsPositive():
		return fmt.Errorf("%w - base price must be positive", biddingerrors.ErrInvalidRoundParams)
	case p.ParticipationFee.IsNegative():
		return fmt.Errorf("%w - participation fee cannot be negative", biddingerrors.ErrInvalidRoundParams)
	case !p.MinPledge.IsPositive():
		return fmt.Errorf("%w - min pledge must be positive", biddingerrors.ErrInvalidRoundParams)
	case p.MinPledge.LessThan(p.BasePrice):
		return fmt.Errorf("%w - min pledge cannot be less than base price (%s)", biddingerrors.ErrInvalidRoundParams, p.BasePrice.StringFixed(2))
	case p.MaxPledge.Valid && p.MaxPledge.Decimal.LessThan(p.MinPledge):
		return fmt.Errorf("%w - max pledge cannot be less than min pledge", biddingerrors.ErrInvalidRoundParams)
	case !models.FitsCents(p.BasePrice) || !models.FitsCents(p.ParticipationFee) || !models.FitsCents(p.MinPledge) ||
		(p.MaxPledge.Valid && !models.FitsCents(p.MaxPledge.Decimal)):
		return fmt.Errorf("%w - amounts have at most two decimal places", biddingerrors.ErrInvalidRoundParams)
	}
	return nil
}

// validateOpening checks the terms an auction opens round 1 with. The pledge
// window of a first round must not be empty.
func validateOpening(p RoundParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.MaxPledge.Valid && !p.MaxPledge.Decimal.GreaterThan(p.MinPledge) {
		return fmt.Errorf("%w - max pledge must be greater than min pledge", biddingerrors.ErrInvalidRoundParams)
	}
	return nil
}

func auctionParams(a models.Auction) RoundParams {
	return RoundParams{
		BasePrice:        a.BasePrice,
		ParticipationFee: a.ParticipationFee,
		MinPledge:        a.MinPledge,
		MaxPledge:        a.MaxPledge,
	}
}

func paramsOf(rd models.Round) RoundParams {
	return RoundParams{
		BasePrice:        rd.BasePrice,
		ParticipationFee: rd.ParticipationFee,
		MinPledge:        rd.MinPledge,
		MaxPledge:        rd.MaxPledge,
	}
}

// CloseResult is the stored outcome of a closed round
type CloseResult struct {
	Round      models.Round        `json:"round"`
	Outcome    models.RoundOutcome `json:"outcome"`
	WinningBid *models.Bid         `json:"winning_bid,omitempty"`
	Order      *models.Order       `json:"order,omitempty"`
}

// RoundRevenue is one row of the revenue summary
type RoundRevenue struct {
	RoundID          string              `json:"round_id"`
	RoundNumber      int                 `json:"round_number"`
	Status           models.RoundStatus  `json:"status"`
	Outcome          models.RoundOutcome `json:"outcome,omitempty"`
	ParticipationFee decimal.Decimal     `json:"participation_fee"`
	Participants     int                 `json:"participants"`
	Revenue          decimal.Decimal     `json:"revenue"`
}

// RevenueSummary aggregates participation fees over every round of an auction
type RevenueSummary struct {
	AuctionID            string          `json:"auction_id"`
	Rounds               []RoundRevenue  `json:"rounds"`
	TotalParticipations  int             `json:"total_participations"`
	DistinctParticipants int             `json:"distinct_participants"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
}

// Manager drives auctions through their rounds
type Manager struct {
	db  repository.LedgerDB
	bus events.Publisher
	now utils.Clock
}

// NewManager creates a round Manager publishing to bus
func NewManager(db repository.LedgerDB, bus events.Publisher) *Manager {
	return &Manager{db: db, bus: bus, now: utils.SystemClock}
}

// SetClock replaces the time source.
func (m *Manager) SetClock(now utils.Clock) { m.now = now }

// CreateAuction stores a new draft listing.
func (m *Manager) CreateAuction(ctx context.Context, a models.Auction) (models.Auction, error) {
	if err := validateAuction(a); err != nil {
		return models.Auction{}, fmt.Errorf("rounds: %w", err)
	}
	if a.ProductType.Biddable() {
		if err := validateOpening(auctionParams(a)); err != nil {
			return models.Auction{}, fmt.Errorf("rounds: %w", err)
		}
	}

	now := m.now()
	a.ID = utils.GenerateID()
	a.Title = strings.TrimSpace(a.Title)
	a.Status = models.AuctionDraft
	a.UnitsSold = 0
	a.WinnerID, a.WinningBidID = "", ""
	a.WinningAmount = decimal.NullDecimal{}
	a.CreatedAt, a.UpdatedAt = now, now

	err := m.db.Transact(ctx, func(tx repository.LedgerTx) error {
		return tx.InsertAuction(ctx, a)
	})
	if err != nil {
		return models.Auction{}, fmt.Errorf("rounds: create auction: %w", err)
	}

	utils.Info("auction created", map[string]any{"auction_id": a.ID, "product_type": string(a.ProductType)})
	return a, nil
}

func validateAuction(a models.Auction) error {
	switch {
	case strings.TrimSpace(a.Title) == "":
		return fmt.Errorf("%w - title is required", biddingerrors.ErrInvalidAuction)
	case !a.ProductType.Purchasable() && !a.ProductType.Biddable():
		return fmt.Errorf("%w - unknown product type %q", biddingerrors.ErrInvalidAuction, a.ProductType)
	case !a.BasePrice.IsPositive():
		return fmt.Errorf("%w - base price must be positive", biddingerrors.ErrInvalidAuction)
	case a.ParticipationFee.IsNegative():
		return fmt.Errorf("%w - participation fee cannot be negative", biddingerrors.ErrInvalidAuction)
	case a.StockQuantity < 0:
		return fmt.Errorf("%w - stock cannot be negative", biddingerrors.ErrInvalidAuction)
	case a.ProductType.Purchasable() && (!a.BuyNowPrice.Valid || !a.BuyNowPrice.Decimal.IsPositive()):
		return fmt.Errorf("%w - buy now price is required for %s products", biddingerrors.ErrInvalidAuction, a.ProductType)
	case !models.FitsCents(a.BasePrice) || (a.BuyNowPrice.Valid && !models.FitsCents(a.BuyNowPrice.Decimal)):
		return fmt.Errorf("%w - prices have at most two decimal places", biddingerrors.ErrInvalidAuction)
	}
	return nil
}

// GetAuction returns one auction.
func (m *Manager) GetAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	var a models.Auction
	err := m.db.View(ctx, func(r repository.LedgerReader) error {
		var err error
		a, err = r.GetAuction(ctx, auctionID)
		return err
	})
	if err != nil {
		return models.Auction{}, fmt.Errorf("rounds: get auction: %w", err)
	}
	return a, nil
}

// Activate moves a draft auction to active. Biddable products open round 1
// with the auction's own terms; buy-now products only change status.
func (m *Manager) Activate(ctx context.Context, auctionID string) (models.Auction, *models.Round, error) {
	var (
		a     models.Auction
		first *models.Round
	)
	err := m.db.Transact(ctx, func(tx repository.LedgerTx) error {
		var err error
		a, err = tx.LockAuction(ctx, auctionID)
		if err != nil {
			return err
		}
		if a.Status != models.AuctionDraft {
			return biddingerrors.ErrAuctionNotDraft
		}

		now := m.now()
		a.Status = models.AuctionActive
		a.UpdatedAt = now

		if a.ProductType.Biddable() {
			p := auctionParams(a)
			if err := validateOpening(p); err != nil {
				return err
			}
			rd := newRound(a.ID, 1, p, now)
			if err := tx.InsertRound(ctx, rd); err != nil {
				return err
			}
			first = &rd
		}
		return tx.UpdateAuction(ctx, a)
	})
	if err != nil {
		return models.Auction{}, nil, fmt.Errorf("rounds: activate auction %s: %w", auctionID, err)
	}

	utils.Info("auction activated", map[string]any{"auction_id": a.ID, "opened_round": first != nil})
	return a, first, nil
}

func newRound(auctionID string, number int, p RoundParams, at time.Time) models.Round {
	return models.Round{
		ID:               utils.GenerateID(),
		AuctionID:        auctionID,
		RoundNumber:      number,
		BasePrice:        p.BasePrice,
		ParticipationFee: p.ParticipationFee,
		MinPledge:        p.MinPledge,
		MaxPledge:        p.MaxPledge,
		Status:           models.RoundOpen,
		FeeRevenue:       decimal.Zero,
		OpenedAt:         at,
	}
}

// DefaultParams returns the terms of the auction's latest round, or the
// auction's own terms when it has none. Callers override what they need.
func (m *Manager) DefaultParams(ctx context.Context, auctionID string) (RoundParams, error) {
	var p RoundParams
	err := m.db.View(ctx, func(r repository.LedgerReader) error {
		a, err := r.GetAuction(ctx, auctionID)
		if err != nil {
			return err
		}
		rd, err := r.LatestRound(ctx, auctionID)
		switch {
		case err == nil:
			p = paramsOf(rd)
		case errors.Is(err, biddingerrors.ErrNoRounds):
			p = auctionParams(a)
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return RoundParams{}, fmt.Errorf("rounds: default params for auction %s: %w", auctionID, err)
	}
	return p, nil
}

// Open creates the next round of an active auction. The previous round must
// be closed; round numbers stay gapless because the auction row is locked.
func (m *Manager) Open(ctx context.Context, auctionID string, p RoundParams) (models.Round, error) {
	if err := p.Validate(); err != nil {
		return models.Round{}, fmt.Errorf("rounds: %w", err)
	}

	var rd models.Round
	err := m.db.Transact(ctx, func(tx repository.LedgerTx) error {
		a, err := tx.LockAuction(ctx, auctionID)
		if err != nil {
			return err
		}
		if !a.ProductType.Biddable() {
			return biddingerrors.ErrNotAuctionable
		}
		if a.Status != models.AuctionActive {
			return biddingerrors.ErrAuctionNotActive
		}

		next := 1
		latest, err := tx.LatestRound(ctx, auctionID)
		switch {
		case err == nil:
			if latest.Status == models.RoundOpen {
				return fmt.Errorf("%w - round %d", biddingerrors.ErrPriorRoundStillOpen, latest.RoundNumber)
			}
			next = latest.RoundNumber + 1
		case !errors.Is(err, biddingerrors.ErrNoRounds):
			return err
		}

		rd = newRound(auctionID, next, p, m.now())
		return tx.InsertRound(ctx, rd)
	})
	if err != nil {
		return models.Round{}, fmt.Errorf("rounds: open round for auction %s: %w", auctionID, err)
	}

	utils.Info("round opened", map[string]any{
		"auction_id":   auctionID,
		"round_id":     rd.ID,
		"round_number": rd.RoundNumber,
		"min_pledge":   rd.MinPledge.String(),
	})
	return rd, nil
}

// Close closes an open round and decides it. The top-ranked valid bid wins,
// closes the auction and gets its payable order in the same transaction; a
// round without valid bids is exhausted. Closing again with the same reason
// returns the stored outcome and creates the winner's order if it is missing.
func (m *Manager) Close(ctx context.Context, roundID, reason string) (CloseResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCloseReason
	}

	var (
		res          CloseResult
		transition   bool
		orderCreated bool
	)
	err := m.db.Transact(ctx, func(tx repository.LedgerTx) error {
		res, transition, orderCreated = CloseResult{}, false, false

		rd, err := tx.LockRound(ctx, roundID)
		if err != nil {
			return err
		}
		if rd.Status == models.RoundClosed {
			if rd.CloseReason != reason {
				return fmt.Errorf("%w - closed with reason %q", biddingerrors.ErrRoundAlreadyClosed, rd.CloseReason)
			}
			if err := m.storedResult(ctx, tx, rd, &res); err != nil {
				return err
			}
			if res.WinningBid == nil {
				return nil
			}
			orderCreated, err = m.ensureOrder(ctx, tx, rd.AuctionID, &res)
			return err
		}

		// Closing: the round row is locked until commit.
		a, err := tx.LockAuction(ctx, rd.AuctionID)
		if err != nil {
			return err
		}
		bids, err := tx.ListBids(ctx, rd.ID)
		if err != nil {
			return err
		}

		now := m.now()
		if top, ok := ranking.Rank(bids).Winner(); ok {
			if err := tx.MarkWinner(ctx, top.ID); err != nil {
				return err
			}
			winner := top.Bid
			winner.IsWinner = true

			rd.Outcome = models.OutcomeWon
			rd.WinningBidID = winner.ID

			a.Status = models.AuctionClosed
			a.WinnerID = winner.UserID
			a.WinningBidID = winner.ID
			a.WinningAmount = decimal.NewNullDecimal(winner.PledgeAmount)
			a.UpdatedAt = now
			if err := tx.UpdateAuction(ctx, a); err != nil {
				return err
			}
			res.WinningBid = &winner
			if orderCreated, err = m.ensureOrder(ctx, tx, rd.AuctionID, &res); err != nil {
				return err
			}
		} else {
			rd.Outcome = models.OutcomeExhausted
		}

		rd.Status = models.RoundClosed
		rd.CloseReason = reason
		rd.ClosedAt = &now
		if err := tx.UpdateRound(ctx, rd); err != nil {
			return err
		}

		res.Round, res.Outcome, transition = rd, rd.Outcome, true
		return nil
	})
	if err != nil {
		return CloseResult{}, fmt.Errorf("rounds: close round %s: %w", roundID, err)
	}

	if !transition {
		fields := map[string]any{"round_id": roundID, "outcome": string(res.Outcome)}
		if orderCreated {
			fields["order_id"] = res.Order.ID
			utils.Warn("round close replayed, winner order was missing", fields)
			m.bus.Publish(ctx, orders.Event(events.OrderCreated, *res.Order, m.now()))
			return res, nil
		}
		utils.Info("round close replayed", fields)
		return res, nil
	}

	fields := map[string]any{
		"round_id":     res.Round.ID,
		"auction_id":   res.Round.AuctionID,
		"round_number": res.Round.RoundNumber,
		"outcome":      string(res.Outcome),
		"reason":       reason,
	}
	if res.WinningBid != nil {
		fields["winner_id"] = res.WinningBid.UserID
		fields["amount"] = res.WinningBid.PledgeAmount.String()
	}
	utils.Info("round closed", fields)

	m.publishOutcome(ctx, res)
	if orderCreated {
		m.bus.Publish(ctx, orders.Event(events.OrderCreated, *res.Order, m.now()))
	}
	return res, nil
}

// ensureOrder attaches the winner's order to res, creating it through tx when
// it does not exist yet.
func (m *Manager) ensureOrder(ctx context.Context, tx repository.LedgerTx, auctionID string, res *CloseResult) (bool, error) {
	o, created, err := orders.EnsureAuctionOrder(ctx, tx, auctionID, *res.WinningBid, m.now())
	if err != nil {
		return false, err
	}
	res.Order = &o
	return created, nil
}

func (m *Manager) storedResult(ctx context.Context, tx repository.LedgerTx, rd models.Round, res *CloseResult) error {
	res.Round, res.Outcome = rd, rd.Outcome
	if rd.WinningBidID == "" {
		return nil
	}
	bids, err := tx.ListBids(ctx, rd.ID)
	if err != nil {
		return err
	}
	for _, b := range bids {
		if b.ID == rd.WinningBidID {
			b := b
			res.WinningBid = &b
			break
		}
	}
	return nil
}

func (m *Manager) publishOutcome(ctx context.Context, res CloseResult) {
	rd := res.Round
	if res.WinningBid != nil {
		m.bus.Publish(ctx, events.New(events.RoundWon, rd.AuctionID, events.RoundWonEvent{
			AuctionID:   rd.AuctionID,
			RoundID:     rd.ID,
			RoundNumber: rd.RoundNumber,
			BidID:       res.WinningBid.ID,
			WinnerID:    res.WinningBid.UserID,
			Amount:      res.WinningBid.PledgeAmount,
		}, m.now()))
		return
	}
	m.bus.Publish(ctx, events.New(events.RoundExhausted, rd.AuctionID, events.RoundExhaustedEvent{
		AuctionID:   rd.AuctionID,
		RoundID:     rd.ID,
		RoundNumber: rd.RoundNumber,
	}, m.now()))
}

// ReopenOnExhausted opens the next round with the exhausted round's terms.
// It is subscribed to round.exhausted when automatic reopening is enabled.
func (m *Manager) ReopenOnExhausted(ctx context.Context, e events.Event) error {
	ev, ok := e.Payload.(events.RoundExhaustedEvent)
	if !ok {
		return fmt.Errorf("rounds: unexpected payload %T for %s", e.Payload, e.Type)
	}

	var prev models.Round
	err := m.db.View(ctx, func(r repository.LedgerReader) error {
		var err error
		prev, err = r.GetRound(ctx, ev.RoundID)
		return err
	})
	if err != nil {
		return fmt.Errorf("rounds: reopen after round %s: %w", ev.RoundID, err)
	}

	rd, err := m.Open(ctx, ev.AuctionID, paramsOf(prev))
	if errors.Is(err, biddingerrors.ErrPriorRoundStillOpen) || errors.Is(err, biddingerrors.ErrAuctionNotActive) {
		utils.Info("automatic reopen skipped", map[string]any{"auction_id": ev.AuctionID, "reason": err.Error()})
		return nil
	}
	if err != nil {
		return err
	}

	utils.Info("round reopened automatically", map[string]any{"auction_id": ev.AuctionID, "round_number": rd.RoundNumber})
	return nil
}

// ListRounds returns the auction's rounds by round number.
func (m *Manager) ListRounds(ctx context.Context, auctionID string) ([]models.Round, error) {
	var out []models.Round
	err := m.db.View(ctx, func(r repository.LedgerReader) error {
		if _, err := r.GetAuction(ctx, auctionID); err != nil {
			return err
		}
		var err error
		out, err = r.ListRounds(ctx, auctionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("rounds: list rounds of auction %s: %w", auctionID, err)
	}
	return out, nil
}

// RevenueSummary totals participation fees per round.
func (m *Manager) RevenueSummary(ctx context.Context, auctionID string) (RevenueSummary, error) {
	sum := RevenueSummary{AuctionID: auctionID, Rounds: []RoundRevenue{}, TotalRevenue: decimal.Zero}

	err := m.db.View(ctx, func(r repository.LedgerReader) error {
		if _, err := r.GetAuction(ctx, auctionID); err != nil {
			return err
		}
		rounds, err := r.ListRounds(ctx, auctionID)
		if err != nil {
			return err
		}

		distinct := make(map[string]struct{})
		for _, rd := range rounds {
			ps, err := r.ListParticipations(ctx, rd.ID)
			if err != nil {
				return err
			}
			revenue := decimal.Zero
			for _, p := range ps {
				revenue = revenue.Add(p.FeePaid)
				distinct[p.UserID] = struct{}{}
			}

			sum.Rounds = append(sum.Rounds, RoundRevenue{
				RoundID:          rd.ID,
				RoundNumber:      rd.RoundNumber,
				Status:           rd.Status,
				Outcome:          rd.Outcome,
				ParticipationFee: rd.ParticipationFee,
				Participants:     len(ps),
				Revenue:          revenue,
			})
			sum.TotalParticipations += len(ps)
			sum.TotalRevenue = sum.TotalRevenue.Add(revenue)
		}
		sum.DistinctParticipants = len(distinct)
		return nil
	})
	if err != nil {
		return RevenueSummary{}, fmt.Errorf("rounds: revenue summary of auction %s: %w", auctionID, err)
	}
	return sum, nil
}
