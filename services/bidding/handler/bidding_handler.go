package handler

import (
	"context"
	"net/http"

	bidding "bidding-engine/internal/biddingService"
	"bidding-engine/internal/models"
	"bidding-engine/services/bidding/helpers"
	"bidding-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BiddingServiceInterface interface {
	Submit(ctx context.Context, roundID, userID string, pledge decimal.Decimal) (models.Bid, error)
	RankedBids(ctx context.Context, auctionID string) (bidding.RoundRanking, error)
	Leaderboard(ctx context.Context, auctionID, viewerID string) (bidding.Leaderboard, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// PlaceBidHandler handles POST /bids/
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}
	actor := helpers.ActorFrom(c)

	bid, err := h.service.Submit(c.Request.Context(), req.RoundID, actor.UserID, req.PledgeAmount)
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", "failed to place bid", err, map[string]any{
			"round_id": req.RoundID,
			"user_id":  actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":   bid.ID,
		"round_id": bid.RoundID,
		"user_id":  bid.UserID,
		"amount":   bid.PledgeAmount.String(),
	})
}

// BidsListHandler handles GET /auctions/:id/bids_list/
func (h *BiddingHandler) BidsListHandler(c *gin.Context) {
	auctionID := c.Param("id")
	res, err := h.service.RankedBids(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "BidsListHandler", "error retrieving bids", err, map[string]any{"auction_id": auctionID})
		return
	}

	if res.Bids == nil {
		res.Bids = []models.RankedBid{}
	}

	utils.JSONResponse(c, http.StatusOK, res, "bids retrieved successfully")
	helpers.LogSuccess("BidsListHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      res.TotalCount,
	})
}

// LeaderboardHandler handles GET /auctions/:id/leaderboard/
func (h *BiddingHandler) LeaderboardHandler(c *gin.Context) {
	auctionID := c.Param("id")
	lb, err := h.service.Leaderboard(c.Request.Context(), auctionID, helpers.ActorFrom(c).UserID)
	if err != nil {
		helpers.RespondError(c, "LeaderboardHandler", "error building leaderboard", err, map[string]any{"auction_id": auctionID})
		return
	}

	if lb.TopBids == nil {
		lb.TopBids = []bidding.LeaderboardEntry{}
	}

	utils.JSONResponse(c, http.StatusOK, lb, "leaderboard retrieved successfully")
}
