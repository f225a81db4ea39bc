package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"bidding-engine/internal/models"
	"bidding-engine/internal/rounds"
	"bidding-engine/services/bidding/helpers"
	"bidding-engine/utils"

	"github.com/gin-gonic/gin"
)

type RoundManagerInterface interface {
	CreateAuction(ctx context.Context, a models.Auction) (models.Auction, error)
	GetAuction(ctx context.Context, auctionID string) (models.Auction, error)
	Activate(ctx context.Context, auctionID string) (models.Auction, *models.Round, error)
	DefaultParams(ctx context.Context, auctionID string) (rounds.RoundParams, error)
	Open(ctx context.Context, auctionID string, p rounds.RoundParams) (models.Round, error)
	Close(ctx context.Context, roundID, reason string) (rounds.CloseResult, error)
	ListRounds(ctx context.Context, auctionID string) ([]models.Round, error)
	RevenueSummary(ctx context.Context, auctionID string) (rounds.RevenueSummary, error)
}

type RoundHandler struct {
	service RoundManagerInterface
}

func NewRoundHandler(service RoundManagerInterface) *RoundHandler {
	return &RoundHandler{service: service}
}

// bindOptionalJSON binds the body when there is one.
func bindOptionalJSON(c *gin.Context, out any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// CreateAuctionHandler handles POST /auctions/
func (h *RoundHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	a, err := h.service.CreateAuction(c.Request.Context(), req.ToModel())
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", "failed to create auction", err, map[string]any{"title": req.Title})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, a, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{"auction_id": a.ID})
}

// GetAuctionHandler handles GET /auctions/:id/
func (h *RoundHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("id")
	a, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", "error retrieving auction", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, a, "auction retrieved successfully")
}

// ActivateAuctionHandler handles POST /auctions/:id/activate/
func (h *RoundHandler) ActivateAuctionHandler(c *gin.Context) {
	auctionID := c.Param("id")
	a, first, err := h.service.Activate(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "ActivateAuctionHandler", "failed to activate auction", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ActivateResponse{Auction: a, Round: first}, "auction activated successfully")
	helpers.LogSuccess("ActivateAuctionHandler", "auction activated successfully", map[string]any{"auction_id": auctionID})
}

// ListRoundsHandler handles GET /auctions/:id/rounds/
func (h *RoundHandler) ListRoundsHandler(c *gin.Context) {
	auctionID := c.Param("id")
	list, err := h.service.ListRounds(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "ListRoundsHandler", "error retrieving rounds", err, map[string]any{"auction_id": auctionID})
		return
	}
	if list == nil {
		list = []models.Round{}
	}
	utils.JSONResponse(c, http.StatusOK, list, "rounds retrieved successfully")
}

// RevenueSummaryHandler handles GET /auctions/:id/revenue_summary/
func (h *RoundHandler) RevenueSummaryHandler(c *gin.Context) {
	auctionID := c.Param("id")
	sum, err := h.service.RevenueSummary(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "RevenueSummaryHandler", "error building revenue summary", err, map[string]any{"auction_id": auctionID})
		return
	}
	if sum.Rounds == nil {
		sum.Rounds = []rounds.RoundRevenue{}
	}
	utils.JSONResponse(c, http.StatusOK, sum, "revenue summary retrieved successfully")
}

// CreateNextRoundHandler handles POST /auctions/:id/create_next_round/
func (h *RoundHandler) CreateNextRoundHandler(c *gin.Context) {
	auctionID := c.Param("id")
	var req helpers.NextRoundRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		helpers.HandleBindError(c, "CreateNextRoundHandler", err)
		return
	}

	ctx := c.Request.Context()
	params, err := h.service.DefaultParams(ctx, auctionID)
	if err != nil {
		helpers.RespondError(c, "CreateNextRoundHandler", "failed to load round terms", err, map[string]any{"auction_id": auctionID})
		return
	}

	rd, err := h.service.Open(ctx, auctionID, req.Apply(params))
	if err != nil {
		helpers.RespondError(c, "CreateNextRoundHandler", "failed to open round", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NextRoundResponse{
		RoundID:     rd.ID,
		RoundNumber: rd.RoundNumber,
		Round:       rd,
	}, "round opened successfully")
	helpers.LogSuccess("CreateNextRoundHandler", "round opened successfully", map[string]any{
		"auction_id":   auctionID,
		"round_id":     rd.ID,
		"round_number": rd.RoundNumber,
	})
}

// CloseRoundHandler handles POST /rounds/:id/close/
func (h *RoundHandler) CloseRoundHandler(c *gin.Context) {
	roundID := c.Param("id")
	var req helpers.CloseRoundRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		helpers.HandleBindError(c, "CloseRoundHandler", err)
		return
	}

	res, err := h.service.Close(c.Request.Context(), roundID, req.Reason)
	if err != nil {
		helpers.RespondError(c, "CloseRoundHandler", "failed to close round", err, map[string]any{"round_id": roundID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, res, "round closed")
	helpers.LogSuccess("CloseRoundHandler", "round closed", map[string]any{
		"round_id": roundID,
		"outcome":  string(res.Outcome),
	})
}
