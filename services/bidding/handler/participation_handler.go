package handler

import (
	"context"
	"net/http"

	"bidding-engine/internal/models"
	"bidding-engine/internal/participation"
	"bidding-engine/services/bidding/helpers"
	"bidding-engine/utils"

	"github.com/gin-gonic/gin"
)

type ParticipationServiceInterface interface {
	Join(ctx context.Context, req participation.JoinRequest) (models.Participation, error)
	CurrentRoundParticipants(ctx context.Context, auctionID string) (participation.RoundParticipants, error)
}

type ParticipationHandler struct {
	service ParticipationServiceInterface
}

func NewParticipationHandler(service ParticipationServiceInterface) *ParticipationHandler {
	return &ParticipationHandler{service: service}
}

// JoinRoundHandler handles POST /participations/
func (h *ParticipationHandler) JoinRoundHandler(c *gin.Context) {
	var req helpers.JoinRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "JoinRoundHandler", err)
		return
	}
	actor := helpers.ActorFrom(c)
	userID := actor.UserID
	if actor.Admin && req.UserID != "" {
		userID = req.UserID
	}

	p, err := h.service.Join(c.Request.Context(), participation.JoinRequest{
		RoundID: req.RoundID,
		UserID:  userID,
		Fee:     req.FeePaid,
	})
	if err != nil {
		helpers.RespondError(c, "JoinRoundHandler", "failed to join round", err, map[string]any{
			"round_id": req.RoundID,
			"user_id":  userID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, p, "participation recorded successfully")
	helpers.LogSuccess("JoinRoundHandler", "participation recorded successfully", map[string]any{
		"round_id": p.RoundID,
		"user_id":  p.UserID,
		"fee":      p.FeePaid.String(),
	})
}

// ParticipantsHandler handles GET /auctions/:id/participants/
func (h *ParticipationHandler) ParticipantsHandler(c *gin.Context) {
	auctionID := c.Param("id")
	res, err := h.service.CurrentRoundParticipants(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "ParticipantsHandler", "error retrieving participants", err, map[string]any{"auction_id": auctionID})
		return
	}
	if res.Participants == nil {
		res.Participants = []models.Participation{}
	}
	utils.JSONResponse(c, http.StatusOK, res, "participants retrieved successfully")
}
