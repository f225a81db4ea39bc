package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/models"
	"bidding-engine/internal/payments"
	"bidding-engine/internal/payments/mpesa"
	"bidding-engine/services/bidding/helpers"
	"bidding-engine/utils"

	"github.com/gin-gonic/gin"
)

type PaymentServiceInterface interface {
	Initiate(ctx context.Context, orderID, customerID, rawPhone string) (models.Payment, error)
	InitiateParticipation(ctx context.Context, auctionID, userID, rawPhone string) (models.Payment, error)
	Status(ctx context.Context, orderID, customerID string) (payments.OrderPaymentStatus, error)
	ParticipationStatus(ctx context.Context, auctionID, userID string) (payments.ParticipationPaymentStatus, error)
	ListForCustomer(ctx context.Context, customerID string) ([]models.Payment, error)
	OnCallback(ctx context.Context, res payments.CallbackResult) (models.Payment, error)
	CancelPayment(ctx context.Context, paymentID string) (models.Payment, error)
}

type PaymentHandler struct {
	service        PaymentServiceInterface
	callbackSecret string
}

// NewPaymentHandler creates the payment endpoints. An empty callbackSecret
// disables the callback token check.
func NewPaymentHandler(service PaymentServiceInterface, callbackSecret string) *PaymentHandler {
	return &PaymentHandler{service: service, callbackSecret: callbackSecret}
}

// InitiateOrderPaymentHandler handles POST /payments/mpesa/initiate-order/
func (h *PaymentHandler) InitiateOrderPaymentHandler(c *gin.Context) {
	var req helpers.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "InitiateOrderPaymentHandler", err)
		return
	}
	actor := helpers.ActorFrom(c)

	p, err := h.service.Initiate(c.Request.Context(), req.OrderID, actor.UserID, req.PhoneNumber)
	if err != nil {
		helpers.RespondError(c, "InitiateOrderPaymentHandler", "failed to initiate payment", err, map[string]any{
			"order_id":    req.OrderID,
			"customer_id": actor.UserID,
		})
		return
	}

	resp := helpers.InitiatePaymentResponse{
		PaymentID: p.ID,
		Message:   "STK Push sent. Check your phone to complete payment.",
	}
	if p.ProviderTransactionID != nil {
		resp.CheckoutRequestID = *p.ProviderTransactionID
	}
	utils.JSONResponse(c, http.StatusOK, resp, "payment initiated successfully")
	helpers.LogSuccess("InitiateOrderPaymentHandler", "payment initiated successfully", map[string]any{
		"order_id":   req.OrderID,
		"payment_id": p.ID,
	})
}

// InitiateParticipationPaymentHandler handles POST /payments/mpesa/initiate-participation/
func (h *PaymentHandler) InitiateParticipationPaymentHandler(c *gin.Context) {
	var req helpers.InitiateParticipationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "InitiateParticipationPaymentHandler", err)
		return
	}
	actor := helpers.ActorFrom(c)

	p, err := h.service.InitiateParticipation(c.Request.Context(), req.AuctionID, actor.UserID, req.PhoneNumber)
	if err != nil {
		helpers.RespondError(c, "InitiateParticipationPaymentHandler", "failed to initiate participation payment", err, map[string]any{
			"auction_id": req.AuctionID,
			"user_id":    actor.UserID,
		})
		return
	}

	resp := helpers.InitiatePaymentResponse{
		PaymentID: p.ID,
		Message:   "STK Push sent. Complete the payment to join the round.",
	}
	if p.ProviderTransactionID != nil {
		resp.CheckoutRequestID = *p.ProviderTransactionID
	}
	utils.JSONResponse(c, http.StatusOK, resp, "payment initiated successfully")
	helpers.LogSuccess("InitiateParticipationPaymentHandler", "participation payment initiated", map[string]any{
		"auction_id": req.AuctionID,
		"payment_id": p.ID,
	})
}

// ParticipationPaymentStatusHandler handles GET /payments/mpesa/participation-status/:auctionId/
func (h *PaymentHandler) ParticipationPaymentStatusHandler(c *gin.Context) {
	auctionID := c.Param("auctionId")
	st, err := h.service.ParticipationStatus(c.Request.Context(), auctionID, helpers.ActorFrom(c).UserID)
	if err != nil {
		helpers.RespondError(c, "ParticipationPaymentStatusHandler", "error retrieving participation status", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, st, st.Message)
}

// OrderPaymentStatusHandler handles GET /payments/mpesa/order-status/:orderId/
func (h *PaymentHandler) OrderPaymentStatusHandler(c *gin.Context) {
	orderID := c.Param("orderId")
	st, err := h.service.Status(c.Request.Context(), orderID, helpers.ActorFrom(c).UserID)
	if err != nil {
		helpers.RespondError(c, "OrderPaymentStatusHandler", "error retrieving payment status", err, map[string]any{"order_id": orderID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, st, st.Message)
}

// MyTransactionsHandler handles GET /payments/mpesa/my-transactions/
func (h *PaymentHandler) MyTransactionsHandler(c *gin.Context) {
	actor := helpers.ActorFrom(c)
	list, err := h.service.ListForCustomer(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondError(c, "MyTransactionsHandler", "error retrieving transactions", err, map[string]any{"customer_id": actor.UserID})
		return
	}
	if list == nil {
		list = []models.Payment{}
	}
	utils.JSONResponse(c, http.StatusOK, list, "transactions retrieved successfully")
}

// CallbackHandler handles POST /payments/mpesa/callback/. The provider only
// reads the ResultCode/ResultDesc acknowledgement; a non-2xx reply makes it
// retry.
func (h *PaymentHandler) CallbackHandler(c *gin.Context) {
	if h.callbackSecret != "" &&
		subtle.ConstantTimeCompare([]byte(c.Query("token")), []byte(h.callbackSecret)) != 1 {
		utils.Warn("CallbackHandler: rejected callback", map[string]any{
			"error":     biddingerrors.ErrBadCallbackSecret.Error(),
			"remote_ip": c.ClientIP(),
		})
		c.JSON(http.StatusForbidden, mpesa.Ack{ResultCode: 1, ResultDesc: "Rejected"})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
	if err != nil {
		c.JSON(http.StatusBadRequest, mpesa.Ack{ResultCode: 1, ResultDesc: "Invalid payload"})
		return
	}
	res, err := mpesa.ParseCallback(raw)
	if err != nil {
		utils.Warn("CallbackHandler: malformed callback", map[string]any{"error": err.Error()})
		c.JSON(http.StatusBadRequest, mpesa.Ack{ResultCode: 1, ResultDesc: "Invalid payload"})
		return
	}

	p, err := h.service.OnCallback(c.Request.Context(), res)
	switch {
	case err == nil:
		helpers.LogSuccess("CallbackHandler", "callback processed", map[string]any{
			"checkout_request_id": res.CheckoutRequestID,
			"result_code":         res.ResultCode,
			"payment_status":      string(p.Status),
		})
	case errors.Is(err, biddingerrors.ErrPaymentNotFound):
		// parked: applied when the checkout id is recorded, dropped after retention
		utils.Warn("CallbackHandler: callback parked for unknown checkout id", map[string]any{
			"checkout_request_id": res.CheckoutRequestID,
			"error":               err.Error(),
		})
	default:
		status, _ := helpers.MapErrorToHTTP(err)
		if status < http.StatusInternalServerError {
			status = http.StatusInternalServerError
		}
		utils.Error("CallbackHandler: callback not applied", map[string]any{
			"checkout_request_id": res.CheckoutRequestID,
			"error":               err.Error(),
		})
		c.JSON(status, mpesa.Ack{ResultCode: 1, ResultDesc: "Retry"})
		return
	}

	c.JSON(http.StatusOK, mpesa.Accepted)
}

// CancelPaymentHandler handles POST /admin/payments/:id/cancel/
func (h *PaymentHandler) CancelPaymentHandler(c *gin.Context) {
	paymentID := c.Param("id")
	p, err := h.service.CancelPayment(c.Request.Context(), paymentID)
	if err != nil {
		helpers.RespondError(c, "CancelPaymentHandler", "failed to cancel payment", err, map[string]any{"payment_id": paymentID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, p, "payment cancelled successfully")
	helpers.LogSuccess("CancelPaymentHandler", "payment cancelled successfully", map[string]any{"payment_id": paymentID})
}
